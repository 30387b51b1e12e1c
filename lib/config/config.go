// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigEnvVar names the environment variable Load reads the config
// file path from.
const ConfigEnvVar = "VOICE_SANDBOX_CONFIG"

// DefaultSTUNServer is the ICE server of the default configuration.
const DefaultSTUNServer = "stun:stun.l.google.com:19302"

// APIURLEnvVars override Config.APIURL, first match wins.
var APIURLEnvVars = []string{"VOICE_SANDBOX_API_URL", "API_URL"}

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for a bot running on the operator's machine.
	Development Environment = "development"
	// Production is for a shared, remotely hosted bot.
	Production Environment = "production"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config is the voice sandbox configuration.
type Config struct {
	// Environment selects which override section applies.
	Environment Environment `yaml:"environment"`

	// APIURL is the base URL of the bot-launch server.
	APIURL string `yaml:"api_url"`

	// ConnectTimeout bounds a connect attempt, as a Go duration
	// string. "0" disables the bound.
	ConnectTimeout string `yaml:"connect_timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// ICEServers lists the STUN/TURN servers. An empty list means host
	// candidates only.
	ICEServers []ICEServerConfig `yaml:"ice_servers"`

	// Store configures where the session configuration persists.
	Store StoreConfig `yaml:"store"`

	// ArchiveDir is where recorded sessions are written. Empty
	// disables archiving.
	ArchiveDir string `yaml:"archive_dir"`

	// Per-environment overrides, applied after the base config.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	APIURL         string            `yaml:"api_url,omitempty"`
	ConnectTimeout string            `yaml:"connect_timeout,omitempty"`
	LogLevel       string            `yaml:"log_level,omitempty"`
	ICEServers     []ICEServerConfig `yaml:"ice_servers,omitempty"`
	Store          *StoreConfig      `yaml:"store,omitempty"`
}

// ICEServerConfig is one STUN or TURN server.
type ICEServerConfig struct {
	URLs       []string `yaml:"urls"`
	Username   string   `yaml:"username,omitempty"`
	Credential string   `yaml:"credential,omitempty"`
}

// StoreConfig selects the session configuration backend.
type StoreConfig struct {
	// Backend is memory, file, or redis.
	Backend string `yaml:"backend"`

	// Path is the JSON file used by the file backend.
	Path string `yaml:"path"`

	// RedisAddress is host:port of the redis backend.
	RedisAddress string `yaml:"redis_address"`

	// RedisPassword authenticates to redis. Use ${VAR} expansion to
	// keep it out of the file.
	RedisPassword string `yaml:"redis_password"`

	// RedisDB selects the redis database.
	RedisDB int `yaml:"redis_db"`

	// RedisPrefix namespaces the keys.
	RedisPrefix string `yaml:"redis_prefix"`
}

// Default returns the configuration used when no file is given, and
// the base every file is merged into.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	stateDir := filepath.Join(homeDir, ".cache", "voice-sandbox")

	return &Config{
		Environment:    Development,
		APIURL:         "http://localhost:7860",
		ConnectTimeout: "60s",
		LogLevel:       "info",
		ICEServers: []ICEServerConfig{
			{URLs: []string{DefaultSTUNServer}},
		},
		Store: StoreConfig{
			Backend:      BackendFile,
			Path:         filepath.Join(stateDir, "config.json"),
			RedisAddress: "localhost:6379",
			RedisPrefix:  "voice-sandbox:",
		},
	}
}

// Load loads configuration from the file named by VOICE_SANDBOX_CONFIG.
// Fails if the variable is not set; there is no file discovery.
func Load() (*Config, error) {
	configPath := os.Getenv(ConfigEnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your voice-sandbox.yaml config file, or use --config flag", ConfigEnvVar)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, then applies
// the environment section, variable expansion, and the API URL
// environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	cfg.ApplyEnv(os.LookupEnv)

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides APIURL from the first of APIURLEnvVars that is set
// and non-empty. Called by LoadFile; callers using Default directly
// call it themselves.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for _, name := range APIURLEnvVars {
		if value, ok := lookup(name); ok && value != "" {
			c.APIURL = value
			return
		}
	}
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.APIURL != "" {
		c.APIURL = overrides.APIURL
	}
	if overrides.ConnectTimeout != "" {
		c.ConnectTimeout = overrides.ConnectTimeout
	}
	if overrides.LogLevel != "" {
		c.LogLevel = overrides.LogLevel
	}
	if overrides.ICEServers != nil {
		c.ICEServers = overrides.ICEServers
	}

	if overrides.Store != nil {
		if overrides.Store.Backend != "" {
			c.Store.Backend = overrides.Store.Backend
		}
		if overrides.Store.Path != "" {
			c.Store.Path = overrides.Store.Path
		}
		if overrides.Store.RedisAddress != "" {
			c.Store.RedisAddress = overrides.Store.RedisAddress
		}
		if overrides.Store.RedisPassword != "" {
			c.Store.RedisPassword = overrides.Store.RedisPassword
		}
		if overrides.Store.RedisDB != 0 {
			c.Store.RedisDB = overrides.Store.RedisDB
		}
		if overrides.Store.RedisPrefix != "" {
			c.Store.RedisPrefix = overrides.Store.RedisPrefix
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// string fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.APIURL = expandVars(c.APIURL, vars)
	c.Store.Path = expandVars(c.Store.Path, vars)
	c.Store.RedisAddress = expandVars(c.Store.RedisAddress, vars)
	c.Store.RedisPassword = expandVars(c.Store.RedisPassword, vars)
	c.ArchiveDir = expandVars(c.ArchiveDir, vars)
	for index := range c.ICEServers {
		c.ICEServers[index].Username = expandVars(c.ICEServers[index].Username, vars)
		c.ICEServers[index].Credential = expandVars(c.ICEServers[index].Credential, vars)
	}
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// ConnectTimeoutDuration parses ConnectTimeout.
func (c *Config) ConnectTimeoutDuration() (time.Duration, error) {
	if c.ConnectTimeout == "" {
		return 0, nil
	}
	duration, err := time.ParseDuration(c.ConnectTimeout)
	if err != nil {
		return 0, fmt.Errorf("connect_timeout: %w", err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("connect_timeout must not be negative, got %s", c.ConnectTimeout)
	}
	return duration, nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.APIURL == "" {
		errs = append(errs, errors.New("api_url is required"))
	} else if parsed, err := url.Parse(c.APIURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("api_url must be an http or https URL, got %q", c.APIURL))
	}

	if _, err := c.ConnectTimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	for index, server := range c.ICEServers {
		if len(server.URLs) == 0 {
			errs = append(errs, fmt.Errorf("ice_servers[%d].urls is required", index))
		}
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the file backend"))
		}
	case BackendRedis:
		if c.Store.RedisAddress == "" {
			errs = append(errs, errors.New("store.redis_address is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be one of: %s",
			strings.Join([]string{BackendMemory, BackendFile, BackendRedis}, ", ")))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the directories of configured file locations.
func (c *Config) EnsurePaths() error {
	var paths []string
	if c.Store.Backend == BackendFile && c.Store.Path != "" {
		paths = append(paths, filepath.Dir(c.Store.Path))
	}
	if c.ArchiveDir != "" {
		paths = append(paths, c.ArchiveDir)
	}

	for _, path := range paths {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
