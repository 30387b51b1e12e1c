// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearAPIURLEnv keeps the caller's environment from leaking into
// LoadFile.
func clearAPIURLEnv(t *testing.T) {
	t.Helper()
	for _, name := range APIURLEnvVars {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "voice-sandbox.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.APIURL != "http://localhost:7860" {
		t.Errorf("expected api_url=http://localhost:7860, got %s", cfg.APIURL)
	}
	if cfg.Store.Backend != BackendFile || !strings.HasSuffix(cfg.Store.Path, filepath.Join("voice-sandbox", "config.json")) {
		t.Errorf("unexpected default store %+v", cfg.Store)
	}
	if len(cfg.ICEServers) != 1 || cfg.ICEServers[0].URLs[0] != DefaultSTUNServer {
		t.Errorf("unexpected default ICE servers %+v", cfg.ICEServers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_RequiresConfigEnv(t *testing.T) {
	t.Setenv(ConfigEnvVar, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when VOICE_SANDBOX_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "VOICE_SANDBOX_CONFIG environment variable not set") {
		t.Errorf("unexpected error message %q", err.Error())
	}
}

func TestLoad_WithConfigEnv(t *testing.T) {
	clearAPIURLEnv(t)
	configPath := writeConfig(t, `
environment: production
api_url: https://bots.example.com
`)
	t.Setenv(ConfigEnvVar, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Environment != Production {
		t.Errorf("expected environment=production, got %s", cfg.Environment)
	}
	if cfg.APIURL != "https://bots.example.com" {
		t.Errorf("expected api_url from file, got %s", cfg.APIURL)
	}
}

func TestLoadFile(t *testing.T) {
	clearAPIURLEnv(t)
	configPath := writeConfig(t, `
api_url: http://10.0.0.5:7860
connect_timeout: 15s
log_level: debug

ice_servers:
  - urls: ["stun:stun.example.com:3478"]
  - urls: ["turn:turn.example.com:3478"]
    username: sandbox
    credential: secret

store:
  backend: redis
  redis_address: redis.internal:6379
  redis_db: 2
  redis_prefix: "team-a:"

archive_dir: /var/lib/voice-sandbox/archives
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.APIURL != "http://10.0.0.5:7860" {
		t.Errorf("expected api_url=http://10.0.0.5:7860, got %s", cfg.APIURL)
	}
	timeout, err := cfg.ConnectTimeoutDuration()
	if err != nil || timeout != 15*time.Second {
		t.Errorf("ConnectTimeoutDuration() = %v, %v; want 15s", timeout, err)
	}
	level, err := cfg.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, %v; want DEBUG", level, err)
	}
	if len(cfg.ICEServers) != 2 || cfg.ICEServers[1].Username != "sandbox" {
		t.Errorf("unexpected ICE servers %+v", cfg.ICEServers)
	}
	if cfg.Store.Backend != BackendRedis || cfg.Store.RedisAddress != "redis.internal:6379" ||
		cfg.Store.RedisDB != 2 || cfg.Store.RedisPrefix != "team-a:" {
		t.Errorf("unexpected store %+v", cfg.Store)
	}
	if cfg.ArchiveDir != "/var/lib/voice-sandbox/archives" {
		t.Errorf("expected archive_dir from file, got %s", cfg.ArchiveDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFile_RejectsMalformedYAML(t *testing.T) {
	configPath := writeConfig(t, "api_url: [unterminated\n")
	if _, err := LoadFile(configPath); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	clearAPIURLEnv(t)
	configPath := writeConfig(t, `
environment: production
api_url: http://localhost:7860

store:
  backend: file
  path: /tmp/sandbox.json

development:
  api_url: http://dev.example.com

production:
  api_url: https://bots.example.com
  connect_timeout: 2m
  ice_servers:
    - urls: ["turn:turn.example.com:443?transport=tcp"]
      username: prod
      credential: secret
  store:
    backend: redis
    redis_address: redis.prod:6379
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.APIURL != "https://bots.example.com" {
		t.Errorf("expected production api_url, got %s", cfg.APIURL)
	}
	if cfg.ConnectTimeout != "2m" {
		t.Errorf("expected connect_timeout=2m, got %s", cfg.ConnectTimeout)
	}
	if len(cfg.ICEServers) != 1 || cfg.ICEServers[0].Username != "prod" {
		t.Errorf("expected production ICE servers, got %+v", cfg.ICEServers)
	}
	if cfg.Store.Backend != BackendRedis || cfg.Store.RedisAddress != "redis.prod:6379" {
		t.Errorf("expected production store, got %+v", cfg.Store)
	}
	// Fields the override leaves empty keep their base values.
	if cfg.Store.Path != "/tmp/sandbox.json" {
		t.Errorf("expected base store path, got %s", cfg.Store.Path)
	}
}

func TestAPIURLEnvironmentOverride(t *testing.T) {
	configPath := writeConfig(t, "api_url: http://from-file:7860\n")

	tests := []struct {
		name    string
		primary string
		legacy  string
		want    string
	}{
		{"neither set", "", "", "http://from-file:7860"},
		{"API_URL", "", "http://legacy:7860", "http://legacy:7860"},
		{"VOICE_SANDBOX_API_URL wins", "http://primary:7860", "http://legacy:7860", "http://primary:7860"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VOICE_SANDBOX_API_URL", tt.primary)
			t.Setenv("API_URL", tt.legacy)

			cfg, err := LoadFile(configPath)
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			if cfg.APIURL != tt.want {
				t.Errorf("api_url = %s, want %s", cfg.APIURL, tt.want)
			}
		})
	}
}

func TestVariableExpansion(t *testing.T) {
	clearAPIURLEnv(t)
	t.Setenv("SANDBOX_TEST_TURN_SECRET", "s3cret")
	t.Setenv("HOME", "/home/operator")
	configPath := writeConfig(t, `
api_url: http://${SANDBOX_TEST_BOT_HOST:-localhost}:7860
ice_servers:
  - urls: ["turn:turn.example.com:3478"]
    username: sandbox
    credential: ${SANDBOX_TEST_TURN_SECRET}
store:
  path: ${HOME}/sandbox/config.json
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.APIURL != "http://localhost:7860" {
		t.Errorf("api_url = %s", cfg.APIURL)
	}
	if cfg.ICEServers[0].Credential != "s3cret" {
		t.Errorf("credential = %q", cfg.ICEServers[0].Credential)
	}
	if cfg.Store.Path != "/home/operator/sandbox/config.json" {
		t.Errorf("store.path = %s", cfg.Store.Path)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/voice-sandbox",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/voice-sandbox",
		},
		{
			input:    "${SANDBOX_TEST_MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:   "memory backend needs no path",
			modify: func(c *Config) { c.Store = StoreConfig{Backend: BackendMemory} },
		},
		{
			name:   "zero timeout disables the bound",
			modify: func(c *Config) { c.ConnectTimeout = "0" },
		},
		{
			name:    "invalid environment",
			modify:  func(c *Config) { c.Environment = "staging" },
			wantErr: "invalid environment",
		},
		{
			name:    "api url without scheme",
			modify:  func(c *Config) { c.APIURL = "localhost:7860" },
			wantErr: "api_url",
		},
		{
			name:    "empty api url",
			modify:  func(c *Config) { c.APIURL = "" },
			wantErr: "api_url is required",
		},
		{
			name:    "bad timeout",
			modify:  func(c *Config) { c.ConnectTimeout = "soon" },
			wantErr: "connect_timeout",
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.ConnectTimeout = "-1s" },
			wantErr: "connect_timeout",
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: "log_level",
		},
		{
			name:    "ice server without urls",
			modify:  func(c *Config) { c.ICEServers = []ICEServerConfig{{Username: "x"}} },
			wantErr: "ice_servers[0].urls",
		},
		{
			name:    "unknown backend",
			modify:  func(c *Config) { c.Store.Backend = "sqlite" },
			wantErr: "store.backend",
		},
		{
			name:    "file backend without path",
			modify:  func(c *Config) { c.Store.Path = "" },
			wantErr: "store.path",
		},
		{
			name: "redis backend without address",
			modify: func(c *Config) {
				c.Store.Backend = BackendRedis
				c.Store.RedisAddress = ""
			},
			wantErr: "store.redis_address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want one mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Store.Path = filepath.Join(tmpDir, "state", "config.json")
	cfg.ArchiveDir = filepath.Join(tmpDir, "archives")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	for _, path := range []string{filepath.Dir(cfg.Store.Path), cfg.ArchiveDir} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("path %s not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("path %s is not a directory", path)
		}
	}
}
