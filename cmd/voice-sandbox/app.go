// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"golang.org/x/term"

	"github.com/bureau-foundation/voice-sandbox/lib/config"
	"github.com/bureau-foundation/voice-sandbox/lib/sessionconfig"
	"github.com/bureau-foundation/voice-sandbox/transport"
)

// app carries what every command needs: the loaded configuration and a
// logger.
type app struct {
	config *config.Config
	logger *slog.Logger

	// dialer replaces the WebRTC dialer when set.
	dialer transport.Dialer
}

func newApp(options globalOptions, stderr io.Writer) (*app, error) {
	cfg, err := loadConfig(options.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if options.apiURL != "" {
		cfg.APIURL = options.apiURL
	}
	if options.logLevel != "" {
		cfg.LogLevel = options.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	return &app{
		config: cfg,
		logger: newLogger(stderr, level),
	}, nil
}

// loadConfig loads the file named by path, else the file named by
// VOICE_SANDBOX_CONFIG, else the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv(config.ConfigEnvVar) != "" {
		return config.Load()
	}
	cfg := config.Default()
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// newLogger writes human-readable text when w is a terminal and JSON
// otherwise.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}

// openStore opens the session configuration store on the configured
// backend. The returned function releases the backend.
func (a *app) openStore(ctx context.Context) (*sessionconfig.Store, func() error, error) {
	var backend sessionconfig.Backend
	release := func() error { return nil }

	storeConfig := a.config.Store
	switch storeConfig.Backend {
	case config.BackendMemory:
		backend = sessionconfig.NewMemoryBackend()

	case config.BackendFile:
		if err := a.config.EnsurePaths(); err != nil {
			return nil, nil, err
		}
		fileBackend, err := sessionconfig.NewFileBackend(storeConfig.Path, a.logger)
		if err != nil {
			return nil, nil, err
		}
		backend = fileBackend

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     storeConfig.RedisAddress,
			Password: storeConfig.RedisPassword,
			DB:       storeConfig.RedisDB,
		})
		backend = sessionconfig.NewRedisBackend(client, storeConfig.RedisPrefix)
		release = client.Close

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", storeConfig.Backend)
	}

	store, err := sessionconfig.Open(ctx, backend, a.logger)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("opening %s config store: %w", storeConfig.Backend, err)
	}
	a.logger.Debug("config store open", "backend", storeConfig.Backend)
	return store, release, nil
}

// iceConfig converts the configured ICE servers.
func (a *app) iceConfig() (transport.ICEConfig, error) {
	servers := make([]transport.ICEServer, 0, len(a.config.ICEServers))
	for _, server := range a.config.ICEServers {
		servers = append(servers, transport.ICEServer{
			URLs:       server.URLs,
			Username:   server.Username,
			Credential: server.Credential,
		})
	}
	return transport.ICEConfigFromServers(servers)
}
