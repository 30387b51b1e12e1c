// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Field names one SessionConfig field. The value matches the field's
// JSON name in the bot-launch request.
type Field string

const (
	FieldSystemPrompt   Field = "system_prompt"
	FieldActivityPrompt Field = "activity_prompt"
	FieldMode           Field = "mode"
	FieldSTTProvider    Field = "stt_provider"
	FieldLLMProvider    Field = "llm_provider"
	FieldTTSProvider    Field = "tts_provider"
	FieldS2SProvider    Field = "s2s_provider"
)

// Persisted keys, one per field.
const (
	KeySystemPrompt   = "sandbox_system_prompt"
	KeyActivityPrompt = "sandbox_activity_prompt"
	KeyMode           = "sandbox_mode"
	KeySTTProvider    = "sandbox_stt_provider"
	KeyLLMProvider    = "sandbox_llm_provider"
	KeyTTSProvider    = "sandbox_tts_provider"
	KeyS2SProvider    = "sandbox_s2s_provider"
)

// Fields lists every field in display order.
func Fields() []Field {
	return []Field{
		FieldSystemPrompt,
		FieldActivityPrompt,
		FieldMode,
		FieldSTTProvider,
		FieldLLMProvider,
		FieldTTSProvider,
		FieldS2SProvider,
	}
}

// ParseField converts a field name (as accepted on the command line)
// into a Field.
func ParseField(name string) (Field, error) {
	for _, field := range Fields() {
		if string(field) == name {
			return field, nil
		}
	}
	return "", fmt.Errorf("unknown config field %q", name)
}

// Key returns the persisted key for the field.
func (f Field) Key() string {
	return "sandbox_" + string(f)
}

// pointer returns the address of the string backing field in config.
// Mode is stored as a Mode and handled separately by callers.
func (f Field) pointer(config *SessionConfig) *string {
	switch f {
	case FieldSystemPrompt:
		return &config.SystemPrompt
	case FieldActivityPrompt:
		return &config.ActivityPrompt
	case FieldSTTProvider:
		return &config.STTProvider
	case FieldLLMProvider:
		return &config.LLMProvider
	case FieldTTSProvider:
		return &config.TTSProvider
	case FieldS2SProvider:
		return &config.S2SProvider
	}
	return nil
}

// With returns a copy of c with field set from its string form. Mode
// values are validated. c itself is not modified.
func (c SessionConfig) With(field Field, value string) (SessionConfig, error) {
	if field == FieldMode {
		mode, err := ParseMode(value)
		if err != nil {
			return c, err
		}
		c.Mode = mode
		return c, nil
	}
	target := field.pointer(&c)
	if target == nil {
		return c, fmt.Errorf("unknown config field %q", field)
	}
	*target = value
	return c, nil
}

// Store holds the live SessionConfig and writes every change through to
// a Backend. Safe for concurrent use.
type Store struct {
	backend Backend
	logger  *slog.Logger

	// mu is held across the backend write in setters so persisted
	// values land in the same order as in-memory updates.
	mu      sync.Mutex
	current SessionConfig
}

// Open creates a Store and loads every field from backend. Fields that
// were never written or whose stored value does not decode fall back to
// [Default]; undecodable values are logged. A backend read error is
// returned.
func Open(ctx context.Context, backend Backend, logger *slog.Logger) (*Store, error) {
	store := &Store{
		backend: backend,
		logger:  logger,
		current: Default(),
	}

	for _, field := range Fields() {
		raw, ok, err := backend.Get(ctx, field.Key())
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", field.Key(), err)
		}
		if !ok {
			continue
		}

		var value string
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			logger.Warn("ignoring unparsable persisted config value",
				"key", field.Key(),
				"error", err,
			)
			continue
		}

		if field == FieldMode {
			mode, err := ParseMode(value)
			if err != nil {
				logger.Warn("ignoring invalid persisted mode",
					"key", field.Key(),
					"error", err,
				)
				continue
			}
			store.current.Mode = mode
			continue
		}
		*field.pointer(&store.current) = value
	}

	return store, nil
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() SessionConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Get returns the current value of field as a string.
func (s *Store) Get(field Field) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if field == FieldMode {
		return string(s.current.Mode)
	}
	if pointer := field.pointer(&s.current); pointer != nil {
		return *pointer
	}
	return ""
}

// Set updates field from its string form. Mode values are validated.
func (s *Store) Set(ctx context.Context, field Field, value string) error {
	if field == FieldMode {
		mode, err := ParseMode(value)
		if err != nil {
			return err
		}
		return s.SetMode(ctx, mode)
	}
	if field.pointer(&SessionConfig{}) == nil {
		return fmt.Errorf("unknown config field %q", field)
	}
	return s.setString(ctx, field, value)
}

func (s *Store) SetSystemPrompt(ctx context.Context, value string) error {
	return s.setString(ctx, FieldSystemPrompt, value)
}

func (s *Store) SetActivityPrompt(ctx context.Context, value string) error {
	return s.setString(ctx, FieldActivityPrompt, value)
}

func (s *Store) SetSTTProvider(ctx context.Context, value string) error {
	return s.setString(ctx, FieldSTTProvider, value)
}

func (s *Store) SetLLMProvider(ctx context.Context, value string) error {
	return s.setString(ctx, FieldLLMProvider, value)
}

func (s *Store) SetTTSProvider(ctx context.Context, value string) error {
	return s.setString(ctx, FieldTTSProvider, value)
}

func (s *Store) SetS2SProvider(ctx context.Context, value string) error {
	return s.setString(ctx, FieldS2SProvider, value)
}

// SetMode updates the pipeline mode. Unknown modes are rejected without
// changing the store.
func (s *Store) SetMode(ctx context.Context, mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown mode %q", mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Mode = mode
	return s.persistLocked(ctx, FieldMode, string(mode))
}

func (s *Store) setString(ctx context.Context, field Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	*field.pointer(&s.current) = value
	return s.persistLocked(ctx, field, value)
}

// persistLocked writes value to the backend. The in-memory value has
// already changed; a write failure is logged and returned so the caller
// can report that the edit will not survive a restart. Caller holds
// s.mu.
func (s *Store) persistLocked(ctx context.Context, field Field, value string) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", field, err)
	}
	if err := s.backend.Set(ctx, field.Key(), string(encoded)); err != nil {
		s.logger.Warn("persisting config value failed",
			"key", field.Key(),
			"error", err,
		)
		return fmt.Errorf("persisting %s: %w", field.Key(), err)
	}
	return nil
}
