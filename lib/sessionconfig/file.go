// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tidwall/jsonc"
)

// Compile-time interface check.
var _ Backend = (*FileBackend)(nil)

// FileBackend persists values as one JSON object on disk, mapping each
// key to its JSON value:
//
//	{
//	  // edited by hand
//	  "sandbox_mode": "s2s",
//	  "sandbox_llm_provider": "openai",
//	}
//
// Comments and trailing commas are accepted when reading, so operators
// can annotate the file. Writes replace the file atomically and drop
// any comments. Values passed to Set must be valid JSON, which is what
// [Store] writes.
type FileBackend struct {
	path string

	mu     sync.Mutex
	values map[string]json.RawMessage
}

// NewFileBackend loads path into memory. A missing file is treated as
// empty and created on the first Set. A file that does not parse as a
// JSON object is moved aside to path+".corrupt" and the backend starts
// empty, so every field falls back to its default.
func NewFileBackend(path string, logger *slog.Logger) (*FileBackend, error) {
	backend := &FileBackend{
		path:   path,
		values: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return backend, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config store %s: %w", path, err)
	}
	if len(data) == 0 {
		return backend, nil
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &backend.values); err != nil {
		backend.values = make(map[string]json.RawMessage)
		aside := path + ".corrupt"
		if renameErr := os.Rename(path, aside); renameErr != nil {
			return nil, fmt.Errorf("parsing config store %s: %w (moving it aside: %v)", path, err, renameErr)
		}
		logger.Warn("config store unreadable, starting from defaults",
			"path", path,
			"moved_to", aside,
			"error", err,
		)
	}
	return backend, nil
}

// Path returns the file the backend reads and writes.
func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	value, ok := b.values[key]
	if !ok {
		return "", false, nil
	}
	return string(value), true, nil
}

func (b *FileBackend) Set(_ context.Context, key, value string) error {
	if !json.Valid([]byte(value)) {
		return fmt.Errorf("value for %s is not valid JSON", key)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	previous, existed := b.values[key]
	b.values[key] = json.RawMessage(value)
	if err := b.writeLocked(); err != nil {
		if existed {
			b.values[key] = previous
		} else {
			delete(b.values, key)
		}
		return err
	}
	return nil
}

// writeLocked serializes the values with sorted keys and renames a
// temporary file over the store. Caller holds b.mu.
func (b *FileBackend) writeLocked() error {
	keys := make([]string, 0, len(b.values))
	for key := range b.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	ordered := make([]byte, 0, 256)
	ordered = append(ordered, "{\n"...)
	for index, key := range keys {
		encodedKey, _ := json.Marshal(key)
		ordered = append(ordered, "  "...)
		ordered = append(ordered, encodedKey...)
		ordered = append(ordered, ": "...)
		ordered = append(ordered, b.values[key]...)
		if index < len(keys)-1 {
			ordered = append(ordered, ',')
		}
		ordered = append(ordered, '\n')
	}
	ordered = append(ordered, "}\n"...)

	directory := filepath.Dir(b.path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("creating config store directory: %w", err)
	}

	temporary, err := os.CreateTemp(directory, ".config-store-*")
	if err != nil {
		return fmt.Errorf("creating temporary config store: %w", err)
	}
	temporaryPath := temporary.Name()
	defer os.Remove(temporaryPath)

	if _, err := temporary.Write(ordered); err != nil {
		temporary.Close()
		return fmt.Errorf("writing config store: %w", err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("closing config store: %w", err)
	}
	if err := os.Rename(temporaryPath, b.path); err != nil {
		return fmt.Errorf("replacing config store %s: %w", b.path, err)
	}
	return nil
}
