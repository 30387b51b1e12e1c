// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionconfig

import (
	"context"
	"sync"
)

// Backend is durable string-keyed storage for configuration values.
// Values are opaque strings; [Store] stores JSON encodings in them.
type Backend interface {
	// Get returns the stored value for key. The boolean is false when
	// the key has never been written.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// Compile-time interface check.
var _ Backend = (*MemoryBackend)(nil)

// MemoryBackend keeps values in process memory. Safe for concurrent
// use.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (b *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	value, ok := b.values[key]
	return value, ok, nil
}

func (b *MemoryBackend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
	return nil
}
