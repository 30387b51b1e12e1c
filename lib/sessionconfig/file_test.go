// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionconfig

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileBackendMissingFileIsEmpty(t *testing.T) {
	backend, err := NewFileBackend(filepath.Join(t.TempDir(), "absent.json"), discardLogger())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	if _, ok, err := backend.Get(context.Background(), KeyMode); ok || err != nil {
		t.Errorf("Get on empty backend = present %v, err %v", ok, err)
	}
}

func TestFileBackendAcceptsCommentsAndTrailingCommas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	content := `{
  // switched for the realtime demo
  "sandbox_mode": "s2s",
  /* provider under evaluation */
  "sandbox_s2s_provider": "gemini_live",
}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	backend, err := NewFileBackend(path, discardLogger())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	store, err := Open(context.Background(), backend, discardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	snapshot := store.Snapshot()
	if snapshot.Mode != ModeSpeechToSpeech || snapshot.S2SProvider != "gemini_live" {
		t.Errorf("Snapshot() = %+v", snapshot)
	}
}

func TestFileBackendPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.json")

	backend, err := NewFileBackend(path, discardLogger())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	store, err := Open(ctx, backend, discardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.SetActivityPrompt(ctx, "Spell \"cat\".\nThen stop."); err != nil {
		t.Fatalf("SetActivityPrompt: %v", err)
	}
	if err := store.SetTTSProvider(ctx, "elevenlabs"); err != nil {
		t.Fatalf("SetTTSProvider: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"sandbox_tts_provider": "elevenlabs"`) {
		t.Errorf("file content not human-readable:\n%s", data)
	}

	reloaded, err := NewFileBackend(path, discardLogger())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	reopened, err := Open(ctx, reloaded, discardLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Snapshot() != store.Snapshot() {
		t.Errorf("reopened = %+v, want %+v", reopened.Snapshot(), store.Snapshot())
	}
}

func TestFileBackendRejectsInvalidJSONValue(t *testing.T) {
	backend, err := NewFileBackend(filepath.Join(t.TempDir(), "store.json"), discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := backend.Set(context.Background(), KeyMode, "s2s"); err == nil {
		t.Error("Set accepted a bare (non-JSON) value")
	}
	if _, ok, _ := backend.Get(context.Background(), KeyMode); ok {
		t.Error("rejected value was stored")
	}
}

func TestFileBackendMovesCorruptFileAside(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	corrupt := []byte(`["not", "an", "object"]`)
	if err := os.WriteFile(path, corrupt, 0o600); err != nil {
		t.Fatal(err)
	}
	backend, err := NewFileBackend(path, discardLogger())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	if _, ok, err := backend.Get(context.Background(), "sandbox_mode"); ok || err != nil {
		t.Errorf("Get on a recovered store = %v, %v", ok, err)
	}
	kept, err := os.ReadFile(path + ".corrupt")
	if err != nil || string(kept) != string(corrupt) {
		t.Errorf("corrupt file not preserved: %q, %v", kept, err)
	}

	store, err := Open(context.Background(), backend, discardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if store.Snapshot() != Default() {
		t.Errorf("Snapshot = %+v, want defaults", store.Snapshot())
	}
	if err := store.SetMode(context.Background(), ModeSpeechToSpeech); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	reloaded, err := NewFileBackend(path, discardLogger())
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	if value, ok, _ := reloaded.Get(context.Background(), FieldMode.Key()); !ok || value != `"s2s"` {
		t.Errorf("persisted mode = %q, %v", value, ok)
	}
}
