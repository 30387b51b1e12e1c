// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package toolcall

import (
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/voice-sandbox/lib/clock"
)

// ChangeKind identifies what happened to the log.
type ChangeKind int

const (
	// ChangeAppended means Entry was added at the end of the log.
	ChangeAppended ChangeKind = iota + 1

	// ChangeCleared means the log was emptied.
	ChangeCleared
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAppended:
		return "appended"
	case ChangeCleared:
		return "cleared"
	}
	return "unknown"
}

// Change describes one mutation of the log. Entry is set for
// ChangeAppended.
type Change struct {
	Kind  ChangeKind
	Entry Entry
}

// Recorder is an ordered, clearable log of tool invocations. Safe for
// concurrent use; every mutation is a single critical section, so
// concurrent appends are recorded in the order they acquire the lock.
type Recorder struct {
	clock clock.Clock

	// notifyMu serializes mutation+notification pairs so observers see
	// changes in log order. It is acquired before mu and held while
	// observers run; mu is released first so observers may call List.
	notifyMu  sync.Mutex
	mu        sync.Mutex
	entries   []Entry
	observers []func(Change)
}

// NewRecorder returns an empty Recorder that stamps entries with c.
func NewRecorder(c clock.Clock) *Recorder {
	return &Recorder{clock: c}
}

// Append records a call to name with args and returns the entry. A nil
// args map is recorded as empty. The map is copied; later changes by
// the caller do not affect the entry.
func (r *Recorder) Append(name string, args map[string]any) Entry {
	return r.AppendCall(Call{Name: name, Args: args})
}

// AppendCall records call and returns the entry.
func (r *Recorder) AppendCall(call Call) Entry {
	args := maps.Clone(call.Args)
	if args == nil {
		args = make(map[string]any)
	}

	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	entry := Entry{
		ID:         newID(),
		Name:       call.Name,
		Args:       args,
		ToolCallID: call.ToolCallID,
		Timestamp:  r.clock.Now().UTC().Format(time.RFC3339Nano),
	}
	r.entries = append(r.entries, entry)
	observers := r.observers
	r.mu.Unlock()

	notify(observers, Change{Kind: ChangeAppended, Entry: entry.clone()})
	return entry.clone()
}

// Clear empties the log. List returns an empty slice as soon as Clear
// returns.
func (r *Recorder) Clear() {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	r.entries = nil
	observers := r.observers
	r.mu.Unlock()

	notify(observers, Change{Kind: ChangeCleared})
}

// List returns a copy of the log in insertion order. Never nil.
func (r *Recorder) List() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]Entry, len(r.entries))
	for index, entry := range r.entries {
		entries[index] = entry.clone()
	}
	return entries
}

// Len returns the number of recorded entries.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Subscribe registers fn to be called after every append and clear.
// Calls are made synchronously, in mutation order, from the goroutine
// that mutated the log, with only the recorder's sequencing lock held.
// fn may call List and Len but must not call Append, AppendCall,
// Clear, or Subscribe. fn also runs under whatever locks the mutating
// caller holds; session.Controller mutates the recorder outside its
// own lock, so fn may read Controller.Status.
func (r *Recorder) Subscribe(fn func(Change)) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	// Copy-on-write: mutators iterate a snapshot of the slice header.
	observers := make([]func(Change), len(r.observers), len(r.observers)+1)
	copy(observers, r.observers)
	r.observers = append(observers, fn)
}

func notify(observers []func(Change), change Change) {
	for _, observer := range observers {
		observer(change)
	}
}

// newID returns a UUIDv7: a millisecond timestamp prefix followed by
// random bits.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
