// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package toolcall

import (
	"bytes"
	"encoding/json"
	"maps"
)

// Entry is one recorded tool invocation.
type Entry struct {
	// ID is unique per entry (UUIDv7) and stable for the entry's
	// lifetime.
	ID string `json:"id"`

	// Name is the function name as reported by the agent.
	Name string `json:"name"`

	// Args holds the invocation arguments. Never nil.
	Args map[string]any `json:"args"`

	// ToolCallID is the agent's own identifier for the call, when it
	// reported one.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Timestamp is the time the entry was recorded, RFC 3339 UTC with
	// nanoseconds.
	Timestamp string `json:"timestamp"`
}

// Call is a tool invocation as delivered by the transport, before it
// is recorded.
type Call struct {
	Name       string
	ToolCallID string
	Args       map[string]any
}

// ArgsFromJSON decodes raw as a JSON object. Missing, null, or
// malformed input, and JSON values that are not objects, all yield an
// empty map.
func ArgsFromJSON(raw []byte) map[string]any {
	args := make(map[string]any)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return args
	}
	var decoded map[string]any
	if err := json.Unmarshal(trimmed, &decoded); err != nil || decoded == nil {
		return args
	}
	return decoded
}

// clone returns a copy of e whose top-level Args map is not shared.
func (e Entry) clone() Entry {
	e.Args = maps.Clone(e.Args)
	if e.Args == nil {
		e.Args = make(map[string]any)
	}
	return e
}
