// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"encoding/json"
	"fmt"
)

// RequestParams says where to send the WebRTC offer for one launched
// bot. It is produced by the bot-launch step.
type RequestParams struct {
	// Endpoint is the absolute signaling URL.
	Endpoint string

	// Headers are added to the signaling request.
	Headers map[string]string
}

// Dialer establishes transport sessions.
type Dialer interface {
	// Dial connects to the bot described by params and returns once the
	// peer connection is established. Cancelling ctx aborts the
	// negotiation and releases everything allocated for it.
	Dial(ctx context.Context, params RequestParams) (Session, error)
}

// Session is one established connection to a bot.
type Session interface {
	// Events delivers events in arrival order. The channel is never
	// closed; select on Done to observe the end of the session.
	Events() <-chan Event

	// Done is closed once Close has been called.
	Done() <-chan struct{}

	// Close tears the session down. Safe to call more than once; only
	// the first call reports an error.
	Close() error
}

// EventKind identifies an Event.
type EventKind int

const (
	// EventBotReady means the bot finished its setup and the
	// conversation can start.
	EventBotReady EventKind = iota + 1

	// EventToolCall means the agent reported a function call. ToolCall
	// is set.
	EventToolCall

	// EventClosed means the remote side ended the session.
	EventClosed

	// EventFailed means the transport failed. Err is set.
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventBotReady:
		return "bot-ready"
	case EventToolCall:
		return "tool-call"
	case EventClosed:
		return "closed"
	case EventFailed:
		return "failed"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is something the session observed.
type Event struct {
	Kind     EventKind
	ToolCall ToolCall
	Err      error
}

// ToolCall is a function call reported by the agent. FunctionName is
// empty when the message did not name a function; such messages are
// not tool calls. Arguments holds the raw JSON arguments, which may be
// absent, null, or malformed.
type ToolCall struct {
	FunctionName string
	ToolCallID   string
	Arguments    json.RawMessage
}
