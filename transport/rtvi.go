// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/bureau-foundation/voice-sandbox/lib/version"
)

// RTVI envelope label and protocol version spoken on the data channel.
const (
	rtviLabel   = "rtvi-ai"
	rtviVersion = "1.0.0"
)

// RTVI message types the client sends or understands.
const (
	rtviClientReady              = "client-ready"
	rtviBotReady                 = "bot-ready"
	rtviFunctionCallInProgress   = "llm-function-call-in-progress"
	rtviFunctionCallLegacyFormat = "llm-function-call"
)

// rtviMessage is the envelope of every RTVI message.
type rtviMessage struct {
	ID    string          `json:"id"`
	Label string          `json:"label"`
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// functionCallInProgress is the payload of llm-function-call-in-progress.
type functionCallInProgress struct {
	FunctionName string          `json:"function_name"`
	ToolCallID   string          `json:"tool_call_id"`
	Arguments    json.RawMessage `json:"arguments"`
}

// functionCallLegacy is the payload of llm-function-call, sent by older
// bots.
type functionCallLegacy struct {
	FunctionName string          `json:"function_name"`
	ToolCallID   string          `json:"tool_call_id"`
	Args         json.RawMessage `json:"args"`
}

// clientReadyMessage returns the message announcing this client.
func clientReadyMessage() ([]byte, error) {
	data, err := json.Marshal(map[string]any{
		"version": rtviVersion,
		"about": map[string]string{
			"library":         "voice-sandbox",
			"library_version": version.Version,
		},
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(rtviMessage{
		ID:    uuid.NewString(),
		Label: rtviLabel,
		Type:  rtviClientReady,
		Data:  data,
	})
}

// decodeRTVI converts one data channel message into an Event. The
// boolean is false for messages that carry nothing the sandbox tracks:
// non-RTVI payloads, unknown types, and undecodable envelopes.
//
// A function call whose payload does not decode is still reported, with
// an empty function name, so the consumer decides what a malformed call
// means.
func decodeRTVI(payload []byte) (Event, bool) {
	var message rtviMessage
	if err := json.Unmarshal(payload, &message); err != nil {
		return Event{}, false
	}
	if message.Label != rtviLabel {
		return Event{}, false
	}

	switch message.Type {
	case rtviBotReady:
		return Event{Kind: EventBotReady}, true

	case rtviFunctionCallInProgress:
		var data functionCallInProgress
		if err := json.Unmarshal(message.Data, &data); err != nil {
			return Event{Kind: EventToolCall}, true
		}
		return Event{Kind: EventToolCall, ToolCall: ToolCall{
			FunctionName: data.FunctionName,
			ToolCallID:   data.ToolCallID,
			Arguments:    data.Arguments,
		}}, true

	case rtviFunctionCallLegacyFormat:
		var data functionCallLegacy
		if err := json.Unmarshal(message.Data, &data); err != nil {
			return Event{Kind: EventToolCall}, true
		}
		return Event{Kind: EventToolCall, ToolCall: ToolCall{
			FunctionName: data.FunctionName,
			ToolCallID:   data.ToolCallID,
			Arguments:    data.Args,
		}}, true
	}
	return Event{}, false
}
