// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bureau-foundation/voice-sandbox/lib/netutil"
	"github.com/bureau-foundation/voice-sandbox/lib/version"
)

// Signaler exchanges a complete SDP offer for the bot's SDP answer.
//
// The signaling model is vanilla ICE: all ICE candidates are gathered
// before the offer is sent, so the exchange is a single round-trip and
// no trickle (PATCH) requests are needed.
type Signaler interface {
	Exchange(ctx context.Context, params RequestParams, offer SessionDescription) (SessionDescription, error)
}

// SessionDescription is an SDP offer or answer as carried in the
// signaling request and response bodies.
type SessionDescription struct {
	SDP  string `json:"sdp"`
	Type string `json:"type"`

	// PeerConnectionID is assigned by the bot in its answer. The
	// client sends it back only when renegotiating, which the sandbox
	// never does.
	PeerConnectionID string `json:"pc_id,omitempty"`
}

// offerRequest is the body POSTed to the signaling endpoint.
type offerRequest struct {
	SDP       string `json:"sdp"`
	Type      string `json:"type"`
	RestartPC bool   `json:"restart_pc"`
}

// SignalerFunc adapts a function to the Signaler interface.
type SignalerFunc func(ctx context.Context, params RequestParams, offer SessionDescription) (SessionDescription, error)

func (f SignalerFunc) Exchange(ctx context.Context, params RequestParams, offer SessionDescription) (SessionDescription, error) {
	return f(ctx, params, offer)
}

// Compile-time interface check.
var _ Signaler = (*HTTPSignaler)(nil)

// HTTPSignaler POSTs the offer as JSON to params.Endpoint and reads the
// answer from the response.
type HTTPSignaler struct {
	client *http.Client
}

// NewHTTPSignaler returns a signaler using client (http.DefaultClient
// when nil).
func NewHTTPSignaler(client *http.Client) *HTTPSignaler {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSignaler{client: client}
}

func (s *HTTPSignaler) Exchange(ctx context.Context, params RequestParams, offer SessionDescription) (SessionDescription, error) {
	header := http.Header{"User-Agent": {version.UserAgent()}}
	for name, value := range params.Headers {
		header.Set(name, value)
	}

	var answer SessionDescription
	request := offerRequest{SDP: offer.SDP, Type: offer.Type}
	if err := netutil.PostJSON(ctx, s.client, params.Endpoint, header, request, &answer); err != nil {
		return SessionDescription{}, fmt.Errorf("sending SDP offer: %w", err)
	}
	if answer.Type != "answer" {
		return SessionDescription{}, fmt.Errorf("signaling response has type %q, want \"answer\"", answer.Type)
	}
	if answer.SDP == "" {
		return SessionDescription{}, fmt.Errorf("signaling response has no SDP")
	}
	return answer, nil
}
