// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

// State is the transport state of a Controller.
type State string

const (
	// StateDisconnected is the initial state and the state after a
	// disconnect or a remote hang-up.
	StateDisconnected State = "disconnected"

	// StateConnecting means the configuration is being submitted to
	// the bot-launch endpoint.
	StateConnecting State = "connecting"

	// StateAuthenticating means the bot accepted the configuration and
	// the transport is negotiating the peer connection.
	StateAuthenticating State = "authenticating"

	// StateConnected means the peer connection is up and the bot has
	// not yet reported ready.
	StateConnected State = "connected"

	// StateReady means the bot is ready and the conversation is live.
	StateReady State = "ready"

	// StateError means the last attempt or session failed. Status.Err
	// holds the cause.
	StateError State = "error"
)

// Idle reports whether a Connect is permitted in state s.
func (s State) Idle() bool {
	return s == StateDisconnected || s == StateError
}

func (s State) String() string { return string(s) }

// Status is a snapshot of a Controller's state.
type Status struct {
	State State

	// Err is the failure cause when State is StateError.
	Err error

	// Generation identifies the connect attempt the state belongs to.
	// It increases with every Connect and every Disconnect that
	// supersedes an attempt or session.
	Generation uint64
}
