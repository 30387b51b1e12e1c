// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
)

// ErrorKind classifies connect and disconnect failures so callers can
// decide what to do without parsing error text.
type ErrorKind string

const (
	// KindAlreadyActive means Connect was called while an attempt or
	// session was active. Not retried; disconnect first.
	KindAlreadyActive ErrorKind = "already_active"

	// KindConfigSubmissionFailed means the bot-launch endpoint was
	// unreachable or rejected the configuration.
	KindConfigSubmissionFailed ErrorKind = "config_submission_failed"

	// KindTransportNegotiationFailed means the peer connection could
	// not be established.
	KindTransportNegotiationFailed ErrorKind = "transport_negotiation_failed"

	// KindAborted means a Disconnect superseded the attempt before it
	// completed.
	KindAborted ErrorKind = "aborted"

	// KindDisconnectFailed means tearing down the transport reported an
	// error. The controller is disconnected regardless.
	KindDisconnectFailed ErrorKind = "disconnect_failed"
)

var (
	// ErrAlreadyActive is wrapped by KindAlreadyActive failures.
	ErrAlreadyActive = errors.New("a session is already active")

	// ErrSuperseded is wrapped by KindAborted failures.
	ErrSuperseded = errors.New("connect attempt superseded by disconnect")

	// ErrConnectTimeout is wrapped when the connect timeout expires.
	ErrConnectTimeout = errors.New("connect timed out")

	// ErrClosed is returned by Connect after Close.
	ErrClosed = errors.New("controller closed")
)

// ConnectError is returned by Controller.Connect.
type ConnectError struct {
	Kind ErrorKind
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect (%s): %v", e.Kind, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// DisconnectError is returned by Controller.Disconnect.
type DisconnectError struct {
	Kind ErrorKind
	Err  error
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf("disconnect (%s): %v", e.Kind, e.Err)
}

func (e *DisconnectError) Unwrap() error { return e.Err }

// IsKind reports whether err is a ConnectError or DisconnectError of
// the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var connectErr *ConnectError
	if errors.As(err, &connectErr) && connectErr.Kind == kind {
		return true
	}
	var disconnectErr *DisconnectError
	return errors.As(err, &disconnectErr) && disconnectErr.Kind == kind
}

// KindOf returns the kind of err, or "" if err is not a controller
// error.
func KindOf(err error) ErrorKind {
	var connectErr *ConnectError
	if errors.As(err, &connectErr) {
		return connectErr.Kind
	}
	var disconnectErr *DisconnectError
	if errors.As(err, &disconnectErr) {
		return disconnectErr.Kind
	}
	return ""
}
