// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryDialer is a Dialer whose outcomes are decided by the caller.
// Every Dial call is delivered on Requests and blocks until the request
// is accepted or rejected. Intended for tests of code that drives a
// Dialer.
type MemoryDialer struct {
	requests chan *DialRequest

	// IgnoreCancellation makes Dial wait for a reply even after its
	// context is cancelled, modelling a negotiation that completes
	// after the caller has given up on it.
	IgnoreCancellation bool
}

var _ Dialer = (*MemoryDialer)(nil)

// NewMemoryDialer creates a MemoryDialer.
func NewMemoryDialer() *MemoryDialer {
	return &MemoryDialer{requests: make(chan *DialRequest, 16)}
}

// Requests delivers pending Dial calls in call order.
func (d *MemoryDialer) Requests() <-chan *DialRequest {
	return d.requests
}

// Dial publishes a DialRequest and waits for its reply.
func (d *MemoryDialer) Dial(ctx context.Context, params RequestParams) (Session, error) {
	request := &DialRequest{
		Context: ctx,
		Params:  params,
		reply:   make(chan dialReply, 1),
	}
	select {
	case d.requests <- request:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if d.IgnoreCancellation {
		reply := <-request.reply
		return reply.session, reply.err
	}
	select {
	case reply := <-request.reply:
		return reply.session, reply.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DialRequest is one pending MemoryDialer.Dial call.
type DialRequest struct {
	// Context is the context Dial was called with.
	Context context.Context

	// Params is what Dial was asked to connect to.
	Params RequestParams

	reply chan dialReply
}

type dialReply struct {
	session Session
	err     error
}

// Accept completes the Dial call with a new MemorySession and returns
// it.
func (r *DialRequest) Accept() *MemorySession {
	session := NewMemorySession()
	r.reply <- dialReply{session: session}
	return session
}

// Reject completes the Dial call with err.
func (r *DialRequest) Reject(err error) {
	r.reply <- dialReply{err: err}
}

// MemorySession is a Session fed by the caller through Emit.
type MemorySession struct {
	events chan Event

	closed     chan struct{}
	closeOnce  sync.Once
	closeCalls atomic.Int32

	// CloseErr is returned by the first Close call. Set it before the
	// session is closed.
	CloseErr error
}

var _ Session = (*MemorySession)(nil)

// NewMemorySession creates an open MemorySession.
func NewMemorySession() *MemorySession {
	return &MemorySession{
		events: make(chan Event, eventBufferSize),
		closed: make(chan struct{}),
	}
}

func (s *MemorySession) Events() <-chan Event { return s.events }

func (s *MemorySession) Done() <-chan struct{} { return s.closed }

// Close marks the session closed.
func (s *MemorySession) Close() error {
	s.closeCalls.Add(1)
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.CloseErr
	})
	return err
}

// Emit delivers event to the session's consumer. It returns false if
// the session was closed first.
func (s *MemorySession) Emit(event Event) bool {
	// select picks at random among ready cases; check closed first so
	// a closed session with buffer room still refuses the event.
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.events <- event:
		return true
	case <-s.closed:
		return false
	}
}

// Closed reports whether Close has been called.
func (s *MemorySession) Closed() bool {
	return s.closeCalls.Load() > 0
}
