// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/voice-sandbox/lib/clock"
	"github.com/bureau-foundation/voice-sandbox/lib/sessionconfig"
	"github.com/bureau-foundation/voice-sandbox/lib/toolcall"
	"github.com/bureau-foundation/voice-sandbox/transport"
)

// Launcher submits a configuration to the bot-launch endpoint and
// returns where the transport should connect. Implemented by
// *botlaunch.Client.
type Launcher interface {
	Start(ctx context.Context, config sessionconfig.SessionConfig) (transport.RequestParams, error)
}

// Options configures a Controller.
type Options struct {
	Launcher Launcher
	Dialer   transport.Dialer
	Recorder *toolcall.Recorder

	// Clock drives the connect timeout. Defaults to clock.Real().
	Clock clock.Clock

	Logger *slog.Logger

	// OnStateChange is called with the new status after every state
	// transition, in transition order. It runs with the controller's
	// lock held: it may call Status but no other Controller method.
	OnStateChange func(Status)

	// ConnectTimeout bounds a whole Connect call. Zero means no bound
	// beyond what the launcher and dialer enforce.
	ConnectTimeout time.Duration
}

// Controller runs at most one voice session at a time.
//
// Every Connect increments the generation and runs its network steps
// outside the lock under a per-attempt context. Each step's result is
// applied only if the generation is unchanged; a Disconnect increments
// it, so results of a superseded attempt are discarded.
type Controller struct {
	launcher       Launcher
	dialer         transport.Dialer
	recorder       *toolcall.Recorder
	clock          clock.Clock
	logger         *slog.Logger
	onStateChange  func(Status)
	connectTimeout time.Duration

	// recordMu orders recorder mutations: the Clear at the start of a
	// Connect against tool calls of the previous session. Acquired
	// before mu; never held by Status.
	recordMu sync.Mutex

	mu         sync.Mutex
	state      State
	err        error
	generation uint64

	// cancelAttempt cancels the in-flight Connect, if any.
	cancelAttempt context.CancelCauseFunc

	// active is the established transport session, if any.
	active transport.Session

	closed    bool
	consumers sync.WaitGroup

	// status is the last published Status, readable without mu.
	status atomic.Pointer[Status]
}

// New creates a disconnected Controller.
func New(options Options) (*Controller, error) {
	if options.Launcher == nil {
		return nil, errors.New("session: Launcher is required")
	}
	if options.Dialer == nil {
		return nil, errors.New("session: Dialer is required")
	}
	if options.Recorder == nil {
		return nil, errors.New("session: Recorder is required")
	}
	if options.Logger == nil {
		return nil, errors.New("session: Logger is required")
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	controller := &Controller{
		launcher:       options.Launcher,
		dialer:         options.Dialer,
		recorder:       options.Recorder,
		clock:          options.Clock,
		logger:         options.Logger,
		onStateChange:  options.OnStateChange,
		connectTimeout: options.ConnectTimeout,
		state:          StateDisconnected,
	}
	controller.publishLocked()
	return controller, nil
}

// Status returns the current state. It does not take the controller's
// lock, so state and recorder observers may call it.
func (c *Controller) Status() Status {
	return *c.status.Load()
}

// Connect starts a session with config. It returns once the peer
// connection is up (state connected); the bot's ready event moves the
// state to ready afterwards.
//
// Connect fails with KindAlreadyActive unless the state is
// disconnected or error. Launch and transport failures move the state
// to error and are returned as KindConfigSubmissionFailed or
// KindTransportNegotiationFailed. If Disconnect is called before the
// attempt completes, Connect returns KindAborted and the state stays
// disconnected.
//
// config is passed by value; later edits to the caller's copy do not
// reach the launched bot.
func (c *Controller) Connect(ctx context.Context, config sessionconfig.SessionConfig) error {
	c.recordMu.Lock()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.recordMu.Unlock()
		return &ConnectError{Kind: KindAborted, Err: ErrClosed}
	}
	if !c.state.Idle() {
		state := c.state
		c.mu.Unlock()
		c.recordMu.Unlock()
		return &ConnectError{Kind: KindAlreadyActive, Err: fmt.Errorf("%w (state %s)", ErrAlreadyActive, state)}
	}

	c.generation++
	generation := c.generation
	attemptCtx, cancel := context.WithCancelCause(ctx)
	c.cancelAttempt = cancel
	c.setStateLocked(StateConnecting, nil)
	c.mu.Unlock()
	// The generation is already bumped, so a tool call of the previous
	// session either lands before this Clear or is dropped.
	c.recorder.Clear()
	c.recordMu.Unlock()
	defer cancel(nil)

	if c.connectTimeout > 0 {
		timer := c.clock.AfterFunc(c.connectTimeout, func() {
			cancel(ErrConnectTimeout)
		})
		defer timer.Stop()
	}

	params, err := c.launcher.Start(attemptCtx, config)
	if err != nil {
		return c.fail(attemptCtx, generation, KindConfigSubmissionFailed, err)
	}

	c.mu.Lock()
	if c.generation != generation {
		c.mu.Unlock()
		return c.aborted(generation)
	}
	c.setStateLocked(StateAuthenticating, nil)
	c.mu.Unlock()

	transportSession, err := c.dialer.Dial(attemptCtx, params)
	if err != nil {
		return c.fail(attemptCtx, generation, KindTransportNegotiationFailed, err)
	}

	c.mu.Lock()
	if c.generation != generation {
		c.mu.Unlock()
		// The attempt was abandoned while the dial completed.
		if closeErr := transportSession.Close(); closeErr != nil {
			c.logger.Warn("closing superseded transport session failed",
				"generation", generation,
				"error", closeErr,
			)
		}
		return c.aborted(generation)
	}
	c.cancelAttempt = nil
	c.active = transportSession
	c.setStateLocked(StateConnected, nil)
	c.consumers.Add(1)
	go c.consume(generation, transportSession)
	c.mu.Unlock()
	return nil
}

// fail records a failed step of attempt generation.
func (c *Controller) fail(attemptCtx context.Context, generation uint64, kind ErrorKind, err error) error {
	if errors.Is(context.Cause(attemptCtx), ErrConnectTimeout) {
		err = fmt.Errorf("%w after %s: %v", ErrConnectTimeout, c.connectTimeout, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return c.aborted(generation)
	}
	c.cancelAttempt = nil
	c.logger.Warn("connect failed",
		"kind", kind,
		"generation", generation,
		"error", err,
	)
	c.setStateLocked(StateError, err)
	return &ConnectError{Kind: kind, Err: err}
}

func (c *Controller) aborted(generation uint64) error {
	c.logger.Info("connect attempt aborted", "generation", generation)
	return &ConnectError{Kind: KindAborted, Err: ErrSuperseded}
}

// Disconnect supersedes any in-flight Connect, closes the active
// transport session, and sets the state to disconnected. Safe to call
// in any state; calling it while disconnected does nothing.
//
// A transport teardown error is logged and returned as a
// KindDisconnectFailed DisconnectError; the state is disconnected
// either way.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	if c.state == StateDisconnected && c.active == nil && c.cancelAttempt == nil {
		c.mu.Unlock()
		return nil
	}
	c.generation++
	c.publishLocked()
	cancel := c.cancelAttempt
	c.cancelAttempt = nil
	active := c.active
	c.active = nil
	c.setStateLocked(StateDisconnected, nil)
	c.mu.Unlock()

	if cancel != nil {
		cancel(ErrSuperseded)
	}
	if active == nil {
		return nil
	}
	if err := active.Close(); err != nil {
		c.logger.Warn("transport teardown failed", "error", err)
		return &DisconnectError{Kind: KindDisconnectFailed, Err: err}
	}
	return nil
}

// Close disconnects, rejects further Connect calls, and waits for the
// event consumers to exit.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	err := c.Disconnect()
	c.consumers.Wait()
	return err
}

// consume reads the events of one transport session in arrival order
// until the session ends or is superseded.
func (c *Controller) consume(generation uint64, transportSession transport.Session) {
	defer c.consumers.Done()
	for {
		select {
		case event := <-transportSession.Events():
			var current bool
			if event.Kind == transport.EventToolCall {
				current = c.recordToolCall(generation, event.ToolCall)
			} else {
				current = c.handleEvent(generation, transportSession, event)
			}
			if !current {
				return
			}
		case <-transportSession.Done():
			return
		}
	}
}

// handleEvent applies one transport event. Returns false when the
// session is over for this consumer.
func (c *Controller) handleEvent(generation uint64, transportSession transport.Session, event transport.Event) bool {
	c.mu.Lock()
	if c.generation != generation {
		c.mu.Unlock()
		return false
	}

	switch event.Kind {
	case transport.EventBotReady:
		if c.state == StateConnected {
			c.setStateLocked(StateReady, nil)
		}
		c.mu.Unlock()
		return true

	case transport.EventClosed:
		c.active = nil
		c.logger.Info("bot ended the session", "generation", generation)
		c.setStateLocked(StateDisconnected, nil)

	case transport.EventFailed:
		c.active = nil
		err := fmt.Errorf("transport: %w", event.Err)
		c.logger.Warn("session failed", "generation", generation, "error", err)
		c.setStateLocked(StateError, err)

	default:
		c.mu.Unlock()
		return true
	}
	c.mu.Unlock()

	if err := transportSession.Close(); err != nil {
		c.logger.Warn("closing ended transport session failed", "error", err)
	}
	return false
}

// recordToolCall appends a tool call reported by the session of
// generation. Returns false if that session has been superseded. The
// append runs outside c.mu so recorder observers may use the
// Controller.
func (c *Controller) recordToolCall(generation uint64, call transport.ToolCall) bool {
	c.recordMu.Lock()
	defer c.recordMu.Unlock()

	c.mu.Lock()
	current := c.generation == generation
	c.mu.Unlock()
	if !current {
		return false
	}
	if call.FunctionName == "" {
		c.logger.Debug("ignoring function call without a name", "tool_call_id", call.ToolCallID)
		return true
	}
	entry := c.recorder.AppendCall(toolcall.Call{
		Name:       call.FunctionName,
		ToolCallID: call.ToolCallID,
		Args:       toolcall.ArgsFromJSON(call.Arguments),
	})
	c.logger.Info("tool call",
		"name", entry.Name,
		"tool_call_id", entry.ToolCallID,
		"entry", entry.ID,
	)
	return true
}

func (c *Controller) statusLocked() Status {
	return Status{State: c.state, Err: c.err, Generation: c.generation}
}

func (c *Controller) publishLocked() {
	status := c.statusLocked()
	c.status.Store(&status)
}

// setStateLocked transitions to state and notifies the observer.
// Entering StateError always notifies, since the cause is new.
func (c *Controller) setStateLocked(state State, err error) {
	if c.state == state && state != StateError {
		return
	}
	previous := c.state
	c.state = state
	c.err = err
	c.publishLocked()
	c.logger.Info("transport state change",
		"from", previous,
		"to", state,
		"generation", c.generation,
	)
	if c.onStateChange != nil {
		c.onStateChange(c.statusLocked())
	}
}
