// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session orchestrates a single voice session: it submits a
// configuration to the bot-launch endpoint, establishes the transport,
// tracks the transport state, and records the tool calls the agent
// reports.
//
// A [Controller] moves through these states:
//
//	disconnected --Connect--> connecting --(launch ack)--> authenticating
//	    --(peer up)--> connected --(bot ready)--> ready
//	any state --failure--> error
//	any state --Disconnect--> disconnected
//
// error is not terminal; Connect is permitted from disconnected and
// error only, and fails with [KindAlreadyActive] otherwise. Failures
// are returned as [*ConnectError] or [*DisconnectError]; use [IsKind]
// to classify them. There is no automatic retry.
//
// Each connect attempt is tagged with a generation. Disconnect
// increments the generation and cancels the attempt's context, so a
// launch or dial that completes after the operator gave up is
// discarded (and its transport session closed) instead of moving the
// state back to connected.
//
// Transport events are consumed by one goroutine per session, in
// arrival order. Tool calls are appended to the [toolcall.Recorder];
// messages without a function name are ignored and missing or
// malformed arguments are recorded as an empty map.
package session
