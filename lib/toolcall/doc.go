// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package toolcall records the function/tool invocations an agent
// reports during a voice session.
//
// [Recorder] is an append-only, clearable log. [Recorder.Append] stamps
// each call with a fresh UUIDv7 id and the clock's current time (UTC,
// RFC 3339 with nanoseconds) and adds it at the end, so [Recorder.List]
// always returns entries in arrival order. Arguments are never nil:
// a call reported without arguments, or with arguments that do not
// decode as a JSON object ([ArgsFromJSON]), is recorded with an empty
// map. Observers registered with [Recorder.Subscribe] see every append
// and clear in the order they happened.
//
// [WriteArchive] and [ReadArchive] persist a recorded session (config
// snapshot plus entries) as CBOR.
package toolcall
