// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sessionconfig holds the operator-editable configuration that
// is sent to the bot-launch endpoint when a voice session starts.
//
// [SessionConfig] is a plain value: copying it yields an independent
// snapshot, so a connect attempt that captured one is unaffected by
// later edits. [Store] owns the live values, loads them from a
// [Backend] at startup, and writes every change through to it. Each
// field is persisted under its own key ([KeySystemPrompt], ...) as a
// JSON-encoded value; absent or unparsable values fall back to the
// defaults returned by [Default].
//
// Three backends are provided: [MemoryBackend] for tests and throwaway
// runs, [FileBackend] for a single JSON document on disk (comments and
// trailing commas tolerated), and [RedisBackend] for sharing settings
// between machines.
package sessionconfig
