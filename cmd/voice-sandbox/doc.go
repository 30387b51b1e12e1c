// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Voice-sandbox configures and exercises a voice-agent bot from the
// command line. It edits the persisted session configuration (system
// prompt, activity prompt, pipeline mode, providers), launches a bot
// with it through the bot-launch endpoint, connects over WebRTC, and
// prints transport state changes and the tool calls the agent makes.
// Recorded sessions can be written to a CBOR archive and printed later.
package main
