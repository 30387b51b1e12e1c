// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport connects the sandbox to a launched voice bot over
// WebRTC and turns what the bot sends into a stream of [Event] values.
//
// A [Dialer] establishes one [Session] per connect attempt. Dial returns
// once the peer connection is up; from then on the session delivers
// events on [Session.Events] in the order they arrived: the bot's
// readiness, tool calls the agent reports, and the end of the session
// (remote hang-up or transport failure). Closing a session releases the
// peer connection; events still queued are discarded.
//
// [WebRTCDialer] is the production implementation. It uses pion/webrtc
// with vanilla ICE: all candidates are gathered before the offer is
// sent, so signaling is exactly one HTTP round-trip ([HTTPSignaler]):
// the SDP offer is POSTed to the endpoint returned by the bot launch
// and the response carries the answer. One sendrecv transceiver
// carries the bot's voice in and the operator's [AudioSource] out,
// silence unless an Ogg Opus file is given. RTVI messages travel on an
// ordered data channel. On open the client announces itself with
// client-ready; bot-ready and llm-function-call messages are decoded
// into events, everything else on the channel is ignored.
//
// [MemoryDialer] is an in-process Dialer for tests: each Dial returns a
// [MemorySession] whose events the test injects directly.
//
// [ICEConfig] holds the STUN/TURN servers used during candidate
// gathering, built from configuration by [ICEConfigFromServers].
package transport
