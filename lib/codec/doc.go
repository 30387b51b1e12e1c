// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the sandbox's CBOR encoding configuration.
//
// JSON is used wherever something external reads the data: the
// bot-launch request, the signaling exchange, RTVI data channel
// messages, persisted configuration values, and CLI output. CBOR is
// used for session archives written by the CLI, which only this tool
// reads back.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items, so
// the same recorded session always produces identical bytes.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types shared with JSON carry only `json` tags; fxamacker/cbor reads
// them when `cbor` tags are absent. Never put both tags on one field.
package codec
