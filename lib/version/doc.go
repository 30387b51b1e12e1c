// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the voice-sandbox
// binary.
//
// [GitCommit], [GitDirty], [BuildTime], and [Version] are injected with
// -ldflags -X at build time and default to "unknown" / "0.1.0-dev" in
// development builds and tests. [Info] formats them for --version;
// [UserAgent] formats them for outbound HTTP requests.
package version
