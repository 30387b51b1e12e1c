// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the voice
// sandbox.
//
// Configuration is loaded from a single file specified by either the
// VOICE_SANDBOX_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks and no automatic file
// search. Commands run without a file use [Default].
//
// The file may contain environment-specific sections (development,
// production) that override base values when [Config].Environment
// matches.
//
// After loading, ${VAR} and ${VAR:-default} patterns are expanded in
// string fields that hold URLs, paths, and credentials. The only
// environment variables that override file values are
// VOICE_SANDBOX_API_URL and API_URL, which replace api_url.
//
// Key exports:
//
//   - [Config] -- api_url, connect_timeout, log_level, ice_servers, store
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other voice-sandbox packages.
package config
