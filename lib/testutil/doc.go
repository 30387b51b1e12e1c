// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds channel assertions shared by the session,
// transport, and store tests.
//
// [RequireReceive] and [RequireClosed] bound every wait so a missing
// event fails the test instead of hanging it. [RequireEmpty] checks
// that nothing was delivered. [UniqueID] names keys in shared
// backends.
package testutil
