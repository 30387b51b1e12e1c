// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Components that stamp records or arm deadlines take a [Clock] instead
// of calling time.Now or time.AfterFunc directly. Production wiring
// passes [Real]; tests pass [Fake], whose time stands still until
// [FakeClock.Advance] is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	controller := session.New(session.Options{Clock: c, ...})
//	go controller.Connect(ctx, cfg)
//	c.WaitForTimers(1)          // connect deadline armed
//	c.Advance(30 * time.Second) // fire it deterministically
package clock
