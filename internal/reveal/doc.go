// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal simulates progressive arrival of an already-complete
// assistant answer.
//
// The backend returns whole answers, but an instantaneous block of text
// reads poorly; the scheduler grows a visible prefix in timed chunks so
// the UI reads as a live response. The external contract (progressive
// visible-prefix growth, cancellable, completion signal) is compatible
// with true token streaming should the backend grow it later.
//
// # Key Types
//
//   - Scheduler: one reveal slot, typically one per assistant turn
//
// # Usage
//
//	sched := reveal.NewScheduler()
//	sched.OnProgress(func(visible string, active bool) { ... })
//	sched.Start(answer)
//	defer sched.Stop() // cancel the pending timer on teardown
package reveal
