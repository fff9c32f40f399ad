// Copyright 2025 The Fencework Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

/*
Package fence tracks dependencies between asynchronous tasks that
touch shared resources, so that tasks over disjoint or read-only
shared resources run in parallel while conflicting accesses are
always ordered.

A tick-loop pipeline might look like this:

	// Construct a tracker whose units are named by strings and whose
	// resources are identified by strings.
	tr := New[string, string](GoRunner(ctx))
	orch, _ := tr.Orchestrator()

	// Each scheduling unit declares, once, which resources it touches.
	tr.Declare("simulate", []Access[string]{Write("positions")})
	tr.Declare("render", []Access[string]{Read("positions")})

	// Issue the tasks. Run computes the minimal input handle from the
	// registry, publishes the output handle, and hands the payload to
	// the runner. The render task is gated behind the simulate task
	// because their declarations conflict on "positions".
	tr.Run(orch, "simulate", func(ctx context.Context, sc *Scope[string]) error {
		return step(sc)
	})
	hRender, _ := tr.Run(orch, "render", func(ctx context.Context, sc *Scope[string]) error {
		return draw(sc)
	})

	// Block until rendering (and, transitively, simulation) settles.
	tr.Complete(orch, hRender)

Unlike a mutex, nothing here is held while tasks run: the tracker
records, per resource, which task handles may still read or write it,
and derives a happens-before edge only where two units' declared
accesses actually conflict. Two readers of the same resource never
wait on each other; a writer waits on every prior reader and writer.

Exactly one goroutine, the orchestrator, is allowed to issue tasks,
block on handles, or access resources directly. That constraint is
made visible in the API: every blocking operation takes the
[Orchestrator] token, which a [Tracker] hands out exactly once.
Worker goroutines only execute payloads and signal completion; they
never touch the registry.

Direct (non-task) access to a resource goes through
[Tracker.GuardedAccess] or, for a pure non-blocking diagnosis,
[Tracker.Check], which refuse access while conflicting handles are
outstanding instead of corrupting memory.
*/
package fence
