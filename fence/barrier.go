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

package fence

// Complete blocks the orchestrator until the handle settles. It
// returns the first retained task error, which callers may inspect
// or ignore; settlement, not success, is what releases dependents.
//
// This is the only exported blocking wait, and it requires the
// tracker's [Orchestrator] token: concurrent blocking waits are
// outside the tracker's contract. The wait is unbounded; there is no
// timed variant.
func (t *Tracker[U, K]) Complete(o *Orchestrator, h Handle) error {
	if err := t.checkOrch(o); err != nil {
		return err
	}
	return h.await()
}

// Sync is the per-resource barrier. It blocks the orchestrator until
// the relevant outstanding handles for the key settle, then updates
// the registry:
//
//   - ReadOnly waits on the writer only and leaves the readers
//     tracked. Outstanding readers remain legitimately concurrent
//     with each other and with the direct read the caller is about
//     to perform.
//   - ReadWrite waits on the writer and every reader, then resets
//     the entry to nothing outstanding: the barrier itself is now
//     the happens-before frontier, so everything before it can be
//     forgotten.
//
// The returned error is the first retained task error among the
// awaited handles, as with [Tracker.Complete].
func (t *Tracker[U, K]) Sync(o *Orchestrator, mode Mode, key K) error {
	if err := t.checkOrch(o); err != nil {
		return err
	}
	e, ok := t.registry.Load(key)
	if !ok {
		t.events.doBarrier(mode, key)
		return nil
	}
	e.mu.Lock()
	outstanding := []Handle{e.writer}
	if mode == ReadWrite {
		outstanding = append(outstanding, e.readers...)
	}
	e.mu.Unlock()

	err := Merge(outstanding...).await()

	if mode == ReadWrite {
		// The orchestrator is the only publisher and it is here, so
		// nothing new can have landed on this key during the wait.
		t.registry.Delete(key)
	}
	t.events.doBarrier(mode, key)
	return err
}

// SyncAll is the structural barrier: it blocks the orchestrator on
// every writer and every reader across the entire registry, then
// clears the whole registry, leaving it equivalent to a freshly
// initialized one. It models operations whose effect is not confined
// to a declared resource set, such as anything that can invalidate
// the physical location of arbitrary data. It is intentionally the
// most conservative barrier; use it sparingly.
func (t *Tracker[U, K]) SyncAll(o *Orchestrator) error {
	if err := t.checkOrch(o); err != nil {
		return err
	}
	var outstanding []Handle
	t.registry.Range(func(_ K, e *entry) bool {
		e.mu.Lock()
		outstanding = append(outstanding, e.writer)
		outstanding = append(outstanding, e.readers...)
		e.mu.Unlock()
		return true
	})

	err := Merge(outstanding...).await()

	t.registry.Clear()
	t.events.doStructural()
	return err
}

// Reset is the tracker's teardown: a structural barrier followed by
// dropping every declaration. The tracker may be reused afterwards
// as if freshly constructed, except that the orchestrator token
// remains claimed.
func (t *Tracker[U, K]) Reset(o *Orchestrator) error {
	if err := t.checkOrch(o); err != nil {
		return err
	}
	err := t.SyncAll(o)
	t.decls.Clear()
	return err
}
