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

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// An Action is what [Tracker.GuardedAccess] does when outstanding
// handles conflict with the requested access.
type Action int

const (
	// ImplicitSync performs the matching barrier before granting the
	// access. Convenient, but the blocking is hidden from the call
	// site.
	ImplicitSync Action = iota
	// Refuse surfaces the [AccessError] without blocking, forcing
	// the caller to issue an explicit [Tracker.Sync]. This keeps
	// every sync point visible, which matters when hunting them
	// down.
	Refuse
)

func (a Action) String() string {
	switch a {
	case ImplicitSync:
		return "implicit-sync"
	case Refuse:
		return "refuse"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// GuardPolicy chooses, once per tracker, the [Action] applied to
// each kind of guarded direct access. The zero value performs an
// implicit barrier for both kinds, matching the common case of plain
// reads and writes; fast-path accessors that must never hide a wait
// should use [Tracker.Check] directly, which only ever diagnoses.
type GuardPolicy struct {
	Read  Action
	Write Action
}

// forMode returns the configured action for an access mode.
func (p GuardPolicy) forMode(mode Mode) Action {
	if mode == ReadWrite {
		return p.Write
	}
	return p.Read
}

// Check is the usage-time safety check for direct, unsynchronized
// access to a resource. It never blocks. For ReadOnly access it
// fails while the key's writer is outstanding; for ReadWrite access
// it fails while the writer or any reader is outstanding. On failure
// it returns an [*AccessError] whose wrapped error identifies each
// offending outstanding handle.
//
// Check never mutates the registry and never performs an implicit
// barrier, so it is the right guard for fast-path accessors where a
// hidden wait would be worse than a refusal.
func (t *Tracker[U, K]) Check(key K, mode Mode) error {
	e, ok := t.registry.Load(key)
	if !ok {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs *multierror.Error
	if n := e.writer.Outstanding(); n > 0 {
		errs = multierror.Append(errs, fmt.Errorf(
			"writer outstanding (%d unsettled tasks)", n))
	}
	if mode == ReadWrite {
		for i, r := range e.readers {
			if n := r.Outstanding(); n > 0 {
				errs = multierror.Append(errs, fmt.Errorf(
					"reader %d outstanding (%d unsettled tasks)", i, n))
			}
		}
	}
	if errs == nil {
		return nil
	}
	return &AccessError{Key: key, Mode: mode, err: errs.ErrorOrNil()}
}

// GuardedAccess performs one direct access to a resource from the
// orchestrator. It runs [Tracker.Check]; on conflict it applies the
// tracker's [GuardPolicy] — either an implicit [Tracker.Sync] or a
// refusal — and then invokes fn while holding the resource entry's
// lock. The lock is released unconditionally, whether fn returns an
// error or panics, so no residual lock survives the call.
func (t *Tracker[U, K]) GuardedAccess(o *Orchestrator, key K, mode Mode, fn func() error) error {
	if err := t.checkOrch(o); err != nil {
		return err
	}
	if err := t.Check(key, mode); err != nil {
		switch t.policy.forMode(mode) {
		case Refuse:
			t.events.doRefused(key, mode, err)
			return err
		case ImplicitSync:
			// Task errors do not poison the access: settlement is
			// what the guard requires.
			t.Sync(o, mode, key)
		}
	}
	// Hold the entry's lock, when the key has one, for the duration
	// of the access. The deferred unlock runs even if fn panics, so
	// no residual lock survives the call. A key with no entry has
	// nothing outstanding and nothing to pin.
	if e, ok := t.registry.Load(key); ok {
		e.mu.Lock()
		defer e.mu.Unlock()
	}
	return fn()
}
