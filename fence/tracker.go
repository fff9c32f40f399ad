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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// An entry is the registry state for one resource key: the most
// recent handle that may write the resource, and the handles that
// may read it and were issued since that writer. Each entry is
// locked independently of every other, so operations on disjoint
// resources never contend.
type entry struct {
	mu      sync.Mutex
	writer  Handle
	readers []Handle
}

// A Tracker arbitrates dependencies between scheduling units of type
// U over resources identified by keys of type K. It owns the
// resource registry (the ground truth for what is still in flight),
// the units' access declarations, and the single [Orchestrator]
// token.
//
// A Tracker starts empty and is an owned value: inject it into
// collaborators rather than reaching for a package-level singleton.
// A Tracker is internally synchronized and should not be copied
// after it has been created.
type Tracker[U comparable, K comparable] struct {
	anchor *anchor    // Identity for the orchestrator token.
	events *Events[U, K]
	policy GuardPolicy
	runner Runner // Executes task payloads.
	strict bool   // Declaration policy; see WithStrictModes.

	decls    *xsync.MapOf[U, *declaration[K]]
	registry *xsync.MapOf[K, *entry]

	orch struct {
		sync.Mutex
		claimed bool
	}
}

// An Option adjusts the construction of a [Tracker].
type Option func(*config)

type config struct {
	policy GuardPolicy
	strict bool
}

// WithGuardPolicy sets the per-access-kind behavior of
// [Tracker.GuardedAccess]. The default performs an implicit barrier
// for both access kinds.
func WithGuardPolicy(policy GuardPolicy) Option {
	return func(c *config) { c.policy = policy }
}

// WithStrictModes makes [Tracker.Declare] report
// [ErrConflictingModes] when the same key is declared with differing
// modes, instead of folding the duplicates to ReadWrite.
func WithStrictModes() Option {
	return func(c *config) { c.strict = true }
}

// New constructs a Tracker that executes issued payloads using the
// given [Runner]. If runner is nil, payloads are executed using
// [context.Background].
func New[U comparable, K comparable](runner Runner, opts ...Option) *Tracker[U, K] {
	if runner == nil {
		runner = GoRunner(context.Background())
	}
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Tracker[U, K]{
		anchor:   &anchor{},
		policy:   cfg.policy,
		runner:   runner,
		strict:   cfg.strict,
		decls:    xsync.NewMapOf[U, *declaration[K]](),
		registry: xsync.NewMapOf[K, *entry](),
	}
}

// SetEvents allows monitoring callbacks to be injected into the
// Tracker. This method should be called prior to issuing any work.
func (t *Tracker[U, K]) SetEvents(events *Events[U, K]) {
	t.events = events
}

// Declare records the unit's access manifest: the resources it
// touches and in which mode. Declare is idempotent and replaces any
// prior declaration for the unit. The declaration is authoritative
// for the unit until it is re-declared; if a unit's actual access
// pattern changes, it must be re-declared before its next issuance.
//
// Duplicate keys with the same mode collapse silently. Duplicate
// keys with differing modes collapse to ReadWrite, or fail with
// [ErrConflictingModes] under [WithStrictModes]; a failed Declare
// leaves any prior declaration in place.
func (t *Tracker[U, K]) Declare(unit U, accesses []Access[K]) error {
	modes, err := normalize(accesses, t.strict)
	if err != nil {
		return fmt.Errorf("declaring unit %v: %w", unit, err)
	}
	t.decls.Store(unit, &declaration[K]{modes: modes})
	return nil
}

// Begin computes the unit's combined input handle: for each declared
// ReadOnly key, the entry's writer; for each declared ReadWrite key,
// the writer merged with all accumulated readers. Resources with no
// outstanding handles contribute nothing. Begin never blocks.
func (t *Tracker[U, K]) Begin(unit U) (Handle, error) {
	d, ok := t.decls.Load(unit)
	if !ok {
		return Done, fmt.Errorf("%w: %v", ErrNotDeclared, unit)
	}
	inputs := make([]Handle, 0, len(d.modes))
	for key, mode := range d.modes {
		e, ok := t.registry.Load(key)
		if !ok {
			// Lazily created entries default to nothing outstanding.
			continue
		}
		e.mu.Lock()
		inputs = append(inputs, e.writer)
		if mode == ReadWrite {
			inputs = append(inputs, e.readers...)
		}
		e.mu.Unlock()
	}
	input := Merge(inputs...)
	t.events.doBegin(unit, input)
	return input, nil
}

// End publishes the unit's output handle into the registry: for each
// declared ReadOnly key the output joins the readers; for each
// declared ReadWrite key the output becomes the writer and the
// accumulated readers are dropped, since they are now guaranteed to
// precede it. Readers fan out freely; writers fan in and reset.
// End never blocks.
func (t *Tracker[U, K]) End(unit U, output Handle) error {
	d, ok := t.decls.Load(unit)
	if !ok {
		return fmt.Errorf("%w: %v", ErrNotDeclared, unit)
	}
	for key, mode := range d.modes {
		e := t.entryFor(key)
		e.mu.Lock()
		if mode == ReadWrite {
			e.writer = output
			e.readers = nil
		} else {
			e.readers = append(e.readers, output)
		}
		e.mu.Unlock()
	}
	t.events.doPublish(unit, output)
	return nil
}

// Run issues one task for the unit: it computes the input handle,
// mints and publishes the output handle, and hands the payload to
// the runner. The worker gates on the input handle before invoking
// fn, so the payload only runs once every conflicting predecessor
// has settled. The payload receives a [Scope] that rejects accesses
// outside the unit's declaration.
//
// Run returns the output handle. If the runner rejects the payload,
// the output handle is resolved with the rejection error (so nothing
// downstream can deadlock on it) and the error is returned alongside
// it.
//
// Payloads must not issue new tasks and proceed to wait upon them;
// only the orchestrator issues tasks.
func (t *Tracker[U, K]) Run(
	o *Orchestrator, unit U, fn func(context.Context, *Scope[K]) error,
) (Handle, error) {
	if err := t.checkOrch(o); err != nil {
		return Done, err
	}
	input, err := t.Begin(unit)
	if err != nil {
		return Done, err
	}
	// The declaration cannot be missing here: Begin just loaded it,
	// and only the orchestrator replaces declarations.
	d, _ := t.decls.Load(unit)

	output, resolve := NewTask()
	if err := t.End(unit, output); err != nil {
		resolve(err)
		return Done, err
	}

	issued := time.Now()
	work := func(ctx context.Context) {
		// Gate on the predecessors. Failed predecessors have still
		// settled, so ordering is satisfied either way.
		input.await()
		sc := &Scope[K]{decl: d}
		err := tryCall(ctx, sc, fn)
		// Emit before resolving so observers see the event no later
		// than any dependent it unblocks.
		t.events.doTaskDone(unit, time.Since(issued))
		resolve(err)
	}
	if err := t.runner.Go(work); err != nil {
		resolve(err)
		return output, err
	}
	return output, nil
}

// entryFor returns the registry entry for the key, creating it
// lazily.
func (t *Tracker[U, K]) entryFor(key K) *entry {
	e, _ := t.registry.LoadOrCompute(key, func() *entry { return &entry{} })
	return e
}

// tryCall invokes the payload with a panic handler, so a panicking
// task still settles its handle.
func tryCall[K comparable](
	ctx context.Context, sc *Scope[K], fn func(context.Context, *Scope[K]) error,
) (err error) {
	defer func() {
		x := recover()
		switch v := x.(type) {
		case nil:
		// Success.
		case error:
			err = v
		default:
			err = fmt.Errorf("panic in task: %v", v)
		}
	}()

	return fn(ctx, sc)
}

// A Scope is handed to task payloads by [Tracker.Run]. It enforces
// the unit's declaration at usage time: every resource the payload
// touches must be checked through [Scope.Use] first.
type Scope[K comparable] struct {
	decl *declaration[K]
}

// Use verifies that the declared manifest covers an access of the
// given mode to the key. It reports [ErrStaleDeclaration] otherwise;
// the payload must propagate that error rather than proceed, since a
// stale declaration means the dependency graph is already wrong.
func (s *Scope[K]) Use(key K, mode Mode) error {
	if s.decl.covers(key, mode) {
		return nil
	}
	return fmt.Errorf("%w: %s access to key %v", ErrStaleDeclaration, mode, key)
}
