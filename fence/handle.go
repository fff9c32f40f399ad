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
	"sync"

	"github.com/fencework/fencework/notify"
)

// A token is the completion event for one issued task. Tokens are
// compared by pointer identity.
type token = notify.Var[*Status]

// A Handle is an opaque, copyable value representing a possibly
// still-running task and, transitively, everything it was merged
// from. A Handle holds a flat list of completion tokens, so merging
// is O(inputs) rather than O(history). Handles are immutable after
// creation.
//
// The zero Handle is [Done].
type Handle struct {
	toks []*token
}

// Done is the already-settled Handle. Merging zero handles, or only
// settled ones, yields Done-equivalent handles.
var Done = Handle{}

// NewTask mints a Handle for a newly issued task along with the
// function that workers call, exactly once, to signal its
// completion. Calling resolve more than once is a no-op. Settlement
// is monotonic: once a handle has been observed settled it stays
// settled.
func NewTask() (h Handle, resolve func(error)) {
	tok := notify.VarOf(pending)
	var once sync.Once
	resolve = func(err error) {
		once.Do(func() { tok.Set(statusFor(err)) })
	}
	return Handle{toks: []*token{tok}}, resolve
}

// Merge combines handles with fan-in semantics: the result settles
// only when every input has settled. Merging is associative and
// commutative. Merging zero handles yields [Done]; merging one
// returns it unchanged. Tokens that have already settled are pruned,
// and duplicate tokens are folded, so a merged handle never grows
// beyond the set of distinct outstanding tasks it covers.
func Merge(handles ...Handle) Handle {
	switch len(handles) {
	case 0:
		return Done
	case 1:
		return handles[0]
	}
	seen := make(map[*token]struct{})
	var toks []*token
	for _, h := range handles {
		for _, tok := range h.toks {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			if tok.Peek().Settled() {
				continue
			}
			toks = append(toks, tok)
		}
	}
	return Handle{toks: toks}
}

// Settled returns true if every task the handle covers has finished.
// It never blocks.
func (h Handle) Settled() bool {
	for _, tok := range h.toks {
		if !tok.Peek().Settled() {
			return false
		}
	}
	return true
}

// Outstanding returns the number of tasks covered by the handle that
// have not yet settled.
func (h Handle) Outstanding() int {
	n := 0
	for _, tok := range h.toks {
		if !tok.Peek().Settled() {
			n++
		}
	}
	return n
}

// Err returns the first retained task error among the handle's
// settled tokens, or nil.
func (h Handle) Err() error {
	for _, tok := range h.toks {
		if st := tok.Peek(); st.Settled() && st.Err() != nil {
			return st.Err()
		}
	}
	return nil
}

// await blocks until every token has settled and returns the first
// task error seen. This is an unbounded wait: a handle represents
// the dependency itself, not a best-effort version of it, so there
// is deliberately no timed variant. The exported blocking surface is
// [Tracker.Complete], which additionally requires the orchestrator
// token; workers use await internally to gate on their input handle.
func (h Handle) await() error {
	var first error
	for _, tok := range h.toks {
		for {
			status, changed := tok.Get()
			if status.Settled() {
				if first == nil {
					first = status.Err()
				}
				break
			}
			<-changed
		}
	}
	return first
}
