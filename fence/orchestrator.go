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

// An Orchestrator is the ownership token for the single goroutine
// allowed to block on handles or access resources directly. The
// tracker provides no cross-goroutine safety for blocking waits, so
// the constraint is carried in the type signatures rather than by
// runtime thread-identity checks: any operation that can block takes
// the token, and a [Tracker] hands its token out exactly once.
type Orchestrator struct {
	owner *anchor
}

// anchor ties an Orchestrator to the Tracker that issued it, so a
// token cannot be replayed against another tracker.
type anchor struct{ _ byte }

// checkOrch validates the token against this tracker.
func (t *Tracker[U, K]) checkOrch(o *Orchestrator) error {
	if o == nil || o.owner != t.anchor {
		return ErrOrchestratorMisuse
	}
	return nil
}

// Orchestrator hands out the tracker's single ownership token. The
// first call succeeds; every later call reports
// [ErrOrchestratorClaimed]. The caller is expected to confine the
// token to one goroutine for the life of the tracker.
func (t *Tracker[U, K]) Orchestrator() (*Orchestrator, error) {
	t.orch.Lock()
	defer t.orch.Unlock()
	if t.orch.claimed {
		return nil, ErrOrchestratorClaimed
	}
	t.orch.claimed = true
	return &Orchestrator{owner: t.anchor}, nil
}
