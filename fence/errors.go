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
	"errors"
	"fmt"
)

// Every error in this package is a programming-contract violation,
// not a transient condition: there is no retry surface, and none of
// these are swallowed or deferred past their call site.
var (
	// ErrConflictingModes is reported by [Tracker.Declare] under the
	// strict-modes policy when the same key is declared with
	// incompatible modes.
	ErrConflictingModes = errors.New("conflicting access modes declared")

	// ErrNotDeclared is reported when Begin or End is called for a
	// unit that has no access declaration.
	ErrNotDeclared = errors.New("unit has no access declaration")

	// ErrStaleDeclaration is reported by [Scope.Use] when a task
	// touches a resource outside its unit's declaration. It is fatal
	// at the point of detection: the dependency graph is already
	// wrong and races are possible.
	ErrStaleDeclaration = errors.New("access outside declared resource set")

	// ErrOrchestratorMisuse is reported when a blocking or direct
	// access operation is invoked without the tracker's own
	// orchestrator token.
	ErrOrchestratorMisuse = errors.New("operation requires the orchestrator token")

	// ErrOrchestratorClaimed is reported by [Tracker.Orchestrator]
	// after the token has been handed out.
	ErrOrchestratorClaimed = errors.New("orchestrator token already claimed")
)

// An AccessError is the SafetyGuard refusal: a direct access was
// attempted while conflicting handles were still outstanding. The
// wrapped error enumerates each offending handle. Callers recover by
// issuing the appropriate [Tracker.Sync] first, or by configuring an
// implicit-sync [GuardPolicy].
type AccessError struct {
	// Key is the resource the access targeted.
	Key any
	// Mode is the conflicting access mode.
	Mode Mode
	err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("unsynchronized %s access to resource %v: %v", e.Mode, e.Key, e.err)
}

func (e *AccessError) Unwrap() error { return e.err }
