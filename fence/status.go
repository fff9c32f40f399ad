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

import "fmt"

// Status describes the state of a single issued task. Dependency
// tracking cares only about settlement: a task that failed has still
// settled, and its successors may proceed. The error is retained for
// diagnostics.
type Status struct {
	err error
}

// Sentinel instances of Status.
var (
	pending = &Status{}
	settled = &Status{}
)

// statusFor returns the settled sentinel if err is nil. Otherwise it
// returns a new Status carrying the error.
func statusFor(err error) *Status {
	if err == nil {
		return settled
	}
	return &Status{err: err}
}

// Err returns any error produced by the task.
func (s *Status) Err() error {
	return s.err
}

// Settled returns true once the task has finished, successfully or
// not.
func (s *Status) Settled() bool {
	return s == settled || s.err != nil
}

func (s *Status) String() string {
	switch {
	case s == pending:
		return "pending"
	case s == settled:
		return "settled"
	default:
		return fmt.Sprintf("failed: %v", s.err)
	}
}
