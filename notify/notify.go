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

// Package notify contains a minimal observable-variable type. A
// [Var] pairs a value with a channel that is closed whenever the
// value changes, allowing any number of goroutines to wait for
// updates without polling.
package notify

import "sync"

// A Var is a value whose updates can be waited upon. The zero value
// is ready to use and holds the zero value of T. A Var should not be
// copied after first use.
type Var[T any] struct {
	mu struct {
		sync.Mutex
		val     T
		updated chan struct{}
	}
}

// VarOf returns a new Var holding the given value.
func VarOf[T any](val T) *Var[T] {
	v := &Var[T]{}
	v.mu.val = val
	return v
}

// Get returns the current value and a channel that will be closed the
// next time the value is set. Callers typically loop: inspect the
// value, and if it is not yet interesting, receive from the channel
// and call Get again.
func (v *Var[T]) Get() (T, <-chan struct{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mu.val, v.updatedLocked()
}

// Peek returns the current value without arming a notification.
func (v *Var[T]) Peek() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mu.val
}

// Set replaces the value and wakes all pending calls to [Var.Get].
func (v *Var[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mu.val = val
	if v.mu.updated != nil {
		close(v.mu.updated)
		v.mu.updated = nil
	}
}

// updatedLocked returns the wakeup channel, allocating it on first
// use. Callers must hold mu.
func (v *Var[T]) updatedLocked() chan struct{} {
	if v.mu.updated == nil {
		v.mu.updated = make(chan struct{})
	}
	return v.mu.updated
}
