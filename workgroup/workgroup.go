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

// Package workgroup provides a goroutine pool with a bounded number
// of workers and a bounded backlog of pending work. It satisfies the
// runner contract expected by the fence package, so task payloads can
// be executed without spawning one goroutine per task.
package workgroup

import (
	"context"
	"fmt"
	"sync"
)

// A Group executes functions using a limited number of goroutines.
// Work submitted beyond the worker limit is held in a fixed-depth
// backlog; work submitted beyond the backlog is rejected.
//
// A Group is internally synchronized and is safe for concurrent use.
// A Group should not be copied after it has been created.
type Group struct {
	ctx  context.Context
	work chan func(context.Context) // Buffered to queueDepth.

	mu struct {
		sync.Mutex
		active int // Number of live worker goroutines.
	}
	maxWorkers int
}

// WithSize constructs a [Group] that runs at most maxWorkers
// concurrent goroutines and holds at most queueDepth pending
// functions. The context is passed to every executed function.
func WithSize(ctx context.Context, maxWorkers, queueDepth int) *Group {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if queueDepth < 0 {
		queueDepth = 0
	}
	return &Group{
		ctx:        ctx,
		maxWorkers: maxWorkers,
		work:       make(chan func(context.Context), queueDepth),
	}
}

// Go executes the function in a non-blocking fashion. It returns an
// error if all workers are busy and the backlog is full.
func (g *Group) Go(fn func(context.Context)) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mu.active < g.maxWorkers {
		g.mu.active++
		go g.worker(fn)
		return nil
	}
	// Enqueueing under the lock pairs with the drain in worker, so a
	// successfully enqueued function is always picked up.
	select {
	case g.work <- fn:
		return nil
	default:
		return fmt.Errorf("queue depth %d exceeded", cap(g.work))
	}
}

// Len returns the number of functions waiting in the backlog.
func (g *Group) Len() int {
	return len(g.work)
}

// worker runs the initial function, then drains the backlog until it
// is empty.
func (g *Group) worker(fn func(context.Context)) {
	for {
		fn(g.ctx)
		g.mu.Lock()
		select {
		case fn = <-g.work:
			g.mu.Unlock()
		default:
			g.mu.active--
			g.mu.Unlock()
			return
		}
	}
}
