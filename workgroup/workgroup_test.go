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

package workgroup

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestBoundedWorkersAndBacklog(t *testing.T) {
	const maxWorkers = 2
	const queueDepth = 4
	r := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g := WithSize(ctx, maxWorkers, queueDepth)

	block := make(chan struct{})
	done := make(chan struct{}, maxWorkers+queueDepth)
	var running atomic.Int32
	var peak atomic.Int32
	fn := func(context.Context) {
		now := running.Add(1)
		for {
			prev := peak.Load()
			if now <= prev || peak.CompareAndSwap(prev, now) {
				break
			}
		}
		<-block
		running.Add(-1)
		done <- struct{}{}
	}

	// Fill the workers and the backlog.
	for i := 0; i < maxWorkers+queueDepth; i++ {
		r.NoError(g.Go(fn))
	}
	r.Equal(queueDepth, g.Len())

	// One more is too many.
	r.ErrorContains(g.Go(fn), "queue depth 4 exceeded")

	close(block)
	for i := 0; i < maxWorkers+queueDepth; i++ {
		<-done
	}
	r.LessOrEqual(peak.Load(), int32(maxWorkers))
	r.Zero(g.Len())
}

func TestZeroDepth(t *testing.T) {
	r := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g := WithSize(ctx, 1, 0)

	block := make(chan struct{})
	r.NoError(g.Go(func(context.Context) { <-block }))
	r.ErrorContains(g.Go(func(context.Context) {}), "queue depth 0 exceeded")
	close(block)
}

// Workers wind down when the backlog drains and later submissions
// start fresh ones.
func TestWorkerReuse(t *testing.T) {
	const rounds = 3
	const perRound = 8
	r := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g := WithSize(ctx, 4, perRound)

	var ran atomic.Int32
	for round := 0; round < rounds; round++ {
		done := make(chan struct{}, perRound)
		for i := 0; i < perRound; i++ {
			r.NoError(g.Go(func(context.Context) {
				ran.Add(1)
				done <- struct{}{}
			}))
		}
		for i := 0; i < perRound; i++ {
			<-done
		}
	}
	r.Equal(int32(rounds*perRound), ran.Load())
}

// Concurrent submission is safe.
func TestConcurrentGo(t *testing.T) {
	const submitters = 8
	const perSubmitter = 64
	r := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g := WithSize(ctx, 4, submitters*perSubmitter)

	var ran atomic.Int32
	done := make(chan struct{}, submitters*perSubmitter)
	var eg errgroup.Group
	for i := 0; i < submitters; i++ {
		eg.Go(func() error {
			for j := 0; j < perSubmitter; j++ {
				if err := g.Go(func(context.Context) {
					ran.Add(1)
					done <- struct{}{}
				}); err != nil {
					return err
				}
			}
			return nil
		})
	}
	r.NoError(eg.Wait())
	for i := 0; i < submitters*perSubmitter; i++ {
		<-done
	}
	r.Equal(int32(submitters*perSubmitter), ran.Load())
}
