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

package notify

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestZeroValue(t *testing.T) {
	r := require.New(t)

	var v Var[int]
	val, changed := v.Get()
	r.Zero(val)

	v.Set(42)
	<-changed
	r.Equal(42, v.Peek())
}

func TestVarOf(t *testing.T) {
	r := require.New(t)

	v := VarOf("hello")
	r.Equal("hello", v.Peek())

	val, changed := v.Get()
	r.Equal("hello", val)

	// No update yet, so the channel must still be open but
	// unsignaled.
	select {
	case <-changed:
		r.Fail("premature wakeup")
	default:
	}
}

// All pending getters observe a single Set.
func TestBroadcast(t *testing.T) {
	const waiters = 16
	r := require.New(t)

	v := VarOf(0)
	armed := make(chan struct{}, waiters)

	var eg errgroup.Group
	for i := 0; i < waiters; i++ {
		eg.Go(func() error {
			for {
				val, changed := v.Get()
				if val == 1 {
					return nil
				}
				armed <- struct{}{}
				<-changed
			}
		})
	}
	for i := 0; i < waiters; i++ {
		<-armed
	}
	v.Set(1)
	r.NoError(eg.Wait())
}

// Each Set arms a fresh channel.
func TestSuccessiveSets(t *testing.T) {
	r := require.New(t)

	v := VarOf(0)
	_, first := v.Get()
	v.Set(1)
	<-first

	_, second := v.Get()
	select {
	case <-second:
		r.Fail("channel from after the update must not be closed")
	default:
	}
	v.Set(2)
	<-second
	r.Equal(2, v.Peek())
}
