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
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// Nil events and nil callbacks are both safe.
func TestEventsNilSafe(t *testing.T) {
	var e *Events[string, string]
	e.doBarrier(ReadOnly, "K")
	e.doBegin("unit", Done)
	e.doPublish("unit", Done)
	e.doRefused("K", ReadWrite, nil)
	e.doStructural()
	e.doTaskDone("unit", time.Second)

	e = &Events[string, string]{}
	e.doBarrier(ReadOnly, "K")
	e.doStructural()
}

func TestLogEvents(t *testing.T) {
	r := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	tr := New[string, string](GoRunner(ctx))
	tr.SetEvents(LogEvents[string, string](logger))
	o, err := tr.Orchestrator()
	r.NoError(err)

	r.NoError(tr.Declare("producer", []Access[string]{Write("data")}))
	h, err := tr.Run(o, "producer", func(context.Context, *Scope[string]) error {
		return nil
	})
	r.NoError(err)
	r.NoError(tr.Complete(o, h))
	r.NoError(tr.Sync(o, ReadWrite, "data"))
	r.NoError(tr.SyncAll(o))

	var messages []string
	for _, entry := range hook.AllEntries() {
		messages = append(messages, entry.Message)
	}
	r.Contains(messages, "computed input handle")
	r.Contains(messages, "published output handle")
	r.Contains(messages, "sync barrier")
	r.Contains(messages, "structural barrier")
	r.Contains(messages, "task settled")
}
