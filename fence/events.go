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
	"time"

	"github.com/sirupsen/logrus"
)

// Events provides a [Tracker] with optional callbacks to observe
// issuance, barriers, and guard refusals. Barriers are the events
// most worth watching: they are where the orchestrator stalls.
//
// See [Tracker.SetEvents].
type Events[U comparable, K comparable] struct {
	OnBarrier    func(mode Mode, key K)
	OnBegin      func(unit U, input Handle)
	OnPublish    func(unit U, output Handle)
	OnRefused    func(key K, mode Mode, err error)
	OnStructural func()
	OnTaskDone   func(unit U, sinceIssued time.Duration)
}

func (e *Events[U, K]) doBarrier(mode Mode, key K) {
	if e != nil && e.OnBarrier != nil {
		e.OnBarrier(mode, key)
	}
}

func (e *Events[U, K]) doBegin(unit U, input Handle) {
	if e != nil && e.OnBegin != nil {
		e.OnBegin(unit, input)
	}
}

func (e *Events[U, K]) doPublish(unit U, output Handle) {
	if e != nil && e.OnPublish != nil {
		e.OnPublish(unit, output)
	}
}

func (e *Events[U, K]) doRefused(key K, mode Mode, err error) {
	if e != nil && e.OnRefused != nil {
		e.OnRefused(key, mode, err)
	}
}

func (e *Events[U, K]) doStructural() {
	if e != nil && e.OnStructural != nil {
		e.OnStructural()
	}
}

func (e *Events[U, K]) doTaskDone(unit U, sinceIssued time.Duration) {
	if e != nil && e.OnTaskDone != nil {
		e.OnTaskDone(unit, sinceIssued)
	}
}

// LogEvents returns an [Events] that writes structured log lines for
// every callback. Barriers and refusals log at Info, the per-task
// chatter at Debug.
func LogEvents[U comparable, K comparable](log logrus.FieldLogger) *Events[U, K] {
	return &Events[U, K]{
		OnBarrier: func(mode Mode, key K) {
			log.WithFields(logrus.Fields{
				"key":  key,
				"mode": mode.String(),
			}).Info("sync barrier")
		},
		OnBegin: func(unit U, input Handle) {
			log.WithFields(logrus.Fields{
				"unit":        unit,
				"outstanding": input.Outstanding(),
			}).Debug("computed input handle")
		},
		OnPublish: func(unit U, output Handle) {
			log.WithField("unit", unit).Debug("published output handle")
		},
		OnRefused: func(key K, mode Mode, err error) {
			log.WithFields(logrus.Fields{
				"key":  key,
				"mode": mode.String(),
			}).WithError(err).Info("unsynchronized access refused")
		},
		OnStructural: func() {
			log.Info("structural barrier")
		},
		OnTaskDone: func(unit U, sinceIssued time.Duration) {
			log.WithFields(logrus.Fields{
				"unit":    unit,
				"elapsed": sinceIssued,
			}).Debug("task settled")
		},
	}
}
