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

// Mode describes how a scheduling unit, barrier, or direct access
// touches a resource.
type Mode int

const (
	// ReadOnly accesses may share a resource with other readers.
	ReadOnly Mode = iota
	// ReadWrite accesses require exclusivity against both readers
	// and writers.
	ReadWrite
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// An Access names one resource a scheduling unit touches and how.
type Access[K comparable] struct {
	Key  K
	Mode Mode
}

// Read is shorthand for a ReadOnly [Access].
func Read[K comparable](key K) Access[K] { return Access[K]{Key: key, Mode: ReadOnly} }

// Write is shorthand for a ReadWrite [Access].
func Write[K comparable](key K) Access[K] { return Access[K]{Key: key, Mode: ReadWrite} }

// A declaration is a unit's normalized access manifest: each key
// appears exactly once with its effective mode.
type declaration[K comparable] struct {
	modes map[K]Mode
}

// normalize folds duplicate keys in an access list. Duplicates with
// the same mode collapse silently. Duplicates with differing modes
// either collapse to ReadWrite (the most permissive required mode)
// or, under the strict policy, fail with [ErrConflictingModes].
func normalize[K comparable](accesses []Access[K], strict bool) (map[K]Mode, error) {
	modes := make(map[K]Mode, len(accesses))
	for _, a := range accesses {
		prior, dup := modes[a.Key]
		if dup && prior != a.Mode {
			if strict {
				return nil, fmt.Errorf(
					"%w: key %v declared both %s and %s",
					ErrConflictingModes, a.Key, prior, a.Mode)
			}
			modes[a.Key] = ReadWrite
			continue
		}
		modes[a.Key] = a.Mode
	}
	return modes, nil
}

// covers returns true if an access of the given mode to the key is
// within the declaration. A ReadWrite declaration covers ReadOnly
// use of the same key.
func (d *declaration[K]) covers(key K, mode Mode) bool {
	declared, ok := d.modes[key]
	if !ok {
		return false
	}
	return declared == ReadWrite || mode == ReadOnly
}
