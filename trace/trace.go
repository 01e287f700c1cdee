// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package trace captures encoder channel samples and renders them
// as a timing diagram.
package trace

import (
	"sync"
)

// Sample is one captured reading of the encoder channels.
type Sample struct {
	A, B, Z int
}

// Recorder keeps the most recent channel samples in a fixed size
// ring. One goroutine adds samples; snapshots may be taken from
// other goroutines e.g the trace web server.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
	next    int
	full    bool
}

// NewRecorder creates a recorder holding up to limit samples.
func NewRecorder(limit int) *Recorder {
	r := new(Recorder)
	if limit <= 0 {
		limit = 1
	}
	r.samples = make([]Sample, limit)
	return r
}

// Add records one sample, discarding the oldest once the ring is full.
func (r *Recorder) Add(a, b, z int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[r.next] = Sample{A: a, B: b, Z: z}
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}
}

// Snapshot returns the captured samples in arrival order.
func (r *Recorder) Snapshot() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		s := make([]Sample, r.next)
		copy(s, r.samples[:r.next])
		return s
	}
	s := make([]Sample, 0, len(r.samples))
	s = append(s, r.samples[r.next:]...)
	s = append(s, r.samples[:r.next]...)
	return s
}
