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

// Simulator encoder program.
// Generates a synthetic quadrature waveform with an index pulse and
// feeds it through the context driven encoder, without any hardware.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aamcrae/quadrature"
)

var cycles = flag.Int("cycles", 24, "Quadrature cycles per revolution")
var interval = flag.Duration("interval", 2*time.Millisecond, "Time between signal transitions")
var revs = flag.Int("revs", 2, "Revolutions to sweep in each direction")

// SimEncoder models the shaft of a rotary encoder. The waveform
// generator advances it one quarter cycle at a time, and the pins
// sample the current channel levels.
type SimEncoder struct {
	mu     sync.Mutex
	phase  int // Position within the 4 phase cycle
	pos    int // Quarter cycles from the index mark
	cycles int // Quadrature cycles per revolution
}

// Forward 4-phase sequence of the A and B channels.
var waveform = [][]int{
	{0, 0},
	{0, 1},
	{1, 1},
	{1, 0},
}

// SimPin is one channel of the simulated encoder, sampling the
// current signal level.
type SimPin struct {
	sim     *SimEncoder
	channel int // 0 = A, 1 = B, 2 = Z
}

// step advances the shaft one quarter cycle in the direction given.
func (s *SimEncoder) step(inc int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = (s.phase + inc + 4) & 3
	rev := s.cycles * 4
	s.pos = ((s.pos+inc)%rev + rev) % rev
}

// sample returns the current level of a channel. The index channel
// pulses for the one reading at the top of each revolution.
func (s *SimEncoder) sample(channel int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel == 2 {
		if s.pos == 0 {
			return 1
		}
		return 0
	}
	return waveform[s.phase][channel]
}

// Get returns the current level of the channel.
func (p *SimPin) Get() (int, error) {
	return p.sim.sample(p.channel), nil
}

// GetCtx returns the current level of the channel, honouring
// cancellation.
func (p *SimPin) GetCtx(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return p.sim.sample(p.channel), nil
}

func main() {
	flag.Parse()
	sim := &SimEncoder{cycles: *cycles}
	enc, err := quadrature.NewAsyncIndexedEncoder(
		&SimPin{sim, 0}, &SimPin{sim, 1}, &SimPin{sim, 2}, quadrature.QUAD)
	if err != nil {
		log.Fatalf("encoder: %v", err)
	}
	quarters := *revs * *cycles * 4
	done := make(chan bool)
	go func() {
		// Sweep forward then backward, one quarter cycle per interval.
		for i := 0; i < quarters; i++ {
			sim.step(1)
			time.Sleep(*interval)
		}
		for i := 0; i < quarters; i++ {
			sim.step(-1)
			time.Sleep(*interval)
		}
		close(done)
	}()
	// Sample at twice the transition rate so no edge is missed.
	ticker := time.NewTicker(*interval / 2)
	defer ticker.Stop()
	ctx := context.Background()
	var minPos, maxPos, changes int
	for {
		select {
		case <-done:
			// Drain any samples pending at the end of the sweep.
			for i := 0; i < 4; i++ {
				if _, err := enc.Poll(ctx); err != nil {
					log.Printf("glitch: %v", err)
				}
			}
			fmt.Printf("Final position %d (expected 0), %d changes, range [%d, %d]\n",
				enc.Position(), changes, minPos, maxPos)
			if enc.Position() != 0 {
				log.Fatalf("Position mismatch: %d", enc.Position())
			}
			return
		case <-ticker.C:
			change, err := enc.Poll(ctx)
			if err != nil {
				// Scheduling jitter can make the sampling miss a
				// transition; the decoder resynchronises.
				if errors.Is(err, quadrature.ErrInvalidTransition) {
					log.Printf("glitch: %v", err)
					continue
				}
				log.Fatalf("poll: %v", err)
			}
			if change != nil {
				changes++
				if change.Count < minPos {
					minPos = change.Count
				}
				if change.Count > maxPos {
					maxPos = change.Count
				}
			}
		}
	}
}
