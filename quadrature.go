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

// Package quadrature decodes incremental quadrature encoder signals
// into a direction and a running position count.
package quadrature

import (
	"errors"
	"fmt"
)

// StepMode selects the decoder resolution as the number of counts
// registered per complete 4-phase quadrature cycle.
// The mode is fixed when a decoder is created.
type StepMode int

const (
	FULL StepMode = 1 // One count per full cycle
	HALF StepMode = 2 // One count per half cycle
	QUAD StepMode = 4 // One count per transition
)

// Direction of a detected movement. FORWARD is the direction in which
// channel A leads channel B.
type Direction int

const (
	FORWARD Direction = iota
	BACKWARD
)

func (d Direction) String() string {
	if d == FORWARD {
		return "forward"
	}
	return "backward"
}

// ErrInvalidTransition indicates that both channels changed between two
// consecutive readings. A genuine quadrature signal only ever changes one
// channel at a time, so this means the signal is being under-sampled or
// is noisy. The decoder resynchronises to the latest reading and remains
// usable; the counter is not changed.
var ErrInvalidTransition = errors.New("invalid quadrature transition")

// Change reports a detected movement and the position counter after the
// movement was applied.
type Change struct {
	Dir   Direction
	Count int
}

// Transition classifications for a pair of consecutive 2-bit readings.
const (
	stationary = iota
	forward
	backward
	invalid
)

// transitions classifies [previous][new] reading pairs, with each reading
// encoded as a<<1|b. The forward Gray-code sequence is
// 00 -> 01 -> 11 -> 10 -> 00.
var transitions = [4][4]int{
	{stationary, forward, backward, invalid}, // from 00
	{backward, stationary, invalid, forward}, // from 01
	{forward, invalid, stationary, backward}, // from 10
	{invalid, backward, forward, stationary}, // from 11
}

func reading(a, b bool) byte {
	var r byte
	if a {
		r |= 2
	}
	if b {
		r |= 1
	}
	return r
}

// IncrementalDecoder decodes a 2 channel quadrature signal.
// Each call to Update is given one already-sampled logical level per
// channel; the decoder judges only the consistency between consecutive
// samples. The position counter is a signed value that wraps on overflow.
// A decoder must only be driven from a single goroutine.
type IncrementalDecoder struct {
	mode   StepMode
	prev   byte // Last reading as a<<1|b
	primed bool // True once the first reading has been stored
	phase  int  // Quarter cycles accumulated (FULL mode)
	parity bool // Alternate transition flag (HALF mode)
	count  int
}

// NewIncrementalDecoder creates a decoder using the step mode selected.
func NewIncrementalDecoder(mode StepMode) (*IncrementalDecoder, error) {
	switch mode {
	case FULL, HALF, QUAD:
	default:
		return nil, fmt.Errorf("step mode %d: unknown mode", mode)
	}
	d := new(IncrementalDecoder)
	d.mode = mode
	return d, nil
}

// Update feeds one sample of the A and B channels to the decoder,
// returning the movement detected, or nil if the channels are unchanged
// or the movement is absorbed by the step mode.
// ErrInvalidTransition is returned if both channels changed at once; the
// decoder stores the new reading regardless, so subsequent calls are
// judged against the latest sample.
func (d *IncrementalDecoder) Update(a, b bool) (*Change, error) {
	r := reading(a, b)
	if !d.primed {
		// Never report movement on the very first sample.
		d.prev = r
		d.primed = true
		return nil, nil
	}
	prev := d.prev
	d.prev = r
	var dir Direction
	switch transitions[prev][r] {
	case stationary:
		return nil, nil
	case invalid:
		// Resynchronise; the next cycle starts from the new reading.
		d.phase = 0
		d.parity = false
		return nil, fmt.Errorf("reading %02b -> %02b: %w", prev, r, ErrInvalidTransition)
	case forward:
		dir = FORWARD
	case backward:
		dir = BACKWARD
	}
	switch d.mode {
	case QUAD:
		// Every valid transition counts.
	case HALF:
		// Count every second valid transition.
		d.parity = !d.parity
		if d.parity {
			return nil, nil
		}
	case FULL:
		// Count only when the reading returns to the cycle start
		// having moved a full cycle in one consistent direction.
		if dir == FORWARD {
			d.phase++
		} else {
			d.phase--
		}
		if d.phase != 4 && d.phase != -4 {
			return nil, nil
		}
		d.phase = 0
	}
	if dir == FORWARD {
		d.count++
	} else {
		d.count--
	}
	return &Change{Dir: dir, Count: d.count}, nil
}

// Counter returns the current position count. The counter is only
// changed by Update.
func (d *IncrementalDecoder) Counter() int {
	return d.count
}

// SetCounter sets the position count e.g to restore a saved position.
func (d *IncrementalDecoder) SetCounter(count int) {
	d.count = count
}

// Mode returns the step mode the decoder was created with.
func (d *IncrementalDecoder) Mode() StepMode {
	return d.mode
}

// Reset returns the decoder to its initial state with the counter at 0.
func (d *IncrementalDecoder) Reset() {
	d.primed = false
	d.phase = 0
	d.parity = false
	d.count = 0
}
