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

package quadrature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Forward 4-phase cycle starting and ending at the detent reading.
var fwdCycle = [][2]bool{
	{false, false},
	{false, true},
	{true, true},
	{true, false},
	{false, false},
}

// The same cycle traversed in reverse.
var revCycle = [][2]bool{
	{false, false},
	{true, false},
	{true, true},
	{false, true},
	{false, false},
}

// feed runs a sequence of readings through the decoder, returning the
// changes reported.
func feed(t *testing.T, d *IncrementalDecoder, seq [][2]bool) []*Change {
	t.Helper()
	var changes []*Change
	for _, r := range seq {
		c, err := d.Update(r[0], r[1])
		require.NoError(t, err)
		if c != nil {
			changes = append(changes, c)
		}
	}
	return changes
}

func TestForwardCycle(t *testing.T) {
	for _, tc := range []struct {
		name  string
		mode  StepMode
		count int
	}{
		{"full", FULL, 1},
		{"half", HALF, 2},
		{"quad", QUAD, 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d, err := NewIncrementalDecoder(tc.mode)
			require.NoError(t, err)
			changes := feed(t, d, fwdCycle)
			assert.Equal(t, tc.count, d.Counter())
			assert.Len(t, changes, tc.count)
			for _, c := range changes {
				assert.Equal(t, FORWARD, c.Dir)
			}
		})
	}
}

func TestBackwardCycle(t *testing.T) {
	for _, tc := range []struct {
		name  string
		mode  StepMode
		count int
	}{
		{"full", FULL, -1},
		{"half", HALF, -2},
		{"quad", QUAD, -4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d, err := NewIncrementalDecoder(tc.mode)
			require.NoError(t, err)
			changes := feed(t, d, revCycle)
			assert.Equal(t, tc.count, d.Counter())
			assert.Len(t, changes, -tc.count)
			for _, c := range changes {
				assert.Equal(t, BACKWARD, c.Dir)
			}
		})
	}
}

func TestFirstSample(t *testing.T) {
	// No movement is ever reported on the very first sample,
	// whatever the reading is.
	for _, r := range [][2]bool{{false, false}, {false, true}, {true, false}, {true, true}} {
		d, err := NewIncrementalDecoder(QUAD)
		require.NoError(t, err)
		c, err := d.Update(r[0], r[1])
		require.NoError(t, err)
		assert.Nil(t, c)
		assert.Equal(t, 0, d.Counter())
	}
}

func TestStationary(t *testing.T) {
	d, err := NewIncrementalDecoder(QUAD)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		c, err := d.Update(true, true)
		require.NoError(t, err)
		assert.Nil(t, c)
	}
	assert.Equal(t, 0, d.Counter())
}

func TestInvalidTransition(t *testing.T) {
	for _, tc := range [][2][2]bool{
		{{false, false}, {true, true}},
		{{true, true}, {false, false}},
		{{false, true}, {true, false}},
		{{true, false}, {false, true}},
	} {
		d, err := NewIncrementalDecoder(QUAD)
		require.NoError(t, err)
		_, err = d.Update(tc[0][0], tc[0][1])
		require.NoError(t, err)
		c, err := d.Update(tc[1][0], tc[1][1])
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Nil(t, c)
		assert.Equal(t, 0, d.Counter())
	}
}

func TestSelfHealing(t *testing.T) {
	// The reading is resynchronised on an invalid transition, so a
	// single glitch does not cascade into further errors.
	d, err := NewIncrementalDecoder(QUAD)
	require.NoError(t, err)
	_, err = d.Update(false, false)
	require.NoError(t, err)
	_, err = d.Update(true, true)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	// 11 -> 10 is a valid forward transition from the stored reading.
	c, err := d.Update(true, false)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, FORWARD, c.Dir)
	assert.Equal(t, 1, d.Counter())
}

func TestGrayCodeNeverInvalid(t *testing.T) {
	// Any sequence where consecutive readings differ in at most one
	// bit never produces an invalid transition.
	d, err := NewIncrementalDecoder(QUAD)
	require.NoError(t, err)
	prev := [2]bool{false, false}
	_, err = d.Update(prev[0], prev[1])
	require.NoError(t, err)
	seq := []int{0, 1, 0, 1, 1, 0, 0, 1, 1, 1, 0, 0}
	for _, bit := range seq {
		next := prev
		next[bit] = !next[bit]
		_, err := d.Update(next[0], next[1])
		assert.NoError(t, err)
		prev = next
	}
}

func TestFullModeReversal(t *testing.T) {
	// A direction reversal mid cycle returns the reading to the cycle
	// start without a consistent full cycle, so nothing is counted.
	d, err := NewIncrementalDecoder(FULL)
	require.NoError(t, err)
	seq := [][2]bool{
		{false, false},
		{false, true},
		{true, true},
		{false, true},
		{false, false},
	}
	changes := feed(t, d, seq)
	assert.Empty(t, changes)
	assert.Equal(t, 0, d.Counter())
}

func TestCounterStable(t *testing.T) {
	d, err := NewIncrementalDecoder(QUAD)
	require.NoError(t, err)
	feed(t, d, fwdCycle)
	v := d.Counter()
	for i := 0; i < 3; i++ {
		assert.Equal(t, v, d.Counter())
	}
}

func TestCounterWraps(t *testing.T) {
	d, err := NewIncrementalDecoder(QUAD)
	require.NoError(t, err)
	d.SetCounter(math.MaxInt)
	_, err = d.Update(false, false)
	require.NoError(t, err)
	c, err := d.Update(false, true)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, math.MinInt, d.Counter())
}

func TestReset(t *testing.T) {
	d, err := NewIncrementalDecoder(HALF)
	require.NoError(t, err)
	feed(t, d, fwdCycle)
	require.NotEqual(t, 0, d.Counter())
	d.Reset()
	assert.Equal(t, 0, d.Counter())
	// After a reset the next sample primes the decoder again.
	c, err := d.Update(true, false)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestBadMode(t *testing.T) {
	_, err := NewIncrementalDecoder(StepMode(3))
	assert.Error(t, err)
	_, err = NewIncrementalDecoder(StepMode(0))
	assert.Error(t, err)
}

func TestChangeCount(t *testing.T) {
	// The count carried in each change is the counter value after
	// that movement was applied.
	d, err := NewIncrementalDecoder(QUAD)
	require.NoError(t, err)
	changes := feed(t, d, fwdCycle)
	require.Len(t, changes, 4)
	for i, c := range changes {
		assert.Equal(t, i+1, c.Count)
	}
}
