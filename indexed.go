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

// Index channel handling for encoders with a Z (index) output.

package quadrature

// IndexedIncrementalDecoder adds index channel handling to an
// IncrementalDecoder. The index channel pulses once per revolution and
// acts as an absolute reference point: a rising edge on Z resets the
// position count to 0.
// The index channel is tracked independently of the A/B quadrature cycle,
// since index pulses are asynchronous markers rather than part of the
// cycle itself.
type IndexedIncrementalDecoder struct {
	dec *IncrementalDecoder
	z   bool // Last index channel level
}

// NewIndexedIncrementalDecoder creates an indexed decoder using the
// step mode selected.
func NewIndexedIncrementalDecoder(mode StepMode) (*IndexedIncrementalDecoder, error) {
	dec, err := NewIncrementalDecoder(mode)
	if err != nil {
		return nil, err
	}
	return &IndexedIncrementalDecoder{dec: dec}, nil
}

// Update feeds one sample of the A, B and Z channels to the decoder.
// The A/B movement is applied first, exactly as for IncrementalDecoder.
// If a rising edge is detected on Z, the counter is then forced to 0,
// overriding any movement applied in this call; the returned Change (if
// any) still reports the direction detected, with the post-reset count.
// The reset is unconditional on the A/B outcome, so it is applied even
// when ErrInvalidTransition is returned from the same call.
func (d *IndexedIncrementalDecoder) Update(a, b, z bool) (*Change, error) {
	change, err := d.dec.Update(a, b)
	if z && !d.z {
		d.dec.SetCounter(0)
		if change != nil {
			change.Count = 0
		}
	}
	d.z = z
	return change, err
}

// Counter returns the current position count.
func (d *IndexedIncrementalDecoder) Counter() int {
	return d.dec.Counter()
}

// SetCounter sets the position count.
func (d *IndexedIncrementalDecoder) SetCounter(count int) {
	d.dec.SetCounter(count)
}

// Mode returns the step mode the decoder was created with.
func (d *IndexedIncrementalDecoder) Mode() StepMode {
	return d.dec.Mode()
}

// Reset returns the decoder to its initial state with the counter at 0.
func (d *IndexedIncrementalDecoder) Reset() {
	d.dec.Reset()
	d.z = false
}
