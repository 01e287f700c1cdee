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

// Incremental encoder drivers binding decoders to input pins.

package quadrature

import (
	"context"
	"fmt"
)

// Input is the capability of sampling one digital input channel,
// returning the current logical level as 0 or 1.
type Input interface {
	Get() (int, error)
}

// CtxInput is an Input whose sampling can also be driven from a
// context, so that a pending read can be cancelled.
type CtxInput interface {
	Input
	GetCtx(ctx context.Context) (int, error)
}

// decode runs one decode step on readings already sampled from the pins.
// Both the blocking and context driven encoders funnel through this after
// their reads complete, so the two poll flavours behave identically.
// A reversed encoder swaps the channels, which is equivalent to swapping
// the clk/dt wiring and flips both direction and count.
func decode(dec *IncrementalDecoder, reversed bool, a, b int) (*Change, error) {
	if reversed {
		a, b = b, a
	}
	return dec.Update(a != 0, b != 0)
}

func decodeIndexed(dec *IndexedIncrementalDecoder, reversed bool, a, b, z int) (*Change, error) {
	if reversed {
		a, b = b, a
	}
	return dec.Update(a != 0, b != 0, z != 0)
}

// Encoder is an incremental encoder driver polling two input pins.
// The pins are owned by the encoder once it is created.
// Poll reads both pins before the decoder is updated, so a failed pin
// read never leaves the decoder partially updated.
// An encoder must only be driven from a single goroutine.
type Encoder struct {
	clk, dt  Input
	dec      *IncrementalDecoder
	reversed bool
}

// NewEncoder creates an encoder for the clk and dt pins, taking
// ownership of the pins.
func NewEncoder(clk, dt Input, mode StepMode) (*Encoder, error) {
	dec, err := NewIncrementalDecoder(mode)
	if err != nil {
		return nil, err
	}
	e := new(Encoder)
	e.clk = clk
	e.dt = dt
	e.dec = dec
	return e, nil
}

// Reversed flips the direction the encoder reports, as if the clk and dt
// wiring were swapped. It returns the encoder for use when constructing.
func (e *Encoder) Reversed() *Encoder {
	e.reversed = !e.reversed
	return e
}

// Poll samples both pins and updates the decoder.
// Pin read failures are returned wrapped with the channel name, and
// leave the decoder state unchanged.
func (e *Encoder) Poll() (*Change, error) {
	a, err := e.clk.Get()
	if err != nil {
		return nil, fmt.Errorf("clk: %w", err)
	}
	b, err := e.dt.Get()
	if err != nil {
		return nil, fmt.Errorf("dt: %w", err)
	}
	return decode(e.dec, e.reversed, a, b)
}

// Position returns the current position count.
func (e *Encoder) Position() int {
	return e.dec.Counter()
}

// SetPosition sets the position count e.g to restore a saved position.
func (e *Encoder) SetPosition(pos int) {
	e.dec.SetCounter(pos)
}

// Release returns the pins owned by the encoder.
// The encoder must not be used afterwards.
func (e *Encoder) Release() (clk, dt Input) {
	return e.clk, e.dt
}

// IndexedEncoder is an incremental encoder driver with an index (Z) pin,
// polling three input pins. A rising edge on the index pin resets the
// position count to 0.
type IndexedEncoder struct {
	clk, dt, idx Input
	dec          *IndexedIncrementalDecoder
	reversed     bool
}

// NewIndexedEncoder creates an encoder for the clk, dt and index pins,
// taking ownership of the pins.
func NewIndexedEncoder(clk, dt, idx Input, mode StepMode) (*IndexedEncoder, error) {
	dec, err := NewIndexedIncrementalDecoder(mode)
	if err != nil {
		return nil, err
	}
	e := new(IndexedEncoder)
	e.clk = clk
	e.dt = dt
	e.idx = idx
	e.dec = dec
	return e, nil
}

// Reversed flips the direction the encoder reports.
func (e *IndexedEncoder) Reversed() *IndexedEncoder {
	e.reversed = !e.reversed
	return e
}

// Poll samples all three pins and updates the decoder.
// Pin read failures are returned wrapped with the channel name, and
// leave the decoder state unchanged.
func (e *IndexedEncoder) Poll() (*Change, error) {
	a, err := e.clk.Get()
	if err != nil {
		return nil, fmt.Errorf("clk: %w", err)
	}
	b, err := e.dt.Get()
	if err != nil {
		return nil, fmt.Errorf("dt: %w", err)
	}
	z, err := e.idx.Get()
	if err != nil {
		return nil, fmt.Errorf("idx: %w", err)
	}
	return decodeIndexed(e.dec, e.reversed, a, b, z)
}

// Position returns the current position count.
func (e *IndexedEncoder) Position() int {
	return e.dec.Counter()
}

// SetPosition sets the position count.
func (e *IndexedEncoder) SetPosition(pos int) {
	e.dec.SetCounter(pos)
}

// Release returns the pins owned by the encoder.
// The encoder must not be used afterwards.
func (e *IndexedEncoder) Release() (clk, dt, idx Input) {
	return e.clk, e.dt, e.idx
}
