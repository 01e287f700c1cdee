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

// Context driven encoder drivers, for pins whose reads may block
// until the signal changes.

package quadrature

import (
	"context"
	"fmt"
)

// AsyncEncoder is an incremental encoder driver whose poll is driven
// from a context. The only blocking points are the pin reads; the
// decoder is updated only once all reads have completed, so abandoning
// a poll through context cancellation leaves the decoder in its
// pre-poll state.
type AsyncEncoder struct {
	clk, dt  CtxInput
	dec      *IncrementalDecoder
	reversed bool
}

// NewAsyncEncoder creates a context driven encoder for the clk and dt
// pins, taking ownership of the pins.
func NewAsyncEncoder(clk, dt CtxInput, mode StepMode) (*AsyncEncoder, error) {
	dec, err := NewIncrementalDecoder(mode)
	if err != nil {
		return nil, err
	}
	e := new(AsyncEncoder)
	e.clk = clk
	e.dt = dt
	e.dec = dec
	return e, nil
}

// Reversed flips the direction the encoder reports.
func (e *AsyncEncoder) Reversed() *AsyncEncoder {
	e.reversed = !e.reversed
	return e
}

// Poll samples both pins under the control of ctx and updates the
// decoder. If ctx is cancelled while a read is outstanding, the read
// error is returned and the decoder state is unchanged.
func (e *AsyncEncoder) Poll(ctx context.Context) (*Change, error) {
	a, err := e.clk.GetCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("clk: %w", err)
	}
	b, err := e.dt.GetCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("dt: %w", err)
	}
	return decode(e.dec, e.reversed, a, b)
}

// Position returns the current position count.
func (e *AsyncEncoder) Position() int {
	return e.dec.Counter()
}

// SetPosition sets the position count.
func (e *AsyncEncoder) SetPosition(pos int) {
	e.dec.SetCounter(pos)
}

// Release returns the pins owned by the encoder.
// The encoder must not be used afterwards.
func (e *AsyncEncoder) Release() (clk, dt CtxInput) {
	return e.clk, e.dt
}

// Blocking rebuilds the encoder as a blocking one, moving the pins and
// keeping the decoder state. No I/O is performed, and the position is
// unchanged. The async encoder must not be used afterwards.
func (e *AsyncEncoder) Blocking() *Encoder {
	return &Encoder{clk: e.clk, dt: e.dt, dec: e.dec, reversed: e.reversed}
}

// Async rebuilds the encoder as a context driven one, moving the pins
// and keeping the decoder state. The pins must support context driven
// reads; if not, an error is returned and the encoder is unchanged.
// On success the blocking encoder must not be used afterwards.
func (e *Encoder) Async() (*AsyncEncoder, error) {
	clk, ok := e.clk.(CtxInput)
	if !ok {
		return nil, fmt.Errorf("clk: pin has no context read")
	}
	dt, ok := e.dt.(CtxInput)
	if !ok {
		return nil, fmt.Errorf("dt: pin has no context read")
	}
	return &AsyncEncoder{clk: clk, dt: dt, dec: e.dec, reversed: e.reversed}, nil
}

// AsyncIndexedEncoder is a context driven encoder with an index (Z) pin.
type AsyncIndexedEncoder struct {
	clk, dt, idx CtxInput
	dec          *IndexedIncrementalDecoder
	reversed     bool
}

// NewAsyncIndexedEncoder creates a context driven encoder for the clk,
// dt and index pins, taking ownership of the pins.
func NewAsyncIndexedEncoder(clk, dt, idx CtxInput, mode StepMode) (*AsyncIndexedEncoder, error) {
	dec, err := NewIndexedIncrementalDecoder(mode)
	if err != nil {
		return nil, err
	}
	e := new(AsyncIndexedEncoder)
	e.clk = clk
	e.dt = dt
	e.idx = idx
	e.dec = dec
	return e, nil
}

// Reversed flips the direction the encoder reports.
func (e *AsyncIndexedEncoder) Reversed() *AsyncIndexedEncoder {
	e.reversed = !e.reversed
	return e
}

// Poll samples all three pins under the control of ctx and updates the
// decoder. If ctx is cancelled while a read is outstanding, the read
// error is returned and the decoder state is unchanged.
func (e *AsyncIndexedEncoder) Poll(ctx context.Context) (*Change, error) {
	a, err := e.clk.GetCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("clk: %w", err)
	}
	b, err := e.dt.GetCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("dt: %w", err)
	}
	z, err := e.idx.GetCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("idx: %w", err)
	}
	return decodeIndexed(e.dec, e.reversed, a, b, z)
}

// Position returns the current position count.
func (e *AsyncIndexedEncoder) Position() int {
	return e.dec.Counter()
}

// SetPosition sets the position count.
func (e *AsyncIndexedEncoder) SetPosition(pos int) {
	e.dec.SetCounter(pos)
}

// Release returns the pins owned by the encoder.
// The encoder must not be used afterwards.
func (e *AsyncIndexedEncoder) Release() (clk, dt, idx CtxInput) {
	return e.clk, e.dt, e.idx
}

// Blocking rebuilds the encoder as a blocking one, moving the pins and
// keeping the decoder state. The async encoder must not be used
// afterwards.
func (e *AsyncIndexedEncoder) Blocking() *IndexedEncoder {
	return &IndexedEncoder{clk: e.clk, dt: e.dt, idx: e.idx, dec: e.dec, reversed: e.reversed}
}

// Async rebuilds the encoder as a context driven one, moving the pins
// and keeping the decoder state. The pins must support context driven
// reads; if not, an error is returned and the encoder is unchanged.
func (e *IndexedEncoder) Async() (*AsyncIndexedEncoder, error) {
	clk, ok := e.clk.(CtxInput)
	if !ok {
		return nil, fmt.Errorf("clk: pin has no context read")
	}
	dt, ok := e.dt.(CtxInput)
	if !ok {
		return nil, fmt.Errorf("dt: pin has no context read")
	}
	idx, ok := e.idx.(CtxInput)
	if !ok {
		return nil, fmt.Errorf("idx: pin has no context read")
	}
	return &AsyncIndexedEncoder{clk: clk, dt: dt, idx: idx, dec: e.dec, reversed: e.reversed}, nil
}
