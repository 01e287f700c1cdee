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

// Package periphio adapts periph.io GPIO pins to encoder inputs.
package periphio

import (
	"context"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Interval between cancellation checks when a context driven read
// is waiting for an edge.
const waitSlice = 100 * time.Millisecond

// Pin adapts a periph.io pin to the encoder input capability.
type Pin struct {
	pin  gpio.PinIO
	edge gpio.Edge
}

// NewPin configures a periph.io pin as an encoder input.
// With gpio.NoEdge, reads sample the current level immediately;
// otherwise reads wait for the selected edge first.
func NewPin(p gpio.PinIO, pull gpio.Pull, edge gpio.Edge) (*Pin, error) {
	if err := p.In(pull, edge); err != nil {
		return nil, err
	}
	return &Pin{pin: p, edge: edge}, nil
}

// Get returns the current value of the pin.
func (p *Pin) Get() (int, error) {
	if p.edge != gpio.NoEdge {
		p.pin.WaitForEdge(-1)
	}
	return p.level(), nil
}

// GetCtx returns the current value of the pin under the control of a
// context. An edge wait is broken into short slices so that
// cancellation is honoured; the level is never read after the context
// is cancelled.
func (p *Pin) GetCtx(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if p.edge != gpio.NoEdge {
		for !p.pin.WaitForEdge(waitSlice) {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
	}
	return p.level(), nil
}

func (p *Pin) level() int {
	if p.pin.Read() == gpio.High {
		return 1
	}
	return 0
}

// Halt releases the pin.
func (p *Pin) Halt() error {
	return p.pin.Halt()
}
