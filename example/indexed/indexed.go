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

// Program to demonstrate an indexed encoder with a context driven poll.
// The position is reset whenever the index channel pulses, so the
// count reported is relative to the index mark.

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/aamcrae/quadrature"
	"github.com/aamcrae/quadrature/io"
)

var clk = flag.Int("clk", 17, "GPIO pin for the clk (A) channel")
var dt = flag.Int("dt", 27, "GPIO pin for the dt (B) channel")
var idx = flag.Int("index", 22, "GPIO pin for the index (Z) channel")
var rate = flag.Duration("rate", time.Millisecond, "Sampling interval")

func main() {
	flag.Parse()
	pins := make([]*io.Gpio, 3)
	for i, gp := range []int{*clk, *dt, *idx} {
		var err error
		pins[i], err = io.Pin(gp)
		if err != nil {
			log.Fatalf("Pin %d: %v", gp, err)
		}
		defer pins[i].Close()
	}
	enc, err := quadrature.NewAsyncIndexedEncoder(pins[0], pins[1], pins[2], quadrature.QUAD)
	if err != nil {
		log.Fatalf("encoder: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ticker := time.NewTicker(*rate)
	for {
		select {
		case <-ctx.Done():
			log.Printf("final position %d", enc.Position())
			return
		case <-ticker.C:
		}
		change, err := enc.Poll(ctx)
		if err != nil {
			if errors.Is(err, quadrature.ErrInvalidTransition) {
				log.Printf("glitch: %v", err)
				continue
			}
			if ctx.Err() != nil {
				log.Printf("final position %d", enc.Position())
				return
			}
			log.Fatalf("poll: %v", err)
		}
		if change != nil {
			log.Printf("%s, position %d", change.Dir, change.Count)
		}
	}
}
