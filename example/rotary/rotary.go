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

// Program to demonstrate polling a rotary encoder.

package main

import (
	"errors"
	"flag"
	"log"
	"time"

	"github.com/aamcrae/quadrature"
	"github.com/aamcrae/quadrature/io"
)

var clk = flag.Int("clk", 17, "GPIO pin for the clk (A) channel")
var dt = flag.Int("dt", 27, "GPIO pin for the dt (B) channel")
var rate = flag.Duration("rate", time.Millisecond, "Sampling interval")

func main() {
	flag.Parse()
	pclk, err := io.Pin(*clk)
	if err != nil {
		log.Fatalf("Pin %d: %v", *clk, err)
	}
	defer pclk.Close()
	pdt, err := io.Pin(*dt)
	if err != nil {
		log.Fatalf("Pin %d: %v", *dt, err)
	}
	defer pdt.Close()
	enc, err := quadrature.NewEncoder(pclk, pdt, quadrature.FULL)
	if err != nil {
		log.Fatalf("encoder: %v", err)
	}
	ticker := time.NewTicker(*rate)
	for range ticker.C {
		change, err := enc.Poll()
		if err != nil {
			if errors.Is(err, quadrature.ErrInvalidTransition) {
				log.Printf("glitch: %v", err)
				continue
			}
			log.Fatalf("poll: %v", err)
		}
		if change != nil {
			log.Printf("%s, position %d", change.Dir, change.Count)
		}
	}
}
