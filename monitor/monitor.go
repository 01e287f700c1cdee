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

// Encoder monitor program

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/aamcrae/config"

	"github.com/aamcrae/quadrature"
	"github.com/aamcrae/quadrature/io"
	"github.com/aamcrae/quadrature/trace"
)

var configFile = flag.String("config", "", "Configuration file")
var section = flag.String("encoder", "encoder", "Config section for the encoder")
var port = flag.Int("port", 8080, "Web server port for the trace image")
var samples = flag.Int("samples", 512, "Number of trace samples kept")

// Configuration data for one encoder, read from a configuration file.
type EncConfig struct {
	Name  string
	Clk   int
	Dt    int
	Index int
	Mode  quadrature.StepMode
	Rate  time.Duration
}

// Config reads and validates an encoder config from a config file section.
// Sample config:
//
//	[encoder]
//	pins=17,27,22       # GPIOs for clk, dt and index channels
//	mode=quad           # Step mode: full, half or quad
//	rate=1ms            # Sampling interval as a duration
func Config(conf *config.Config, name string) (*EncConfig, error) {
	s := conf.GetSection(name)
	if s == nil {
		return nil, fmt.Errorf("no config for %s", name)
	}
	var ec EncConfig
	ec.Name = name
	n, err := s.Parse("pins", "%d,%d,%d", &ec.Clk, &ec.Dt, &ec.Index)
	if err != nil {
		return nil, fmt.Errorf("pins: %v", err)
	}
	if n != 3 {
		return nil, fmt.Errorf("invalid pins arguments")
	}
	m, err := s.GetArg("mode")
	if err != nil {
		return nil, fmt.Errorf("mode: %v", err)
	}
	switch m {
	case "full":
		ec.Mode = quadrature.FULL
	case "half":
		ec.Mode = quadrature.HALF
	case "quad":
		ec.Mode = quadrature.QUAD
	default:
		return nil, fmt.Errorf("mode: unknown mode %s", m)
	}
	r, err := s.GetArg("rate")
	if err != nil {
		return nil, fmt.Errorf("rate: %v", err)
	}
	ec.Rate, err = time.ParseDuration(r)
	if err != nil {
		return nil, fmt.Errorf("rate: %v", err)
	}
	return &ec, nil
}

func main() {
	flag.Parse()
	conf, err := config.ParseFile(*configFile)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	ec, err := Config(conf, *section)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	pins := make([]*io.Gpio, 3)
	for i, p := range []int{ec.Clk, ec.Dt, ec.Index} {
		pins[i], err = io.Pin(p)
		if err != nil {
			log.Fatalf("Pin %d: %v", p, err)
		}
		defer pins[i].Close()
	}
	dec, err := quadrature.NewIndexedIncrementalDecoder(ec.Mode)
	if err != nil {
		log.Fatalf("%s: %v", ec.Name, err)
	}
	rec := trace.NewRecorder(*samples)
	go trace.Server(*port, rec)
	log.Printf("%s: sampling pins %d,%d,%d every %s", ec.Name, ec.Clk, ec.Dt, ec.Index, ec.Rate)
	ticker := time.NewTicker(ec.Rate)
	invalid := 0
	for range ticker.C {
		var v [3]int
		for i, p := range pins {
			v[i], err = p.Get()
			if err != nil {
				log.Fatalf("%s: pin read: %v", ec.Name, err)
			}
		}
		rec.Add(v[0], v[1], v[2])
		change, err := dec.Update(v[0] != 0, v[1] != 0, v[2] != 0)
		if errors.Is(err, quadrature.ErrInvalidTransition) {
			// Signal glitch or under-sampling; the decoder
			// has resynchronised, so keep going.
			invalid++
			log.Printf("%s: %v (%d so far)", ec.Name, err, invalid)
			continue
		}
		if change != nil {
			log.Printf("%s: %s, position %d", ec.Name, change.Dir, change.Count)
		}
	}
}
