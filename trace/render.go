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

// Timing diagram rendering and web server for captured samples.

package trace

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"

	"github.com/fogleman/gg"
)

const laneHeight = 60
const margin = 20

// Render draws the samples as a square wave timing diagram, one lane
// per channel (A, B, Z top to bottom).
func Render(samples []Sample, width int) image.Image {
	height := 3*laneHeight + 2*margin
	c := gg.NewContext(width, height)
	c.SetRGB(1, 1, 1)
	c.Clear()
	if len(samples) > 1 {
		xstep := float64(width-2*margin) / float64(len(samples)-1)
		c.SetLineWidth(2)
		c.SetRGB(0, 0, 1)
		drawLane(c, samples, 0, xstep, func(s Sample) int { return s.A })
		c.SetRGB(0, 0.5, 0)
		drawLane(c, samples, 1, xstep, func(s Sample) int { return s.B })
		c.SetRGB(1, 0, 1)
		drawLane(c, samples, 2, xstep, func(s Sample) int { return s.Z })
	}
	return c.Image()
}

// drawLane draws one channel as a square wave, with vertical segments
// at each level change.
func drawLane(c *gg.Context, samples []Sample, lane int, xstep float64, level func(Sample) int) {
	base := float64(margin + lane*laneHeight + laneHeight - 10)
	high := base - float64(laneHeight-20)
	y := func(v int) float64 {
		if v != 0 {
			return high
		}
		return base
	}
	x := float64(margin)
	last := samples[0]
	for _, s := range samples[1:] {
		nx := x + xstep
		c.DrawLine(x, y(level(last)), nx, y(level(last)))
		if level(s) != level(last) {
			c.DrawLine(nx, y(level(last)), nx, y(level(s)))
		}
		x = nx
		last = s
	}
	c.Stroke()
}

// Server starts a web server returning the current trace as a PNG image.
func Server(port int, r *Recorder) {
	http.Handle("/trace.png", http.HandlerFunc(handler(r)))
	url := fmt.Sprintf(":%d", port)
	log.Printf("Starting trace server on %s", url)
	server := &http.Server{Addr: url}
	log.Fatal(server.ListenAndServe())
}

func handler(r *Recorder) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		img := Render(r.Snapshot(), 1024)
		err := png.Encode(w, img)
		if err != nil {
			log.Printf("Error writing image: %v\n", err)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
}
