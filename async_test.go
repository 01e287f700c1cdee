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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ctxPin is a scripted pin supporting context driven reads.
type ctxPin struct {
	testPin
}

func (p *ctxPin) GetCtx(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return p.Get()
}

// chanPin is a pin whose reads block until a level is supplied,
// or the context is cancelled.
type chanPin struct {
	c chan int
}

func newChanPin() *chanPin {
	return &chanPin{c: make(chan int, 1)}
}

func (p *chanPin) Get() (int, error) {
	return <-p.c, nil
}

func (p *chanPin) GetCtx(ctx context.Context) (int, error) {
	select {
	case v := <-p.c:
		return v, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func TestAsyncPoll(t *testing.T) {
	clk := &ctxPin{testPin{script: []any{0, 0, 1, 1, 0}}}
	dt := &ctxPin{testPin{script: []any{0, 1, 1, 0, 0}}}
	e, err := NewAsyncEncoder(clk, dt, QUAD)
	require.NoError(t, err)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := e.Poll(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, e.Position())
}

func TestAsyncCancel(t *testing.T) {
	clk := newChanPin()
	dt := newChanPin()
	e, err := NewAsyncEncoder(clk, dt, QUAD)
	require.NoError(t, err)
	ctx := context.Background()
	clk.c <- 0
	dt.c <- 0
	_, err = e.Poll(ctx)
	require.NoError(t, err)
	// The dt read never completes; abandoning the poll must leave
	// the decoder in its pre-poll state even though the clk read
	// already succeeded.
	clk.c <- 0
	tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	c, err := e.Poll(tctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, c)
	assert.Equal(t, 0, e.Position())
	// A subsequent poll carries on from the pre-cancel state:
	// 00 -> 01 is one forward transition.
	clk.c <- 0
	dt.c <- 1
	c, err = e.Poll(ctx)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, FORWARD, c.Dir)
	assert.Equal(t, 1, e.Position())
}

func TestAsyncIndexedPoll(t *testing.T) {
	clk := &ctxPin{testPin{script: []any{0, 0, 1}}}
	dt := &ctxPin{testPin{script: []any{0, 1, 1}}}
	idx := &ctxPin{testPin{script: []any{0, 0, 1}}}
	e, err := NewAsyncIndexedEncoder(clk, dt, idx, QUAD)
	require.NoError(t, err)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := e.Poll(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, e.Position())
}

func TestConversionPreservesState(t *testing.T) {
	clk := &ctxPin{testPin{script: []any{0, 0, 1, 1, 0}}}
	dt := &ctxPin{testPin{script: []any{0, 1, 1, 0, 0}}}
	e, err := NewEncoder(clk, dt, QUAD)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := e.Poll()
		require.NoError(t, err)
	}
	require.Equal(t, 1, e.Position())
	// Conversion is pure: no I/O, no position change.
	reads := clk.reads
	ae, err := e.Async()
	require.NoError(t, err)
	assert.Equal(t, reads, clk.reads)
	assert.Equal(t, 1, ae.Position())
	// Polling carries on mid cycle with no lost transitions.
	ctx := context.Background()
	_, err = ae.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ae.Position())
	be := ae.Blocking()
	assert.Equal(t, 2, be.Position())
	for i := 0; i < 2; i++ {
		_, err := be.Poll()
		require.NoError(t, err)
	}
	assert.Equal(t, 4, be.Position())
}

func TestConversionEquivalence(t *testing.T) {
	// The same pin read sequence produces identical poll outputs
	// whether or not the encoder has been round tripped through a
	// conversion.
	script := func() ([]any, []any) {
		return []any{0, 0, 1, 1, 0}, []any{0, 1, 1, 0, 0}
	}
	s1, s2 := script()
	plain, err := NewEncoder(&ctxPin{testPin{script: s1}}, &ctxPin{testPin{script: s2}}, HALF)
	require.NoError(t, err)
	s1, s2 = script()
	converted, err := NewEncoder(&ctxPin{testPin{script: s1}}, &ctxPin{testPin{script: s2}}, HALF)
	require.NoError(t, err)
	ae, err := converted.Async()
	require.NoError(t, err)
	rt := ae.Blocking()
	for i := 0; i < 5; i++ {
		c1, err1 := plain.Poll()
		c2, err2 := rt.Poll()
		assert.Equal(t, err1, err2)
		assert.Equal(t, c1, c2)
	}
	assert.Equal(t, plain.Position(), rt.Position())
}

func TestAsyncNeedsCtxPins(t *testing.T) {
	// A pin without a context read is rejected at the conversion
	// boundary, and the blocking encoder remains usable.
	e, err := NewEncoder(&testPin{script: []any{0}}, &testPin{script: []any{0}}, QUAD)
	require.NoError(t, err)
	_, err = e.Async()
	assert.Error(t, err)
	_, err = e.Poll()
	assert.NoError(t, err)

	ie, err := NewIndexedEncoder(&ctxPin{}, &ctxPin{}, &testPin{}, QUAD)
	require.NoError(t, err)
	_, err = ie.Async()
	assert.Error(t, err)
}

func TestAsyncReversed(t *testing.T) {
	clk := &ctxPin{testPin{script: []any{0, 0, 1, 1, 0}}}
	dt := &ctxPin{testPin{script: []any{0, 1, 1, 0, 0}}}
	e, err := NewAsyncEncoder(clk, dt, QUAD)
	require.NoError(t, err)
	e.Reversed()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := e.Poll(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, -4, e.Position())
}
