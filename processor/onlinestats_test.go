// blinky-recorder - record pixel time series from Blinky sound-to-light sensors
//  Copyright (C) 2026, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package processor

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/TheCacophonyProject/blinky-recorder/frame"
)

func randomBatch(rng *rand.Rand, n int, shape ...int) frame.Batch {
	channels := 1
	if len(shape) == 3 {
		channels = shape[2]
	}
	b := frame.Batch{}
	for i := 0; i < n; i++ {
		f := frame.New(shape[0], shape[1], channels)
		rng.Read(f.Pix)
		b = append(b, f)
	}
	return b
}

func TestOnlineStatsMatchesDirectComputation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	b := randomBatch(rng, 12, 4, 5, 3)

	s, err := NewOnlineStats([]int{4, 5, 3})
	require.NoError(t, err)
	require.NoError(t, s.Process(b[:5]))
	require.NoError(t, s.Process(b[5:6]))
	require.NoError(t, s.Process(b[6:]))
	assert.Equal(t, 12, s.Count())

	mean := s.Mean()
	variance := s.Variance()
	for i := range mean {
		xs := make([]float64, len(b))
		for j, f := range b {
			xs[j] = float64(f.Pix[i])
		}
		m, v := stat.MeanVariance(xs, nil)
		assert.InDelta(t, m, mean[i], 1e-9)
		assert.InDelta(t, v, variance[i], 1e-9)
	}
}

func TestOnlineStatsMergeIsAssociative(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a := randomBatch(rng, 7, 6, 8)
	b := randomBatch(rng, 3, 6, 8)

	split, err := NewOnlineStats([]int{6, 8})
	require.NoError(t, err)
	require.NoError(t, split.Process(a))
	require.NoError(t, split.Process(b))

	joined, err := NewOnlineStats([]int{6, 8})
	require.NoError(t, err)
	require.NoError(t, joined.Process(append(a.Clone(), b...)))

	assert.Equal(t, joined.Count(), split.Count())
	assert.InDeltaSlice(t, joined.Mean(), split.Mean(), 1e-9)
	assert.InDeltaSlice(t, joined.Variance(), split.Variance(), 1e-9)
}

func TestOnlineStatsSingleFrame(t *testing.T) {
	s, err := NewOnlineStats([]int{2, 2})
	require.NoError(t, err)
	f := frame.New(2, 2, 1)
	f.Fill(9)
	require.NoError(t, s.Process(frame.Of(f)))

	assert.Equal(t, []float64{9, 9, 9, 9}, s.Mean())
	assert.Equal(t, []float64{0, 0, 0, 0}, s.Variance())
	assert.Equal(t, []int{2, 2}, s.Shape())
}

func TestOnlineStatsShapeMismatch(t *testing.T) {
	s, err := NewOnlineStats([]int{10, 10})
	require.NoError(t, err)
	p := New(s, DefaultConfig("stats"))

	err = p.Process(frame.Of(frame.New(10, 10, 3)))
	assert.True(t, errors.Is(err, ErrShapeMismatch))
	err = p.Process(frame.Of(frame.New(10, 10, 1), frame.New(5, 10, 1)))
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	s, err = p.Stop()
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count())
}

func TestOnlineStatsInvalidShape(t *testing.T) {
	for _, shape := range [][]int{{10}, {10, 0}, {1, 2, 3, 4}} {
		_, err := NewOnlineStats(shape)
		assert.True(t, errors.Is(err, ErrShapeMismatch), "%v", shape)
	}
}
