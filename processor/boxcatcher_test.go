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
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/blinky-recorder/frame"
)

func TestBoxCatcherConstantFrames(t *testing.T) {
	c, err := NewBoxCatcher([]image.Point{{5, 5}}, image.Pt(3, 3), []int{10, 10})
	require.NoError(t, err)
	p := New(c, DefaultConfig("box"))
	for i := 0; i < 4; i++ {
		f := frame.New(10, 10, 1)
		f.Fill(7)
		require.NoError(t, p.Process(frame.Of(f)))
	}
	c, err = p.Stop()
	require.NoError(t, err)

	samples := c.Samples()
	require.NotNil(t, samples)
	assert.Equal(t, []int{4, 1, 3, 3}, samples.Shape)
	require.Len(t, samples.Pix, 36)
	for _, v := range samples.Pix {
		assert.Equal(t, uint8(7), v)
	}
	assert.Equal(t, 4, c.Frames())
}

func TestBoxCatcherRanges(t *testing.T) {
	c, err := NewBoxCatcher([]image.Point{{5, 5}, {2, 8}}, image.Pt(4, 2), []int{10, 10})
	require.NoError(t, err)
	assert.Equal(t, []image.Rectangle{
		image.Rect(3, 4, 7, 6),
		image.Rect(0, 7, 4, 9),
	}, c.Ranges())
}

func TestBoxCatcherOutOfBounds(t *testing.T) {
	shape := []int{10, 10}
	box := image.Pt(3, 3)
	for _, p := range []image.Point{{0, 5}, {5, 0}, {9, 5}, {5, 9}, {-3, -3}, {20, 20}} {
		_, err := NewBoxCatcher([]image.Point{{5, 5}, p}, box, shape)
		assert.True(t, errors.Is(err, ErrOutOfBounds), "%v", p)
	}
	for _, p := range []image.Point{{1, 1}, {8, 8}, {1, 8}} {
		_, err := NewBoxCatcher([]image.Point{p}, box, shape)
		assert.NoError(t, err, "%v", p)
	}

	_, err := NewBoxCatcher([]image.Point{{5, 5}}, image.Pt(0, 3), shape)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	_, err = NewBoxCatcher(nil, box, shape)
	assert.Equal(t, ErrNoPixels, err)
}

func TestBoxCatcherExtractsColourBoxes(t *testing.T) {
	f := frame.New(10, 12, 3)
	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			for ch := 0; ch < 3; ch++ {
				f.Set(row, col, ch, uint8(row*12+col+ch*100))
			}
		}
	}
	g := f.CreateCopy()
	g.Fill(1)

	pixels := []image.Point{{2, 3}, {10, 7}}
	c, err := NewBoxCatcher(pixels, image.Pt(3, 3), []int{10, 12, 3})
	require.NoError(t, err)
	require.NoError(t, c.Process(frame.Of(f, g)))
	require.NoError(t, c.Process(frame.Of(f)))
	require.NoError(t, c.Finalize())

	s := c.Samples()
	assert.Equal(t, []int{3, 2, 3, 3, 3}, s.Shape)
	assert.Len(t, s.Pix, 3*2*3*3*3)
	for _, n := range []int{0, 2} {
		for i, p := range pixels {
			for row := 0; row < 3; row++ {
				for col := 0; col < 3; col++ {
					for ch := 0; ch < 3; ch++ {
						want := f.At(p.Y-1+row, p.X-1+col, ch)
						assert.Equal(t, want, s.At(n, i, row, col, ch))
					}
				}
			}
		}
	}
	assert.Equal(t, uint8(1), s.At(1, 1, 2, 2, 2))
	assert.Equal(t, pixels, c.Pixels())
	assert.Equal(t, image.Pt(3, 3), c.BoxSize())
}

func TestBoxCatcherShapeMismatch(t *testing.T) {
	c, err := NewBoxCatcher([]image.Point{{5, 5}}, image.Pt(3, 3), []int{10, 10})
	require.NoError(t, err)
	p := New(c, DefaultConfig("box"))
	err = p.Process(frame.Of(frame.New(10, 10, 3)))
	assert.True(t, errors.Is(err, ErrShapeMismatch))
	c, err = p.Stop()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 3, 3}, c.Samples().Shape)
}
