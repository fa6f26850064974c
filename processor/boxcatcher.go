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
	"fmt"
	"image"

	"github.com/TheCacophonyProject/blinky-recorder/frame"
)

// Samples is the dense output of a BoxCatcher with axes
// (frame, pixel, box row, box col[, channel]).
type Samples struct {
	Shape []int
	Pix   []uint8
}

func (s *Samples) At(n, pixel, row, col, ch int) uint8 {
	i := n
	for axis, v := range []int{pixel, row, col, ch}[:len(s.Shape)-1] {
		i = i*s.Shape[axis+1] + v
	}
	return s.Pix[i]
}

// BoxCatcher collects the samples in a box around each selected pixel
// of every frame.
type BoxCatcher struct {
	pixels   []image.Point
	box      image.Point
	shape    []int
	channels int
	ranges   []image.Rectangle

	blocks  [][]uint8
	frames  int
	samples *Samples
}

// NewBoxCatcher prepares to collect boxes of size box (width, height)
// centred on pixels (X is the column, Y the row) from frames of the given
// shape. Even box sizes put the extra sample before the pixel. Every box
// must fit inside the frame.
func NewBoxCatcher(pixels []image.Point, box image.Point, shape []int) (*BoxCatcher, error) {
	if len(pixels) == 0 {
		return nil, ErrNoPixels
	}
	if box.X <= 0 || box.Y <= 0 {
		return nil, fmt.Errorf("%w: box size %v", ErrOutOfBounds, box)
	}
	if len(shape) < 2 || len(shape) > 3 {
		return nil, fmt.Errorf("%w: unsupported frame shape %v", ErrShapeMismatch, shape)
	}
	channels := 1
	if len(shape) == 3 {
		channels = shape[2]
	}
	bounds := image.Rect(0, 0, shape[1], shape[0])

	ranges := make([]image.Rectangle, len(pixels))
	for i, p := range pixels {
		origin := image.Pt(p.X-box.X/2, p.Y-box.Y/2)
		r := image.Rectangle{Min: origin, Max: origin.Add(box)}
		if !r.In(bounds) {
			return nil, fmt.Errorf("%w: box %v around %v, frame %v", ErrOutOfBounds, r, p, bounds)
		}
		ranges[i] = r
	}

	return &BoxCatcher{
		pixels:   append([]image.Point(nil), pixels...),
		box:      box,
		shape:    append([]int(nil), shape...),
		channels: channels,
		ranges:   ranges,
	}, nil
}

func (c *BoxCatcher) Pixels() []image.Point {
	return append([]image.Point(nil), c.pixels...)
}

func (c *BoxCatcher) BoxSize() image.Point {
	return c.box
}

func (c *BoxCatcher) Ranges() []image.Rectangle {
	return append([]image.Rectangle(nil), c.ranges...)
}

// Frames returns the number of frames collected.
func (c *BoxCatcher) Frames() int {
	return c.frames
}

// Samples returns the collected boxes. It is nil until Finalize.
func (c *BoxCatcher) Samples() *Samples {
	return c.samples
}

func (c *BoxCatcher) Validate(b frame.Batch) error {
	for _, f := range b {
		if !f.SameShape(c.shape) {
			return fmt.Errorf("%w: got %v, want %v", ErrShapeMismatch, f.Shape(), c.shape)
		}
	}
	return nil
}

func (c *BoxCatcher) Process(b frame.Batch) error {
	if err := c.Validate(b); err != nil {
		return err
	}
	rowLen := c.box.X * c.channels
	block := make([]uint8, 0, len(b)*len(c.ranges)*c.box.Y*rowLen)
	for _, f := range b {
		for _, r := range c.ranges {
			for y := r.Min.Y; y < r.Max.Y; y++ {
				start := (y*f.Cols + r.Min.X) * c.channels
				block = append(block, f.Pix[start:start+rowLen]...)
			}
		}
	}
	c.blocks = append(c.blocks, block)
	c.frames += len(b)
	return nil
}

// Finalize joins the collected boxes into one dense array.
func (c *BoxCatcher) Finalize() error {
	shape := []int{c.frames, len(c.ranges), c.box.Y, c.box.X}
	if len(c.shape) == 3 {
		shape = append(shape, c.channels)
	}
	size := 0
	for _, block := range c.blocks {
		size += len(block)
	}
	pix := make([]uint8, 0, size)
	for _, block := range c.blocks {
		pix = append(pix, block...)
	}
	c.blocks = nil
	c.samples = &Samples{Shape: shape, Pix: pix}
	return nil
}
