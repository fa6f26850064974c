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

package frame

import (
	"fmt"
	"image"
)

// Frame holds the 8-bit samples of a single captured image. Pixels are
// stored row-major with channels interleaved. Colour frames use RGB order.
type Frame struct {
	Rows     int
	Cols     int
	Channels int
	Pix      []uint8
}

// New returns a zeroed frame of the given geometry.
func New(rows, cols, channels int) *Frame {
	if channels < 1 {
		channels = 1
	}
	return &Frame{
		Rows:     rows,
		Cols:     cols,
		Channels: channels,
		Pix:      make([]uint8, rows*cols*channels),
	}
}

// Shape returns (rows, cols) for grayscale frames and
// (rows, cols, channels) otherwise.
func (f *Frame) Shape() []int {
	if f.Channels == 1 {
		return []int{f.Rows, f.Cols}
	}
	return []int{f.Rows, f.Cols, f.Channels}
}

// Stride is the number of samples in one row.
func (f *Frame) Stride() int {
	return f.Cols * f.Channels
}

func (f *Frame) offset(row, col, ch int) int {
	return row*f.Stride() + col*f.Channels + ch
}

func (f *Frame) At(row, col, ch int) uint8 {
	return f.Pix[f.offset(row, col, ch)]
}

func (f *Frame) Set(row, col, ch int, v uint8) {
	f.Pix[f.offset(row, col, ch)] = v
}

// Fill sets every sample of the frame to v.
func (f *Frame) Fill(v uint8) {
	for i := range f.Pix {
		f.Pix[i] = v
	}
}

// CreateCopy returns a deep copy of the frame.
func (f *Frame) CreateCopy() *Frame {
	out := &Frame{
		Rows:     f.Rows,
		Cols:     f.Cols,
		Channels: f.Channels,
		Pix:      make([]uint8, len(f.Pix)),
	}
	copy(out.Pix, f.Pix)
	return out
}

// Copy sets the frame to be a copy of orig, reusing the pixel buffer
// when it is large enough.
func (f *Frame) Copy(orig *Frame) {
	f.Rows = orig.Rows
	f.Cols = orig.Cols
	f.Channels = orig.Channels
	if cap(f.Pix) < len(orig.Pix) {
		f.Pix = make([]uint8, len(orig.Pix))
	}
	f.Pix = f.Pix[:len(orig.Pix)]
	copy(f.Pix, orig.Pix)
}

// SameShape reports whether the frame has exactly the given shape.
func (f *Frame) SameShape(shape []int) bool {
	s := f.Shape()
	if len(s) != len(shape) {
		return false
	}
	for i := range s {
		if s[i] != shape[i] {
			return false
		}
	}
	return true
}

func (f *Frame) String() string {
	return fmt.Sprintf("frame%v", f.Shape())
}

// ToImage converts the frame to an image suitable for display. Frames
// with 3 or 4 channels become RGBA images, everything else is shown
// using the first channel as grayscale.
func (f *Frame) ToImage() image.Image {
	rect := image.Rect(0, 0, f.Cols, f.Rows)
	if f.Channels < 3 {
		img := image.NewGray(rect)
		for y := 0; y < f.Rows; y++ {
			for x := 0; x < f.Cols; x++ {
				img.Pix[y*img.Stride+x] = f.At(y, x, 0)
			}
		}
		return img
	}

	img := image.NewRGBA(rect)
	for y := 0; y < f.Rows; y++ {
		for x := 0; x < f.Cols; x++ {
			i := y*img.Stride + x*4
			img.Pix[i] = f.At(y, x, 0)
			img.Pix[i+1] = f.At(y, x, 1)
			img.Pix[i+2] = f.At(y, x, 2)
			img.Pix[i+3] = 0xff
		}
	}
	return img
}
