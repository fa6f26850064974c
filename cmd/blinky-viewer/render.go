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

package main

import (
	"image"
	"math"

	"github.com/TheCacophonyProject/blinky-recorder/frame"
)

type renderOptions struct {
	// Gray shows colour frames in black and white.
	Gray bool
	// Saturation paints pixels with any saturated channel green.
	Saturation bool
	// Log compresses the range of the samples so dim lights show up.
	Log bool
}

// render converts a frame to an RGBA image for display.
func render(f *frame.Frame, opts renderOptions) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Cols, f.Rows))
	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			var r, g, b uint8
			if f.Channels >= 3 {
				r, g, b = f.At(row, col, 0), f.At(row, col, 1), f.At(row, col, 2)
			} else {
				r = f.At(row, col, 0)
				g, b = r, r
			}
			saturated := r == 255 || g == 255 || b == 255
			if opts.Gray {
				y := uint8(math.Round(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)))
				r, g, b = y, y, y
			}
			if opts.Saturation && saturated {
				r, g, b = 0, 255, 0
			}
			i := img.PixOffset(col, row)
			img.Pix[i] = r
			img.Pix[i+1] = g
			img.Pix[i+2] = b
			img.Pix[i+3] = 255
		}
	}
	if opts.Log {
		logScale(img)
	}
	return img
}

func logScale(img *image.RGBA) {
	var peak float64
	for i, v := range img.Pix {
		if i%4 == 3 {
			continue
		}
		if l := math.Log2(float64(v) + 1); l > peak {
			peak = l
		}
	}
	if peak == 0 {
		return
	}
	for i, v := range img.Pix {
		if i%4 == 3 {
			continue
		}
		img.Pix[i] = uint8(math.Log2(float64(v)+1) * 255 / peak)
	}
}
