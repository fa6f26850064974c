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
	"image/color"
	"image/draw"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

var markerColor = color.RGBA{R: 0xff, G: 0x30, B: 0x30, A: 0xff}

// videoDisplay shows the latest frame scaled to fit, and reports taps
// in frame coordinates.
type videoDisplay struct {
	widget.BaseWidget

	mu     sync.Mutex
	image  *canvas.Image
	bounds image.Rectangle
	onTap  func(image.Point)
}

func newVideoDisplay(onTap func(image.Point)) *videoDisplay {
	v := &videoDisplay{onTap: onTap}
	v.ExtendBaseWidget(v)
	v.image = canvas.NewImageFromImage(nil)
	v.image.FillMode = canvas.ImageFillContain
	v.image.ScaleMode = canvas.ImageScalePixels
	return v
}

// UpdateFrame must be called on the fyne goroutine.
func (v *videoDisplay) UpdateFrame(img image.Image) {
	v.mu.Lock()
	v.image.Image = img
	v.bounds = img.Bounds()
	v.mu.Unlock()
	v.image.Refresh()
}

func (v *videoDisplay) Tapped(ev *fyne.PointEvent) {
	v.mu.Lock()
	bounds := v.bounds
	v.mu.Unlock()
	if v.onTap == nil || bounds.Empty() {
		return
	}
	if p, ok := toFrameCoords(ev.Position, v.Size(), bounds.Dx(), bounds.Dy()); ok {
		v.onTap(p)
	}
}

func (v *videoDisplay) CreateRenderer() fyne.WidgetRenderer {
	return &videoRenderer{v}
}

type videoRenderer struct {
	v *videoDisplay
}

func (r *videoRenderer) Destroy() {}

func (r *videoRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

func (r *videoRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.v.image}
}

func (r *videoRenderer) Refresh() {
	r.v.image.Refresh()
}

func (r *videoRenderer) Layout(s fyne.Size) {
	r.v.image.Resize(s)
}

// toFrameCoords maps a position in a widget of the given size to the
// pixel of a width x height frame drawn centred and scaled to fit.
func toFrameCoords(pos fyne.Position, size fyne.Size, width, height int) (image.Point, bool) {
	if width <= 0 || height <= 0 || size.Width <= 0 || size.Height <= 0 {
		return image.Point{}, false
	}
	scale := size.Width / float32(width)
	if s := size.Height / float32(height); s < scale {
		scale = s
	}
	offX := (size.Width - scale*float32(width)) / 2
	offY := (size.Height - scale*float32(height)) / 2

	x := int((pos.X - offX) / scale)
	y := int((pos.Y - offY) / scale)
	if pos.X < offX || pos.Y < offY || x >= width || y >= height {
		return image.Point{}, false
	}
	return image.Pt(x, y), true
}

// markBoxes returns a colour copy of img with the outline of a box
// drawn around each pixel.
func markBoxes(img image.Image, pixels []image.Point, box image.Point) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	for _, p := range pixels {
		origin := image.Pt(p.X-box.X/2-1, p.Y-box.Y/2-1)
		r := image.Rectangle{Min: origin, Max: origin.Add(box).Add(image.Pt(2, 2))}
		for x := r.Min.X; x < r.Max.X; x++ {
			out.Set(x, r.Min.Y, markerColor)
			out.Set(x, r.Max.Y-1, markerColor)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			out.Set(r.Min.X, y, markerColor)
			out.Set(r.Max.X-1, y, markerColor)
		}
	}
	return out
}
