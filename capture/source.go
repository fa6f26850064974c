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

package capture

import (
	"errors"

	"github.com/TheCacophonyProject/blinky-recorder/frame"
)

var (
	// ErrDeviceUnavailable is returned when a camera or video file can't
	// be opened.
	ErrDeviceUnavailable = errors.New("video source unavailable")

	// ErrInvalidRange is returned when the requested frame range is empty.
	ErrInvalidRange = errors.New("end-frame must be after start-frame")

	// ErrInvalidCount is returned when fewer than one frame is requested.
	ErrInvalidCount = errors.New("frame count must be strictly positive")
)

// Source is a physical or file based video input.
//
// GetFrame returns false on end of stream or on a failed read; the caller
// decides whether to stop. Brightness and exposure setters are best
// effort: hardware may clamp or ignore the value and they never fail.
// Close must be safe to call more than once. Channels is the number of
// channels in every frame returned by GetFrame.
type Source interface {
	Width() int
	Height() int
	Channels() int
	FPS() float64
	GetFrame() (*frame.Frame, bool)
	Brightness() float64
	SetBrightness(float64)
	Exposure() float64
	SetExposure(float64)
	Close() error
}
