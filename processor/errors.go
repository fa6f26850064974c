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

import "errors"

var (
	// ErrShapeMismatch is returned when a batch does not have the shape a
	// worker was configured for.
	ErrShapeMismatch = errors.New("frame shape mismatch")
	// ErrOutOfBounds is returned when a box extends past the frame edge.
	ErrOutOfBounds = errors.New("box out of frame bounds")
	// ErrInvalidState is returned when work is offered to a processor
	// whose worker has failed.
	ErrInvalidState = errors.New("invalid processor state")
	// ErrNoPixels is returned when a box catcher is given no pixels.
	ErrNoPixels = errors.New("no pixels selected")
)
