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

// Batch is one or more frames delivered together to a processor. A batch
// builds up when a consumer is slower than the source.
type Batch []*Frame

// Of wraps frames into a batch.
func Of(frames ...*Frame) Batch {
	return Batch(frames)
}

// Len returns the number of frames in the batch.
func (b Batch) Len() int {
	return len(b)
}

// Clone deep copies every frame in the batch.
func (b Batch) Clone() Batch {
	out := make(Batch, len(b))
	for i, f := range b {
		out[i] = f.CreateCopy()
	}
	return out
}
