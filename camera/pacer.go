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

package camera

import (
	"github.com/juju/ratelimit"
)

// pacer releases one frame per tick of the source frame rate so that a
// file plays back no faster than it was recorded.
type pacer struct {
	bucket *ratelimit.Bucket
}

func newPacer(fps float64, clock ratelimit.Clock) *pacer {
	return &pacer{
		bucket: ratelimit.NewBucketWithRateAndClock(fps, 1, clock),
	}
}

// Wait blocks until the next frame is due.
func (p *pacer) Wait() {
	p.bucket.Wait(1)
}
