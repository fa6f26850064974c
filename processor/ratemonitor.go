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

import "github.com/TheCacophonyProject/blinky-recorder/frame"

// RateMonitor does nothing with the frames it is given. Run with
// monitoring enabled it measures how fast frames arrive.
type RateMonitor struct{}

func (*RateMonitor) Process(frame.Batch) error { return nil }
func (*RateMonitor) Finalize() error           { return nil }

// NewRateMonitor starts a monitoring processor that discards its frames.
func NewRateMonitor(conf Config) *Processor[*RateMonitor] {
	conf.Monitor = true
	if conf.Name == "" {
		conf.Name = "rate-monitor"
	}
	return New(&RateMonitor{}, conf)
}
