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
	"sync"
)

// selection is the ordered set of pixels picked for recording.
type selection struct {
	mu     sync.Mutex
	pixels []image.Point
}

// Toggle adds p, or removes it if it is already selected.
func (s *selection) Toggle(p image.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.pixels {
		if q == p {
			s.pixels = append(s.pixels[:i], s.pixels[i+1:]...)
			return
		}
	}
	s.pixels = append(s.pixels, p)
}

func (s *selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pixels = nil
}

func (s *selection) Pixels() []image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]image.Point(nil), s.pixels...)
}

func (s *selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pixels)
}
