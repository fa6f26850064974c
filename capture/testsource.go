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
	"sync"

	"github.com/TheCacophonyProject/blinky-recorder/frame"
)

// TestSource is an in-memory Source used for testing readers and
// recorders without a camera. Frames are numbered from 1 with the
// number written into the first sample.
type TestSource struct {
	Rows        int
	Cols        int
	NumChannels int
	Frames      int // frames to produce before end of stream, 0 for unlimited
	Rate        float64
	Value       uint8 // value of every sample other than the first

	// Gate, if set, is received from before each frame is produced so
	// that tests can control the producer's pace.
	Gate chan struct{}

	mu         sync.Mutex
	produced   int
	closed     int
	brightness float64
	exposure   float64
}

// NewTestSource returns a grayscale source producing n frames.
func NewTestSource(rows, cols, n int) *TestSource {
	return &TestSource{
		Rows:        rows,
		Cols:        cols,
		NumChannels: 1,
		Frames:      n,
		Rate:        30,
	}
}

func (s *TestSource) Width() int    { return s.Cols }
func (s *TestSource) Height() int   { return s.Rows }
func (s *TestSource) Channels() int { return s.NumChannels }
func (s *TestSource) FPS() float64  { return s.Rate }
func (s *TestSource) Produced() int { return s.locked(func() int { return s.produced }) }
func (s *TestSource) Closed() int   { return s.locked(func() int { return s.closed }) }

func (s *TestSource) GetFrame() (*frame.Frame, bool) {
	if s.Gate != nil {
		if _, ok := <-s.Gate; !ok {
			return nil, false
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed > 0 || (s.Frames > 0 && s.produced >= s.Frames) {
		return nil, false
	}
	s.produced++
	f := frame.New(s.Rows, s.Cols, s.NumChannels)
	f.Fill(s.Value)
	f.Pix[0] = uint8(s.produced)
	return f, true
}

func (s *TestSource) Brightness() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness
}

func (s *TestSource) SetBrightness(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brightness = v
}

func (s *TestSource) Exposure() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exposure
}

func (s *TestSource) SetExposure(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exposure = v
}

func (s *TestSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *TestSource) locked(f func() int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f()
}

// FrameID returns the number of a frame produced by a TestSource.
func FrameID(f *frame.Frame) int {
	return int(f.Pix[0])
}
