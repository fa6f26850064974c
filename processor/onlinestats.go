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

import (
	"fmt"

	"github.com/TheCacophonyProject/blinky-recorder/frame"
)

// OnlineStats keeps the per-sample mean and variance of every frame it
// has seen. Each batch is reduced to its own mean and sum of squared
// deviations and then merged into the running totals (Chan et al.), so
// the cost of an update depends only on the size of the batch.
type OnlineStats struct {
	shape []int
	size  int
	mean  []float64
	m2    []float64
	count int
}

// NewOnlineStats returns statistics for frames of the given shape
// (rows, cols and optionally channels).
func NewOnlineStats(shape []int) (*OnlineStats, error) {
	if len(shape) < 2 || len(shape) > 3 {
		return nil, fmt.Errorf("%w: unsupported shape %v", ErrShapeMismatch, shape)
	}
	size := 1
	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("%w: unsupported shape %v", ErrShapeMismatch, shape)
		}
		size *= d
	}
	return &OnlineStats{
		shape: append([]int(nil), shape...),
		size:  size,
		mean:  make([]float64, size),
		m2:    make([]float64, size),
	}, nil
}

func (s *OnlineStats) Shape() []int {
	return append([]int(nil), s.shape...)
}

// Count returns the number of frames merged so far.
func (s *OnlineStats) Count() int {
	return s.count
}

func (s *OnlineStats) Mean() []float64 {
	return append([]float64(nil), s.mean...)
}

// Variance returns the unbiased sample variance. It is zero everywhere
// until at least two frames have been seen.
func (s *OnlineStats) Variance() []float64 {
	v := make([]float64, s.size)
	if s.count < 2 {
		return v
	}
	for i, m2 := range s.m2 {
		v[i] = m2 / float64(s.count-1)
	}
	return v
}

func (s *OnlineStats) Validate(b frame.Batch) error {
	for _, f := range b {
		if !f.SameShape(s.shape) {
			return fmt.Errorf("%w: got %v, want %v", ErrShapeMismatch, f.Shape(), s.shape)
		}
	}
	return nil
}

func (s *OnlineStats) Process(b frame.Batch) error {
	if len(b) == 0 {
		return nil
	}
	if err := s.Validate(b); err != nil {
		return err
	}

	n := float64(len(b))
	bmean := make([]float64, s.size)
	for _, f := range b {
		for i, v := range f.Pix {
			bmean[i] += float64(v)
		}
	}
	for i := range bmean {
		bmean[i] /= n
	}
	bm2 := make([]float64, s.size)
	for _, f := range b {
		for i, v := range f.Pix {
			d := float64(v) - bmean[i]
			bm2[i] += d * d
		}
	}

	count := float64(s.count)
	total := count + n
	for i := range s.mean {
		delta := bmean[i] - s.mean[i]
		s.m2[i] += bm2[i] + delta*delta*count*n/total
		s.mean[i] += delta * n / total
	}
	s.count += len(b)
	return nil
}

func (s *OnlineStats) Finalize() error { return nil }
