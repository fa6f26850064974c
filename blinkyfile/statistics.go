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

package blinkyfile

import (
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Statistics holds the per-sample mean and variance of a run of frames.
type Statistics struct {
	Mean     NDArray                `msgpack:"mean"`
	Variance NDArray                `msgpack:"var"`
	Count    int                    `msgpack:"count"`
	FPS      float64                `msgpack:"fps"`
	Version  string                 `msgpack:"version"`
	Creation string                 `msgpack:"creation"`
	Metadata map[string]interface{} `msgpack:"metadata"`
}

func NewStatistics(shape []int, mean, variance []float64, count int, fps float64) *Statistics {
	return &Statistics{
		Mean:     FromFloat64(shape, mean),
		Variance: FromFloat64(shape, variance),
		Count:    count,
		FPS:      fps,
		Version:  Version,
		Creation: time.Now().Format(creationLayout),
		Metadata: map[string]interface{}{},
	}
}

func (s *Statistics) Validate() error {
	for _, a := range []NDArray{s.Mean, s.Variance} {
		if err := a.Validate(); err != nil {
			return err
		}
		if a.DType != Float64 {
			return fmt.Errorf("%w: statistics of type %s", ErrInvalidFile, a.DType)
		}
	}
	if fmt.Sprint(s.Mean.Shape) != fmt.Sprint(s.Variance.Shape) {
		return fmt.Errorf("%w: mean shape %v, variance shape %v", ErrInvalidFile, s.Mean.Shape, s.Variance.Shape)
	}
	if s.Count < 0 {
		return fmt.Errorf("%w: count %d", ErrInvalidFile, s.Count)
	}
	return nil
}

func (s *Statistics) Write(filename string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return writeFile(filename, s)
}

func ReadStatistics(filename string) (*Statistics, error) {
	r, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	s := new(Statistics)
	if err := msgpack.NewDecoder(r).Decode(s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
