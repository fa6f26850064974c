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
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/multierr"
)

const (
	// Ext is the extension of recorded pixel files.
	Ext = ".blinky"
	// StatsExt is the extension of frame statistics files.
	StatsExt = ".stats"

	creationLayout = "2006-01-02T15:04:05.000000-07:00"
)

// Version is stored in every file written. Binaries set it to their
// build version.
var Version = "<not set>"

var ErrInvalidFile = errors.New("invalid blinky file")

// File holds the samples recorded around a set of pixel locations.
// Data has the shape (frames, locations, box rows, box cols[, channels]).
type File struct {
	Locations [][]int                `msgpack:"locations"`
	Data      NDArray                `msgpack:"data"`
	FPS       float64                `msgpack:"fps"`
	Version   string                 `msgpack:"version"`
	Creation  string                 `msgpack:"creation"`
	Metadata  map[string]interface{} `msgpack:"metadata"`
}

// New returns a File for samples collected around pixels (X is the
// column and Y the row) by a source running at fps.
func New(pixels []image.Point, data NDArray, fps float64, metadata map[string]interface{}) *File {
	locations := make([][]int, len(pixels))
	for i, p := range pixels {
		locations[i] = []int{p.X, p.Y}
	}
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return &File{
		Locations: locations,
		Data:      data,
		FPS:       fps,
		Version:   Version,
		Creation:  time.Now().Format(creationLayout),
		Metadata:  metadata,
	}
}

// Pixels returns the locations as points.
func (f *File) Pixels() []image.Point {
	points := make([]image.Point, len(f.Locations))
	for i, l := range f.Locations {
		if len(l) == 2 {
			points[i] = image.Pt(l[0], l[1])
		}
	}
	return points
}

// CreatedAt parses the creation time of the file.
func (f *File) CreatedAt() (time.Time, error) {
	return time.Parse(creationLayout, f.Creation)
}

func (f *File) Validate() error {
	if err := f.Data.Validate(); err != nil {
		return err
	}
	if len(f.Data.Shape) < 2 {
		return fmt.Errorf("%w: data shape %v has no location axis", ErrInvalidFile, f.Data.Shape)
	}
	if f.Data.Shape[1] != len(f.Locations) {
		return fmt.Errorf("%w: %d locations for data shape %v", ErrInvalidFile, len(f.Locations), f.Data.Shape)
	}
	for _, l := range f.Locations {
		if len(l) != 2 {
			return fmt.Errorf("%w: location %v", ErrInvalidFile, l)
		}
	}
	if f.FPS < 0 {
		return fmt.Errorf("%w: fps %v", ErrInvalidFile, f.FPS)
	}
	return nil
}

func (f *File) Encode(w io.Writer) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return msgpack.NewEncoder(w).Encode(f)
}

// Write saves the file under a temporary name and renames it to
// filename once it is complete.
func (f *File) Write(filename string) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return writeFile(filename, f)
}

func Decode(r io.Reader) (*File, error) {
	f := new(File)
	if err := msgpack.NewDecoder(r).Decode(f); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func Read(filename string) (*File, error) {
	r, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Decode(r)
}

func writeFile(filename string, v interface{}) error {
	bf, err := newBufferedFile(filename + tempExt)
	if err != nil {
		return err
	}
	err = msgpack.NewEncoder(bf).Encode(v)
	err = multierr.Append(err, bf.Close())
	if err != nil {
		return multierr.Append(err, os.Remove(bf.Name()))
	}
	return os.Rename(bf.Name(), finalName(bf.Name()))
}
