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
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

const tempExt = ".temp"

func newBufferedFile(filename string) (*bufferedFile, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &bufferedFile{
		f: f,
		w: bufio.NewWriterSize(f, 1024*1024),
	}, nil
}

type bufferedFile struct {
	f *os.File
	w *bufio.Writer
}

func (bf *bufferedFile) Write(p []byte) (int, error) {
	return bf.w.Write(p)
}

func (bf *bufferedFile) Name() string {
	return bf.f.Name()
}

func (bf *bufferedFile) Close() error {
	if err := bf.w.Flush(); err != nil {
		bf.f.Close()
		return err
	}
	return bf.f.Close()
}

// NewName returns a timestamped file name with the given extension.
func NewName(now time.Time, ext string) string {
	return now.Format("20060102.150405.000") + ext
}

var reTempName = regexp.MustCompile(`(.+)\.temp$`)

func finalName(filename string) string {
	return reTempName.ReplaceAllString(filename, `$1`)
}

// DeleteTempFiles removes partially written recording and statistics
// files left in directory. Other temporary files are left alone.
func DeleteTempFiles(directory string) error {
	for _, ext := range []string{Ext, StatsExt} {
		matches, _ := filepath.Glob(filepath.Join(directory, "*"+ext+tempExt))
		for _, filename := range matches {
			if err := os.Remove(filename); err != nil {
				return err
			}
		}
	}
	return nil
}
