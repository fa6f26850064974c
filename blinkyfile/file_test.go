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
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func testRecording() *File {
	pixels := []image.Point{{5, 6}, {20, 3}}
	pix := make([]uint8, 3*2*3*3)
	for i := range pix {
		pix[i] = uint8(i)
	}
	return New(pixels, FromUint8([]int{3, 2, 3, 3}, pix), 29.97, map[string]interface{}{"source": "0"})
}

func TestWriteAndRead(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "rec"+Ext)

	orig := testRecording()
	require.NoError(t, orig.Write(filename))

	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, err)
	assert.Equal(t, []string{filename}, matches)

	f, err := Read(filename)
	require.NoError(t, err)
	assert.Equal(t, []image.Point{{5, 6}, {20, 3}}, f.Pixels())
	assert.Equal(t, []int{3, 2, 3, 3}, f.Data.Shape)
	assert.Equal(t, Uint8, f.Data.DType)
	assert.Equal(t, orig.Data.Data, f.Data.Data)
	assert.Equal(t, 29.97, f.FPS)
	assert.Equal(t, "0", f.Metadata["source"])
	assert.Equal(t, orig.Creation, f.Creation)
	_, err = f.CreatedAt()
	assert.NoError(t, err)
}

// Files written by numpy based tools store shapes as tuples and
// may hold an integer frame rate.
func TestDecodeForeignFile(t *testing.T) {
	raw, err := msgpack.Marshal(map[string]interface{}{
		"locations": [][]int{{4, 4}},
		"data": map[string]interface{}{
			"__nd__": true,
			"shape":  []int{2, 1, 1, 1},
			"dtype":  "|u1",
			"data":   []byte{7, 9},
		},
		"fps":      30,
		"version":  "0.0.1",
		"creation": "2020-03-04T10:11:12.000000+09:00",
		"metadata": map[string]interface{}{},
	})
	require.NoError(t, err)

	f, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, []image.Point{{4, 4}}, f.Pixels())
	assert.Equal(t, []byte{7, 9}, f.Data.Data)
	assert.Equal(t, 30.0, f.FPS)
	assert.Equal(t, "0.0.1", f.Version)
}

func TestLocationsMustMatchData(t *testing.T) {
	f := testRecording()
	f.Locations = f.Locations[:1]
	err := f.Write(filepath.Join(t.TempDir(), "bad"+Ext))
	assert.True(t, errors.Is(err, ErrInvalidFile))

	var buf bytes.Buffer
	require.NoError(t, msgpack.NewEncoder(&buf).Encode(f))
	_, err = Decode(&buf)
	assert.True(t, errors.Is(err, ErrInvalidFile))
}

func TestArrayDataMustMatchShape(t *testing.T) {
	raw, err := msgpack.Marshal(map[string]interface{}{
		"__nd__": true,
		"shape":  []int{2, 2},
		"dtype":  "|u1",
		"data":   []byte{1, 2, 3},
	})
	require.NoError(t, err)
	var a NDArray
	err = msgpack.Unmarshal(raw, &a)
	assert.True(t, errors.Is(err, ErrBadArray))

	raw, err = msgpack.Marshal(map[string]interface{}{"shape": []int{1}})
	require.NoError(t, err)
	err = msgpack.Unmarshal(raw, &a)
	assert.True(t, errors.Is(err, ErrNotArray))

	a = NDArray{Shape: []int{1}, DType: "<i4", Data: []byte{0, 0, 0, 0}}
	assert.True(t, errors.Is(a.Validate(), ErrUnknownDType))
}

func TestFloat64s(t *testing.T) {
	values := []float64{0, -1.5, 3.25e10, 1.0 / 3}
	a := FromFloat64([]int{2, 2}, values)
	require.NoError(t, a.Validate())
	got, err := a.Float64s()
	require.NoError(t, err)
	assert.Equal(t, values, got)

	_, err = a.Uint8s()
	assert.True(t, errors.Is(err, ErrUnknownDType))
}

func TestDeleteTempFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a" + Ext + tempExt, "b" + StatsExt + tempExt, "c" + Ext, "notes" + tempExt} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, DeleteTempFiles(dir))

	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "c"+Ext),
		filepath.Join(dir, "notes"+tempExt),
	}, matches)
}
