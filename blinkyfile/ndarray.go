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
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// Element types, using numpy's type strings.
const (
	Uint8   = "|u1"
	Float64 = "<f8"
)

var (
	ErrNotArray     = errors.New("not an encoded array")
	ErrUnknownDType = errors.New("unknown element type")
	ErrBadArray     = errors.New("array data does not match its shape")
)

// NDArray is a dense array of fixed size numbers. It is encoded as the
// map {"__nd__": true, "shape": [...], "dtype": "...", "data": <bytes>}
// which numpy based readers turn straight back into an ndarray.
type NDArray struct {
	Shape []int
	DType string
	Data  []byte
}

// FromUint8 wraps pix as an array of the given shape. pix is not copied.
func FromUint8(shape []int, pix []uint8) NDArray {
	return NDArray{Shape: append([]int(nil), shape...), DType: Uint8, Data: pix}
}

// FromFloat64 encodes values as a little endian array of the given shape.
func FromFloat64(shape []int, values []float64) NDArray {
	data := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(data[8*i:], math.Float64bits(v))
	}
	return NDArray{Shape: append([]int(nil), shape...), DType: Float64, Data: data}
}

// Len returns the number of elements in the array.
func (a NDArray) Len() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

func itemSize(dtype string) (int, error) {
	switch dtype {
	case Uint8:
		return 1, nil
	case Float64:
		return 8, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDType, dtype)
}

// Validate checks the element type is known and the data is the size
// the shape calls for.
func (a NDArray) Validate() error {
	size, err := itemSize(a.DType)
	if err != nil {
		return err
	}
	for _, d := range a.Shape {
		if d < 0 {
			return fmt.Errorf("%w: negative dimension in %v", ErrBadArray, a.Shape)
		}
	}
	if want := a.Len() * size; len(a.Data) != want {
		return fmt.Errorf("%w: %d bytes for shape %v of %s, want %d",
			ErrBadArray, len(a.Data), a.Shape, a.DType, want)
	}
	return nil
}

func (a NDArray) Uint8s() ([]uint8, error) {
	if a.DType != Uint8 {
		return nil, fmt.Errorf("%w: have %s, want %s", ErrUnknownDType, a.DType, Uint8)
	}
	return a.Data, nil
}

func (a NDArray) Float64s() ([]float64, error) {
	if a.DType != Float64 {
		return nil, fmt.Errorf("%w: have %s, want %s", ErrUnknownDType, a.DType, Float64)
	}
	if len(a.Data)%8 != 0 {
		return nil, ErrBadArray
	}
	values := make([]float64, len(a.Data)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(a.Data[8*i:]))
	}
	return values, nil
}

var _ msgpack.CustomEncoder = NDArray{}
var _ msgpack.CustomDecoder = (*NDArray)(nil)

func (a NDArray) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(4); err != nil {
		return err
	}
	if err := enc.EncodeString("__nd__"); err != nil {
		return err
	}
	if err := enc.EncodeBool(true); err != nil {
		return err
	}
	if err := enc.EncodeString("shape"); err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(a.Shape)); err != nil {
		return err
	}
	for _, d := range a.Shape {
		if err := enc.EncodeInt(int64(d)); err != nil {
			return err
		}
	}
	if err := enc.EncodeString("dtype"); err != nil {
		return err
	}
	if err := enc.EncodeString(a.DType); err != nil {
		return err
	}
	if err := enc.EncodeString("data"); err != nil {
		return err
	}
	return enc.EncodeBytes(a.Data)
}

func (a *NDArray) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	if n < 0 {
		return ErrNotArray
	}

	marked := false
	var out NDArray
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		switch key {
		case "__nd__":
			if marked, err = dec.DecodeBool(); err != nil {
				return err
			}
		case "shape":
			l, err := dec.DecodeArrayLen()
			if err != nil {
				return err
			}
			out.Shape = make([]int, 0, l)
			for j := 0; j < l; j++ {
				d, err := dec.DecodeInt()
				if err != nil {
					return err
				}
				out.Shape = append(out.Shape, d)
			}
		case "dtype":
			if out.DType, err = dec.DecodeString(); err != nil {
				return err
			}
		case "data":
			if out.Data, err = dec.DecodeBytes(); err != nil {
				return err
			}
		default:
			if err := dec.Skip(); err != nil {
				return err
			}
		}
	}
	if !marked {
		return ErrNotArray
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*a = out
	return nil
}
