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

package recorder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TheCacophonyProject/blinky-recorder/capture"
)

func TestDefaultConfigValidates(t *testing.T) {
	conf := DefaultConfig()
	assert.NoError(t, conf.Validate())
}

func TestMissingOutputDirDoesntValidate(t *testing.T) {
	conf := DefaultConfig()
	conf.OutputDir = ""
	assert.EqualError(t, conf.Validate(), "output-dir must be set")
}

func TestNegativeMaxSecsDoesntValidate(t *testing.T) {
	conf := DefaultConfig()
	conf.MaxSecs = -1
	assert.EqualError(t, conf.Validate(), "max-secs can't be negative")
}

func TestFrameRangeDoesntValidate(t *testing.T) {
	conf := DefaultConfig()
	conf.StartFrame = 10
	conf.EndFrame = 5
	assert.True(t, errors.Is(conf.Validate(), capture.ErrInvalidRange))
}
