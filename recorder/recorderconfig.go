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

	"github.com/TheCacophonyProject/window"
	"github.com/benbjohnson/clock"

	"github.com/TheCacophonyProject/blinky-recorder/capture"
)

type RecorderConfig struct {
	OutputDir string
	// MaxSecs stops a recording once this many seconds of frames have
	// been collected. Zero means no limit.
	MaxSecs int
	// Window limits when recordings may be started. Nil means always.
	Window *window.Window
	// Restart reopens the source when a recording starts, so that file
	// sources are recorded from their first frame.
	Restart bool
	// Monitor measures the source frame rate while not recording.
	Monitor    bool
	QueueSize  int
	StartFrame int
	EndFrame   int
	Verbose    bool
	Clock      clock.Clock

	// DeviceID and DeviceName identify the device in saved files.
	DeviceID   int
	DeviceName string
}

func DefaultConfig() RecorderConfig {
	return RecorderConfig{
		OutputDir: "/var/spool/blinky",
		MaxSecs:   600,
		Monitor:   true,
		QueueSize: capture.DefaultQueueSize,
		Clock:     clock.New(),
	}
}

func (conf *RecorderConfig) Validate() error {
	if conf.OutputDir == "" {
		return errors.New("output-dir must be set")
	}
	if conf.MaxSecs < 0 {
		return errors.New("max-secs can't be negative")
	}
	if conf.StartFrame < 0 || (conf.EndFrame > 0 && conf.EndFrame <= conf.StartFrame) {
		return capture.ErrInvalidRange
	}
	return nil
}

func (conf *RecorderConfig) readerConfig() capture.ReaderConfig {
	return capture.ReaderConfig{
		QueueSize:  conf.QueueSize,
		StartFrame: conf.StartFrame,
		EndFrame:   conf.EndFrame,
		Verbose:    conf.Verbose,
	}
}
