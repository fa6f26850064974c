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

package camera

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"

	"github.com/TheCacophonyProject/blinky-recorder/capture"
)

func TestIsDevice(t *testing.T) {
	assert.True(t, IsDevice("0"))
	assert.True(t, IsDevice("12"))
	assert.False(t, IsDevice("video.mp4"))
	assert.False(t, IsDevice("rtsp://camera/stream"))
	assert.False(t, IsDevice(""))
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mp4"), Config{})
	assert.True(t, errors.Is(err, capture.ErrDeviceUnavailable))
}

func TestPacerReleasesFramesAtRate(t *testing.T) {
	mock := clock.NewMock()
	p := newPacer(10, mock)

	// The first frame is due straight away.
	p.Wait()

	released := make(chan struct{})
	go func() {
		p.Wait()
		close(released)
	}()

	select {
	case <-released:
		t.Fatal("frame released early")
	case <-time.After(20 * time.Millisecond):
	}

	mock.Add(100 * time.Millisecond)
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("frame not released")
	}
}
