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

package main

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/blinky-recorder/recorder"
)

func TestDefaultConfig(t *testing.T) {
	conf, err := ParseConfig([]byte(""))
	require.NoError(t, err)
	require.NoError(t, conf.Validate())

	assert.Equal(t, Config{
		Source:    "0",
		OutputDir: "/var/spool/blinky",
		QueueSize: 200,
		MaxSecs:   600,
		Monitor:   true,
		Record: RecordConfig{
			BoxSize: 3,
		},
	}, *conf)
}

func TestAllSet(t *testing.T) {
	// All config set at non-default values.
	config := []byte(`
source: "/data/blinkies.mp4"
output-dir: "/some/where"
realtime: true
grayscale: true
width: 1280
height: 720
queue-size: 50
start-frame: 10
end-frame: 100
max-secs: 30
monitor: false
window-start: 17:10
window-end: 07:20
brightness: 0.5
exposure: -6
record:
    auto: true
    pixels: [[10, 20], [30, 40]]
    box-size: 5
`)

	conf, err := ParseConfig(config)
	require.NoError(t, err)

	brightness := 0.5
	exposure := -6.0
	assert.Equal(t, Config{
		Source:      "/data/blinkies.mp4",
		OutputDir:   "/some/where",
		Realtime:    true,
		Grayscale:   true,
		Width:       1280,
		Height:      720,
		QueueSize:   50,
		StartFrame:  10,
		EndFrame:    100,
		MaxSecs:     30,
		Monitor:     false,
		WindowStart: "17:10",
		WindowEnd:   "07:20",
		Brightness:  &brightness,
		Exposure:    &exposure,
		Record: RecordConfig{
			Auto:    true,
			Pixels:  [][]int{{10, 20}, {30, 40}},
			BoxSize: 5,
		},
	}, *conf)

	assert.Equal(t, []image.Point{{10, 20}, {30, 40}}, conf.Record.Points())
	assert.Equal(t, image.Pt(5, 5), conf.Record.Box())
}

func TestInvalidWindowStart(t *testing.T) {
	_, err := ParseConfig([]byte("window-start: sometime\nwindow-end: 07:20"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recording window")
}

func TestInvalidWindowEnd(t *testing.T) {
	_, err := ParseConfig([]byte("window-start: 17:10\nwindow-end: sometime"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recording window")
}

func TestRelativeWindow(t *testing.T) {
	conf, err := ParseConfig([]byte("window-start: -30m\nwindow-end: +30m"))
	require.NoError(t, err)
	assert.Equal(t, "-30m", conf.WindowStart)
	assert.Equal(t, "+30m", conf.WindowEnd)
}

func TestDeviceWindowsExcludeWindowTimes(t *testing.T) {
	_, err := ParseConfig([]byte("device-windows: true\nwindow-start: 17:10\nwindow-end: 07:20"))
	assert.EqualError(t, err, "device-windows can't be used with window-start and window-end")
}

func TestWindowEndWithoutStart(t *testing.T) {
	_, err := ParseConfig([]byte("window-end: 09:10"))
	assert.EqualError(t, err, "window-end is set but window-start isn't")
}

func TestWindowStartWithoutEnd(t *testing.T) {
	_, err := ParseConfig([]byte("window-start: 09:10"))
	assert.EqualError(t, err, "window-start is set but window-end isn't")
}

func TestFrameRange(t *testing.T) {
	_, err := ParseConfig([]byte("start-frame: 10\nend-frame: 10"))
	assert.EqualError(t, err, "end-frame should be after start-frame")
}

func TestRecordPixelsArePairs(t *testing.T) {
	_, err := ParseConfig([]byte("record:\n  pixels: [[1, 2, 3]]"))
	assert.EqualError(t, err, "record pixels should be [column, row] pairs")
}

func TestAutoRecordNeedsPixels(t *testing.T) {
	_, err := ParseConfig([]byte("record:\n  auto: true"))
	assert.EqualError(t, err, "record auto is set but no pixels are given")
}

func TestRecorderConfig(t *testing.T) {
	conf, err := ParseConfig([]byte(`
source: "clip.avi"
window-start: 09:00
window-end: 17:00
`))
	require.NoError(t, err)

	device := &recorder.DeviceConfig{ID: 42, Name: "blinky-1"}
	rconf, err := conf.recorderConfig(true, device)
	require.NoError(t, err)
	assert.True(t, rconf.Restart)
	assert.True(t, rconf.Verbose)
	assert.Equal(t, 42, rconf.DeviceID)
	assert.Equal(t, "blinky-1", rconf.DeviceName)
	require.NotNil(t, rconf.Window)
	rconf.Window.Now = func() time.Time { return time.Date(2020, 1, 1, 8, 0, 0, 0, time.UTC) }
	assert.False(t, rconf.Window.Active())
	rconf.Window.Now = func() time.Time { return time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC) }
	assert.True(t, rconf.Window.Active())

	conf, err = ParseConfig([]byte(`source: "1"`))
	require.NoError(t, err)
	rconf, err = conf.recorderConfig(false, device)
	require.NoError(t, err)
	assert.False(t, rconf.Restart)
	assert.Nil(t, rconf.Window)
}

func TestRecorderConfigDeviceWindows(t *testing.T) {
	conf, err := ParseConfig([]byte("device-windows: true"))
	require.NoError(t, err)

	device := &recorder.DeviceConfig{WindowStart: "09:00", WindowEnd: "17:00"}
	rconf, err := conf.recorderConfig(false, device)
	require.NoError(t, err)
	require.NotNil(t, rconf.Window)
	rconf.Window.Now = func() time.Time { return time.Date(2020, 1, 1, 20, 0, 0, 0, time.UTC) }
	assert.False(t, rconf.Window.Active())

	device.WindowStart = "sometime"
	_, err = conf.recorderConfig(false, device)
	assert.Error(t, err)
}
