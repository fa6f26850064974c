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
	"errors"
	"fmt"
	"image"
	"io/ioutil"

	"github.com/TheCacophonyProject/window"
	"gopkg.in/yaml.v2"

	"github.com/TheCacophonyProject/blinky-recorder/camera"
	"github.com/TheCacophonyProject/blinky-recorder/capture"
	"github.com/TheCacophonyProject/blinky-recorder/recorder"
)

type Config struct {
	Source      string
	OutputDir   string
	Realtime    bool
	Grayscale   bool
	Width       int
	Height      int
	QueueSize   int
	StartFrame  int
	EndFrame    int
	MaxSecs     int
	Monitor     bool
	WindowStart string
	WindowEnd   string

	// DeviceWindows takes the recording window from the device
	// configuration instead of WindowStart and WindowEnd.
	DeviceWindows bool

	Brightness *float64
	Exposure   *float64
	Record     RecordConfig
}

func (conf *Config) Validate() error {
	if conf.Source == "" {
		return errors.New("source must be set")
	}
	if conf.MaxSecs < 0 {
		return errors.New("max-secs can't be negative")
	}
	if conf.QueueSize < 1 {
		return errors.New("queue-size should be at least 1")
	}
	if conf.StartFrame < 0 || (conf.EndFrame > 0 && conf.EndFrame <= conf.StartFrame) {
		return errors.New("end-frame should be after start-frame")
	}
	if conf.WindowStart == "" && conf.WindowEnd != "" {
		return errors.New("window-end is set but window-start isn't")
	}
	if conf.WindowStart != "" && conf.WindowEnd == "" {
		return errors.New("window-start is set but window-end isn't")
	}
	if conf.WindowStart != "" {
		if conf.DeviceWindows {
			return errors.New("device-windows can't be used with window-start and window-end")
		}
		// Sunrise and sunset relative times are checked against the
		// device location later.
		if _, err := window.New(conf.WindowStart, conf.WindowEnd, 0, 0); err != nil {
			return fmt.Errorf("invalid recording window: %v", err)
		}
	}
	if err := conf.Record.Validate(); err != nil {
		return err
	}
	return nil
}

// RecordConfig describes a recording to start as soon as the recorder
// is running.
type RecordConfig struct {
	Auto    bool    `yaml:"auto"`
	Pixels  [][]int `yaml:"pixels"`
	BoxSize int     `yaml:"box-size"`
}

func (conf *RecordConfig) Validate() error {
	if conf.BoxSize < 1 {
		return errors.New("record box-size should be at least 1")
	}
	for _, p := range conf.Pixels {
		if len(p) != 2 {
			return errors.New("record pixels should be [column, row] pairs")
		}
	}
	if conf.Auto && len(conf.Pixels) == 0 {
		return errors.New("record auto is set but no pixels are given")
	}
	return nil
}

func (conf *RecordConfig) Points() []image.Point {
	points := make([]image.Point, len(conf.Pixels))
	for i, p := range conf.Pixels {
		points[i] = image.Pt(p[0], p[1])
	}
	return points
}

func (conf *RecordConfig) Box() image.Point {
	return image.Pt(conf.BoxSize, conf.BoxSize)
}

type rawConfig struct {
	Source        string       `yaml:"source"`
	OutputDir     string       `yaml:"output-dir"`
	Realtime      bool         `yaml:"realtime"`
	Grayscale     bool         `yaml:"grayscale"`
	Width         int          `yaml:"width"`
	Height        int          `yaml:"height"`
	QueueSize     int          `yaml:"queue-size"`
	StartFrame    int          `yaml:"start-frame"`
	EndFrame      int          `yaml:"end-frame"`
	MaxSecs       int          `yaml:"max-secs"`
	Monitor       bool         `yaml:"monitor"`
	WindowStart   string       `yaml:"window-start"`
	WindowEnd     string       `yaml:"window-end"`
	DeviceWindows bool         `yaml:"device-windows"`
	Brightness    *float64     `yaml:"brightness"`
	Exposure      *float64     `yaml:"exposure"`
	Record        RecordConfig `yaml:"record"`
}

var defaultConfig = rawConfig{
	Source:    "0",
	OutputDir: "/var/spool/blinky",
	QueueSize: capture.DefaultQueueSize,
	MaxSecs:   600,
	Monitor:   true,
	Record: RecordConfig{
		BoxSize: 3,
	},
}

func ParseConfigFile(filename string) (*Config, error) {
	buf, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*Config, error) {
	raw := defaultConfig
	if err := yaml.Unmarshal(buf, &raw); err != nil {
		return nil, err
	}

	conf := &Config{
		Source:        raw.Source,
		OutputDir:     raw.OutputDir,
		Realtime:      raw.Realtime,
		Grayscale:     raw.Grayscale,
		Width:         raw.Width,
		Height:        raw.Height,
		QueueSize:     raw.QueueSize,
		StartFrame:    raw.StartFrame,
		EndFrame:      raw.EndFrame,
		MaxSecs:       raw.MaxSecs,
		Monitor:       raw.Monitor,
		WindowStart:   raw.WindowStart,
		WindowEnd:     raw.WindowEnd,
		DeviceWindows: raw.DeviceWindows,
		Brightness:    raw.Brightness,
		Exposure:      raw.Exposure,
		Record:        raw.Record,
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (conf *Config) cameraConfig(verbose bool) camera.Config {
	return camera.Config{
		Realtime:  conf.Realtime,
		Grayscale: conf.Grayscale,
		Width:     conf.Width,
		Height:    conf.Height,
		Verbose:   verbose,
	}
}

func (conf *Config) recorderConfig(verbose bool, device *recorder.DeviceConfig) (recorder.RecorderConfig, error) {
	rconf := recorder.DefaultConfig()
	rconf.OutputDir = conf.OutputDir
	rconf.MaxSecs = conf.MaxSecs
	rconf.Monitor = conf.Monitor
	rconf.QueueSize = conf.QueueSize
	rconf.StartFrame = conf.StartFrame
	rconf.EndFrame = conf.EndFrame
	rconf.Verbose = verbose
	// Files are recorded from their first frame.
	rconf.Restart = !camera.IsDevice(conf.Source)
	rconf.DeviceID = device.ID
	rconf.DeviceName = device.Name

	var w *window.Window
	var err error
	if conf.DeviceWindows {
		w, err = device.DeviceWindow()
	} else {
		w, err = device.NewWindow(conf.WindowStart, conf.WindowEnd)
	}
	if err != nil {
		return rconf, fmt.Errorf("invalid recording window: %v", err)
	}
	rconf.Window = w
	return rconf, nil
}
