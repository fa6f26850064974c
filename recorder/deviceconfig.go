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
	config "github.com/TheCacophonyProject/go-config"
	"github.com/TheCacophonyProject/window"
)

// DeviceConfig is the part of the device's shared configuration used by
// the recorder.
type DeviceConfig struct {
	ID          int
	Name        string
	Latitude    float64
	Longitude   float64
	WindowStart string
	WindowEnd   string
}

func ReadDeviceConfig(configDir string) (*DeviceConfig, error) {
	conf, err := config.New(configDir)
	if err != nil {
		return nil, err
	}

	var deviceConfig config.Device
	if err := conf.Unmarshal(config.DeviceKey, &deviceConfig); err != nil {
		return nil, err
	}
	windowLocationConfig := config.DefaultWindowLocation()
	if err := conf.Unmarshal(config.LocationKey, &windowLocationConfig); err != nil {
		return nil, err
	}
	windowsConfig := config.DefaultWindows()
	if err := conf.Unmarshal(config.WindowsKey, &windowsConfig); err != nil {
		return nil, err
	}

	return &DeviceConfig{
		ID:          deviceConfig.ID,
		Name:        deviceConfig.Name,
		Latitude:    float64(windowLocationConfig.Latitude),
		Longitude:   float64(windowLocationConfig.Longitude),
		WindowStart: windowsConfig.StartRecording,
		WindowEnd:   windowsConfig.StopRecording,
	}, nil
}

// NewWindow returns the recording window from start to end. Each is a
// time of day ("17:10") or an offset from sunset or sunrise at the
// device's location ("-30m"). There is no window if both are empty.
func (d *DeviceConfig) NewWindow(start, end string) (*window.Window, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	return window.New(start, end, d.Latitude, d.Longitude)
}

// DeviceWindow returns the device's own recording window.
func (d *DeviceConfig) DeviceWindow() (*window.Window, error) {
	return d.NewWindow(d.WindowStart, d.WindowEnd)
}
