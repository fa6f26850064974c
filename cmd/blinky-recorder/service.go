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

	"github.com/godbus/dbus"
	"github.com/godbus/dbus/introspect"

	"github.com/TheCacophonyProject/blinky-recorder/recorder"
)

const (
	dbusName = "org.cacophony.blinkyrecorder"
	dbusPath = "/org/cacophony/blinkyrecorder"
)

type service struct {
	rec *recorder.Recorder
}

func startService(rec *recorder.Recorder) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return err
	}
	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return errors.New("name already taken")
	}

	s := &service{
		rec: rec,
	}
	conn.Export(s, dbusPath, dbusName)
	conn.Export(genIntrospectable(s), dbusPath, "org.freedesktop.DBus.Introspectable")
	return nil
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    dbusName,
			Methods: introspect.Methods(v),
		}},
	}
	return introspect.NewIntrospectable(node)
}

// StartRecording starts recording boxes of boxWidth by boxHeight around
// each [column, row] pixel.
func (s *service) StartRecording(pixels [][]int32, boxWidth, boxHeight int32) *dbus.Error {
	points, err := toPoints(pixels)
	if err != nil {
		return makeDbusError("StartRecording", err)
	}
	if err := s.rec.StartRecording(points, image.Pt(int(boxWidth), int(boxHeight))); err != nil {
		return makeDbusError("StartRecording", err)
	}
	return nil
}

// StopRecording saves the current recording and returns its file name.
func (s *service) StopRecording() (string, *dbus.Error) {
	filename, err := s.rec.StopRecording()
	if err != nil {
		return "", makeDbusError("StopRecording", err)
	}
	return filename, nil
}

func (s *service) StartStatistics() *dbus.Error {
	if err := s.rec.StartStatistics(); err != nil {
		return makeDbusError("StartStatistics", err)
	}
	return nil
}

func (s *service) StopStatistics() (string, *dbus.Error) {
	filename, err := s.rec.StopStatistics()
	if err != nil {
		return "", makeDbusError("StopStatistics", err)
	}
	return filename, nil
}

func (s *service) SetBrightness(v float64) *dbus.Error {
	s.rec.SetBrightness(v)
	return nil
}

func (s *service) SetExposure(v float64) *dbus.Error {
	s.rec.SetExposure(v)
	return nil
}

func (s *service) Status() (map[string]dbus.Variant, *dbus.Error) {
	return statusMap(s.rec.Status()), nil
}

func toPoints(pixels [][]int32) ([]image.Point, error) {
	if len(pixels) == 0 {
		return nil, errors.New("no pixels given")
	}
	points := make([]image.Point, len(pixels))
	for i, p := range pixels {
		if len(p) != 2 {
			return nil, fmt.Errorf("pixel %d should be a [column, row] pair", i)
		}
		points[i] = image.Pt(int(p[0]), int(p[1]))
	}
	return points, nil
}

func statusMap(s recorder.Status) map[string]dbus.Variant {
	errText := ""
	if s.Err != nil {
		errText = s.Err.Error()
	}
	return map[string]dbus.Variant{
		"mode":       dbus.MakeVariant(s.Mode.String()),
		"streaming":  dbus.MakeVariant(s.Streaming),
		"frames":     dbus.MakeVariant(int64(s.Frames)),
		"queued":     dbus.MakeVariant(int64(s.Queued)),
		"fps":        dbus.MakeVariant(s.SourceFPS),
		"processed":  dbus.MakeVariant(int64(s.Processed)),
		"avgFps":     dbus.MakeVariant(s.AvgFPS),
		"brightness": dbus.MakeVariant(s.Brightness),
		"exposure":   dbus.MakeVariant(s.Exposure),
		"error":      dbus.MakeVariant(errText),
	}
}

func makeDbusError(name string, err error) *dbus.Error {
	return &dbus.Error{
		Name: dbusName + "." + name,
		Body: []interface{}{err.Error()},
	}
}
