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
	"encoding/json"
	"log"
	"time"

	"github.com/godbus/dbus"
)

// EventListener is told about every file the recorder saves.
type EventListener interface {
	RecordingSaved(kind, filename string, frames int)
}

type nullListener struct{}

func (nullListener) RecordingSaved(string, string, int) {}

// DBusEvents queues an event with the device's event service for each
// saved file.
type DBusEvents struct{}

func (DBusEvents) RecordingSaved(kind, filename string, frames int) {
	ts := time.Now()
	eventDetails := map[string]interface{}{
		"description": map[string]interface{}{
			"type": "blinky-" + kind,
			"details": map[string]interface{}{
				"filename": filename,
				"frames":   frames,
			},
		},
	}
	detailsJSON, err := json.Marshal(&eventDetails)
	if err != nil {
		log.Printf("Could not record %s event: %s", kind, err)
		return
	}

	conn, err := dbus.SystemBus()
	if err != nil {
		log.Printf("Could not record %s event: %s", kind, err)
		return
	}

	obj := conn.Object("org.cacophony.Events", "/org/cacophony/Events")
	call := obj.Call("org.cacophony.Events.Queue", 0, detailsJSON, ts.UnixNano())
	if call.Err != nil {
		log.Printf("Could not record %s event: %s", kind, call.Err)
	}
}
