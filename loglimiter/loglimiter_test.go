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

package loglimiter

import (
	"bytes"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrint(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	limiter := New(time.Minute)
	limiter.Print("hello")
	limiter.Print("world")

	assert.Equal(t, "hello\nworld\n", logs.String())
}

func TestPrintf(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	limiter := New(time.Minute)
	limiter.Printf("fps: %d", 42)
	limiter.Printf("source: %q", "cam0")

	assert.Equal(t, "fps: 42\nsource: \"cam0\"\n", logs.String())
}

func TestLimitPrint(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	now := time.Now()

	limiter := New(2 * time.Second)
	limiter.nowFunc = func() time.Time { return now }

	limiter.Print("read failed")
	assert.Equal(t, "read failed\n", logs.String())

	// Advance time but still within the window.
	now = now.Add(time.Second)
	limiter.Print("read failed")
	assert.Equal(t, "read failed\n", logs.String())

	// Past the window the message is let through with a suppressed count.
	now = now.Add(time.Second)
	limiter.Print("read failed")
	assert.Equal(t, "read failed\nread failed (suppressed 1 times)\n", logs.String())

	// Past the window again with nothing suppressed in between.
	now = now.Add(3 * time.Second)
	limiter.Print("read failed")
	assert.Equal(t, "read failed\nread failed (suppressed 1 times)\nread failed\n", logs.String())
}

func TestInterleavedMessagesLimitedSeparately(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	now := time.Now()
	limiter := New(time.Minute)
	limiter.nowFunc = func() time.Time { return now }

	limiter.Print("a")
	limiter.Print("b")
	limiter.Print("a")
	limiter.Print("b")
	limiter.Print("a")

	assert.Equal(t, "a\nb\n", logs.String())
}

func TestMixed(t *testing.T) {
	logs, reset := captureLogs()
	defer reset()

	// Mixing Print and Printf doesn't matter if the resulting string is the same.
	limiter := New(time.Minute)
	limiter.Print("hello")
	limiter.Printf("hello")
	assert.Equal(t, "hello\n", logs.String())
}

func TestExpireForgetsOldMessages(t *testing.T) {
	_, reset := captureLogs()
	defer reset()

	now := time.Now()
	limiter := New(time.Second)
	limiter.nowFunc = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		limiter.Printf("frame %d", i)
		now = now.Add(100 * time.Millisecond)
	}
	assert.True(t, len(limiter.entries) < 100)
}

func captureLogs() (*bytes.Buffer, func()) {
	flags := log.Flags()
	log.SetFlags(0)

	logs := new(bytes.Buffer)
	log.SetOutput(logs)

	return logs, func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	}
}

