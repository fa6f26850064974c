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
	"fmt"
	"log"
	"sync"
	"time"
)

// New returns a new LogLimiter with the configured minimum log interval.
func New(interval time.Duration) *LogLimiter {
	return &LogLimiter{
		interval: interval,
		nowFunc:  time.Now,
		entries:  make(map[string]*entry),
	}
}

// LogLimiter suppresses a log message if the same message was logged
// within the interval. Each distinct message is limited on its own so
// interleaved messages don't defeat each other. When a suppressed message
// is let through again the number of suppressed repeats is appended.
//
// A LogLimiter is safe for use from multiple goroutines.
type LogLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	nowFunc  func() time.Time
	entries  map[string]*entry
}

type entry struct {
	last       time.Time
	suppressed int
}

func (limiter *LogLimiter) Printf(format string, v ...interface{}) {
	limiter.Print(fmt.Sprintf(format, v...))
}

func (limiter *LogLimiter) Print(s string) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := limiter.nowFunc()
	e, seen := limiter.entries[s]
	if seen && now.Sub(e.last) < limiter.interval {
		e.suppressed++
		return
	}
	if !seen {
		e = new(entry)
		limiter.entries[s] = e
	}

	if e.suppressed > 0 {
		log.Printf("%s (suppressed %d times)", s, e.suppressed)
	} else {
		log.Print(s)
	}
	e.last = now
	e.suppressed = 0
	limiter.expire(now)
}

// expire forgets messages that haven't been seen for a while so that the
// limiter doesn't grow without bound when messages contain counters.
func (limiter *LogLimiter) expire(now time.Time) {
	const maxEntries = 64
	if len(limiter.entries) <= maxEntries {
		return
	}
	for s, e := range limiter.entries {
		if now.Sub(e.last) >= limiter.interval {
			delete(limiter.entries, s)
		}
	}
}
