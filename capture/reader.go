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

package capture

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TheCacophonyProject/blinky-recorder/frame"
	"github.com/TheCacophonyProject/blinky-recorder/loglimiter"
)

const (
	DefaultQueueSize = 200

	minLogInterval = time.Minute
	controlBuffer  = 8
)

// State is the lifecycle state of a Reader.
type State int32

const (
	Running State = iota
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// ReaderConfig restricts what a Reader pulls from its source.
type ReaderConfig struct {
	// QueueSize bounds the number of frames waiting to be read.
	QueueSize int
	// StartFrame frames are read and discarded before queueing begins.
	StartFrame int
	// EndFrame is the absolute index of the first frame not to queue.
	// Zero means read until the end of the stream.
	EndFrame int
	// Verbose logs device parameter writes the source ignored.
	Verbose bool
}

type control struct {
	name  string
	value float64
}

// Reader pulls frames from a Source on its own goroutine and queues them
// for a consumer. The queue is bounded: when it is full the producer
// stalls until the consumer catches up, so frames are delayed but never
// dropped.
//
// The Source is owned by the producer goroutine for the lifetime of the
// Reader. Device parameter writes are handed to the producer and applied
// between frames; getters return the last values read back from the
// device.
type Reader struct {
	source Source
	conf   ReaderConfig
	width  int
	height int
	chans  int
	fps    float64

	queue    chan *frame.Frame
	controls chan control
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	state int32
	count int64

	mu         sync.Mutex
	brightness float64
	exposure   float64

	log *loglimiter.LogLimiter
}

// NewReader starts reading frames from source. The geometry and frame
// rate of the source are queried once, here. The caller keeps ownership
// of source if an error is returned.
func NewReader(source Source, conf ReaderConfig) (*Reader, error) {
	if conf.QueueSize <= 0 {
		conf.QueueSize = DefaultQueueSize
	}
	if conf.StartFrame < 0 || (conf.EndFrame > 0 && conf.EndFrame <= conf.StartFrame) {
		return nil, fmt.Errorf("%w: start %d, end %d", ErrInvalidRange, conf.StartFrame, conf.EndFrame)
	}

	r := &Reader{
		source:     source,
		conf:       conf,
		width:      source.Width(),
		height:     source.Height(),
		chans:      source.Channels(),
		fps:        source.FPS(),
		queue:      make(chan *frame.Frame, conf.QueueSize),
		controls:   make(chan control, controlBuffer),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		state:      int32(Running),
		brightness: source.Brightness(),
		exposure:   source.Exposure(),
		log:        loglimiter.New(minLogInterval),
	}
	go r.run()
	return r, nil
}

func (r *Reader) Width() int     { return r.width }
func (r *Reader) Height() int    { return r.height }
func (r *Reader) Channels() int  { return r.chans }
func (r *Reader) FPS() float64   { return r.fps }
func (r *Reader) QueueSize() int { return r.conf.QueueSize }

// Shape returns the shape of the frames produced by the reader.
func (r *Reader) Shape() []int {
	if r.chans == 1 {
		return []int{r.height, r.width}
	}
	return []int{r.height, r.width, r.chans}
}

func (r *Reader) State() State {
	return State(atomic.LoadInt32(&r.state))
}

// Streaming returns true until the producer has exited.
func (r *Reader) Streaming() bool {
	return r.State() == Running
}

// Available returns true when the reader is still streaming and a frame
// can be read without blocking.
func (r *Reader) Available() bool {
	return r.Streaming() && len(r.queue) > 0
}

// Len returns the number of frames waiting to be read.
func (r *Reader) Len() int {
	return len(r.queue)
}

// FrameCount returns the number of frames queued so far.
func (r *Reader) FrameCount() int {
	return int(atomic.LoadInt64(&r.count))
}

// Done is closed once the producer has exited.
func (r *Reader) Done() <-chan struct{} {
	return r.done
}

// Read returns the oldest queued frame. When block is true and the queue
// is empty it waits up to timeout for a frame (a timeout of zero or less
// waits until a frame arrives or the stream ends). Once the stream has
// ended queued frames are still returned; false is returned only when
// there is nothing left to read or nothing arrived in time.
func (r *Reader) Read(block bool, timeout time.Duration) (*frame.Frame, bool) {
	select {
	case f := <-r.queue:
		return f, true
	default:
	}
	if !block {
		return nil, false
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case f := <-r.queue:
		return f, true
	case <-r.done:
		// The producer may have queued a final frame just before exiting.
		select {
		case f := <-r.queue:
			return f, true
		default:
			return nil, false
		}
	case <-expired:
		return nil, false
	}
}

// ReadN reads up to n frames using the same blocking rule as Read for
// each frame. A blocking ReadN keeps waiting until n frames are read or
// the stream ends; a non-blocking ReadN returns whatever is queued.
func (r *Reader) ReadN(n int, block bool, timeout time.Duration) (frame.Batch, error) {
	if n < 1 {
		return nil, ErrInvalidCount
	}
	batch := make(frame.Batch, 0, n)
	for len(batch) < n {
		f, ok := r.Read(block, timeout)
		if ok {
			batch = append(batch, f)
			continue
		}
		if !block || r.exhausted() {
			break
		}
	}
	return batch, nil
}

func (r *Reader) exhausted() bool {
	return r.State() == Stopped && len(r.queue) == 0
}

// Brightness returns the device brightness last read back by the producer.
func (r *Reader) Brightness() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.brightness
}

// Exposure returns the device exposure last read back by the producer.
func (r *Reader) Exposure() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exposure
}

// SetBrightness asks the producer to change the device brightness. It
// never fails; writes after the reader has stopped are ignored.
func (r *Reader) SetBrightness(v float64) {
	r.sendControl(control{name: "brightness", value: v})
}

// SetExposure asks the producer to change the device exposure. It never
// fails; writes after the reader has stopped are ignored.
func (r *Reader) SetExposure(v float64) {
	r.sendControl(control{name: "exposure", value: v})
}

func (r *Reader) sendControl(c control) {
	select {
	case r.controls <- c:
	case <-r.done:
		if r.conf.Verbose {
			log.Printf("%s write ignored, reader stopped", c.name)
		}
	}
}

// Stop stops the producer, waits for it to exit and discards any queued
// frames. The source is released by the producer as it exits. Stop may
// be called any number of times.
func (r *Reader) Stop() {
	r.stopOnce.Do(func() {
		atomic.CompareAndSwapInt32(&r.state, int32(Running), int32(Stopping))
		close(r.quit)
		<-r.done
		r.drain()
	})
}

func (r *Reader) drain() {
	for {
		select {
		case <-r.queue:
		default:
			return
		}
	}
}

func (r *Reader) run() {
	defer r.finish()

	for i := 0; i < r.conf.StartFrame; i++ {
		if !r.serviceControls() {
			return
		}
		if _, ok := r.source.GetFrame(); !ok {
			log.Printf("stream ended before start frame %d", r.conf.StartFrame)
			return
		}
	}

	limit := int64(0)
	if r.conf.EndFrame > 0 {
		limit = int64(r.conf.EndFrame - r.conf.StartFrame)
	}

	for {
		if !r.serviceControls() {
			return
		}
		f, ok := r.source.GetFrame()
		if !ok {
			return
		}
		if !r.push(f) {
			return
		}
		if n := atomic.AddInt64(&r.count, 1); limit > 0 && n >= limit {
			return
		}
	}
}

// serviceControls applies pending parameter writes and reports whether
// the producer should keep going.
func (r *Reader) serviceControls() bool {
	for {
		select {
		case <-r.quit:
			return false
		case c := <-r.controls:
			r.apply(c)
		default:
			return true
		}
	}
}

// push queues f, stalling while the queue is full.
func (r *Reader) push(f *frame.Frame) bool {
	for {
		select {
		case <-r.quit:
			return false
		case r.queue <- f:
			return true
		case c := <-r.controls:
			r.apply(c)
		}
	}
}

func (r *Reader) apply(c control) {
	var got float64
	switch c.name {
	case "brightness":
		r.source.SetBrightness(c.value)
		got = r.source.Brightness()
		r.mu.Lock()
		r.brightness = got
		r.mu.Unlock()
	case "exposure":
		r.source.SetExposure(c.value)
		got = r.source.Exposure()
		r.mu.Lock()
		r.exposure = got
		r.mu.Unlock()
	}
	if r.conf.Verbose && got != c.value {
		r.log.Printf("%s set to %v but device reports %v", c.name, c.value, got)
	}
}

func (r *Reader) finish() {
	atomic.StoreInt32(&r.state, int32(Stopped))
	if err := r.source.Close(); err != nil {
		log.Printf("failed to close video source: %v", err)
	}
	log.Printf("frame reader stopped after %d frames", r.FrameCount())
	close(r.done)
}
