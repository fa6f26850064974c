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

package processor

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/TheCacophonyProject/blinky-recorder/frame"
	"github.com/TheCacophonyProject/blinky-recorder/loglimiter"
)

const (
	DefaultMonitorFreq  = 500 * time.Millisecond
	DefaultSamples      = 10
	DefaultPollInterval = 100 * time.Millisecond
)

// Worker is the variant specific part of a Processor. Its methods are
// only called from the processor's goroutine, so a worker needs no
// locking of its own.
type Worker interface {
	Process(frame.Batch) error
	Finalize() error
}

// Validator is implemented by workers that check batches on the
// caller's goroutine before they are queued.
type Validator interface {
	Validate(frame.Batch) error
}

// Runner is a Processor with its worker type erased.
type Runner interface {
	Name() string
	Process(frame.Batch) error
	Running() bool
	Err() error
	FPS() float64
	AvgFPS() float64
	Stats() Stats
	Len() int
	Close() error
}

type Config struct {
	Name         string
	Monitor      bool
	MonitorFreq  time.Duration
	Samples      int
	PollInterval time.Duration
	Clock        clock.Clock
	Verbose      bool
}

func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MonitorFreq:  DefaultMonitorFreq,
		Samples:      DefaultSamples,
		PollInterval: DefaultPollInterval,
		Clock:        clock.New(),
	}
}

func (conf *Config) setDefaults() {
	if conf.MonitorFreq <= 0 {
		conf.MonitorFreq = DefaultMonitorFreq
	}
	if conf.Samples <= 0 {
		conf.Samples = DefaultSamples
	}
	if conf.PollInterval <= 0 {
		conf.PollInterval = DefaultPollInterval
	}
	if conf.Clock == nil {
		conf.Clock = clock.New()
	}
	if conf.Name == "" {
		conf.Name = "processor"
	}
}

type State int

const (
	Running State = iota
	Failed
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Failed:
		return "failed"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Stats struct {
	Name    string
	State   State
	Frames  int
	Runtime time.Duration
	FPS     float64
	AvgFPS  float64
	Queued  int
}

type sample struct {
	delta  time.Duration
	frames int
}

// Processor runs a Worker on its own goroutine, feeding it batches in
// the order they were given to Process. Its queue is unbounded so that
// a slow worker builds up a backlog rather than losing frames.
//
// Frames passed to Process must not be modified afterwards.
type Processor[W Worker] struct {
	worker    W
	validator Validator
	conf      Config
	log       *loglimiter.LogLimiter

	notify   chan struct{}
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu          sync.Mutex
	pending     []frame.Batch
	stopping    bool
	state       State
	workErr     error
	finalizeErr error

	total      int
	start      time.Time
	runtime    time.Duration
	sinceLast  int
	lastSample time.Time
	samples    []sample
}

// New starts a processor around worker.
func New[W Worker](worker W, conf Config) *Processor[W] {
	conf.setDefaults()
	p := &Processor[W]{
		worker: worker,
		conf:   conf,
		log:    loglimiter.New(time.Minute),
		notify: make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		state:  Running,
	}
	if v, ok := any(worker).(Validator); ok {
		p.validator = v
	}
	p.start = conf.Clock.Now()
	p.lastSample = p.start
	go p.run()
	return p
}

func (p *Processor[W]) Name() string {
	return p.conf.Name
}

// Process queues a batch for the worker. Once the processor has been
// stopped batches are silently dropped. An error is returned if the
// batch fails validation or the worker has already failed.
func (p *Processor[W]) Process(b frame.Batch) error {
	if len(b) == 0 || !p.accepting() {
		return nil
	}
	if p.validator != nil {
		if err := p.validator.Validate(b); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopping {
		return nil
	}
	if p.workErr != nil {
		return fmt.Errorf("%w: %s failed: %v", ErrInvalidState, p.conf.Name, p.workErr)
	}
	p.pending = append(p.pending, b)
	select {
	case p.notify <- struct{}{}:
	default:
	}
	return nil
}

func (p *Processor[W]) accepting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.stopping
}

// Stop waits for the queued batches to be processed, finalizes the
// worker and hands it back. Only the first call does any work; later
// calls return the same worker and error.
func (p *Processor[W]) Stop() (W, error) {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopping = true
		p.mu.Unlock()
		close(p.quit)
		<-p.done

		err := p.worker.Finalize()

		p.mu.Lock()
		p.finalizeErr = err
		if p.state == Running {
			p.state = Stopped
		}
		p.mu.Unlock()

		log.Printf("%s: %d frames processed in %s (fps: %7.3f)",
			p.conf.Name, p.Stats().Frames, p.Stats().Runtime, p.FPS())
	})
	return p.worker, p.Err()
}

// Close stops the processor, discarding the worker.
func (p *Processor[W]) Close() error {
	_, err := p.Stop()
	return err
}

// Done is closed once the processor's goroutine has exited.
func (p *Processor[W]) Done() <-chan struct{} {
	return p.done
}

func (p *Processor[W]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Processor[W]) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == Running && !p.stopping
}

// Err returns the worker failure, if any, combined with the result of
// finalizing the worker once the processor has stopped.
func (p *Processor[W]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return multierr.Append(p.workErr, p.finalizeErr)
}

// Len returns the number of batches waiting to be processed.
func (p *Processor[W]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// FPS returns the number of frames processed per second since the
// processor started.
func (p *Processor[W]) FPS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fps()
}

func (p *Processor[W]) fps() float64 {
	if p.runtime <= 0 {
		return 0
	}
	return float64(p.total) / p.runtime.Seconds()
}

// AvgFPS returns the mean frame rate over the most recent monitoring
// samples. It is zero until the first sample has been taken.
func (p *Processor[W]) AvgFPS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.avgFPS()
}

func (p *Processor[W]) avgFPS() float64 {
	if len(p.samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range p.samples {
		sum += float64(s.frames) / s.delta.Seconds()
	}
	return sum / float64(len(p.samples))
}

func (p *Processor[W]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Name:    p.conf.Name,
		State:   p.state,
		Frames:  p.total,
		Runtime: p.runtime,
		FPS:     p.fps(),
		AvgFPS:  p.avgFPS(),
		Queued:  len(p.pending),
	}
}

func (p *Processor[W]) run() {
	defer close(p.done)
	for {
		b, ok := p.next()
		if !ok {
			return
		}
		if err := p.worker.Process(b); err != nil {
			p.fail(err)
			return
		}
		p.record(len(b))
	}
}

// next returns the oldest pending batch, waiting for one if necessary.
// Once the processor is stopping the backlog is still handed out; false
// is returned only when it is empty.
func (p *Processor[W]) next() (frame.Batch, bool) {
	for {
		p.mu.Lock()
		if len(p.pending) > 0 {
			b := p.pending[0]
			p.pending[0] = nil
			p.pending = p.pending[1:]
			p.mu.Unlock()
			return b, true
		}
		stopping := p.stopping
		p.mu.Unlock()
		if stopping {
			return nil, false
		}

		timer := p.conf.Clock.Timer(p.conf.PollInterval)
		select {
		case <-p.notify:
		case <-p.quit:
		case <-timer.C:
		}
		timer.Stop()
	}
}

func (p *Processor[W]) fail(err error) {
	p.log.Printf("%s: worker failed: %v", p.conf.Name, err)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.workErr = err
	p.state = Failed
	p.pending = nil
}

func (p *Processor[W]) record(n int) {
	now := p.conf.Clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.total += n
	p.runtime = now.Sub(p.start)
	if !p.conf.Monitor {
		return
	}

	p.sinceLast += n
	delta := now.Sub(p.lastSample)
	if delta < p.conf.MonitorFreq {
		return
	}
	p.samples = append(p.samples, sample{delta: delta, frames: p.sinceLast})
	if len(p.samples) > p.conf.Samples {
		p.samples = p.samples[len(p.samples)-p.conf.Samples:]
	}
	p.lastSample = now
	p.sinceLast = 0
	if p.conf.Verbose {
		log.Printf("%s: avg fps %7.3f", p.conf.Name, p.avgFPS())
	}
}
