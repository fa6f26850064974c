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
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/TheCacophonyProject/blinky-recorder/blinkyfile"
	"github.com/TheCacophonyProject/blinky-recorder/capture"
	"github.com/TheCacophonyProject/blinky-recorder/frame"
	"github.com/TheCacophonyProject/blinky-recorder/loglimiter"
	"github.com/TheCacophonyProject/blinky-recorder/processor"
)

var (
	ErrWrongMode     = errors.New("not possible in current mode")
	ErrOutsideWindow = errors.New("outside of recording window")
)

// Opener opens the frame source. It is called once when the recorder
// is created and again whenever the source has to be restarted.
type Opener func() (capture.Source, error)

type Mode int

const (
	Monitoring Mode = iota
	Recording
	Collecting
)

func (m Mode) String() string {
	switch m {
	case Monitoring:
		return "monitoring"
	case Recording:
		return "recording"
	case Collecting:
		return "collecting statistics"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

type Status struct {
	Mode       Mode
	Streaming  bool
	Frames     int
	Queued     int
	SourceFPS  float64
	Processed  int
	AvgFPS     float64
	Brightness float64
	Exposure   float64
	Err        error
}

// Recorder connects a frame reader to at most one processor at a time.
// While monitoring frames only pass through an optional rate monitor.
// A recording collects boxes around selected pixels and is saved as a
// blinky file; collecting statistics saves the per-sample mean and
// variance of the frames.
//
// Frames move from the reader to the processor only when Poll is
// called, so the caller's loop sets the pace.
type Recorder struct {
	conf     RecorderConfig
	open     Opener
	listener EventListener
	log      *loglimiter.LogLimiter

	mu        sync.Mutex
	reader    *capture.Reader
	mode      Mode
	runner    processor.Runner
	boxes     *processor.Processor[*processor.BoxCatcher]
	stats     *processor.Processor[*processor.OnlineStats]
	forwarded int
	started   time.Time
	err       error
}

// New opens the source and starts monitoring it. listener may be nil.
func New(open Opener, conf RecorderConfig, listener EventListener) (*Recorder, error) {
	if conf.Clock == nil {
		conf.Clock = DefaultConfig().Clock
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(conf.OutputDir, 0755); err != nil {
		return nil, err
	}
	if err := blinkyfile.DeleteTempFiles(conf.OutputDir); err != nil {
		return nil, err
	}
	if listener == nil {
		listener = nullListener{}
	}

	r := &Recorder{
		conf:     conf,
		open:     open,
		listener: listener,
		log:      loglimiter.New(time.Minute),
	}
	if err := r.openReader(); err != nil {
		return nil, err
	}
	r.startMonitor()
	return r, nil
}

func (r *Recorder) openReader() error {
	source, err := r.open()
	if err != nil {
		return err
	}
	reader, err := capture.NewReader(source, r.conf.readerConfig())
	if err != nil {
		return multierr.Append(err, source.Close())
	}
	r.reader = reader
	return nil
}

func (r *Recorder) restartReader() error {
	log.Println("restarting frame source")
	r.reader.Stop()
	return r.openReader()
}

func (r *Recorder) startMonitor() {
	r.mode = Monitoring
	r.runner = nil
	if r.conf.Monitor {
		r.runner = processor.NewRateMonitor(r.processorConfig("rate-monitor"))
	}
}

func (r *Recorder) stopRunner() error {
	if r.runner == nil {
		return nil
	}
	err := r.runner.Close()
	r.runner = nil
	return err
}

func (r *Recorder) processorConfig(name string) processor.Config {
	conf := processor.DefaultConfig(name)
	conf.Monitor = true
	conf.Clock = r.conf.Clock
	conf.Verbose = r.conf.Verbose
	return conf
}

func (r *Recorder) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// Shape returns the shape of the frames being read.
func (r *Recorder) Shape() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reader.Shape()
}

func (r *Recorder) FPS() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reader.FPS()
}

// Poll hands every frame waiting in the reader to the active processor
// without blocking. It returns the newest frame, or nil if there was
// none. A recording that reaches its length limit, or whose source
// ends, is stopped and saved; the error from doing so is returned.
func (r *Recorder) Poll() (*frame.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *frame.Frame
	var err error
	for {
		f, ok := r.reader.Read(false, 0)
		if !ok {
			break
		}
		latest = f
		if r.mode == Recording && r.recordingFull() {
			log.Printf("recording reached %d frames", r.forwarded)
			_, stopErr := r.stopRecording()
			err = multierr.Append(err, stopErr)
		}
		r.forward(f)
	}

	if r.mode != Monitoring && !r.reader.Streaming() && r.reader.Len() == 0 {
		log.Printf("frame source ended while %s", r.mode)
		switch r.mode {
		case Recording:
			_, stopErr := r.stopRecording()
			err = multierr.Append(err, stopErr)
		case Collecting:
			_, stopErr := r.stopStatistics()
			err = multierr.Append(err, stopErr)
		}
	}
	return latest, err
}

func (r *Recorder) recordingFull() bool {
	if r.conf.MaxSecs <= 0 || r.reader.FPS() <= 0 {
		return false
	}
	return float64(r.forwarded) >= float64(r.conf.MaxSecs)*r.reader.FPS()
}

func (r *Recorder) forward(f *frame.Frame) {
	if r.runner == nil {
		return
	}
	if err := r.runner.Process(frame.Of(f)); err != nil {
		r.log.Printf("%s: %v", r.runner.Name(), err)
		r.err = err
		return
	}
	r.forwarded++
}

// StartRecording starts collecting boxes of size box (width, height)
// around pixels (X is the column, Y the row).
func (r *Recorder) StartRecording(pixels []image.Point, box image.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mode != Monitoring {
		return fmt.Errorf("%w: %s", ErrWrongMode, r.mode)
	}
	if r.conf.Window != nil && !r.conf.Window.Active() {
		return fmt.Errorf("%w: next window starts in %s", ErrOutsideWindow, r.conf.Window.Until())
	}
	// Check the boxes before touching the source.
	if _, err := processor.NewBoxCatcher(pixels, box, r.reader.Shape()); err != nil {
		return err
	}
	if err := r.prepareSource(); err != nil {
		return err
	}
	// A restarted source may have a different shape.
	catcher, err := processor.NewBoxCatcher(pixels, box, r.reader.Shape())
	if err != nil {
		return err
	}

	if err := r.stopRunner(); err != nil {
		log.Printf("rate monitor: %v", err)
	}
	r.boxes = processor.New(catcher, r.processorConfig("box-catcher"))
	r.runner = r.boxes
	r.begin(Recording)
	log.Printf("recording %d pixels with %dx%d boxes", len(pixels), box.X, box.Y)
	return nil
}

// prepareSource reopens the source if configured to or if it has
// ended.
func (r *Recorder) prepareSource() error {
	if !r.conf.Restart && r.reader.Streaming() {
		return nil
	}
	if err := r.stopRunner(); err != nil {
		log.Printf("rate monitor: %v", err)
	}
	if err := r.restartReader(); err != nil {
		return err
	}
	r.startMonitor()
	return nil
}

func (r *Recorder) begin(mode Mode) {
	r.mode = mode
	r.forwarded = 0
	r.err = nil
	r.started = r.conf.Clock.Now()
}

// StopRecording stops the current recording and saves it, returning
// the name of the file written.
func (r *Recorder) StopRecording() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != Recording {
		return "", fmt.Errorf("%w: %s", ErrWrongMode, r.mode)
	}
	return r.stopRecording()
}

func (r *Recorder) stopRecording() (string, error) {
	catcher, err := r.boxes.Stop()
	r.boxes = nil
	r.startMonitor()
	if err != nil {
		return "", fmt.Errorf("recording failed: %w", err)
	}

	samples := catcher.Samples()
	box := catcher.BoxSize()
	file := blinkyfile.New(
		catcher.Pixels(),
		blinkyfile.FromUint8(samples.Shape, samples.Pix),
		r.reader.FPS(),
		r.metadata(map[string]interface{}{"box_size": []int{box.X, box.Y}}),
	)
	filename := r.newFilename(blinkyfile.Ext)
	if err := file.Write(filename); err != nil {
		return "", err
	}
	log.Printf("saved %d frames to %s", catcher.Frames(), filename)
	r.listener.RecordingSaved("recording", filename, catcher.Frames())
	return filename, nil
}

// StartStatistics starts collecting the mean and variance of every
// sample of the frames.
func (r *Recorder) StartStatistics() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mode != Monitoring {
		return fmt.Errorf("%w: %s", ErrWrongMode, r.mode)
	}
	if !r.reader.Streaming() {
		if err := r.prepareSource(); err != nil {
			return err
		}
	}
	stats, err := processor.NewOnlineStats(r.reader.Shape())
	if err != nil {
		return err
	}
	if err := r.stopRunner(); err != nil {
		log.Printf("rate monitor: %v", err)
	}
	r.stats = processor.New(stats, r.processorConfig("statistics"))
	r.runner = r.stats
	r.begin(Collecting)
	log.Println("collecting frame statistics")
	return nil
}

// StopStatistics stops collecting statistics and saves them, returning
// the name of the file written.
func (r *Recorder) StopStatistics() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != Collecting {
		return "", fmt.Errorf("%w: %s", ErrWrongMode, r.mode)
	}
	return r.stopStatistics()
}

func (r *Recorder) stopStatistics() (string, error) {
	stats, err := r.stats.Stop()
	r.stats = nil
	r.startMonitor()
	if err != nil {
		return "", fmt.Errorf("statistics failed: %w", err)
	}

	file := blinkyfile.NewStatistics(stats.Shape(), stats.Mean(), stats.Variance(), stats.Count(), r.reader.FPS())
	file.Metadata = r.metadata(nil)
	filename := r.newFilename(blinkyfile.StatsExt)
	if err := file.Write(filename); err != nil {
		return "", err
	}
	log.Printf("saved statistics of %d frames to %s", stats.Count(), filename)
	r.listener.RecordingSaved("statistics", filename, stats.Count())
	return filename, nil
}

func (r *Recorder) metadata(extra map[string]interface{}) map[string]interface{} {
	m := map[string]interface{}{
		"started":  r.started.Format(time.RFC3339),
		"duration": r.conf.Clock.Now().Sub(r.started).Seconds(),
		"shape":    r.reader.Shape(),
	}
	if r.conf.DeviceID != 0 || r.conf.DeviceName != "" {
		m["device_id"] = r.conf.DeviceID
		m["device_name"] = r.conf.DeviceName
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func (r *Recorder) newFilename(ext string) string {
	return filepath.Join(r.conf.OutputDir, blinkyfile.NewName(r.conf.Clock.Now(), ext))
}

func (r *Recorder) Brightness() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reader.Brightness()
}

func (r *Recorder) SetBrightness(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reader.SetBrightness(v)
}

func (r *Recorder) Exposure() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reader.Exposure()
}

func (r *Recorder) SetExposure(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reader.SetExposure(v)
}

func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Status{
		Mode:       r.mode,
		Streaming:  r.reader.Streaming(),
		Frames:     r.reader.FrameCount(),
		Queued:     r.reader.Len(),
		SourceFPS:  r.reader.FPS(),
		Brightness: r.reader.Brightness(),
		Exposure:   r.reader.Exposure(),
		Err:        r.err,
	}
	if r.runner != nil {
		stats := r.runner.Stats()
		s.Processed = stats.Frames
		s.AvgFPS = stats.AvgFPS
		if s.Err == nil {
			s.Err = r.runner.Err()
		}
	}
	return s
}

// Close saves any recording or statistics in progress and releases the
// source.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	switch r.mode {
	case Recording:
		_, err = r.stopRecording()
	case Collecting:
		_, err = r.stopStatistics()
	}
	err = multierr.Append(err, r.stopRunner())
	r.reader.Stop()
	return err
}
