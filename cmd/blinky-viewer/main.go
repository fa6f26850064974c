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
	"fmt"
	"image"
	"log"
	"strconv"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/blinky-recorder/blinkyfile"
	"github.com/TheCacophonyProject/blinky-recorder/camera"
	"github.com/TheCacophonyProject/blinky-recorder/capture"
	"github.com/TheCacophonyProject/blinky-recorder/recorder"
)

const refreshInterval = 33 * time.Millisecond

var version = "<not set>"

type Args struct {
	Source     string `arg:"positional" help:"capture device index or video file"`
	OutputDir  string `arg:"-o,--output-dir" help:"directory to save recordings in"`
	BoxSize    int    `arg:"-b,--box-size" help:"initial box size"`
	QueueSize  int    `arg:"-q,--queue-size" help:"maximum number of frames waiting to be processed"`
	Grayscale  bool   `arg:"-g,--grayscale" help:"read frames in grayscale"`
	Realtime   bool   `arg:"-r,--realtime" help:"play files at their recorded frame rate"`
	Timestamps bool   `arg:"-t,--timestamps" help:"include timestamps in log output"`
	Verbose    bool   `arg:"-v,--verbose" help:"log device and processing details"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	args := Args{
		Source:    "0",
		OutputDir: ".",
		BoxSize:   1,
		QueueSize: capture.DefaultQueueSize,
	}
	arg.MustParse(&args)
	return args
}

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	args := procArgs()
	if !args.Timestamps {
		log.SetFlags(0)
	}
	log.Printf("version: %s", version)
	blinkyfile.Version = version

	conf := recorder.DefaultConfig()
	conf.OutputDir = args.OutputDir
	conf.MaxSecs = 0
	conf.QueueSize = args.QueueSize
	conf.Restart = !camera.IsDevice(args.Source)
	conf.Verbose = args.Verbose

	camConf := camera.Config{
		Grayscale: args.Grayscale,
		Realtime:  args.Realtime,
		Verbose:   args.Verbose,
	}
	rec, err := recorder.New(func() (capture.Source, error) {
		return camera.Open(args.Source, camConf)
	}, conf, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := rec.Close(); err != nil {
			log.Printf("error closing recorder: %v", err)
		}
	}()

	v := newViewer(rec, args.BoxSize)
	v.run(fmt.Sprintf("Blinky Viewer - %s", args.Source))
	return nil
}

type viewer struct {
	rec      *recorder.Recorder
	selected selection

	mu   sync.Mutex
	opts renderOptions
	box  int

	win        fyne.Window
	display    *videoDisplay
	status     *widget.Label
	logLabel   *widget.Label
	boxEntry   *widget.Entry
	recordBtn  *widget.Button
	statsBtn   *widget.Button
	brightness *widget.Slider
	exposure   *widget.Slider
}

func newViewer(rec *recorder.Recorder, boxSize int) *viewer {
	v := &viewer{rec: rec, box: boxSize}
	v.display = newVideoDisplay(v.pixelTapped)
	v.status = widget.NewLabel("")
	v.logLabel = widget.NewLabel("")
	v.boxEntry = widget.NewEntry()
	v.boxEntry.SetText(strconv.Itoa(boxSize))
	v.boxEntry.OnChanged = v.setBoxSize
	v.recordBtn = widget.NewButton("Record", v.toggleRecording)
	v.statsBtn = widget.NewButton("Statistics", v.toggleStatistics)

	v.brightness = widget.NewSlider(-255, 255)
	v.brightness.SetValue(rec.Brightness())
	v.brightness.OnChanged = rec.SetBrightness
	v.exposure = widget.NewSlider(-13, 0)
	v.exposure.SetValue(rec.Exposure())
	v.exposure.OnChanged = rec.SetExposure
	return v
}

func (v *viewer) run(title string) {
	a := app.New()
	v.win = a.NewWindow(title)

	toggles := container.NewHBox(
		widget.NewCheck("BW", func(on bool) { v.setOption(&v.opts.Gray, on) }),
		widget.NewCheck("Sat", func(on bool) { v.setOption(&v.opts.Saturation, on) }),
		widget.NewCheck("Log", func(on bool) { v.setOption(&v.opts.Log, on) }),
		widget.NewButton("Clear pixels", func() {
			v.selected.Clear()
			v.logf("cleared selected pixels")
		}),
	)
	controls := container.NewVBox(
		toggles,
		container.NewBorder(nil, nil, widget.NewLabel("Box size:"), nil, v.boxEntry),
		container.NewHBox(v.recordBtn, v.statsBtn),
		widget.NewLabel("Brightness"), v.brightness,
		widget.NewLabel("Exposure"), v.exposure,
		v.status,
		v.logLabel,
	)
	split := container.NewHSplit(v.display, controls)
	split.Offset = 0.8

	v.win.SetContent(split)
	v.win.Resize(fyne.NewSize(1280, 800))

	done := make(chan struct{})
	go v.refreshLoop(done)
	v.win.ShowAndRun()
	close(done)
}

func (v *viewer) refreshLoop(done <-chan struct{}) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		f, err := v.rec.Poll()
		if err != nil {
			v.logf("recording error: %v", err)
		}
		status := v.rec.Status()
		var img image.Image
		if f != nil {
			opts, box := v.settings()
			img = markBoxes(render(f, opts), v.selected.Pixels(), image.Pt(box, box))
		}
		fyne.Do(func() {
			if img != nil {
				v.display.UpdateFrame(img)
			}
			v.status.SetText(fmt.Sprintf("%s\nsource %.2f fps, %d queued\nprocessed %d (%.2f fps)",
				status.Mode, status.SourceFPS, status.Queued, status.Processed, status.AvgFPS))
			v.updateButtons(status.Mode)
		})
	}
}

func (v *viewer) updateButtons(mode recorder.Mode) {
	switch mode {
	case recorder.Recording:
		v.recordBtn.SetText("Stop")
		v.statsBtn.Disable()
	case recorder.Collecting:
		v.statsBtn.SetText("Stop")
		v.recordBtn.Disable()
	default:
		v.recordBtn.SetText("Record")
		v.statsBtn.SetText("Statistics")
		v.recordBtn.Enable()
		v.statsBtn.Enable()
	}
}

func (v *viewer) setOption(opt *bool, on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	*opt = on
}

// setBoxSize keeps the last valid box size typed into the entry.
func (v *viewer) setBoxSize(text string) {
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.box = n
}

func (v *viewer) settings() (renderOptions, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.opts, v.box
}

func (v *viewer) pixelTapped(p image.Point) {
	v.selected.Toggle(p)
	v.logf("%d pixels selected (last %d,%d)", v.selected.Len(), p.X, p.Y)
}

func (v *viewer) toggleRecording() {
	if v.rec.Mode() == recorder.Recording {
		filename, err := v.rec.StopRecording()
		if err != nil {
			v.logf("stop recording: %v", err)
			return
		}
		v.logf("saved %s", filename)
		return
	}

	n, err := strconv.Atoi(v.boxEntry.Text)
	if err != nil || n < 1 {
		v.logf("the box size should be a positive number")
		return
	}
	if err := v.rec.StartRecording(v.selected.Pixels(), image.Pt(n, n)); err != nil {
		v.logf("start recording: %v", err)
		return
	}
	v.logf("recording started")
}

func (v *viewer) toggleStatistics() {
	if v.rec.Mode() == recorder.Collecting {
		filename, err := v.rec.StopStatistics()
		if err != nil {
			v.logf("stop statistics: %v", err)
			return
		}
		v.logf("saved %s", filename)
		return
	}
	if err := v.rec.StartStatistics(); err != nil {
		v.logf("start statistics: %v", err)
		return
	}
	v.logf("collecting statistics")
}

// logf logs a message and shows it in the window. It may be called
// from any goroutine.
func (v *viewer) logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Print(msg)
	fyne.Do(func() { v.logLabel.SetText(msg) })
}
