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

// Package camera reads frames from video devices and files with OpenCV.
package camera

import (
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/TheCacophonyProject/blinky-recorder/capture"
	"github.com/TheCacophonyProject/blinky-recorder/frame"
)

type Config struct {
	// Realtime paces file playback at the file's frame rate. Devices
	// are always read as fast as they produce frames.
	Realtime bool
	// Grayscale converts frames to a single channel.
	Grayscale bool
	// Width and Height request a device resolution. Zero leaves the
	// device default.
	Width   int
	Height  int
	Verbose bool
	Clock   clock.Clock
}

// IsDevice reports whether id names a capture device (a device index)
// rather than a file or stream URL.
func IsDevice(id string) bool {
	_, err := strconv.Atoi(id)
	return err == nil
}

// Camera is a capture.Source backed by an OpenCV VideoCapture. It is
// not safe for concurrent use.
type Camera struct {
	id       string
	conf     Config
	vc       *gocv.VideoCapture
	raw      gocv.Mat
	conv     gocv.Mat
	width    int
	height   int
	channels int
	fps      float64
	pacer    *pacer

	closeOnce sync.Once
	closed    bool
	closeErr  error
}

var _ capture.Source = (*Camera)(nil)

// Open opens the capture device or file named by id.
func Open(id string, conf Config) (*Camera, error) {
	var vc *gocv.VideoCapture
	var err error
	if n, convErr := strconv.Atoi(id); convErr == nil {
		vc, err = gocv.OpenVideoCapture(n)
	} else {
		vc, err = gocv.OpenVideoCapture(id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", capture.ErrDeviceUnavailable, id, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s", capture.ErrDeviceUnavailable, id)
	}

	if IsDevice(id) {
		if conf.Width > 0 {
			vc.Set(gocv.VideoCaptureFrameWidth, float64(conf.Width))
		}
		if conf.Height > 0 {
			vc.Set(gocv.VideoCaptureFrameHeight, float64(conf.Height))
		}
	}

	c := &Camera{
		id:       id,
		conf:     conf,
		vc:       vc,
		raw:      gocv.NewMat(),
		conv:     gocv.NewMat(),
		width:    int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height:   int(vc.Get(gocv.VideoCaptureFrameHeight)),
		channels: 3,
		fps:      vc.Get(gocv.VideoCaptureFPS),
	}
	if conf.Grayscale {
		c.channels = 1
	}
	if conf.Realtime && !IsDevice(id) && c.fps > 0 {
		clk := conf.Clock
		if clk == nil {
			clk = clock.New()
		}
		c.pacer = newPacer(c.fps, clk)
	}
	log.Printf("opened %s: %dx%d at %.2f fps", id, c.width, c.height, c.fps)
	return c, nil
}

func (c *Camera) Width() int    { return c.width }
func (c *Camera) Height() int   { return c.height }
func (c *Camera) Channels() int { return c.channels }
func (c *Camera) FPS() float64  { return c.fps }

// GetFrame reads the next frame, converted to RGB (or grayscale). False
// is returned at the end of a file or when the device fails to deliver
// a frame.
func (c *Camera) GetFrame() (*frame.Frame, bool) {
	if c.closed {
		return nil, false
	}
	if c.pacer != nil {
		c.pacer.Wait()
	}
	if ok := c.vc.Read(&c.raw); !ok || c.raw.Empty() {
		return nil, false
	}

	code := gocv.ColorBGRToRGB
	if c.conf.Grayscale {
		code = gocv.ColorBGRToGray
	}
	gocv.CvtColor(c.raw, &c.conv, code)

	f := frame.New(c.conv.Rows(), c.conv.Cols(), c.conv.Channels())
	pix := c.conv.ToBytes()
	if len(pix) != len(f.Pix) {
		log.Printf("%s: unexpected frame data length %d for %v", c.id, len(pix), f)
		return nil, false
	}
	copy(f.Pix, pix)
	return f, true
}

func (c *Camera) Brightness() float64 {
	return c.get(gocv.VideoCaptureBrightness)
}

func (c *Camera) SetBrightness(v float64) {
	c.set("brightness", gocv.VideoCaptureBrightness, v)
}

func (c *Camera) Exposure() float64 {
	return c.get(gocv.VideoCaptureExposure)
}

func (c *Camera) SetExposure(v float64) {
	c.set("exposure", gocv.VideoCaptureExposure, v)
}

func (c *Camera) get(prop gocv.VideoCaptureProperties) float64 {
	if c.closed {
		return 0
	}
	return c.vc.Get(prop)
}

// set writes a device property. Devices clamp or ignore values they
// do not support, so the result is not checked here.
func (c *Camera) set(name string, prop gocv.VideoCaptureProperties, v float64) {
	if c.closed {
		return
	}
	if c.conf.Verbose {
		log.Printf("%s: setting %s to %v", c.id, name, v)
	}
	c.vc.Set(prop, v)
}

// Close releases the device. It may be called more than once.
func (c *Camera) Close() error {
	c.closeOnce.Do(func() {
		c.closed = true
		c.closeErr = multierr.Combine(
			c.vc.Close(),
			c.raw.Close(),
			c.conv.Close(),
		)
	})
	return c.closeErr
}
