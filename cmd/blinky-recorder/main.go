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
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/TheCacophonyProject/go-config"
	arg "github.com/alexflint/go-arg"
	"github.com/coreos/go-systemd/daemon"

	"github.com/TheCacophonyProject/blinky-recorder/blinkyfile"
	"github.com/TheCacophonyProject/blinky-recorder/camera"
	"github.com/TheCacophonyProject/blinky-recorder/capture"
	"github.com/TheCacophonyProject/blinky-recorder/recorder"
)

const (
	pollInterval = 20 * time.Millisecond

	pollsPerSdNotify  = 250
	pollsPerStatusLog = 60 * 5 * 50
)

var version = "<not set>"

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"path to configuration file"`
	ConfigDir  string `arg:"--device-config" help:"path to the device configuration directory"`
	Source     string `arg:"-s,--source" help:"capture device index or video file (overrides the configuration)"`
	NoService  bool   `arg:"--no-service" help:"don't register the D-Bus control service"`
	Timestamps bool   `arg:"-t,--timestamps" help:"include timestamps in log output"`
	Verbose    bool   `arg:"-v,--verbose" help:"log device and processing details"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	args.ConfigFile = "/etc/blinky-recorder.yaml"
	args.ConfigDir = config.DefaultConfigDir
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
		log.SetFlags(0) // Removes default timestamp flag
	}

	log.Printf("version: %s", version)
	blinkyfile.Version = version

	conf, err := ParseConfigFile(args.ConfigFile)
	if err != nil {
		return err
	}
	if args.Source != "" {
		conf.Source = args.Source
	}
	device, err := recorder.ReadDeviceConfig(args.ConfigDir)
	if err != nil {
		return err
	}
	logConfig(conf, device)
	rconf, err := conf.recorderConfig(args.Verbose, device)
	if err != nil {
		return err
	}

	opener := func() (capture.Source, error) {
		return camera.Open(conf.Source, conf.cameraConfig(args.Verbose))
	}
	rec, err := recorder.New(opener, rconf, recorder.DBusEvents{})
	if err != nil {
		return err
	}
	defer func() {
		if err := rec.Close(); err != nil {
			log.Printf("error closing recorder: %v", err)
		}
	}()

	if conf.Brightness != nil {
		rec.SetBrightness(*conf.Brightness)
	}
	if conf.Exposure != nil {
		rec.SetExposure(*conf.Exposure)
	}

	if !args.NoService {
		log.Print("starting d-bus service")
		if err := startService(rec); err != nil {
			return err
		}
	}

	if conf.Record.Auto {
		if err := rec.StartRecording(conf.Record.Points(), conf.Record.Box()); err != nil {
			log.Printf("could not start recording: %v", err)
		}
	}

	daemon.SdNotify(false, "READY=1")
	return runLoop(rec, camera.IsDevice(conf.Source), !args.NoService)
}

// runLoop polls the recorder until a signal arrives or the source
// ends. A file that has been played through is kept open while the
// service is running as it can still be restarted for a recording.
func runLoop(rec *recorder.Recorder, isDevice, serving bool) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	polls := 0
	for {
		select {
		case sig := <-sigs:
			log.Printf("received %v, stopping", sig)
			return nil
		case <-ticker.C:
		}

		if _, err := rec.Poll(); err != nil {
			log.Printf("recording error: %v", err)
		}

		polls++
		if polls%pollsPerSdNotify == 0 {
			daemon.SdNotify(false, "WATCHDOG=1")
		}
		if polls%pollsPerStatusLog == 0 {
			logStatus(rec.Status())
		}

		status := rec.Status()
		if status.Streaming || status.Queued > 0 || status.Mode != recorder.Monitoring {
			continue
		}
		if isDevice {
			logStatus(status)
			return errors.New("capture device stopped delivering frames")
		}
		if !serving {
			logStatus(status)
			log.Print("end of file")
			return nil
		}
	}
}

func logConfig(conf *Config, device *recorder.DeviceConfig) {
	log.Printf("device: %s (%d)", device.Name, device.ID)
	log.Printf("source: %s", conf.Source)
	log.Printf("output dir: %s", conf.OutputDir)
	log.Printf("max secs: %d", conf.MaxSecs)
	log.Printf("queue size: %d", conf.QueueSize)
	if conf.StartFrame > 0 || conf.EndFrame > 0 {
		log.Printf("frames: %d to %d", conf.StartFrame, conf.EndFrame)
	}
	if conf.DeviceWindows {
		log.Printf("recording window: %s to %s (device)", device.WindowStart, device.WindowEnd)
	} else if conf.WindowStart != "" {
		log.Printf("recording window: %s to %s", conf.WindowStart, conf.WindowEnd)
	}
}

func logStatus(s recorder.Status) {
	log.Printf("%s: %d frames read (%.2f fps), %d queued, %d processed (avg %.2f fps)",
		s.Mode, s.Frames, s.SourceFPS, s.Queued, s.Processed, s.AvgFPS)
	if s.Err != nil {
		log.Printf("last error: %v", s.Err)
	}
}
