package app

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"webcamdetect/internal/camera"
	"webcamdetect/internal/config"
	"webcamdetect/internal/logger"
	"webcamdetect/internal/models"
	"webcamdetect/internal/service/render"
)

// Detector finds objects in frames of type F.
type Detector[F any] interface {
	Detect(frame F) ([]models.Detection, error)
	Close() error
}

// Window shows frames and polls the keyboard.
type Window[F any] interface {
	Show(frame F) error
	WaitKey(delay int) int
	Close() error
}

// Pipeline holds the frame-type specific pieces the App drives.
type Pipeline[F any] struct {
	Open         camera.Opener[F]
	LoadDetector func() (Detector[F], error)
	OpenWindow   func(title string) (Window[F], error)
	Canvas       func(frame F) render.Canvas

	// Frame is reused for the probe read and every loop iteration.
	Frame F
	Sleep func(time.Duration)
}

// StopReason tells why Run returned.
type StopReason int

const (
	StopNone StopReason = iota
	StopNoCamera
	StopFrameRead
	StopQuit
)

func (r StopReason) String() string {
	switch r {
	case StopNoCamera:
		return "no camera"
	case StopFrameRead:
		return "frame read failed"
	case StopQuit:
		return "quit key pressed"
	}
	return "none"
}

// Result summarizes a run.
type Result struct {
	CameraIndex int
	Frames      int
	Reason      StopReason
}

type App[F any] struct {
	config   *config.Config
	logger   *logger.Logger
	pipeline Pipeline[F]
}

func NewApp[F any](cfg *config.Config, logger *logger.Logger, p Pipeline[F]) *App[F] {
	if p.Sleep == nil {
		p.Sleep = time.Sleep
	}
	return &App[F]{
		config:   cfg,
		logger:   logger,
		pipeline: p,
	}
}

// Run acquires a camera, loads the detector and shows annotated frames until
// the quit key is pressed or a read fails. Every resource opened is closed
// before Run returns. A frame read failure ends the run without an error;
// camera and model failures are returned.
func (a *App[F]) Run() (res Result, err error) {
	res.CameraIndex = -1

	acquirer := camera.NewAcquirer(a.pipeline.Open, a.pipeline.Frame, a.logger)
	cam, idx, err := acquirer.Acquire(a.config.CameraIndices)
	if err != nil {
		a.logger.Error("Error: Could not open any camera!")
		res.Reason = StopNoCamera
		return res, err
	}
	res.CameraIndex = idx

	var (
		det Detector[F]
		win Window[F]
	)
	defer func() {
		err = multierr.Append(err, a.release(cam, win, det))
	}()

	a.logger.Info("Loading YOLO model...")
	det, err = a.pipeline.LoadDetector()
	if err != nil {
		return res, errors.Wrap(err, "failed to load detector")
	}

	cam.SetResolution(a.config.FrameWidth, a.config.FrameHeight)
	a.pipeline.Sleep(a.config.WarmupDelay)

	win, err = a.pipeline.OpenWindow(a.config.WindowTitle)
	if err != nil {
		return res, errors.Wrap(err, "failed to open window")
	}

	a.logger.Info("Starting detection loop...")
	a.logger.Info("Press '%c' to quit", a.config.QuitKey)

	res.Reason, err = a.loop(cam, det, win, &res.Frames)
	a.logger.Info("Detection loop stopped after %d frame(s): %s", res.Frames, res.Reason)
	return res, err
}

func (a *App[F]) loop(cam camera.Capture[F], det Detector[F], win Window[F], shown *int) (StopReason, error) {
	frame := a.pipeline.Frame

	for {
		if !cam.Read(frame) {
			a.logger.Error("Failed to grab frame")
			return StopFrameRead, nil
		}

		detections, err := det.Detect(frame)
		if err != nil {
			return StopNone, errors.Wrap(err, "model invocation failed")
		}

		if err := render.AnnotateAll(a.pipeline.Canvas(frame), detections); err != nil {
			return StopNone, err
		}

		if err := win.Show(frame); err != nil {
			return StopNone, errors.Wrap(err, "failed to show frame")
		}
		*shown++

		if key := win.WaitKey(a.config.WaitKeyDelay); key >= 0 && rune(key&0xFF) == a.config.QuitKey {
			return StopQuit, nil
		}
	}
}

// release closes the camera, window and detector, in that order, skipping
// anything that was never opened.
func (a *App[F]) release(cam camera.Capture[F], win Window[F], det Detector[F]) error {
	var err error
	if cam != nil {
		err = multierr.Append(err, errors.Wrap(cam.Close(), "failed to release camera"))
	}
	if win != nil {
		err = multierr.Append(err, errors.Wrap(win.Close(), "failed to close window"))
	}
	if det != nil {
		err = multierr.Append(err, errors.Wrap(det.Close(), "failed to close detector"))
	}
	return err
}
