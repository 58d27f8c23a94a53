// Package cv adapts gocv types to the camera, window and canvas interfaces
// used by the display loop.
package cv

import (
	"image"
	"image/color"
	"runtime"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"webcamdetect/internal/app"
	"webcamdetect/internal/camera"
	"webcamdetect/internal/config"
	"webcamdetect/internal/logger"
	"webcamdetect/internal/service/ai"
	"webcamdetect/internal/service/render"
)

// Capture wraps a gocv.VideoCapture.
type Capture struct {
	vc *gocv.VideoCapture
}

var _ camera.Capture[*gocv.Mat] = (*Capture)(nil)

func (c *Capture) IsOpened() bool { return c.vc.IsOpened() }

func (c *Capture) Read(frame *gocv.Mat) bool {
	return c.vc.Read(frame) && !frame.Empty()
}

// SetResolution requests a capture size. Devices may ignore it.
func (c *Capture) SetResolution(width, height int) {
	c.vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
	c.vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
}

func (c *Capture) Close() error { return c.vc.Close() }

// CaptureAPI maps a configured backend to the gocv capture API.
// Auto picks DirectShow on Windows and lets OpenCV choose elsewhere.
func CaptureAPI(b config.Backend) gocv.VideoCaptureAPI {
	switch b {
	case config.BackendDShow:
		return gocv.VideoCaptureDshow
	case config.BackendV4L2:
		return gocv.VideoCaptureV4L2
	case config.BackendAVFoundation:
		return gocv.VideoCaptureAVFoundation
	case config.BackendAuto:
		if runtime.GOOS == "windows" {
			return gocv.VideoCaptureDshow
		}
	}
	return gocv.VideoCaptureAny
}

// Opener returns a camera.Opener using the given backend.
func Opener(b config.Backend) camera.Opener[*gocv.Mat] {
	api := CaptureAPI(b)
	return func(index int) (camera.Capture[*gocv.Mat], error) {
		vc, err := gocv.OpenVideoCaptureWithAPI(index, api)
		if err != nil {
			// gocv allocates the capture even when the device fails to open.
			if vc != nil {
				vc.Close()
			}
			return nil, errors.Wrapf(err, "failed to open video capture device %d", index)
		}
		return &Capture{vc: vc}, nil
	}
}

// Window wraps a gocv.Window.
type Window struct {
	win *gocv.Window
}

// NewWindow opens a titled display window.
func NewWindow(title string) (app.Window[*gocv.Mat], error) {
	w := gocv.NewWindow(title)
	if w == nil {
		return nil, errors.Errorf("failed to open window %q", title)
	}
	return &Window{win: w}, nil
}

func (w *Window) Show(frame *gocv.Mat) error {
	return w.win.IMShow(*frame)
}

func (w *Window) WaitKey(delay int) int { return w.win.WaitKey(delay) }

func (w *Window) Close() error { return w.win.Close() }

// Canvas draws onto a gocv.Mat in place using the Hershey Simplex font.
type Canvas struct {
	mat *gocv.Mat
}

var _ render.Canvas = (*Canvas)(nil)

// NewCanvas returns a render.Canvas for mat.
func NewCanvas(mat *gocv.Mat) render.Canvas { return &Canvas{mat: mat} }

func (c *Canvas) DrawRectangle(r image.Rectangle, col color.RGBA, thickness int) error {
	return gocv.Rectangle(c.mat, r, col, thickness)
}

func (c *Canvas) DrawText(text string, origin image.Point, scale float64, col color.RGBA, thickness int) error {
	return gocv.PutText(c.mat, text, origin, gocv.FontHersheySimplex, scale, col, thickness)
}

// NewPipeline wires the OpenCV-backed camera, detector and window into an
// app.Pipeline. The returned cleanup func frees the shared frame buffer.
func NewPipeline(cfg *config.Config, logger *logger.Logger) (app.Pipeline[*gocv.Mat], func() error) {
	frame := gocv.NewMat()

	p := app.Pipeline[*gocv.Mat]{
		Open: Opener(cfg.CameraBackend),
		LoadDetector: func() (app.Detector[*gocv.Mat], error) {
			det, err := ai.NewDetectorService(cfg.ModelPath, logger)
			if err != nil {
				return nil, err
			}
			return det, nil
		},
		OpenWindow: NewWindow,
		Canvas:     func(m *gocv.Mat) render.Canvas { return NewCanvas(m) },
		Frame:      &frame,
	}

	return p, frame.Close
}
