package app

import (
	"bytes"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"webcamdetect/internal/camera"
	"webcamdetect/internal/config"
	"webcamdetect/internal/logger"
	"webcamdetect/internal/models"
	"webcamdetect/internal/service/render"
	"webcamdetect/internal/testutils/fake"
)

type harness struct {
	devices      *fake.Devices
	detector     *fake.Detector
	window       *fake.Window
	loadCalls    int
	windowCalls  int
	windowTitles []string
	slept        []time.Duration
	loadErr      error
	logger       *logger.Logger
}

func newHarness(devices map[int]*fake.Capture) *harness {
	return &harness{
		devices:  &fake.Devices{ByIndex: devices},
		detector: &fake.Detector{Results: map[int][]models.Detection{}},
		window:   &fake.Window{},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		CameraIndices: []int{1, 0},
		CameraBackend: config.BackendAuto,
		FrameWidth:    1280,
		FrameHeight:   720,
		WarmupDelay:   2 * time.Second,
		ModelPath:     "yolov8n.onnx",
		WindowTitle:   "Webcam",
		QuitKey:       'q',
		WaitKeyDelay:  1,
	}
}

func (h *harness) app() *App[*fake.Frame] {
	lg := h.logger
	if lg == nil {
		lg = logger.Discard()
	}
	return NewApp(testConfig(), lg, Pipeline[*fake.Frame]{
		Open: h.devices.Open,
		LoadDetector: func() (Detector[*fake.Frame], error) {
			h.loadCalls++
			if h.loadErr != nil {
				return nil, h.loadErr
			}
			return h.detector, nil
		},
		OpenWindow: func(title string) (Window[*fake.Frame], error) {
			h.windowCalls++
			h.windowTitles = append(h.windowTitles, title)
			return h.window, nil
		},
		Canvas: func(f *fake.Frame) render.Canvas { return f },
		Frame:  &fake.Frame{},
		Sleep:  func(d time.Duration) { h.slept = append(h.slept, d) },
	})
}

func TestRun_EndToEnd(t *testing.T) {
	builtin := &fake.Capture{Opened: true}
	h := newHarness(map[int]*fake.Capture{0: builtin})
	// Seq 1 is the acquirer's test read; the first loop frame is seq 2.
	h.detector.Results[2] = []models.Detection{models.NewDetection(10, 20, 110, 120, 0.8734, 0)}
	h.window.Keys = []int{-1, 'q'}

	res, err := h.app().Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.CameraIndex != 0 {
		t.Errorf("CameraIndex = %d, expected 0", res.CameraIndex)
	}
	if res.Reason != StopQuit {
		t.Errorf("Reason = %v, expected %v", res.Reason, StopQuit)
	}
	if len(h.devices.Opened) != 2 {
		t.Errorf("open attempts = %v, expected [1 0]", h.devices.Opened)
	}
	if builtin.Width != 1280 || builtin.Height != 720 {
		t.Errorf("resolution = %dx%d, expected 1280x720", builtin.Width, builtin.Height)
	}
	if len(h.slept) != 1 || h.slept[0] != 2*time.Second {
		t.Errorf("warm-up sleeps = %v, expected [2s]", h.slept)
	}
	if len(h.windowTitles) != 1 || h.windowTitles[0] != "Webcam" {
		t.Errorf("window titles = %v, expected [Webcam]", h.windowTitles)
	}

	if len(h.window.Shown) != 2 {
		t.Fatalf("expected 2 frames shown, got %d", len(h.window.Shown))
	}
	first := h.window.Shown[0]
	if len(first.Rects) != 1 || first.Rects[0].Box != image.Rect(10, 20, 110, 120) {
		t.Errorf("first frame rectangles = %+v", first.Rects)
	}
	if first.Rects[0].Color != render.Magenta {
		t.Errorf("rectangle color = %v, expected magenta", first.Rects[0].Color)
	}
	if len(first.Texts) != 1 || first.Texts[0].Text != "person 0.88" {
		t.Errorf("first frame labels = %+v", first.Texts)
	}
	if second := h.window.Shown[1]; len(second.Rects) != 0 {
		t.Errorf("second frame should be unannotated, got %+v", second.Rects)
	}

	if builtin.CloseCount != 1 {
		t.Errorf("camera closed %d times, expected 1", builtin.CloseCount)
	}
	if h.window.CloseCount != 1 {
		t.Errorf("window closed %d times, expected 1", h.window.CloseCount)
	}
	for _, d := range h.window.Delays {
		if d != 1 {
			t.Errorf("WaitKey delay = %d, expected 1", d)
		}
	}
}

func TestRun_NoCamera(t *testing.T) {
	h := newHarness(map[int]*fake.Capture{
		1: {Opened: false},
		0: {Opened: true, Reads: []bool{false}},
	})
	var errOut bytes.Buffer
	h.logger = logger.New(&bytes.Buffer{}, &bytes.Buffer{}, &errOut)

	res, err := h.app().Run()
	if !errors.Is(err, camera.ErrCameraUnavailable) {
		t.Fatalf("expected ErrCameraUnavailable, got %v", err)
	}
	if res.Reason != StopNoCamera {
		t.Errorf("Reason = %v, expected %v", res.Reason, StopNoCamera)
	}
	if h.loadCalls != 0 {
		t.Errorf("model loaded %d times, expected 0", h.loadCalls)
	}
	if h.windowCalls != 0 {
		t.Errorf("window opened %d times, expected 0", h.windowCalls)
	}
	if len(h.slept) != 0 {
		t.Errorf("expected no warm-up sleep, got %v", h.slept)
	}
	if !strings.Contains(errOut.String(), "Error: Could not open any camera!") {
		t.Errorf("error log = %q, expected the camera failure message", errOut.String())
	}
}

func TestRun_FrameReadFailureAfterN(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		reads := []bool{true} // acquirer test read
		for i := 0; i < n; i++ {
			reads = append(reads, true)
		}
		reads = append(reads, false)

		cam := &fake.Capture{Opened: true, Reads: reads}
		h := newHarness(map[int]*fake.Capture{1: cam})
		for seq := 2; seq < n+2; seq++ {
			h.detector.Results[seq] = []models.Detection{models.NewDetection(1, 2, 3, 4, 0.5, 1)}
		}

		res, err := h.app().Run()
		if err != nil {
			t.Fatalf("n=%d: Run failed: %v", n, err)
		}
		if res.Reason != StopFrameRead {
			t.Errorf("n=%d: Reason = %v, expected %v", n, res.Reason, StopFrameRead)
		}
		if res.Frames != n || len(h.window.Shown) != n {
			t.Errorf("n=%d: shown %d (result %d), expected %d", n, len(h.window.Shown), res.Frames, n)
		}
		for i, f := range h.window.Shown {
			if len(f.Rects) != 1 {
				t.Errorf("n=%d: frame %d not annotated", n, i)
			}
		}
		if cam.CloseCount != 1 {
			t.Errorf("n=%d: camera closed %d times, expected 1", n, cam.CloseCount)
		}
		if h.detector.Calls != n {
			t.Errorf("n=%d: detector called %d times, expected %d", n, h.detector.Calls, n)
		}
	}
}

func TestRun_ModelLoadFailureReleasesCamera(t *testing.T) {
	cam := &fake.Capture{Opened: true}
	h := newHarness(map[int]*fake.Capture{1: cam})
	h.loadErr = errors.New("weights missing")

	_, err := h.app().Run()
	if err == nil {
		t.Fatal("expected error from model load")
	}
	if cam.CloseCount != 1 {
		t.Errorf("camera closed %d times, expected 1", cam.CloseCount)
	}
	if h.windowCalls != 0 {
		t.Errorf("window opened %d times, expected 0", h.windowCalls)
	}
}

func TestRun_ModelInvocationFailure(t *testing.T) {
	cam := &fake.Capture{Opened: true}
	h := newHarness(map[int]*fake.Capture{1: cam})
	h.detector.Err = errors.New("inference exploded")

	res, err := h.app().Run()
	if err == nil {
		t.Fatal("expected model invocation error")
	}
	if res.Frames != 0 {
		t.Errorf("expected no frames shown, got %d", res.Frames)
	}
	if cam.CloseCount != 1 || h.window.CloseCount != 1 {
		t.Errorf("expected camera and window released once, got %d and %d", cam.CloseCount, h.window.CloseCount)
	}
}

func TestRun_ShowFailure(t *testing.T) {
	cam := &fake.Capture{Opened: true}
	h := newHarness(map[int]*fake.Capture{1: cam})
	h.window.ShowErr = errors.New("no display")

	res, err := h.app().Run()
	if err == nil || !strings.Contains(err.Error(), "no display") {
		t.Fatalf("expected show error, got %v", err)
	}
	if res.Frames != 0 {
		t.Errorf("Frames = %d, expected 0", res.Frames)
	}
	if cam.CloseCount != 1 || h.window.CloseCount != 1 {
		t.Errorf("expected camera and window released once, got %d and %d", cam.CloseCount, h.window.CloseCount)
	}
}

func TestRun_IgnoresOtherKeys(t *testing.T) {
	cam := &fake.Capture{Opened: true}
	h := newHarness(map[int]*fake.Capture{1: cam})
	h.window.Keys = []int{'a', 'Q', ' ', 0x100 | 'q'}

	res, err := h.app().Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Frames != 4 {
		t.Errorf("Frames = %d, expected 4", res.Frames)
	}
	if res.Reason != StopQuit {
		t.Errorf("Reason = %v, expected %v", res.Reason, StopQuit)
	}
}
