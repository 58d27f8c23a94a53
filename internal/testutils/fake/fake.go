// Package fake provides scripted in-memory stand-ins for the camera, window
// and detector so the display loop can run without OpenCV.
package fake

import (
	"image"
	"image/color"

	"github.com/pkg/errors"

	"webcamdetect/internal/camera"
	"webcamdetect/internal/models"
)

// Rect is a recorded rectangle draw call.
type Rect struct {
	Box       image.Rectangle
	Color     color.RGBA
	Thickness int
}

// Text is a recorded text draw call.
type Text struct {
	Text      string
	Origin    image.Point
	Scale     float64
	Color     color.RGBA
	Thickness int
}

// Frame records everything drawn on it since the last read.
type Frame struct {
	Seq   int
	Rects []Rect
	Texts []Text
}

func (f *Frame) DrawRectangle(r image.Rectangle, c color.RGBA, thickness int) error {
	f.Rects = append(f.Rects, Rect{Box: r, Color: c, Thickness: thickness})
	return nil
}

func (f *Frame) DrawText(text string, origin image.Point, scale float64, c color.RGBA, thickness int) error {
	f.Texts = append(f.Texts, Text{Text: text, Origin: origin, Scale: scale, Color: c, Thickness: thickness})
	return nil
}

// Capture replays Reads in order; once the script runs out every read succeeds.
type Capture struct {
	Opened bool
	Reads  []bool

	ReadCount  int
	Width      int
	Height     int
	CloseCount int

	seq int
}

var _ camera.Capture[*Frame] = (*Capture)(nil)

func (c *Capture) IsOpened() bool { return c.Opened }

func (c *Capture) Read(f *Frame) bool {
	ok := true
	if c.ReadCount < len(c.Reads) {
		ok = c.Reads[c.ReadCount]
	}
	c.ReadCount++
	if !ok {
		return false
	}
	c.seq++
	*f = Frame{Seq: c.seq}
	return true
}

func (c *Capture) SetResolution(width, height int) {
	c.Width = width
	c.Height = height
}

func (c *Capture) Close() error {
	c.CloseCount++
	return nil
}

// Devices is an Opener over a fixed set of captures keyed by index.
type Devices struct {
	ByIndex map[int]*Capture
	Opened  []int
}

// Open records the attempt and returns the capture at index.
func (d *Devices) Open(index int) (camera.Capture[*Frame], error) {
	d.Opened = append(d.Opened, index)
	c, ok := d.ByIndex[index]
	if !ok {
		return nil, errors.Errorf("no device at index %d", index)
	}
	return c, nil
}

// Window records every shown frame and replays Keys from WaitKey.
// Show fails with ShowErr when it is set.
type Window struct {
	Shown      []Frame
	Keys       []int
	Delays     []int
	CloseCount int
	ShowErr    error
}

func (w *Window) Show(f *Frame) error {
	if w.ShowErr != nil {
		return w.ShowErr
	}
	w.Shown = append(w.Shown, *f)
	return nil
}

func (w *Window) WaitKey(delay int) int {
	w.Delays = append(w.Delays, delay)
	if len(w.Keys) == 0 {
		return -1
	}
	k := w.Keys[0]
	w.Keys = w.Keys[1:]
	return k
}

func (w *Window) Close() error {
	w.CloseCount++
	return nil
}

// Detector returns Results[frame.Seq] for each frame, or Err.
type Detector struct {
	Results map[int][]models.Detection
	Err     error
	Calls   int
}

func (d *Detector) Detect(f *Frame) ([]models.Detection, error) {
	d.Calls++
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Results[f.Seq], nil
}

func (d *Detector) Close() error { return nil }
