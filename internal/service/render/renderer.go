// Package render draws detection boxes and labels onto frames.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"

	"webcamdetect/internal/labels"
	"webcamdetect/internal/models"
)

var (
	// Magenta is the bounding box color.
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 0}
	// Blue is the label text color.
	Blue = color.RGBA{R: 0, G: 0, B: 255, A: 0}
)

const (
	BoxThickness  = 3
	TextScale     = 1.0
	TextThickness = 2
)

// Canvas is a drawable frame. Text is rendered in the canvas' fixed font.
type Canvas interface {
	DrawRectangle(r image.Rectangle, c color.RGBA, thickness int) error
	DrawText(text string, origin image.Point, scale float64, c color.RGBA, thickness int) error
}

// Annotate draws det's box and label onto canvas in place.
func Annotate(canvas Canvas, det models.Detection) error {
	if err := canvas.DrawRectangle(det.Box, Magenta, BoxThickness); err != nil {
		return errors.Wrap(err, "failed to draw rectangle")
	}

	if err := canvas.DrawText(Label(det), det.Box.Min, TextScale, Blue, TextThickness); err != nil {
		return errors.Wrap(err, "failed to draw text")
	}

	return nil
}

// AnnotateAll draws every detection onto canvas.
func AnnotateAll(canvas Canvas, dets []models.Detection) error {
	for _, det := range dets {
		if err := Annotate(canvas, det); err != nil {
			return err
		}
	}
	return nil
}

// Label formats "<class name> <confidence>" with the confidence rounded up.
func Label(det models.Detection) string {
	return fmt.Sprintf("%s %.2f", labels.Name(det.ClassID), CeilConfidence(det.Confidence))
}

// CeilConfidence rounds conf up to the next hundredth. The multiplication is
// done in float32, the precision the model reports scores in.
func CeilConfidence(conf float32) float64 {
	scaled := conf * 100
	return math.Ceil(float64(scaled)) / 100
}
