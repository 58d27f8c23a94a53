// Package yolov8 decodes raw YOLOv8 output tensors into candidate boxes.
package yolov8

import (
	"image"
	"math"
)

// Output layout: [1, 4+classes, anchors]. The first four rows hold
// cx, cy, w, h in model input pixels; the rest hold per-class scores.
const BoxFields = 4

// MaxWH is the per-class offset applied before NMS so boxes of different
// classes never overlap.
const MaxWH = 7680

// PadValue is the gray level used to fill letterbox borders.
const PadValue = 114

// Candidate is a decoded box before non-maximum suppression.
type Candidate struct {
	Box     image.Rectangle
	Score   float32
	ClassID int
}

// Geometry describes the model input and the frame it was letterboxed from.
type Geometry struct {
	InputWidth  int
	InputHeight int
	FrameWidth  int
	FrameHeight int
}

// Letterbox is the aspect-preserving resize placed inside the model input.
type Letterbox struct {
	Scale  float32
	Width  int // resized frame width
	Height int // resized frame height
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Letterbox computes how the frame fits into the model input: scaled by the
// smaller ratio and centered, with the remainder padded.
func (g Geometry) Letterbox() Letterbox {
	r := math.Min(float64(g.InputWidth)/float64(g.FrameWidth), float64(g.InputHeight)/float64(g.FrameHeight))
	w := int(math.Round(float64(g.FrameWidth) * r))
	h := int(math.Round(float64(g.FrameHeight) * r))
	dw := g.InputWidth - w
	dh := g.InputHeight - h

	return Letterbox{
		Scale:  float32(r),
		Width:  w,
		Height: h,
		Left:   dw / 2,
		Top:    dh / 2,
		Right:  dw - dw/2,
		Bottom: dh - dh/2,
	}
}

// Decode walks every anchor in data (row-major, fields x anchors), keeps the
// best class per anchor and drops anchors scoring below minScore. Boxes are
// un-padded and scaled back to frame pixels.
func Decode(data []float32, fields, anchors int, g Geometry, minScore float32) []Candidate {
	if fields <= BoxFields || anchors <= 0 || len(data) < fields*anchors {
		return nil
	}
	if g.FrameWidth <= 0 || g.FrameHeight <= 0 {
		return nil
	}

	lb := g.Letterbox()
	left, top := float32(lb.Left), float32(lb.Top)
	var out []Candidate

	for i := 0; i < anchors; i++ {
		bestScore := float32(0)
		bestClass := -1
		for c := BoxFields; c < fields; c++ {
			if s := data[c*anchors+i]; s > bestScore {
				bestScore = s
				bestClass = c - BoxFields
			}
		}

		if bestClass < 0 || bestScore < minScore {
			continue
		}

		cx := data[0*anchors+i]
		cy := data[1*anchors+i]
		w := data[2*anchors+i]
		h := data[3*anchors+i]

		x1 := clamp((cx-w/2-left)/lb.Scale, float32(g.FrameWidth))
		y1 := clamp((cy-h/2-top)/lb.Scale, float32(g.FrameHeight))
		x2 := clamp((cx+w/2-left)/lb.Scale, float32(g.FrameWidth))
		y2 := clamp((cy+h/2-top)/lb.Scale, float32(g.FrameHeight))

		out = append(out, Candidate{
			Box:     image.Rect(int(x1), int(y1), int(x2), int(y2)),
			Score:   bestScore,
			ClassID: bestClass,
		})
	}

	return out
}

// NMSInputs returns the boxes and scores to feed a class-agnostic NMS so that
// it suppresses within each class only: every box is shifted by
// ClassID*MaxWH along both axes.
func NMSInputs(candidates []Candidate) ([]image.Rectangle, []float32) {
	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		off := c.ClassID * MaxWH
		boxes[i] = c.Box.Add(image.Pt(off, off))
		scores[i] = c.Score
	}
	return boxes, scores
}

func clamp(v, limit float32) float32 {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
