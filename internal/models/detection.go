package models

import "image"

// Detection represents one object found in a frame.
type Detection struct {
	Box        image.Rectangle `json:"box"`
	Confidence float32         `json:"confidence"`
	ClassID    int             `json:"class_id"`
}

// NewDetection builds a detection from corner coordinates, truncating them to pixels.
func NewDetection(x1, y1, x2, y2 float32, confidence float32, classID int) Detection {
	return Detection{
		Box:        image.Rect(int(x1), int(y1), int(x2), int(y2)),
		Confidence: confidence,
		ClassID:    classID,
	}
}
