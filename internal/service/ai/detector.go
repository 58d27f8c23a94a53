package ai

import (
	"image"
	"image/color"
	"iter"
	"os"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"webcamdetect/internal/logger"
	"webcamdetect/internal/models"
	"webcamdetect/internal/service/ai/yolov8"
)

const (
	// InputSize is the square input the YOLOv8 export expects.
	InputSize = 640
	// ScoreThreshold is the minimum class score kept before NMS.
	ScoreThreshold = 0.25
	// NMSThreshold is the IoU above which overlapping boxes are suppressed.
	NMSThreshold = 0.7
)

// DetectorService runs a YOLOv8 ONNX export through OpenCV's DNN module.
type DetectorService struct {
	net       gocv.Net
	modelPath string
	logger    *logger.Logger
	mu        sync.Mutex
}

// NewDetectorService loads the model at modelPath.
func NewDetectorService(modelPath string, logger *logger.Logger) (*DetectorService, error) {
	s := &DetectorService{
		modelPath: modelPath,
		logger:    logger,
	}

	if err := s.initializeNet(); err != nil {
		return nil, err
	}

	return s, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return errors.Errorf("model file not found: %s", s.modelPath)
	}

	net := gocv.ReadNetFromONNX(s.modelPath)
	if net.Empty() {
		return errors.Errorf("failed to load network from %s", s.modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return errors.New("failed to set preferable backend or target")
	}

	s.net = net
	s.logger.Info("Detection network initialized from %s", s.modelPath)
	return nil
}

// Detect runs the network on frame and returns detections in frame pixel coordinates.
func (s *DetectorService) Detect(frame *gocv.Mat) ([]models.Detection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.net.Empty() {
		return nil, errors.New("detection network not initialized")
	}
	if frame == nil || frame.Empty() {
		return nil, errors.New("empty frame")
	}

	geometry := yolov8.Geometry{
		InputWidth:  InputSize,
		InputHeight: InputSize,
		FrameWidth:  frame.Cols(),
		FrameHeight: frame.Rows(),
	}

	input, err := letterbox(*frame, geometry)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	blob := gocv.BlobFromImage(input, 1.0/255.0, image.Pt(InputSize, InputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")

	output := s.net.Forward("")
	defer output.Close()

	// [1, 84, 8400]: 4 box fields + 80 class scores per anchor
	dims := output.Size()
	if len(dims) != 3 {
		return nil, errors.Errorf("unexpected output shape %v", dims)
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read network output")
	}

	candidates := yolov8.Decode(data, dims[1], dims[2], geometry, ScoreThreshold)
	if len(candidates) == 0 {
		return nil, nil
	}

	// Offset per class so suppression never crosses class boundaries.
	boxes, scores := yolov8.NMSInputs(candidates)
	indices := gocv.NMSBoxes(boxes, scores, ScoreThreshold, NMSThreshold)

	results := make([]models.Detection, 0, len(indices))
	for _, idx := range indices {
		c := candidates[idx]
		results = append(results, models.Detection{
			Box:        c.Box,
			Confidence: c.Score,
			ClassID:    c.ClassID,
		})
	}

	return results, nil
}

// letterbox resizes src into the model input keeping its aspect ratio and
// pads the remainder with gray. The caller owns the returned Mat.
func letterbox(src gocv.Mat, g yolov8.Geometry) (gocv.Mat, error) {
	lb := g.Letterbox()

	resized := gocv.NewMat()
	defer resized.Close()
	if err := gocv.Resize(src, &resized, image.Pt(lb.Width, lb.Height), 0, 0, gocv.InterpolationLinear); err != nil {
		return gocv.Mat{}, errors.Wrap(err, "failed to resize frame")
	}

	dst := gocv.NewMat()
	pad := color.RGBA{R: yolov8.PadValue, G: yolov8.PadValue, B: yolov8.PadValue}
	if err := gocv.CopyMakeBorder(resized, &dst, lb.Top, lb.Bottom, lb.Left, lb.Right, gocv.BorderConstant, pad); err != nil {
		dst.Close()
		return gocv.Mat{}, errors.Wrap(err, "failed to pad frame")
	}
	return dst, nil
}

// Results yields detections for each frame as it is processed. Iteration
// stops at the first inference error, which is yielded with a nil slice.
func (s *DetectorService) Results(frames ...*gocv.Mat) iter.Seq2[[]models.Detection, error] {
	return func(yield func([]models.Detection, error) bool) {
		for _, f := range frames {
			dets, err := s.Detect(f)
			if !yield(dets, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Close()
}
