// Package labels holds the class names the detection model was trained on.
package labels

import "fmt"

// Count is the number of classes the model predicts.
const Count = 80

// Names maps model class IDs to human-readable labels.
var Names = [Count]string{
	"person", "bicycle", "car", "motorbike", "aeroplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella",
	"handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite", "baseball bat",
	"baseball glove", "skateboard", "surfboard", "tennis racket", "bottle", "wine glass", "cup",
	"fork", "knife", "spoon", "bowl", "banana", "apple", "sandwich", "orange", "broccoli",
	"carrot", "hot dog", "pizza", "donut", "cake", "chair", "sofa", "pottedplant", "bed",
	"diningtable", "toilet", "tvmonitor", "laptop", "mouse", "remote", "keyboard", "cell phone",
	"microwave", "oven", "toaster", "sink", "refrigerator", "book", "clock", "vase", "scissors",
	"teddy bear", "hair drier", "toothbrush",
}

// Name returns the label for classID. The model never produces IDs outside
// [0, Count); a placeholder is returned for them rather than panicking.
func Name(classID int) string {
	if classID < 0 || classID >= Count {
		return fmt.Sprintf("unknown_%d", classID)
	}
	return Names[classID]
}
