package detect

import (
	"fmt"
	"image"
	"sort"
	"strings"
)

// Class labels for MobileNet SSD.
var mobileNetClasses = map[int]string{
	0: "background",
	1: "aeroplane", 2: "bicycle", 3: "bird", 4: "boat",
	5: "bottle", 6: "bus", 7: "car", 8: "cat", 9: "chair",
	10: "cow", 11: "diningtable", 12: "dog", 13: "horse",
	14: "motorbike", 15: "person", 16: "pottedplant",
	17: "sheep", 18: "sofa", 19: "train", 20: "tvmonitor",
}

// ClassLabel returns the MobileNet SSD label for a class ID, or "unknown" for
// IDs outside the trained label set.
func ClassLabel(id int) string {
	if l, ok := mobileNetClasses[id]; ok {
		return l
	}
	return "unknown"
}

// Detection is a single object found by the detection network. Box
// coordinates are normalized fractions of the frame in [0,1]; they only
// become pixels relative to a particular frame via FrameNorm.
type Detection struct {
	Label      string
	Confidence float32

	XMin, YMin, XMax, YMax float32
}

// ParseRow interprets one row of an SSD detection_out blob, laid out as
// [imageID, classID, confidence, xmin, ymin, xmax, ymax]. Rows below the
// confidence threshold are discarded, as are truncated rows.
func ParseRow(row []float32, thresh float32) (Detection, bool) {
	if len(row) < 7 {
		return Detection{}, false
	}
	confidence := row[2]
	if confidence < thresh {
		return Detection{}, false
	}
	return Detection{
		Label:      ClassLabel(int(row[1])),
		Confidence: confidence,
		XMin:       row[3],
		YMin:       row[4],
		XMax:       row[5],
		YMax:       row[6],
	}, true
}

func (d Detection) String() string {
	return fmt.Sprintf("%s %.2f (%.3f, %.3f, %.3f, %.3f)",
		d.Label, d.Confidence, d.XMin, d.YMin, d.XMax, d.YMax)
}

// Batch is one detection result packet; it fully replaces the previous batch
// on the consumer side.
type Batch []Detection

// Sorted returns the batch ordered by descending confidence.
func (b Batch) Sorted() Batch {
	s := make(Batch, len(b))
	copy(s, b)
	sort.Slice(s, func(i, j int) bool {
		return s[i].Confidence > s[j].Confidence
	})
	return s
}

// AtLeast returns the detections at or above the confidence floor.
func (b Batch) AtLeast(threshold float32) Batch {
	var s Batch
	for _, d := range b {
		if d.Confidence >= threshold {
			s = append(s, d)
		}
	}
	return s
}

// Best returns the highest-confidence detection in the batch.
func (b Batch) Best() (Detection, bool) {
	if len(b) == 0 {
		return Detection{}, false
	}
	best := b[0]
	for _, d := range b[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	return best, true
}

func (b Batch) DebugString() string {
	var ds []string
	for _, d := range b.Sorted() {
		ds = append(ds, fmt.Sprintf("%s: %.2f", d.Label, d.Confidence))
	}
	return strings.Join(ds, ", ")
}

// Denormalize maps a normalized coordinate to a pixel position along a
// dimension of d pixels. The input is clamped to [0,1] before scaling, and
// the result is truncated, so for c in [0,1] the result is floor(c*d) and
// always within [0,d].
func Denormalize(c float32, d int) int {
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return int(c * float32(d))
}

// FrameNorm maps a detection's normalized box onto a frame of the given
// pixel dimensions.
func FrameNorm(det Detection, width, height int) image.Rectangle {
	return image.Rect(
		Denormalize(det.XMin, width),
		Denormalize(det.YMin, height),
		Denormalize(det.XMax, width),
		Denormalize(det.YMax, height),
	)
}
