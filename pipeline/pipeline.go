// Package pipeline describes the processing graph executed by the camera
// device runtime: a color camera node feeding a detection network, with
// named output streams carrying preview frames and detection results back
// to the host.
package pipeline

import (
	"fmt"
	"image"
)

const (
	// StreamPreview is the conventional stream name for decoded preview frames.
	StreamPreview = "rgb"
	// StreamDetections is the conventional stream name for detection results.
	StreamDetections = "nn"
)

// ColorCamera configures the camera node. Preview frames are produced at
// PreviewSize regardless of the sensor's native resolution.
type ColorCamera struct {
	// URI selects the capture source: a device index ("0"), an rtsp://
	// address, or a video file path.
	URI string

	PreviewSize image.Point
	Interleaved bool

	// FPS caps the capture rate. Zero means uncapped.
	FPS int
}

// DetectionNetwork configures the MobileNet SSD detection node. Detections
// below ConfidenceThreshold are discarded before they ever reach an output
// stream.
type DetectionNetwork struct {
	// Caffe model definition and weights.
	PrototxtPath   string
	CaffeModelPath string

	ConfidenceThreshold float32
}

// Pipeline is the full graph. Output streams are named; the host consumes
// them as queues from the running device.
type Pipeline struct {
	Camera  ColorCamera
	Network *DetectionNetwork

	// PreviewStream receives camera preview frames. Empty disables the stream.
	PreviewStream string
	// DetectionStream receives detection batches. Empty disables the stream.
	DetectionStream string

	// QueueSize bounds each output queue. Zero selects the default.
	QueueSize int
}

// DefaultQueueSize bounds output queues when the pipeline does not specify
// one. Small on purpose: preview consumers want fresh frames, not history.
const DefaultQueueSize = 4

// New returns a pipeline preconfigured like the stock detection preview:
// 300x300 planar preview, MobileNet SSD at 0.5 confidence, both output
// streams enabled.
func New(uri, prototxt, caffeModel string) *Pipeline {
	return &Pipeline{
		Camera: ColorCamera{
			URI:         uri,
			PreviewSize: image.Point{X: 300, Y: 300},
			Interleaved: false,
		},
		Network: &DetectionNetwork{
			PrototxtPath:        prototxt,
			CaffeModelPath:      caffeModel,
			ConfidenceThreshold: 0.5,
		},
		PreviewStream:   StreamPreview,
		DetectionStream: StreamDetections,
	}
}

// Validate checks the graph before the device attempts to run it.
func (p *Pipeline) Validate() error {
	if p.Camera.URI == "" {
		return fmt.Errorf("pipeline: camera URI not set")
	}
	if p.Camera.PreviewSize.X <= 0 || p.Camera.PreviewSize.Y <= 0 {
		return fmt.Errorf("pipeline: invalid preview size %v", p.Camera.PreviewSize)
	}
	if p.PreviewStream == "" && p.DetectionStream == "" {
		return fmt.Errorf("pipeline: no output streams defined")
	}
	if p.PreviewStream != "" && p.PreviewStream == p.DetectionStream {
		return fmt.Errorf("pipeline: duplicate stream name %q", p.PreviewStream)
	}
	if p.DetectionStream != "" {
		if p.Network == nil {
			return fmt.Errorf("pipeline: stream %q has no detection network to feed it", p.DetectionStream)
		}
		if p.Network.PrototxtPath == "" || p.Network.CaffeModelPath == "" {
			return fmt.Errorf("pipeline: detection network model paths not set")
		}
		if p.Network.ConfidenceThreshold < 0 || p.Network.ConfidenceThreshold > 1 {
			return fmt.Errorf("pipeline: confidence threshold %v outside [0,1]", p.Network.ConfidenceThreshold)
		}
	}
	if p.QueueSize < 0 {
		return fmt.Errorf("pipeline: negative queue size %d", p.QueueSize)
	}
	return nil
}

// Streams lists the output stream names defined by the pipeline.
func (p *Pipeline) Streams() []string {
	var s []string
	if p.PreviewStream != "" {
		s = append(s, p.PreviewStream)
	}
	if p.DetectionStream != "" {
		s = append(s, p.DetectionStream)
	}
	return s
}

// EffectiveQueueSize resolves the queue bound, applying the default.
func (p *Pipeline) EffectiveQueueSize() int {
	if p.QueueSize > 0 {
		return p.QueueSize
	}
	return DefaultQueueSize
}
