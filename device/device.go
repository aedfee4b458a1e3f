// Package device executes a pipeline against a capture source and delivers
// its output streams to the host through named, bounded queues. The host
// side only ever sees the queue contract; everything behind it (capture,
// scaling, inference) stays inside the device runtime.
package device

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"oakview/pipeline"
	"oakview/util"
	"oakview/video/source"
)

// Device is a running pipeline.
type Device struct {
	pipe *pipeline.Pipeline

	vc     *source.VideoCapture
	camera *cameraNode
	net    *network

	frames     *FrameQueue
	detections *DetectionQueue

	closed *util.Event
}

// Open starts the pipeline. Failures here (bad model, unreachable camera)
// are returned; failures after a successful Open are fatal, in keeping with
// the demo-grade error model of the host loop.
func Open(p *pipeline.Pipeline) (*Device, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	d := &Device{
		pipe:   p,
		closed: util.NewEvent(),
	}

	size := p.EffectiveQueueSize()
	if p.PreviewStream != "" {
		d.frames = newFrameQueue(p.PreviewStream, size)
	}
	if p.DetectionStream != "" {
		d.detections = newDetectionQueue(p.DetectionStream, size)

		net, err := newNetwork(p.Network, d.detections)
		if err != nil {
			return nil, err
		}
		d.net = net
	}

	vc, err := source.NewVideoCapture(p.Camera.URI, p.Camera.FPS)
	if err != nil {
		if d.net != nil {
			d.net.Close()
		}
		return nil, err
	}
	d.vc = vc
	d.camera = newCameraNode(vc, p.Camera.PreviewSize, d.frames, d.net)

	log.Infof("Device running pipeline with streams %v", p.Streams())
	return d, nil
}

// FrameQueue returns the named preview frame queue.
func (d *Device) FrameQueue(name string) (*FrameQueue, error) {
	if d.frames == nil || d.frames.Name() != name {
		return nil, fmt.Errorf("device: no frame stream named %q", name)
	}
	return d.frames, nil
}

// DetectionQueue returns the named detection result queue.
func (d *Device) DetectionQueue(name string) (*DetectionQueue, error) {
	if d.detections == nil || d.detections.Name() != name {
		return nil, fmt.Errorf("device: no detection stream named %q", name)
	}
	return d.detections, nil
}

// Connected reports whether the capture source is still producing frames.
func (d *Device) Connected() bool {
	return d.vc.Connected()
}

// Close stops the pipeline and releases all resources. Safe to call once;
// queue consumers must be done before calling.
func (d *Device) Close() {
	if d.closed.HasBeenNotified() {
		return
	}
	d.camera.Close()
	d.vc.Close()
	if d.net != nil {
		d.net.Close()
	}
	if d.frames != nil {
		d.frames.drain()
	}
	d.closed.Notify()
	log.Infof("Device closed")
}
