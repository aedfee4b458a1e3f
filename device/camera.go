package device

import (
	"image"

	"gocv.io/x/gocv"

	"oakview/video/source"
)

// cameraNode reads frames from the capture source, scales them to the
// configured preview size, and fans them out to the preview queue and the
// detection network.
type cameraNode struct {
	vc      *source.VideoCapture
	pool    *source.MatPool
	preview image.Point

	frames *FrameQueue // may be nil when the preview stream is disabled
	net    *network    // may be nil when no detection network is configured

	stop chan chan bool
}

func newCameraNode(vc *source.VideoCapture, preview image.Point, frames *FrameQueue, net *network) *cameraNode {
	c := &cameraNode{
		vc:      vc,
		pool:    source.NewMatPool(),
		preview: preview,
		frames:  frames,
		net:     net,
		stop:    make(chan chan bool, 1),
	}
	go c.run()
	return c
}

func (c *cameraNode) run() {
	in := c.vc.Get()
	for {
		select {
		case done := <-c.stop:
			done <- true
			return
		case img, ok := <-in:
			if !ok {
				return
			}
			framesCaptured.Inc()

			prev := c.pool.NewImage()
			prev.Time = img.Time
			gocv.Resize(img.Mat, &prev.Mat, c.preview, 0, 0, gocv.InterpolationLinear)
			img.Release()

			if c.net != nil {
				// The network copies the frame into its own buffer.
				c.net.Process(prev)
			}
			if c.frames != nil {
				c.frames.put(prev)
			} else {
				prev.Release()
			}
		}
	}
}

func (c *cameraNode) Close() {
	done := make(chan bool)
	c.stop <- done
	<-done
	c.pool.Close()
}
