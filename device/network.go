package device

import (
	"fmt"
	"image"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"oakview/detect"
	"oakview/pipeline"
	"oakview/video/source"
)

// network runs the MobileNet SSD detection node host-side. Inference runs on
// its own goroutine; frames offered while a forward pass is in flight are
// skipped rather than queued, matching the free-running behavior of an
// on-device network.
type network struct {
	net    gocv.Net
	thresh float32
	out    *DetectionQueue

	// Channel for incoming work.
	c chan gocv.Mat
	// Channel for double buffering.
	a chan gocv.Mat

	done chan bool
}

func newNetwork(cfg *pipeline.DetectionNetwork, out *DetectionQueue) (*network, error) {
	net := gocv.ReadNetFromCaffe(cfg.PrototxtPath, cfg.CaffeModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to read caffe model from %v, %v", cfg.PrototxtPath, cfg.CaffeModelPath)
	}

	n := &network{
		net:    net,
		thresh: cfg.ConfidenceThreshold,
		out:    out,

		c: make(chan gocv.Mat),
		a: make(chan gocv.Mat, 2),

		done: make(chan bool),
	}

	// Fill mat buffer.
	n.a <- gocv.NewMat()
	n.a <- gocv.NewMat()

	go n.loop()
	return n, nil
}

func (n *network) loop() {
	for input := range n.c {
		start := time.Now()
		batch := n.infer(input)
		inferenceDuration.Observe(time.Since(start).Seconds())
		batchesProduced.Inc()

		if len(batch) > 0 {
			log.Debugf("Network produced: %v", batch.DebugString())
		}
		n.out.put(batch)

		n.a <- input
	}

	for len(n.a) > 0 {
		m := <-n.a
		m.Close()
	}
	n.net.Close()
	n.done <- true
}

// infer runs one forward pass. The input must already be preview-sized.
func (n *network) infer(input gocv.Mat) detect.Batch {
	sz := image.Point{X: input.Cols(), Y: input.Rows()}
	blob := gocv.BlobFromImage(input, 0.007843, sz,
		gocv.NewScalar(127.5, 127.5, 127.5, 0), false, false)
	defer blob.Close()

	n.net.SetInput(blob, "data")

	detBlob := n.net.Forward("detection_out")
	defer detBlob.Close()

	rows := gocv.GetBlobChannel(detBlob, 0, 0)
	defer rows.Close()

	batch := detect.Batch{}
	row := make([]float32, 7)
	for r := 0; r < rows.Rows(); r++ {
		for i := range row {
			row[i] = rows.GetFloatAt(r, i)
		}
		if d, ok := detect.ParseRow(row, n.thresh); ok {
			batch = append(batch, d)
		}
	}
	return batch
}

// Process offers a frame for inference, skipping it if the network is busy.
func (n *network) Process(input source.Image) {
	mat := <-n.a
	input.Mat.CopyTo(&mat)

	select {
	case n.c <- mat:
	default:
		// Allow skipping frames if already processing.
		n.a <- mat
		inferenceSkipped.Inc()
	}
}

// Close stops the inference loop. Process must not be called afterwards.
func (n *network) Close() {
	close(n.c)
	<-n.done
}
