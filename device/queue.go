package device

import (
	"oakview/detect"
	"oakview/video/source"
)

// FrameQueue delivers decoded preview frames to the host. The queue is
// bounded; when the host falls behind, the oldest frame is dropped so the
// preview stays fresh.
type FrameQueue struct {
	name string
	c    chan source.Image
}

func newFrameQueue(name string, size int) *FrameQueue {
	return &FrameQueue{
		name: name,
		c:    make(chan source.Image, size),
	}
}

// Name returns the stream name the queue was created for.
func (q *FrameQueue) Name() string { return q.name }

// TryGet returns the next frame if one is available. The caller owns the
// returned image and must Release it.
func (q *FrameQueue) TryGet() (source.Image, bool) {
	select {
	case i := <-q.c:
		return i, true
	default:
		return source.Image{}, false
	}
}

func (q *FrameQueue) put(i source.Image) {
	for {
		select {
		case q.c <- i:
			return
		default:
		}
		select {
		case old := <-q.c:
			old.Release()
			queueDropped.WithLabelValues(q.name).Inc()
		default:
		}
	}
}

// drain releases any frames still queued. Only safe once the producer has
// stopped.
func (q *FrameQueue) drain() {
	for {
		select {
		case i := <-q.c:
			i.Release()
		default:
			return
		}
	}
}

// DetectionQueue delivers detection result batches to the host with the same
// bounded drop-oldest behavior as FrameQueue.
type DetectionQueue struct {
	name string
	c    chan detect.Batch
}

func newDetectionQueue(name string, size int) *DetectionQueue {
	return &DetectionQueue{
		name: name,
		c:    make(chan detect.Batch, size),
	}
}

func (q *DetectionQueue) Name() string { return q.name }

// TryGet returns the next batch if one is available.
func (q *DetectionQueue) TryGet() (detect.Batch, bool) {
	select {
	case b := <-q.c:
		return b, true
	default:
		return nil, false
	}
}

func (q *DetectionQueue) put(b detect.Batch) {
	for {
		select {
		case q.c <- b:
			return
		default:
		}
		select {
		case <-q.c:
			queueDropped.WithLabelValues(q.name).Inc()
		default:
		}
	}
}
