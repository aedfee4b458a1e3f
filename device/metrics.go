package device

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oakview_device_frames_total",
		Help: "Preview frames produced by the camera node.",
	})

	queueDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oakview_device_queue_dropped_total",
		Help: "Packets dropped from bounded output queues because the host fell behind.",
	}, []string{"stream"})

	inferenceSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oakview_device_inference_skipped_total",
		Help: "Frames not considered for inference because the network was busy.",
	})

	batchesProduced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oakview_device_detection_batches_total",
		Help: "Detection batches produced by the network node.",
	})

	inferenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "oakview_device_inference_seconds",
		Help:    "Wall time of a single forward pass through the detection network.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
	})
)
