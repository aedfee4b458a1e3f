package host

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oakview_host_frames_received_total",
		Help: "Preview frames polled from the device.",
	})

	batchesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oakview_host_detection_batches_received_total",
		Help: "Detection batches polled from the device.",
	})

	framesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oakview_host_frames_rendered_total",
		Help: "Frames rendered to the display.",
	})

	detectionsDrawn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oakview_host_detections_drawn_total",
		Help: "Detection boxes drawn onto rendered frames.",
	})
)
