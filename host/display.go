package host

import (
	"oakview/detect"
	"oakview/notify"
	"oakview/video"
	"oakview/video/process"
	"oakview/video/sink"
	"oakview/video/source"
)

// PreviewDisplay is the production Display: it overlays detections on the
// frame, shows it in an on-screen window, and feeds the optional debug and
// recording taps.
type PreviewDisplay struct {
	Window *sink.Window

	// CameraName, when set, draws a name/timestamp caption on each frame.
	CameraName string

	// RawStream receives frames before any drawing; AnnotatedStream after.
	// Either may be nil.
	RawStream       *sink.MJPEGStream
	AnnotatedStream *sink.MJPEGStream

	// MinConfidence, when set, is the floor below which detections are not
	// drawn. The device already filters at its own threshold; this floor is
	// re-read per frame so raising it in the config takes effect live.
	MinConfidence func() float32

	// Recorder, when set, receives each new annotated frame and is
	// triggered by detections at or above TriggerThreshold. The threshold
	// is a func so configuration reloads take effect without a restart.
	Recorder         *video.Recorder
	TriggerThreshold func() float32

	// Notifier, when set, is offered the detection batch of each new frame.
	Notifier *notify.Notifier
}

// Render annotates and presents the frame. Drawing and the side feeds run
// only when the frame is new: the loop re-renders a held frame once per
// millisecond, and feeding those duplicates to the recorder would fill its
// buffer with copies, while re-drawing would stack annotations onto a mat
// that already carries them.
func (d *PreviewDisplay) Render(frame source.Image, batch detect.Batch, newFrame bool) {
	if newFrame {
		if d.RawStream != nil {
			d.RawStream.Put(frame.Mat)
		}

		drawn := batch
		if d.MinConfidence != nil {
			drawn = batch.AtLeast(d.MinConfidence())
		}
		process.DrawDetections(frame, drawn)
		detectionsDrawn.Add(float64(len(drawn)))
		if d.CameraName != "" {
			process.DrawTimestamp(d.CameraName, frame)
		}

		if d.AnnotatedStream != nil {
			d.AnnotatedStream.Put(frame.Mat)
		}

		if d.Recorder != nil {
			d.Recorder.Put(frame)
			d.Recorder.Detection(batch)
			if d.TriggerThreshold != nil && triggers(batch, d.TriggerThreshold()) {
				d.Recorder.Trigger()
			}
		}

		if d.Notifier != nil {
			d.Notifier.DetectionObserved(batch)
		}
	}

	d.Window.Put(frame)
}

func (d *PreviewDisplay) PollKey(waitMs int) int {
	return d.Window.PollKey(waitMs)
}

// triggers reports whether any detection reaches the recording threshold.
func triggers(batch detect.Batch, threshold float32) bool {
	for _, det := range batch {
		if det.Confidence >= threshold {
			return true
		}
	}
	return false
}
