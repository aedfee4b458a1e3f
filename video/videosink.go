package video

import (
	log "github.com/sirupsen/logrus"

	"oakview/detect"
	"oakview/video/process"
	"oakview/video/sink"
	"oakview/video/source"
)

// VideoSinkProducer creates one VideoSink per recorded event: an FPS
// normalized ffmpeg encoder plus a still thumbnail from the trigger frame
// and a video thumbnail generated after the clip closes.
type VideoSinkProducer struct {
	FFmpegOptions  sink.FFmpegOptions
	Filesystem     *Filesystem
	VThumbProducer *process.VThumbProducer
}

// VideoSink is a recording in progress.
type VideoSink struct {
	sink sink.Sink
	vr   *VideoRecord

	p *VideoSinkProducer
}

// New starts a recording. The trigger image becomes the thumbnail and is
// released here.
func (p *VideoSinkProducer) New(trigger source.Image) *VideoSink {
	r := p.Filesystem.NewRecord(trigger.Time)

	go func(trigger source.Image) {
		defer trigger.Release()
		path := r.Paths().ThumbPath
		if err := process.WriteThumb(path, trigger); err != nil {
			log.Errorf("Failed to generate thumbnail: %v", err)
			return
		}
		r.UpdateThumb()
	}(trigger)

	var s sink.Sink
	s = sink.NewFFmpegSink(r.Paths().VideoPath, p.FFmpegOptions)
	// Ensure video is output with constant FPS.
	s = sink.NewFPSNormalize(s, p.FFmpegOptions.FPS)

	return &VideoSink{
		sink: s,
		vr:   r,
		p:    p,
	}
}

func (w *VideoSink) Put(i source.Image) {
	w.sink.Put(i)
}

// SetDetections records the detections associated with this clip.
func (w *VideoSink) SetDetections(batch detect.Batch) {
	w.vr.SetDetections(batch)
}

func (w *VideoSink) Close() {
	w.sink.Close()
	w.vr.UpdateVideo()

	// Create video thumbnail.
	paths := w.vr.Paths()
	c := w.p.VThumbProducer.Process(paths.VideoPath, paths.VThumbPath)
	go func() {
		if c == nil {
			return
		}
		if ok := <-c; ok {
			w.vr.UpdateVThumb()
		}
	}()
}
