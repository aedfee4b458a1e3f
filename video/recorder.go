package video

import (
	"fmt"
	"net/http"
	"time"

	"oakview/detect"
	"oakview/video/source"
)

// RecorderOptions configure event recording.
type RecorderOptions struct {
	// BufferTime of pre-trigger history included in each clip.
	BufferTime time.Duration
	// RecordTime the clip keeps running after the most recent trigger.
	RecordTime time.Duration
	// MaxRecordTime caps a continuously re-triggered clip.
	MaxRecordTime time.Duration
}

// Recorder turns triggers into recorded clips. While recording it keeps
// merging incoming detection batches so the finished clip carries the best
// detection seen per label.
//
// Options are a func and are re-read on every trigger, so reloaded record
// times apply to the next clip. The pre-trigger buffer window is sized once
// at construction.
type Recorder struct {
	producer *VideoSinkProducer
	opts     func() RecorderOptions
	buf      *Buffer

	input     chan source.Image
	inputack  chan bool
	trigger   chan bool
	detection chan detect.Batch
	close     chan chan bool
}

func NewRecorder(p *VideoSinkProducer, opts func() RecorderOptions) *Recorder {
	r := &Recorder{
		producer: p,
		opts:     opts,
		buf:      NewBuffer(opts().BufferTime),

		input:     make(chan source.Image),
		inputack:  make(chan bool),
		trigger:   make(chan bool),
		detection: make(chan detect.Batch),
		close:     make(chan chan bool),
	}
	go func() {
		recording := false
		var out *VideoSink
		var best map[string]detect.Detection
		var stop <-chan time.Time
		var stopLong <-chan time.Time

		stopFunc := func() {
			if !recording {
				panic("expected to be in state recording")
			}
			batch := make(detect.Batch, 0, len(best))
			for _, d := range best {
				batch = append(batch, d)
			}
			out.SetDetections(batch)
			go out.Close()
			recording = false
			stop = nil
			stopLong = nil
		}

		for {
			select {
			case img := <-r.input:
				if recording {
					out.Put(img)
				}
				r.buf.Put(img)
				r.inputack <- true

			case <-r.trigger:
				o := r.opts()
				if !recording {
					trigger, ok := r.buf.GetLast()
					if !ok {
						// No frames seen yet; nothing to record.
						break
					}
					out = r.producer.New(trigger)
					best = make(map[string]detect.Detection)
					r.buf.FlushToSink(out)
					recording = true
					stopLong = time.NewTimer(o.MaxRecordTime).C
				}
				stop = time.NewTimer(o.RecordTime).C

			case batch := <-r.detection:
				if !recording {
					break
				}
				for _, d := range batch {
					if d.Confidence > best[d.Label].Confidence {
						best[d.Label] = d
					}
				}

			case <-stop:
				stopFunc()
			case <-stopLong:
				stopFunc()

			case c := <-r.close:
				if recording {
					batch := make(detect.Batch, 0, len(best))
					for _, d := range best {
						batch = append(batch, d)
					}
					out.SetDetections(batch)
					out.Close()
				}
				r.buf.Close()
				c <- true
				return
			}
		}
	}()
	return r
}

// Put feeds the recorder one (annotated) frame; it lands in the rolling
// buffer and, while recording, in the open clip.
func (r *Recorder) Put(input source.Image) {
	r.input <- input
	<-r.inputack
}

// Trigger starts recording, including BufferTime of history and lasting for
// RecordTime. Subsequent triggers reset RecordTime.
func (r *Recorder) Trigger() {
	r.trigger <- true
}

// Detection feeds the detections observed on the current frame.
func (r *Recorder) Detection(batch detect.Batch) {
	r.detection <- batch
}

func (r *Recorder) Close() {
	c := make(chan bool)
	r.close <- c
	<-c
}

// ServeHTTP implements http.Handler for manual triggering.
func (r *Recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Trigger()

	w.Header().Add("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}
