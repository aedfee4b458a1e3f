// Package host implements the host-side consumer of a running device: a
// single-goroutine loop that reconciles the latest preview frame with the
// latest detection batch and renders the result until the user quits.
package host

import (
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"oakview/detect"
	"oakview/video/source"
)

// QuitKey is the key code that exits the loop.
const QuitKey = 'q'

// keyPollMs bounds the GUI event poll each iteration.
const keyPollMs = 1

// FrameSource is a non-blocking supplier of preview frames.
type FrameSource interface {
	TryGet() (source.Image, bool)
}

// DetectionSource is a non-blocking supplier of detection batches.
type DetectionSource interface {
	TryGet() (detect.Batch, bool)
}

// Display renders a frame with its detections and collects keyboard input.
type Display interface {
	// Render draws the batch over the frame and presents it. The frame
	// remains owned by the caller. newFrame is true only the first time a
	// given frame is rendered; side feeds such as streaming or recording
	// taps must fire only then, since the loop re-renders the held frame
	// far faster than the camera produces new ones.
	Render(frame source.Image, batch detect.Batch, newFrame bool)

	// PollKey waits up to waitMs milliseconds for a key press and returns
	// its key code, or a negative value if none.
	PollKey(waitMs int) int
}

// Loop owns the two held values: the most recent frame and the most recent
// detection batch. Detections are drawn onto whatever frame is current at
// render time; a batch computed from an earlier frame may therefore be
// drawn slightly out of place. That drift is accepted, not corrected.
type Loop struct {
	Frames     FrameSource
	Detections DetectionSource
	Display    Display

	frame     source.Image
	haveFrame bool
	batch     detect.Batch
	stopped   int32
}

// Stop requests loop exit from another goroutine, e.g. a signal handler.
// The loop performs no further renders once observed.
func (l *Loop) Stop() {
	atomic.StoreInt32(&l.stopped, 1)
}

// Step runs one iteration: poll both sources, render if a frame is held,
// poll for the quit key. Returns false once the quit key is observed; no
// render happens after that.
func (l *Loop) Step() bool {
	if atomic.LoadInt32(&l.stopped) == 1 {
		return false
	}

	newFrame := false
	if frame, ok := l.Frames.TryGet(); ok {
		if l.haveFrame {
			l.frame.Release()
		}
		l.frame = frame
		l.haveFrame = true
		newFrame = true
		framesReceived.Inc()
	}

	if batch, ok := l.Detections.TryGet(); ok {
		l.batch = batch
		batchesReceived.Inc()
	}

	if l.haveFrame {
		l.Display.Render(l.frame, l.batch, newFrame)
		framesRendered.Inc()
	}

	return l.Display.PollKey(keyPollMs) != QuitKey
}

// Run steps the loop until quit, then releases the held frame.
func (l *Loop) Run() {
	for l.Step() {
	}
	log.Infof("Exiting preview loop")
	if l.haveFrame {
		l.frame.Release()
		l.haveFrame = false
	}
}
