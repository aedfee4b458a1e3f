package notify

import (
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"

	"oakview/detect"
)

// Notification is sent to all NotifyListeners registered with Notifier.
type Notification struct {
	TimeString string
	Detection  detect.Detection
}

type NotifyListener interface {
	Notify(n *Notification) error
}

// Options gate when detections become notifications.
type Options struct {
	// ConfidenceThreshold below which detections never notify.
	ConfidenceThreshold float32

	// NotificationHoursStart/End restrict notifications to the
	// [NotificationHoursStart, NotificationHoursEnd) local-hour window.
	// The window may wrap midnight; equal values mean always notify.
	NotificationHoursStart, NotificationHoursEnd int

	// Cooldown suppresses repeat notifications after one fires.
	Cooldown time.Duration
}

// Notifier fans high-confidence detections out to its listeners, rate
// limited by a cooldown so a person standing in frame doesn't notify every
// rendered frame. Options are read per batch so config reloads apply.
type Notifier struct {
	Listeners []NotifyListener

	opts func() Options
	now  func() time.Time

	lastSent time.Time
	l        sync.Mutex
}

func NewNotifier(opts func() Options) *Notifier {
	return &Notifier{
		opts: opts,
		now:  time.Now,
	}
}

// DetectionObserved is invoked for the detection batch of every new frame.
func (n *Notifier) DetectionObserved(batch detect.Batch) {
	opts := n.opts()

	best, ok := batch.Best()
	if !ok || best.Confidence < opts.ConfidenceThreshold {
		return
	}

	n.l.Lock()
	defer n.l.Unlock()

	now := n.now()
	if !allowedAt(opts, now) {
		return
	}
	if !n.lastSent.IsZero() && now.Sub(n.lastSent) < opts.Cooldown {
		return
	}
	n.lastSent = now

	notification := &Notification{
		TimeString: now.Format(time.Kitchen),
		Detection:  best,
	}
	log.Infof("Sending notification: %v", spew.Sdump(notification))

	for _, listener := range n.Listeners {
		go func(listener NotifyListener) {
			if err := listener.Notify(notification); err != nil {
				log.Errorf("Failed to send notification: %v", err)
			}
		}(listener)
	}
}

// allowedAt applies the notification hours window.
func allowedAt(opts Options, t time.Time) bool {
	start, end := opts.NotificationHoursStart, opts.NotificationHoursEnd
	if start == end {
		return true
	}
	h := t.Hour()
	if start < end {
		return h >= start && h < end
	}
	// Window wraps midnight.
	return h >= start || h < end
}
