package notify

import (
	"sync"
	"testing"
	"time"

	"oakview/detect"
)

type recordingListener struct {
	l             sync.Mutex
	notifications []*Notification
}

func (r *recordingListener) Notify(n *Notification) error {
	r.l.Lock()
	defer r.l.Unlock()
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *recordingListener) count() int {
	r.l.Lock()
	defer r.l.Unlock()
	return len(r.notifications)
}

func waitForCount(t *testing.T, r *recordingListener, expected int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.count() == expected {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("listener received %d notifications, expected %d", r.count(), expected)
}

func testNotifier(opts Options, at time.Time) (*Notifier, *recordingListener) {
	n := NewNotifier(func() Options { return opts })
	n.now = func() time.Time { return at }
	r := &recordingListener{}
	n.Listeners = append(n.Listeners, r)
	return n, r
}

func noon() time.Time {
	return time.Date(2022, 5, 14, 12, 0, 0, 0, time.Local)
}

func TestNotifierThreshold(t *testing.T) {
	n, r := testNotifier(Options{ConfidenceThreshold: 0.9}, noon())

	n.DetectionObserved(detect.Batch{{Label: "person", Confidence: 0.5}})
	n.DetectionObserved(detect.Batch{})
	time.Sleep(10 * time.Millisecond)
	if r.count() != 0 {
		t.Fatalf("low-confidence batch notified %d times", r.count())
	}

	n.DetectionObserved(detect.Batch{{Label: "person", Confidence: 0.95}})
	waitForCount(t, r, 1)
	if r.notifications[0].Detection.Label != "person" {
		t.Errorf("notification = %v", r.notifications[0])
	}
}

func TestNotifierCooldown(t *testing.T) {
	at := noon()
	n, r := testNotifier(Options{ConfidenceThreshold: 0.5, Cooldown: time.Minute}, at)

	n.DetectionObserved(detect.Batch{{Label: "cat", Confidence: 0.9}})
	waitForCount(t, r, 1)

	// Within the cooldown nothing more is sent.
	n.DetectionObserved(detect.Batch{{Label: "cat", Confidence: 0.9}})
	time.Sleep(10 * time.Millisecond)
	if r.count() != 1 {
		t.Fatalf("cooldown violated, %d notifications", r.count())
	}

	// After the cooldown the next detection notifies again.
	n.now = func() time.Time { return at.Add(2 * time.Minute) }
	n.DetectionObserved(detect.Batch{{Label: "cat", Confidence: 0.9}})
	waitForCount(t, r, 2)
}

func TestNotifierNotificationHours(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		end      int
		hour     int
		expected int
	}{
		{"inside window", 6, 20, 12, 1},
		{"before window", 6, 20, 5, 0},
		{"after window", 6, 20, 22, 0},
		{"window disabled", 0, 0, 3, 1},
		{"wrapping window inside", 20, 6, 23, 1},
		{"wrapping window outside", 20, 6, 12, 0},
	}

	for _, tt := range tests {
		at := time.Date(2022, 5, 14, tt.hour, 30, 0, 0, time.Local)
		n, r := testNotifier(Options{
			ConfidenceThreshold:    0.5,
			NotificationHoursStart: tt.start,
			NotificationHoursEnd:   tt.end,
		}, at)

		n.DetectionObserved(detect.Batch{{Label: "dog", Confidence: 0.9}})
		time.Sleep(10 * time.Millisecond)
		if r.count() != tt.expected {
			t.Errorf("%s: %d notifications, expected %d", tt.name, r.count(), tt.expected)
		}
	}
}

func TestNotifierOptionsReload(t *testing.T) {
	// Options are consulted per batch, so a changed threshold applies to the
	// next detection without rebuilding the notifier.
	opts := Options{ConfidenceThreshold: 0.99}
	n := NewNotifier(func() Options { return opts })
	n.now = noon
	r := &recordingListener{}
	n.Listeners = append(n.Listeners, r)

	n.DetectionObserved(detect.Batch{{Label: "person", Confidence: 0.8}})
	time.Sleep(10 * time.Millisecond)
	if r.count() != 0 {
		t.Fatalf("notified %d times below threshold", r.count())
	}

	opts.ConfidenceThreshold = 0.5
	n.DetectionObserved(detect.Batch{{Label: "person", Confidence: 0.8}})
	waitForCount(t, r, 1)
}
