package sink

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestMJPEGStreamPutWithoutListeners(t *testing.T) {
	s := NewMJPEGServer()
	ms := s.NewStream("test")
	defer ms.Close()

	// Without listeners Put returns before touching the mat at all.
	ms.Put(gocv.Mat{})
}

func TestMJPEGStreamCloseDisconnectsListeners(t *testing.T) {
	s := NewMJPEGServer()
	ms := s.NewStream("test")

	c := ms.subscribe()
	if c == nil {
		t.Fatal("subscribe on open stream returned nil")
	}

	ms.Close()

	select {
	case _, ok := <-c:
		if ok {
			t.Error("expected listener channel to be closed, got a frame")
		}
	default:
		t.Error("listener channel still open after stream close")
	}

	if ms.subscribe() != nil {
		t.Error("subscribe after close should return nil")
	}
	if s.getStream("test") != nil {
		t.Error("closed stream still registered with the server")
	}
}

func TestMJPEGStreamUnsubscribe(t *testing.T) {
	s := NewMJPEGServer()
	ms := s.NewStream("test")
	defer ms.Close()

	c := ms.subscribe()
	if ms.empty() {
		t.Error("stream empty with a listener subscribed")
	}
	ms.unsubscribe(c)
	if !ms.empty() {
		t.Error("stream not empty after unsubscribe")
	}
}
