package sink

import (
	"fmt"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// MJPEG multi-streaming, based on implementation by saljam:
// https://github.com/saljam/mjpeg/blob/master/stream.go

const boundaryWord = "MJPEGBOUNDARY"
const headerf = "\r\n" +
	"--" + boundaryWord + "\r\n" +
	"Content-Type: image/jpeg\r\n" +
	"Content-Length: %d\r\n" +
	"X-Timestamp: 0.000000\r\n" +
	"\r\n"

// MJPEGServer hosts any number of named MJPEG streams under a single HTTP
// handler; the stream is selected with the "name" form value.
type MJPEGServer struct {
	m map[string]*MJPEGStream

	lock sync.Mutex
}

func NewMJPEGServer() *MJPEGServer {
	return &MJPEGServer{
		m: make(map[string]*MJPEGStream),
	}
}

func (s *MJPEGServer) NewStream(name string) *MJPEGStream {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.m[name]; ok {
		log.Panicf("A stream named %q already exists", name)
	}

	ms := &MJPEGStream{
		name:   name,
		m:      make(map[chan []byte]bool),
		parent: s,
	}

	s.m[name] = ms
	return ms
}

func (s *MJPEGServer) getStream(name string) *MJPEGStream {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.m[name]
}

// ServeHTTP implements http.Handler, serving multipart MJPEG.
func (s *MJPEGServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := r.Form.Get("name")
	if name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}

	stream := s.getStream(name)
	if stream == nil {
		http.Error(w, "unknown stream name", http.StatusNotFound)
		return
	}

	log.WithField("addr", r.RemoteAddr).Infof("MJPEG viewer connected to %q", name)
	w.Header().Add("Content-Type", "multipart/x-mixed-replace;boundary="+boundaryWord)

	c := stream.subscribe()
	if c == nil {
		http.Error(w, "stream closed", http.StatusGone)
		return
	}

	for b := range c {
		if _, err := w.Write(b); err != nil {
			break
		}
	}

	stream.unsubscribe(c)
	log.WithField("addr", r.RemoteAddr).Infof("MJPEG viewer disconnected from %q", name)
}

// MJPEGStream is one named stream. Put is cheap when nobody is watching.
type MJPEGStream struct {
	name   string
	m      map[chan []byte]bool
	closed bool

	parent *MJPEGServer
	lock   sync.Mutex
}

// subscribe registers a listener channel, or returns nil once the stream is
// closed.
func (s *MJPEGStream) subscribe() chan []byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return nil
	}
	c := make(chan []byte)
	s.m[c] = true
	return c
}

func (s *MJPEGStream) unsubscribe(c chan []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		// Close already removed and closed every listener channel.
		return
	}
	delete(s.m, c)
}

func (s *MJPEGStream) empty() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.m) == 0
}

func (s *MJPEGStream) Put(input gocv.Mat) {
	if s.empty() {
		// Nobody is listening; don't bother encoding.
		return
	}

	jpeg, err := gocv.IMEncode(".jpg", input)
	if err != nil {
		log.Errorf("Error encoding to JPG for MJPEG stream %q: %v", s.name, err)
		return
	}

	// Each Put builds a fresh packet; listeners may still be writing the
	// previous one to a slow connection.
	header := fmt.Sprintf(headerf, len(jpeg))
	packet := make([]byte, 0, len(header)+len(jpeg))
	packet = append(packet, header...)
	packet = append(packet, jpeg...)

	s.lock.Lock()
	defer s.lock.Unlock()
	for c := range s.m {
		select {
		case c <- packet:
		default:
			// Skip listeners not ready for the next frame.
		}
	}
}

// Close unregisters the stream and disconnects its viewers.
func (s *MJPEGStream) Close() {
	s.parent.lock.Lock()
	delete(s.parent.m, s.name)
	s.parent.lock.Unlock()

	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = true
	for c := range s.m {
		close(c)
	}
	s.m = nil
}
