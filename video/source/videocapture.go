package source

import (
	"image"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// disconnectAfter is the number of consecutive read failures before the
// source reports itself as no longer live.
const disconnectAfter = 50

// VideoCapture reads frames from a camera device index, stream URI, or
// video file via OpenCV.
type VideoCapture struct {
	URI string

	cap    *gocv.VideoCapture
	pool   *MatPool
	size   image.Point
	minDur time.Duration

	connected bool
	l         sync.Mutex

	stop chan chan bool
}

// NewVideoCapture opens the capture source and reads one frame to learn the
// native size. maxFPS caps the read rate; zero means uncapped.
func NewVideoCapture(uri string, maxFPS int) (*VideoCapture, error) {
	cap, err := gocv.OpenVideoCapture(uri)
	if err != nil {
		return nil, err
	}

	probe := gocv.NewMat()
	defer probe.Close()
	if ok := cap.Read(&probe); !ok {
		cap.Close()
		return nil, &OpenError{URI: uri}
	}

	v := &VideoCapture{
		URI:       uri,
		cap:       cap,
		pool:      NewMatPool(),
		size:      image.Point{X: probe.Cols(), Y: probe.Rows()},
		connected: true,
		stop:      make(chan chan bool, 1),
	}
	if maxFPS > 0 {
		v.minDur = time.Second / time.Duration(maxFPS)
	}
	return v, nil
}

// OpenError indicates a capture source that opened but produced no frames.
type OpenError struct {
	URI string
}

func (e *OpenError) Error() string {
	return "no frames readable from capture source " + e.URI
}

func (v *VideoCapture) Get() <-chan Image {
	c := make(chan Image)
	go func() {
		failures := 0
		var last time.Time
		for {
			select {
			case done := <-v.stop:
				close(c)
				done <- true
				return
			default:
			}

			if v.minDur > 0 {
				if d := v.minDur - time.Since(last); d > 0 {
					time.Sleep(d)
				}
			}

			i := v.pool.NewImage()
			i.Time = time.Now()
			if ok := v.cap.Read(&i.Mat); !ok || i.Mat.Empty() {
				i.Release()
				failures++
				if failures == disconnectAfter {
					log.Errorf("Capture source %v stopped producing frames", v.URI)
					v.setConnected(false)
				}
				time.Sleep(time.Millisecond)
				continue
			}
			if failures >= disconnectAfter {
				log.Infof("Capture source %v recovered", v.URI)
			}
			failures = 0
			v.setConnected(true)
			last = i.Time

			select {
			case c <- i:
			case done := <-v.stop:
				i.Release()
				close(c)
				done <- true
				return
			}
		}
	}()
	return c
}

func (v *VideoCapture) Size() image.Point {
	return v.size
}

func (v *VideoCapture) Connected() bool {
	v.l.Lock()
	defer v.l.Unlock()
	return v.connected
}

func (v *VideoCapture) setConnected(b bool) {
	v.l.Lock()
	defer v.l.Unlock()
	v.connected = b
}

func (v *VideoCapture) Close() {
	done := make(chan bool)
	v.stop <- done
	<-done
	v.cap.Close()
	v.pool.Close()
}
