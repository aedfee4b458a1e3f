package process

import (
	"os"
	"os/exec"

	log "github.com/sirupsen/logrus"

	"oakview/util"
)

const ExtTemp = ".temp"

// VThumbProducer generates small, low-rate video thumbnails from recorded
// clips on a single worker goroutine.
type VThumbProducer struct {
	c     chan *workItem
	close chan chan bool
}

type workItem struct {
	src, dst string
	donec    chan bool
}

func NewVThumbProducer() *VThumbProducer {
	f := &VThumbProducer{
		c:     make(chan *workItem, 100),
		close: make(chan chan bool, 1),
	}
	go func() {
		for {
			var w *workItem
			select {
			case cc := <-f.close:
				cc <- true
				return
			case w = <-f.c:
			}

			c := exec.Command(
				util.LocateFFmpegOrDie(),
				// Configure input from source file.
				"-i", w.src,
				// Thumbnails can be choppy to reduce size.
				"-r", "3",
				"-c:v", "libx264",
				"-preset", "superfast",
				"-crf", "40",
				// Reduce resolution.
				"-vf", "scale=230:-2",
				// Strip any audio.
				"-an",
				"-movflags", "+faststart",
				w.dst+ExtTemp,
			)

			if err := c.Run(); err != nil {
				log.Errorf("Failed to generate video thumbnail for %v: %v", w.src, err)
				close(w.donec)
				continue
			}

			if err := os.Rename(w.dst+ExtTemp, w.dst); err != nil {
				log.Errorf("Failed to move video thumbnail into place: %v", err)
				close(w.donec)
				continue
			}

			w.donec <- true
			close(w.donec)
		}
	}()
	return f
}

// Process enqueues thumbnail generation from src into dst. The returned
// channel receives true once the thumbnail exists, or is closed without a
// value on failure. Returns nil if the work queue is full.
func (f *VThumbProducer) Process(src, dst string) <-chan bool {
	w := &workItem{
		src:   src,
		dst:   dst,
		donec: make(chan bool, 1),
	}
	select {
	case f.c <- w:
		return w.donec
	default:
		log.Errorf("Video thumbnail work queue is full, dropping %v", src)
		return nil
	}
}

func (f *VThumbProducer) Close() {
	cc := make(chan bool)
	f.close <- cc
	<-cc
}
