package video

import (
	"time"

	"oakview/video/sink"
	"oakview/video/source"
)

// Buffer keeps a rolling window of recent frames so a triggered recording
// can include the moments before the trigger.
type Buffer struct {
	MaxAge time.Duration

	// buffer contains image history, oldest first.
	buffer []source.Image
	pool   *source.MatPool

	input    chan source.Image
	close    chan chan bool
	flush    chan sink.Sink
	flushack chan bool
	last     chan chan lastReply
}

type lastReply struct {
	img source.Image
	ok  bool
}

func NewBuffer(maxAge time.Duration) *Buffer {
	b := &Buffer{
		MaxAge: maxAge,
		pool:   source.NewMatPool(),

		input:    make(chan source.Image),
		close:    make(chan chan bool),
		flush:    make(chan sink.Sink),
		flushack: make(chan bool),
		last:     make(chan chan lastReply),
	}
	go func() {
		for {
			select {
			case in := <-b.input:
				// Add to buffer tail.
				b.buffer = append(b.buffer, in)
				// Clear out old images from head.
				for i, img := range b.buffer {
					if in.Time.Sub(img.Time) >= b.MaxAge {
						img.Release()
					} else {
						b.buffer = b.buffer[i:]
						break
					}
				}
			case s := <-b.flush:
				for _, img := range b.buffer {
					s.Put(img)
				}
				b.flushack <- true
			case r := <-b.last:
				if len(b.buffer) == 0 {
					r <- lastReply{}
					break
				}
				r <- lastReply{img: b.buffer[len(b.buffer)-1].Clone(), ok: true}
			case c := <-b.close:
				for _, img := range b.buffer {
					img.Release()
				}
				b.buffer = nil
				b.pool.Close()
				c <- true
				return
			}
		}
	}()
	return b
}

// Put copies the image into the buffer.
func (b *Buffer) Put(input source.Image) {
	i := b.pool.NewImage()
	i.Time = input.Time
	input.Mat.CopyTo(&i.Mat)
	b.input <- i
}

// GetLast returns a copy of the most recent buffered frame, or ok=false
// when the buffer is empty. The caller must Release the returned image.
func (b *Buffer) GetLast() (source.Image, bool) {
	r := make(chan lastReply)
	b.last <- r
	reply := <-r
	return reply.img, reply.ok
}

// FlushToSink writes the buffered history into the sink, oldest first.
func (b *Buffer) FlushToSink(s sink.Sink) {
	b.flush <- s
	<-b.flushack
}

func (b *Buffer) Close() {
	c := make(chan bool)
	b.close <- c
	<-c
}
