package sink

import (
	"fmt"
	"image"
	"os"
	"os/exec"

	log "github.com/sirupsen/logrus"

	"oakview/util"
	"oakview/video/source"
)

// FFmpegOptions configure the encoder subprocess.
type FFmpegOptions struct {
	// Size of the incoming frames. Frames of any other size will corrupt the
	// output stream.
	Size image.Point

	// FPS of the incoming stream. The input must already be constant-rate;
	// see FPSNormalize.
	FPS int
}

// FFmpegSink encodes raw BGR frames to an H.264 MP4 file through an ffmpeg
// subprocess reading from stdin.
type FFmpegSink struct {
	b     chan []byte
	close chan chan bool
}

func NewFFmpegSink(path string, opts FFmpegOptions) *FFmpegSink {
	f := &FFmpegSink{
		b:     make(chan []byte),
		close: make(chan chan bool),
	}
	go func() {
		c := exec.Command(
			util.LocateFFmpegOrDie(),
			// Configure ffmpeg to read raw frames from the opencv pipe.
			"-f", "rawvideo",
			"-pixel_format", "bgr24",
			"-video_size", fmt.Sprintf("%dx%d", opts.Size.X, opts.Size.Y),
			"-framerate", fmt.Sprintf("%d", opts.FPS),
			"-i", "-", // Read from stdin.
			// Use h264 encoding with reasonable quality and speed. Note that
			// "preset" can be adjusted if the system is too slow to keep up.
			"-c:v", "libx264",
			"-preset", "superfast",
			"-crf", "30",
			// Enable fast-start so clips can be displayed in the browser
			// without a full download.
			"-movflags", "+faststart",
			path,
		)

		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		pipe, err := c.StdinPipe()
		if err != nil {
			log.Fatalf("Error getting ffmpeg stdin: %v", err)
		}

		if err := c.Start(); err != nil {
			log.Fatalf("Error starting ffmpeg: %v", err)
		}

		var closer chan bool
	loop:
		for {
			select {
			case closer = <-f.close:
				pipe.Close()
				break loop
			case b := <-f.b:
				if _, err := pipe.Write(b); err != nil {
					log.Fatalf("Error writing frame to ffmpeg: %v", err)
				}
			}
		}

		log.Debugf("Waiting for ffmpeg shutdown.")
		err = c.Wait()
		log.Debugf("ffmpeg exit with status %v", err)
		closer <- true // Signal close is completed.
	}()
	return f
}

func (f *FFmpegSink) Close() {
	c := make(chan bool)
	f.close <- c
	<-c
}

func (f *FFmpegSink) Put(input source.Image) {
	f.b <- input.Mat.ToBytes()
}
