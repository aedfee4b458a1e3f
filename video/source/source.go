package source

import (
	"image"
	"time"

	"gocv.io/x/gocv"
)

// Image is a single decoded frame. The Mat is owned by the receiver until
// Release is called; pooled images return their Mat to the originating pool
// instead of freeing it.
type Image struct {
	Mat  gocv.Mat
	Time time.Time

	pool *MatPool
}

// NewImage allocates an unpooled image.
func NewImage() Image {
	return Image{
		Mat:  gocv.NewMat(),
		Time: time.Now(),
	}
}

// Size returns the pixel dimensions of the frame.
func (i *Image) Size() image.Point {
	return image.Point{X: i.Mat.Cols(), Y: i.Mat.Rows()}
}

// Clone deep-copies the image into a new unpooled Mat.
func (i *Image) Clone() Image {
	n := Image{
		Mat:  gocv.NewMat(),
		Time: i.Time,
	}
	i.Mat.CopyTo(&n.Mat)
	return n
}

// Release returns the Mat to its pool, or frees it for unpooled images.
// The image must not be used afterwards.
func (i *Image) Release() {
	if i.pool != nil {
		i.pool.ReleaseMat(i.Mat)
		i.pool = nil
		return
	}
	i.Mat.Close()
}

// Source defines a stream of images, such as a camera.
type Source interface {
	// Get generates a channel for receiving images. Each Image is owned by
	// the caller until released.
	Get() <-chan Image

	// Size returns the size of the capture source.
	Size() image.Point

	// Connected reports whether the capture source is considered live.
	Connected() bool

	// Close disconnects from the capture source and frees all resources.
	Close()
}
