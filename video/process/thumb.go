package process

import (
	"image"
	"os"

	"gocv.io/x/gocv"

	"oakview/video/source"
)

var thumbSize = image.Point{X: 230, Y: 135}

// WriteThumb writes a small JPEG preview of the image to path.
func WriteThumb(path string, input source.Image) error {
	tmat := gocv.NewMat()
	defer tmat.Close()
	gocv.Resize(input.Mat, &tmat, thumbSize, 0, 0, gocv.InterpolationCubic)

	jpeg, err := gocv.IMEncode(".jpg", tmat)
	if err != nil {
		return err
	}

	return os.WriteFile(path, jpeg, 0644)
}
