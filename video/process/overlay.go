package process

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"oakview/detect"
	"oakview/video/source"
)

var (
	boxColor   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	labelColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

const boxThickness = 2

// DrawDetections draws each detection as an unfilled rectangle with a small
// label caption. Box coordinates are normalized; they are mapped onto this
// frame's dimensions at draw time, so a stale batch lands wherever it lands.
func DrawDetections(img source.Image, batch detect.Batch) source.Image {
	w := img.Mat.Cols()
	h := img.Mat.Rows()

	for _, d := range batch {
		r := detect.FrameNorm(d, w, h)
		gocv.Rectangle(&img.Mat, r, boxColor, boxThickness)

		caption := fmt.Sprintf("%s %.0f%%", d.Label, d.Confidence*100)
		org := image.Point{X: r.Min.X, Y: r.Min.Y - 4}
		if org.Y < 10 {
			org.Y = r.Min.Y + 12
		}
		gocv.PutText(&img.Mat, caption, org, gocv.FontHersheySimplex, 0.4, labelColor, 1)
	}
	return img
}
