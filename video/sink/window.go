package sink

import (
	"gocv.io/x/gocv"

	"oakview/video/source"
)

// Window displays a stream of images on screen and collects keyboard input.
// All methods must be called from the same goroutine; OpenCV's HighGUI is
// not thread safe.
type Window struct {
	window  *gocv.Window
	sizeSet bool
}

func NewWindow(name string) *Window {
	return &Window{
		window: gocv.NewWindow(name),
	}
}

// Put displays the image, resizing the window to match the first frame.
// Unlike PollKey, Put does not pump the GUI event loop.
func (w *Window) Put(input source.Image) {
	if !w.sizeSet {
		w.window.ResizeWindow(input.Mat.Cols(), input.Mat.Rows())
		w.sizeSet = true
	}
	w.window.IMShow(input.Mat)
}

// PollKey pumps the GUI event loop for up to the given number of
// milliseconds and returns the pressed key code, or -1 if none.
func (w *Window) PollKey(waitMs int) int {
	return w.window.WaitKey(waitMs)
}

func (w *Window) Close() {
	w.window.Close()
}
