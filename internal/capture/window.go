package capture

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
)

// Window shows annotated frames to the operator and polls the quit key.
type Window struct {
	win *gocv.Window
	log *logger.Logger
}

func NewWindow(title string, log *logger.Logger) *Window {
	if log == nil {
		log = logger.NewNop()
	}
	return &Window{win: gocv.NewWindow(title), log: log.With("service", "Window")}
}

func (w *Window) Show(img image.Image) {
	mat, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		w.log.Warn("Could not convert frame for display", "error", err)
		return
	}
	defer mat.Close()
	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(mat, &bgr, gocv.ColorRGBAToBGR)
	w.win.IMShow(bgr)
}

// QuitRequested pumps the UI event loop and reports whether the operator
// pressed 'q'.
func (w *Window) QuitRequested() bool {
	return w.win.WaitKey(1) == 'q'
}

func (w *Window) Close() error {
	return w.win.Close()
}
