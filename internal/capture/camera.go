package capture

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
)

// Webcam wraps a gocv video capture device behind the monitor.Camera
// interface so the session controller stays free of OpenCV types.
type Webcam struct {
	index int
	cap   *gocv.VideoCapture
	mat   gocv.Mat
	log   *logger.Logger
}

func NewWebcam(index int, log *logger.Logger) *Webcam {
	if log == nil {
		log = logger.NewNop()
	}
	return &Webcam{index: index, log: log.With("service", "Webcam", "device", index)}
}

func (w *Webcam) Open() error {
	cap, err := gocv.OpenVideoCapture(w.index)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", w.index, err)
	}
	if !cap.IsOpened() {
		_ = cap.Close()
		return fmt.Errorf("camera %d did not open", w.index)
	}
	w.cap = cap
	w.mat = gocv.NewMat()
	return nil
}

// Read returns the next frame, or ok=false on a failed grab.
func (w *Webcam) Read() (image.Image, bool) {
	if w.cap == nil {
		return nil, false
	}
	if !w.cap.Read(&w.mat) || w.mat.Empty() {
		return nil, false
	}
	img, err := w.mat.ToImage()
	if err != nil {
		w.log.Warn("Frame conversion failed", "error", err)
		return nil, false
	}
	return img, true
}

func (w *Webcam) Close() error {
	var err error
	if w.cap != nil {
		err = w.cap.Close()
		w.cap = nil
	}
	if w.mat.Ptr() != nil {
		_ = w.mat.Close()
	}
	return err
}
