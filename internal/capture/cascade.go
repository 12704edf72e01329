package capture

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
	"github.com/VasiKumar/ClassAI/internal/vision"
)

const (
	FaceCascadeFile = "haarcascade_frontalface_default.xml"
	EyeCascadeFile  = "haarcascade_eye.xml"

	faceScaleFactor  = 1.3
	faceMinNeighbors = 5
	eyeScaleFactor   = 1.1
	eyeMinNeighbors  = 5
)

// CascadeDetector provides Haar-cascade face and eye detection. It
// implements both recognize.FaceDetector and recognize.EyeDetector.
type CascadeDetector struct {
	face gocv.CascadeClassifier
	eye  gocv.CascadeClassifier
	log  *logger.Logger
}

// NewCascadeDetector loads the face and eye cascades from dir. Failing to
// load either is an error so strategy probing can fall through.
func NewCascadeDetector(dir string, log *logger.Logger) (*CascadeDetector, error) {
	if log == nil {
		log = logger.NewNop()
	}
	face := gocv.NewCascadeClassifier()
	if !face.Load(filepath.Join(dir, FaceCascadeFile)) {
		_ = face.Close()
		return nil, fmt.Errorf("load face cascade from %s", dir)
	}
	eye := gocv.NewCascadeClassifier()
	if !eye.Load(filepath.Join(dir, EyeCascadeFile)) {
		_ = face.Close()
		_ = eye.Close()
		return nil, fmt.Errorf("load eye cascade from %s", dir)
	}
	return &CascadeDetector{face: face, eye: eye, log: log.With("service", "CascadeDetector")}, nil
}

func (d *CascadeDetector) DetectFaces(ctx context.Context, img image.Image) ([]vision.Rect, error) {
	mat, gray, err := toGrayMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	defer gray.Close()

	rects := d.face.DetectMultiScaleWithParams(
		gray, faceScaleFactor, faceMinNeighbors, 0, image.Point{}, image.Point{},
	)
	out := make([]vision.Rect, 0, len(rects))
	for _, r := range rects {
		out = append(out, vision.Rect{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()})
	}
	return out, nil
}

// CountEyes runs the eye cascade inside the face region of the frame.
func (d *CascadeDetector) CountEyes(img image.Image, face vision.Rect) (int, error) {
	chip := vision.Crop(img, face)
	mat, gray, err := toGrayMat(chip)
	if err != nil {
		return 0, err
	}
	defer mat.Close()
	defer gray.Close()

	eyes := d.eye.DetectMultiScaleWithParams(
		gray, eyeScaleFactor, eyeMinNeighbors, 0, image.Point{}, image.Point{},
	)
	return len(eyes), nil
}

func (d *CascadeDetector) Close() error {
	_ = d.face.Close()
	_ = d.eye.Close()
	return nil
}

func toGrayMat(img image.Image) (gocv.Mat, gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return gocv.Mat{}, gocv.Mat{}, fmt.Errorf("convert frame: %w", err)
	}
	gray := gocv.NewMat()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBAToGray)
	return mat, gray, nil
}
