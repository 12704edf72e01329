package recognize

import (
	"context"
	"image"
	"testing"

	"github.com/VasiKumar/ClassAI/internal/vision"
)

// closableDetector serves as both face and eye detector and counts how
// many times it is released.
type closableDetector struct {
	closes int
}

func (d *closableDetector) DetectFaces(ctx context.Context, img image.Image) ([]vision.Rect, error) {
	return nil, nil
}

func (d *closableDetector) CountEyes(img image.Image, face vision.Rect) (int, error) {
	return 0, nil
}

func (d *closableDetector) Close() error {
	d.closes++
	return nil
}

type plainEyes struct{}

func (plainEyes) CountEyes(img image.Image, face vision.Rect) (int, error) { return 0, nil }

func TestStrategyClose_SharedDetectorClosedOnce(t *testing.T) {
	det := &closableDetector{}
	s := &Strategy{Name: "classical", Faces: det, Eyes: det, Encoder: absEncoder{1}}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if det.closes != 1 {
		t.Fatalf("shared detector closed %d times, want 1", det.closes)
	}
}

func TestStrategyClose_DistinctDetectorsBothClosed(t *testing.T) {
	faces := &closableDetector{}
	eyes := &closableDetector{}
	s := &Strategy{Name: "cloud", Faces: faces, Eyes: eyes, Encoder: absEncoder{1}}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if faces.closes != 1 || eyes.closes != 1 {
		t.Fatalf("expected one close each, got faces=%d eyes=%d", faces.closes, eyes.closes)
	}
}

func TestStrategyClose_IgnoresDetectorsWithoutClose(t *testing.T) {
	faces := &closableDetector{}
	s := &Strategy{Name: "mixed", Faces: faces, Eyes: plainEyes{}, Encoder: absEncoder{1}}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if faces.closes != 1 {
		t.Fatalf("face detector closed %d times, want 1", faces.closes)
	}
}
