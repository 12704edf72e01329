package recognize

import (
	"context"
	"image"
	"io"

	pkgerrors "github.com/VasiKumar/ClassAI/internal/pkg/errors"
	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
	"github.com/VasiKumar/ClassAI/internal/vision"
)

// Signature is a comparable identity vector computed from a face chip.
type Signature []float64

// FaceDetector finds face regions in a full frame.
type FaceDetector interface {
	DetectFaces(ctx context.Context, img image.Image) ([]vision.Rect, error)
}

// EyeDetector counts eye regions inside a face box. Used as a proxy for
// gaze-toward-camera: two visible eyes means the subject is likely facing
// the camera. This is not gaze estimation.
type EyeDetector interface {
	CountEyes(img image.Image, face vision.Rect) (int, error)
}

// Encoder maps a face chip to a Signature and defines the metric over it.
type Encoder interface {
	Name() string
	Encode(chip image.Image) (Signature, error)
	// Distance is lower-is-closer for every encoder.
	Distance(a, b Signature) float64
	// Threshold is the calibrated accept distance; matches at or above it
	// are rejected as Unknown.
	Threshold() float64
}

// Strategy bundles the capabilities one recognition backend provides.
type Strategy struct {
	Name    string
	Faces   FaceDetector
	Eyes    EyeDetector
	Encoder Encoder
}

// Close releases the detectors behind the strategy. Cascade-backed
// strategies reuse one detector for faces and eyes; it is closed once.
func (s *Strategy) Close() error {
	var err error
	if c, ok := s.Faces.(io.Closer); ok {
		err = c.Close()
	}
	if c, ok := s.Eyes.(io.Closer); ok && any(s.Eyes) != any(s.Faces) {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Candidate is one entry in the ordered strategy probe list.
type Candidate struct {
	Name  string
	Probe func() (*Strategy, error)
}

// Select probes candidates in order and returns the first that succeeds.
// Probing happens exactly once, at startup.
func Select(candidates []Candidate, log *logger.Logger) (*Strategy, error) {
	if log == nil {
		log = logger.NewNop()
	}
	for _, c := range candidates {
		s, err := c.Probe()
		if err != nil {
			log.Warn("Recognition strategy unavailable", "strategy", c.Name, "error", err)
			continue
		}
		log.Info("Selected recognition strategy", "strategy", c.Name, "encoder", s.Encoder.Name())
		return s, nil
	}
	return nil, pkgerrors.ErrNoStrategy
}
