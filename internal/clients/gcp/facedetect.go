package gcp

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	visiontypes "github.com/VasiKumar/ClassAI/internal/vision"
	"github.com/VasiKumar/ClassAI/internal/pkg/ctxutil"
	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
)

const (
	faceDetectMaxResults = 40
	faceDetectJPEGQual   = 85
)

// FaceFinder locates faces in a frame using the Cloud Vision API. It
// satisfies recognize.FaceDetector so it can slot into a recognition
// strategy ahead of the local cascade detector.
type FaceFinder struct {
	log    *logger.Logger
	client *vision.ImageAnnotatorClient
}

func NewFaceFinder(log *logger.Logger) (*FaceFinder, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.FaceFinder")

	ctx := context.Background()
	opts := ClientOptionsFromEnv()

	c, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	return &FaceFinder{log: slog, client: c}, nil
}

func (f *FaceFinder) Close() error {
	if f == nil || f.client == nil {
		return nil
	}
	return f.client.Close()
}

func (f *FaceFinder) DetectFaces(ctx context.Context, frame image.Image) ([]visiontypes.Rect, error) {
	if frame == nil {
		return nil, nil
	}

	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: faceDetectJPEGQual}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: buf.Bytes()},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_FACE_DETECTION, MaxResults: faceDetectMaxResults},
		},
	}
	resp, err := f.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{req},
	})
	if err != nil {
		return nil, fmt.Errorf("vision facedetection: %w", err)
	}
	if len(resp.Responses) == 0 {
		return nil, nil
	}
	r := resp.Responses[0]
	if r.Error != nil {
		return nil, fmt.Errorf("vision facedetection: %s", r.Error.Message)
	}

	bounds := frame.Bounds()
	rects := make([]visiontypes.Rect, 0, len(r.FaceAnnotations))
	for _, fa := range r.FaceAnnotations {
		if fa == nil || fa.BoundingPoly == nil {
			continue
		}
		rect, ok := polyToRect(fa.BoundingPoly)
		if !ok {
			continue
		}
		rect = rect.Clamp(bounds)
		if !rect.Empty() {
			rects = append(rects, rect)
		}
	}
	return rects, nil
}

func polyToRect(p *visionpb.BoundingPoly) (visiontypes.Rect, bool) {
	if len(p.Vertices) == 0 {
		return visiontypes.Rect{}, false
	}
	minX, minY := math.MaxInt32, math.MaxInt32
	maxX, maxY := math.MinInt32, math.MinInt32
	for _, v := range p.Vertices {
		if v == nil {
			continue
		}
		x, y := int(v.X), int(v.Y)
		if x < minX {
			minX = x
		}
		if y < minY {
			minY = y
		}
		if x > maxX {
			maxX = x
		}
		if y > maxY {
			maxY = y
		}
	}
	if maxX <= minX || maxY <= minY {
		return visiontypes.Rect{}, false
	}
	return visiontypes.Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}
