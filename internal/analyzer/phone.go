package analyzer

import (
	"context"
	"image"

	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
	"github.com/VasiKumar/ClassAI/internal/vision"
)

// Phone candidate bounds, in pixels. A phone held in frame at webcam
// distance lands roughly in this envelope with a 1.6-2.2 height/width
// aspect ratio.
const (
	phoneAspectMin = 1.6
	phoneAspectMax = 2.2
	phoneMinW      = 60
	phoneMaxW      = 150
	phoneMinH      = 120
	phoneMaxH      = 350

	// The heuristic only fires when multiple candidates coexist in one
	// frame, suppressing single-object false triggers (books, bottles,
	// hands). Still a high false-positive detector compared to a learned
	// model.
	minPhoneCandidates = 2
)

// RegionProposer supplies rectangular object candidates for a frame,
// typically from edge/contour analysis.
type RegionProposer interface {
	Proposals(img image.Image) ([]vision.Rect, error)
}

// GeometricPhoneDetector is the fallback phone detector: it filters region
// proposals down to phone-shaped rectangles and reports a detection only
// when at least minPhoneCandidates survive.
type GeometricPhoneDetector struct {
	proposer RegionProposer
	log      *logger.Logger
}

func NewGeometricPhoneDetector(proposer RegionProposer, log *logger.Logger) *GeometricPhoneDetector {
	if log == nil {
		log = logger.NewNop()
	}
	return &GeometricPhoneDetector{proposer: proposer, log: log.With("service", "GeometricPhoneDetector")}
}

func (d *GeometricPhoneDetector) Name() string { return "geometric" }

func (d *GeometricPhoneDetector) Detect(ctx context.Context, img image.Image) ([]vision.PhoneMark, error) {
	props, err := d.proposer.Proposals(img)
	if err != nil {
		return nil, err
	}
	cands := FilterPhoneCandidates(props)
	if len(cands) < minPhoneCandidates {
		return nil, nil
	}
	marks := make([]vision.PhoneMark, 0, len(cands))
	for _, c := range cands {
		marks = append(marks, vision.PhoneMark{Box: c})
	}
	d.log.Debug("Phone candidates found", "count", len(cands))
	return marks, nil
}

// FilterPhoneCandidates keeps proposals within the phone aspect and size
// envelope.
func FilterPhoneCandidates(rects []vision.Rect) []vision.Rect {
	out := make([]vision.Rect, 0, len(rects))
	for _, r := range rects {
		ar := r.AspectRatio()
		if ar <= phoneAspectMin || ar >= phoneAspectMax {
			continue
		}
		if r.W <= phoneMinW || r.W >= phoneMaxW {
			continue
		}
		if r.H <= phoneMinH || r.H >= phoneMaxH {
			continue
		}
		out = append(out, r)
	}
	return out
}
