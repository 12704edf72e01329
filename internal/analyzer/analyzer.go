package analyzer

import (
	"context"
	"image"
	"time"

	"github.com/VasiKumar/ClassAI/internal/gallery"
	"github.com/VasiKumar/ClassAI/internal/pkg/ctxutil"
	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
	"github.com/VasiKumar/ClassAI/internal/recognize"
	"github.com/VasiKumar/ClassAI/internal/vision"
)

// Recorder receives exactly one statistics update per recognized identity
// per frame. Unknown faces never reach it.
type Recorder interface {
	Observe(name string, focused bool, mobile bool, at time.Time)
}

// PhoneDetector reports phone detections for a whole frame. Implementations
// may be a learned object detector or the geometric heuristic fallback.
type PhoneDetector interface {
	Name() string
	Detect(ctx context.Context, img image.Image) ([]vision.PhoneMark, error)
}

// Result summarizes what one frame contributed.
type Result struct {
	Faces          int
	Known          int
	MobileDetected bool
}

// Analyzer runs the per-frame pipeline: optional phone detection over the
// whole frame, face detection, identity matching against the gallery, the
// eye-count focus check, statistics updates, and annotation rendering.
type Analyzer struct {
	strat   *recognize.Strategy
	gallery *gallery.Gallery
	phones  PhoneDetector
	rec     Recorder
	annot   *vision.Annotator
	clock   func() time.Time
	log     *logger.Logger
}

// New wires an Analyzer. phones may be nil when mobile detection is
// disabled.
func New(strat *recognize.Strategy, g *gallery.Gallery, phones PhoneDetector, rec Recorder, annot *vision.Annotator, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Analyzer{
		strat:   strat,
		gallery: g,
		phones:  phones,
		rec:     rec,
		annot:   annot,
		clock:   time.Now,
		log:     log.With("service", "FrameAnalyzer"),
	}
}

// WithClock overrides the timestamp source. Tests use it for deterministic
// mobile_times entries.
func (a *Analyzer) WithClock(clock func() time.Time) *Analyzer {
	a.clock = clock
	return a
}

// Process analyzes one frame and returns the annotated clone. The input
// frame is never mutated. A failure in phone detection does not block face
// processing and vice versa; a failure on one face skips only that face.
func (a *Analyzer) Process(ctx context.Context, frame image.Image, elapsed, total time.Duration) (*image.RGBA, Result) {
	ctx = ctxutil.Default(ctx)
	var res Result

	var phoneMarks []vision.PhoneMark
	if a.phones != nil {
		marks, err := a.phones.Detect(ctx, frame)
		if err != nil {
			a.log.Warn("Phone detection failed for frame", "detector", a.phones.Name(), "error", err)
		} else {
			phoneMarks = marks
		}
	}
	res.MobileDetected = len(phoneMarks) > 0

	faceMarks := a.processFaces(ctx, frame, res.MobileDetected, &res)

	annotated := a.annot.Render(frame, faceMarks, phoneMarks, elapsed, total)
	return annotated, res
}

// ProcessFrame is the capture-loop entry point. It discards the per-frame
// summary and returns only the annotated frame for display.
func (a *Analyzer) ProcessFrame(ctx context.Context, frame image.Image, elapsed, total time.Duration) image.Image {
	annotated, _ := a.Process(ctx, frame, elapsed, total)
	return annotated
}

func (a *Analyzer) processFaces(ctx context.Context, frame image.Image, mobileInFrame bool, res *Result) []vision.FaceMark {
	faces, err := a.strat.Faces.DetectFaces(ctx, frame)
	if err != nil {
		a.log.Warn("Face detection failed for frame", "error", err)
		return nil
	}
	res.Faces = len(faces)

	now := a.clock()
	marks := make([]vision.FaceMark, 0, len(faces))
	for _, face := range faces {
		mark, ok := a.processFace(frame, face, mobileInFrame, now, res)
		if ok {
			marks = append(marks, mark)
		}
	}
	return marks
}

func (a *Analyzer) processFace(frame image.Image, face vision.Rect, mobileInFrame bool, now time.Time, res *Result) (vision.FaceMark, bool) {
	chip := vision.Crop(frame, face)
	sig, err := a.strat.Encoder.Encode(chip)
	if err != nil {
		a.log.Warn("Could not encode face, skipping", "box", face, "error", err)
		return vision.FaceMark{}, false
	}

	name, dist := recognize.BestMatch(a.gallery, a.strat.Encoder, sig)
	if name == recognize.Unknown {
		// Annotated for display only; no statistics update.
		return vision.FaceMark{Box: face, Label: recognize.Unknown, State: vision.FaceUnknown}, true
	}

	eyes, err := a.strat.Eyes.CountEyes(frame, face)
	if err != nil {
		a.log.Warn("Eye detection failed, skipping face", "student", name, "error", err)
		return vision.FaceMark{}, false
	}
	// Two visible eye regions stand in for gaze-toward-camera.
	focused := eyes >= 2

	a.rec.Observe(name, focused, mobileInFrame, now)
	res.Known++
	a.log.Debug("Face matched", "student", name, "distance", dist, "focused", focused)

	if focused {
		return vision.FaceMark{Box: face, Label: name + ": Focused", State: vision.FaceFocused}, true
	}
	return vision.FaceMark{Box: face, Label: name + ": Not Focused", State: vision.FaceUnfocused}, true
}
