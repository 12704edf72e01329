package analyzer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"
	"time"

	"github.com/VasiKumar/ClassAI/internal/gallery"
	"github.com/VasiKumar/ClassAI/internal/recognize"
	"github.com/VasiKumar/ClassAI/internal/vision"
)

type stubFaces struct {
	rects []vision.Rect
	err   error
}

func (s stubFaces) DetectFaces(ctx context.Context, img image.Image) ([]vision.Rect, error) {
	return s.rects, s.err
}

type stubEyes struct {
	fn func(face vision.Rect) (int, error)
}

func (s stubEyes) CountEyes(img image.Image, face vision.Rect) (int, error) {
	return s.fn(face)
}

// pixelEncoder signs a chip by its top-left red channel value, which lets a
// test paint identities into frame regions.
type pixelEncoder struct{}

func (pixelEncoder) Name() string { return "pixel" }

func (pixelEncoder) Encode(chip image.Image) (recognize.Signature, error) {
	b := chip.Bounds()
	if b.Empty() {
		return nil, errors.New("empty chip")
	}
	r, _, _, _ := chip.At(b.Min.X, b.Min.Y).RGBA()
	return recognize.Signature{float64(r >> 8)}, nil
}

func (pixelEncoder) Distance(a, b recognize.Signature) float64 {
	return math.Abs(a[0] - b[0])
}

func (pixelEncoder) Threshold() float64 { return 10 }

type observation struct {
	name    string
	focused bool
	mobile  bool
}

type stubRecorder struct {
	seen []observation
}

func (r *stubRecorder) Observe(name string, focused bool, mobile bool, at time.Time) {
	r.seen = append(r.seen, observation{name: name, focused: focused, mobile: mobile})
}

type stubPhones struct {
	marks []vision.PhoneMark
	err   error
}

func (s stubPhones) Name() string { return "stub" }

func (s stubPhones) Detect(ctx context.Context, img image.Image) ([]vision.PhoneMark, error) {
	return s.marks, s.err
}

var (
	aliceBox = vision.Rect{X: 0, Y: 0, W: 20, H: 20}
	bobBox   = vision.Rect{X: 40, Y: 0, W: 20, H: 20}
)

// twoFaceFrame paints alice's region red value 100 and bob's 200.
func twoFaceFrame() *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, 80, 40))
	draw.Draw(frame, aliceBox.ToImageRect(), image.NewUniform(color.RGBA{R: 100, A: 255}), image.Point{}, draw.Src)
	draw.Draw(frame, bobBox.ToImageRect(), image.NewUniform(color.RGBA{R: 200, A: 255}), image.Point{}, draw.Src)
	return frame
}

func twoFaceGallery() *gallery.Gallery {
	g := gallery.New()
	g.Add("alice", recognize.Signature{100})
	g.Add("bob", recognize.Signature{200})
	return g
}

func newTestAnalyzer(faces stubFaces, eyes stubEyes, g *gallery.Gallery, phones PhoneDetector, rec Recorder) *Analyzer {
	strat := &recognize.Strategy{
		Name:    "test",
		Faces:   faces,
		Eyes:    eyes,
		Encoder: pixelEncoder{},
	}
	return New(strat, g, phones, rec, vision.NewAnnotator("", nil), nil)
}

func allEyes(n int) stubEyes {
	return stubEyes{fn: func(vision.Rect) (int, error) { return n, nil }}
}

func TestProcess_AttributesPhoneToEveryMatchedStudent(t *testing.T) {
	rec := &stubRecorder{}
	phones := stubPhones{marks: []vision.PhoneMark{{Box: vision.Rect{X: 60, Y: 20, W: 8, H: 14}, Confidence: 0.9}}}
	a := newTestAnalyzer(stubFaces{rects: []vision.Rect{aliceBox, bobBox}}, allEyes(2), twoFaceGallery(), phones, rec)

	_, res := a.Process(context.Background(), twoFaceFrame(), time.Second, time.Minute)

	if !res.MobileDetected {
		t.Fatalf("expected mobile detected")
	}
	if res.Known != 2 {
		t.Fatalf("expected 2 known faces got %d", res.Known)
	}
	if len(rec.seen) != 2 {
		t.Fatalf("expected 2 observations got %d", len(rec.seen))
	}
	for _, o := range rec.seen {
		if !o.mobile {
			t.Fatalf("phone in frame must be charged to %s", o.name)
		}
	}
}

func TestProcess_UnknownFaceGetsNoStats(t *testing.T) {
	rec := &stubRecorder{}
	frame := image.NewRGBA(image.Rect(0, 0, 80, 40))
	draw.Draw(frame, aliceBox.ToImageRect(), image.NewUniform(color.RGBA{R: 150, A: 255}), image.Point{}, draw.Src)

	a := newTestAnalyzer(stubFaces{rects: []vision.Rect{aliceBox}}, allEyes(2), twoFaceGallery(), nil, rec)
	_, res := a.Process(context.Background(), frame, 0, time.Minute)

	if res.Faces != 1 {
		t.Fatalf("expected 1 detected face got %d", res.Faces)
	}
	if res.Known != 0 {
		t.Fatalf("expected no known faces got %d", res.Known)
	}
	if len(rec.seen) != 0 {
		t.Fatalf("unknown faces must not produce observations, got %d", len(rec.seen))
	}
}

func TestProcess_PhoneFailureDoesNotBlockFaces(t *testing.T) {
	rec := &stubRecorder{}
	phones := stubPhones{err: errors.New("model exploded")}
	a := newTestAnalyzer(stubFaces{rects: []vision.Rect{aliceBox, bobBox}}, allEyes(2), twoFaceGallery(), phones, rec)

	_, res := a.Process(context.Background(), twoFaceFrame(), 0, time.Minute)

	if res.MobileDetected {
		t.Fatalf("failed phone pass must not report a detection")
	}
	if len(rec.seen) != 2 {
		t.Fatalf("expected 2 observations got %d", len(rec.seen))
	}
	for _, o := range rec.seen {
		if o.mobile {
			t.Fatalf("no phone should be charged after a failed pass")
		}
	}
}

func TestProcess_EyeFailureSkipsOnlyThatFace(t *testing.T) {
	rec := &stubRecorder{}
	eyes := stubEyes{fn: func(face vision.Rect) (int, error) {
		if face == aliceBox {
			return 0, errors.New("eye cascade failed")
		}
		return 2, nil
	}}
	a := newTestAnalyzer(stubFaces{rects: []vision.Rect{aliceBox, bobBox}}, eyes, twoFaceGallery(), nil, rec)

	_, res := a.Process(context.Background(), twoFaceFrame(), 0, time.Minute)

	if res.Known != 1 {
		t.Fatalf("expected 1 known face got %d", res.Known)
	}
	if len(rec.seen) != 1 || rec.seen[0].name != "bob" {
		t.Fatalf("expected only bob observed, got %+v", rec.seen)
	}
}

func TestProcess_TwoEyesMeansFocused(t *testing.T) {
	for _, tc := range []struct {
		eyes    int
		focused bool
	}{
		{0, false},
		{1, false},
		{2, true},
		{3, true},
	} {
		rec := &stubRecorder{}
		frame := image.NewRGBA(image.Rect(0, 0, 80, 40))
		draw.Draw(frame, aliceBox.ToImageRect(), image.NewUniform(color.RGBA{R: 100, A: 255}), image.Point{}, draw.Src)

		a := newTestAnalyzer(stubFaces{rects: []vision.Rect{aliceBox}}, allEyes(tc.eyes), twoFaceGallery(), nil, rec)
		a.Process(context.Background(), frame, 0, time.Minute)

		if len(rec.seen) != 1 {
			t.Fatalf("eyes=%d: expected 1 observation got %d", tc.eyes, len(rec.seen))
		}
		if rec.seen[0].focused != tc.focused {
			t.Fatalf("eyes=%d: expected focused=%v got %v", tc.eyes, tc.focused, rec.seen[0].focused)
		}
	}
}

func TestProcess_FaceDetectionFailureYieldsEmptyResult(t *testing.T) {
	rec := &stubRecorder{}
	a := newTestAnalyzer(stubFaces{err: errors.New("detector down")}, allEyes(2), twoFaceGallery(), nil, rec)

	annotated, res := a.Process(context.Background(), twoFaceFrame(), 0, time.Minute)

	if annotated == nil {
		t.Fatalf("annotated frame must still be produced")
	}
	if res.Faces != 0 || res.Known != 0 {
		t.Fatalf("expected empty result got %+v", res)
	}
	if len(rec.seen) != 0 {
		t.Fatalf("expected no observations got %d", len(rec.seen))
	}
}
