package vision

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"
)

func grayFrame(w, h int) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(color.RGBA{R: 120, G: 120, B: 120, A: 255}), image.Point{}, draw.Src)
	return frame
}

func TestRender_DoesNotMutateInputFrame(t *testing.T) {
	frame := grayFrame(200, 100)
	before := *frame
	beforePix := make([]uint8, len(frame.Pix))
	copy(beforePix, frame.Pix)

	a := NewAnnotator("", nil)
	out := a.Render(frame, []FaceMark{
		{Box: Rect{X: 20, Y: 20, W: 40, H: 40}, Label: "alice: Focused", State: FaceFocused},
	}, []PhoneMark{
		{Box: Rect{X: 120, Y: 30, W: 20, H: 40}, Confidence: 0.8},
	}, 5*time.Second, 60*time.Second)

	if out == nil {
		t.Fatalf("expected annotated frame")
	}
	if out == frame {
		t.Fatalf("annotated frame must be a clone")
	}
	for i := range beforePix {
		if frame.Pix[i] != beforePix[i] {
			t.Fatalf("input frame mutated at byte %d", i)
		}
	}
	if frame.Bounds() != before.Bounds() {
		t.Fatalf("input bounds changed")
	}

	changed := false
	for i := range out.Pix {
		if out.Pix[i] != beforePix[i] {
			changed = true
			break
		}
	}
	if !changed {
		t.Fatalf("annotation drew nothing")
	}
}

func TestRender_NoTimerWhenTotalIsZero(t *testing.T) {
	frame := grayFrame(100, 50)
	a := NewAnnotator("", nil)
	out := a.Render(frame, nil, nil, 0, 0)

	for i := range out.Pix {
		if out.Pix[i] != frame.Pix[i] {
			t.Fatalf("nothing to annotate, frame should be an untouched clone")
		}
	}
}

func TestCrop_ClampsToFrameBounds(t *testing.T) {
	frame := grayFrame(50, 50)
	frame.SetRGBA(40, 40, color.RGBA{R: 255, A: 255})

	chip := Crop(frame, Rect{X: 30, Y: 30, W: 100, H: 100})
	b := chip.Bounds()
	if b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("expected 20x20 chip got %dx%d", b.Dx(), b.Dy())
	}
	r, _, _, _ := chip.At(10, 10).RGBA()
	if r>>8 != 255 {
		t.Fatalf("chip does not carry the source pixels")
	}
}

func TestCrop_ChipIsTightlyPacked(t *testing.T) {
	frame := grayFrame(640, 480)
	frame.SetRGBA(200, 100, color.RGBA{R: 255, A: 255})

	chip, ok := Crop(frame, Rect{X: 200, Y: 100, W: 64, H: 64}).(*image.RGBA)
	if !ok {
		t.Fatalf("expected an *image.RGBA chip")
	}
	if chip.Rect.Min != (image.Point{}) {
		t.Fatalf("chip must be zero-origin, got min %v", chip.Rect.Min)
	}
	if chip.Stride != 4*64 {
		t.Fatalf("chip stride %d, want %d", chip.Stride, 4*64)
	}
	if len(chip.Pix) != 4*64*64 {
		t.Fatalf("chip buffer has %d bytes, want %d", len(chip.Pix), 4*64*64)
	}
	if chip.Pix[0] != 255 {
		t.Fatalf("chip origin should hold the source's top-left face pixel")
	}
}

func TestRect_Basics(t *testing.T) {
	if !(Rect{W: 0, H: 10}).Empty() || (Rect{W: 5, H: 5}).Empty() {
		t.Fatalf("empty check wrong")
	}
	if got := (Rect{W: 80, H: 160}).AspectRatio(); got != 2 {
		t.Fatalf("expected aspect 2 got %v", got)
	}
	if got := (Rect{W: 0, H: 160}).AspectRatio(); got != 0 {
		t.Fatalf("degenerate rect aspect should be 0 got %v", got)
	}

	clamped := (Rect{X: -10, Y: 5, W: 40, H: 100}).Clamp(image.Rect(0, 0, 50, 50))
	if clamped != (Rect{X: 0, Y: 5, W: 30, H: 45}) {
		t.Fatalf("unexpected clamp result %+v", clamped)
	}
	if out := (Rect{X: 100, Y: 100, W: 10, H: 10}).Clamp(image.Rect(0, 0, 50, 50)); !out.Empty() {
		t.Fatalf("out-of-frame rect should clamp to empty, got %+v", out)
	}
}
