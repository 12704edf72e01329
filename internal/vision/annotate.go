package vision

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/VasiKumar/ClassAI/internal/pkg/logger"
)

// Annotator renders face/phone boxes, label plates and the timer overlay onto
// a clone of the frame. The input frame is never mutated.
type Annotator struct {
	face font.Face
	log  *logger.Logger
}

// NewAnnotator loads the TTF at fontPath when provided, falling back to the
// built-in bitmap face.
func NewAnnotator(fontPath string, log *logger.Logger) *Annotator {
	if log == nil {
		log = logger.NewNop()
	}
	a := &Annotator{face: basicfont.Face7x13, log: log.With("service", "Annotator")}
	if fontPath == "" {
		return a
	}
	b, err := os.ReadFile(fontPath)
	if err != nil {
		a.log.Warn("Could not read font, using builtin face", "path", fontPath, "error", err)
		return a
	}
	ft, err := truetype.Parse(b)
	if err != nil {
		a.log.Warn("Could not parse font, using builtin face", "path", fontPath, "error", err)
		return a
	}
	a.face = truetype.NewFace(ft, &truetype.Options{Size: 16})
	return a
}

// Render returns an annotated copy of frame.
func (a *Annotator) Render(frame image.Image, faces []FaceMark, phones []PhoneMark, elapsed, total time.Duration) *image.RGBA {
	b := frame.Bounds()
	clone := image.NewRGBA(b)
	draw.Draw(clone, b, frame, b.Min, draw.Src)

	dc := gg.NewContextForRGBA(clone)
	dc.SetFontFace(a.face)

	for _, p := range phones {
		a.box(dc, p.Box, 1, 0, 0, 4)
		a.plate(dc, p.Box, fmt.Sprintf("MOBILE %.2f", p.Confidence), 1, 0, 0)
	}
	for _, f := range faces {
		r, g, bl := stateColor(f.State)
		a.box(dc, f.Box, r, g, bl, 3)
		a.plate(dc, f.Box, f.Label, r, g, bl)
	}

	if total > 0 {
		timer := fmt.Sprintf("Time: %ds / %ds", int(elapsed.Seconds()), int(total.Seconds()))
		dc.SetRGB(0, 0, 0)
		dc.DrawRectangle(5, 5, 345, 40)
		dc.Fill()
		dc.SetRGB(1, 1, 1)
		dc.DrawString(timer, 10, 32)
	}
	return clone
}

func (a *Annotator) box(dc *gg.Context, r Rect, cr, cg, cb float64, width float64) {
	dc.SetRGB(cr, cg, cb)
	dc.SetLineWidth(width)
	dc.DrawRectangle(float64(r.X), float64(r.Y), float64(r.W), float64(r.H))
	dc.Stroke()
}

func (a *Annotator) plate(dc *gg.Context, r Rect, label string, cr, cg, cb float64) {
	if label == "" {
		return
	}
	w, h := dc.MeasureString(label)
	x := float64(r.X)
	y := float64(r.Y) - h - 10
	if y < 0 {
		y = 0
	}
	dc.SetRGB(cr, cg, cb)
	dc.DrawRectangle(x, y, w, h+10)
	dc.Fill()
	dc.SetRGB(1, 1, 1)
	dc.DrawString(label, x, y+h+2)
}

func stateColor(s FaceState) (r, g, b float64) {
	switch s {
	case FaceFocused:
		return 0, 1, 0
	case FaceUnfocused:
		return 1, 0.65, 0
	default:
		return 0.5, 0.5, 0.5
	}
}
