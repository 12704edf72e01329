package recognize

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

func errEmptyChip(b image.Rectangle) error { return fmt.Errorf("empty face chip %v", b) }

// HistogramEncoder is the degraded fallback: an 8x8x8 RGB color histogram
// over the scaled face chip, compared with symmetric chi-square distance.
// Color histograms carry far less identity information than the spatial
// embedding, so the accept threshold is loose and false matches are more
// likely. Documented degraded mode.
type HistogramEncoder struct{}

func NewHistogramEncoder() *HistogramEncoder { return &HistogramEncoder{} }

func (e *HistogramEncoder) Name() string       { return "color-histogram" }
func (e *HistogramEncoder) Threshold() float64 { return histAccept }

func (e *HistogramEncoder) Encode(chip image.Image) (Signature, error) {
	b := chip.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errEmptyChip(b)
	}
	scaled := image.NewRGBA(image.Rect(0, 0, chipSize, chipSize))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), chip, b, xdraw.Src, nil)

	sig := make(Signature, histBinsDim*histBinsDim*histBinsDim)
	for y := 0; y < chipSize; y++ {
		for x := 0; x < chipSize; x++ {
			r, g, bl, _ := scaled.At(x, y).RGBA()
			ri := int(r>>8) / histBinWidth
			gi := int(g>>8) / histBinWidth
			bi := int(bl>>8) / histBinWidth
			sig[(ri*histBinsDim+gi)*histBinsDim+bi]++
		}
	}
	return sig, nil
}

func (e *HistogramEncoder) Distance(a, b Signature) float64 {
	return chiSquare(a, b)
}

func chiSquare(a, b Signature) float64 {
	if len(a) != len(b) {
		return histAccept * 10
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		s := a[i] + b[i]
		if s > 0 {
			sum += d * d / s
		}
	}
	return sum
}
