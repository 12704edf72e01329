package recognize

import (
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
)

const (
	chipSize     = 100
	gridCells    = 4
	gridBins     = 16
	gridAccept   = 0.60
	histAccept   = 500.0
	histBinsDim  = 8
	histBinWidth = 256 / histBinsDim
)

// GridEncoder computes a spatial luminance embedding: the face chip is scaled
// to a fixed size, split into a grid, and each cell contributes a small
// luminance histogram. The concatenated vector is L2-normalized and compared
// with Euclidean distance.
type GridEncoder struct{}

func NewGridEncoder() *GridEncoder { return &GridEncoder{} }

func (e *GridEncoder) Name() string       { return "grid-luminance" }
func (e *GridEncoder) Threshold() float64 { return gridAccept }

func (e *GridEncoder) Encode(chip image.Image) (Signature, error) {
	gray, err := scaleGray(chip)
	if err != nil {
		return nil, err
	}
	cell := chipSize / gridCells
	sig := make(Signature, gridCells*gridCells*gridBins)
	for gy := 0; gy < gridCells; gy++ {
		for gx := 0; gx < gridCells; gx++ {
			base := (gy*gridCells + gx) * gridBins
			for y := gy * cell; y < (gy+1)*cell; y++ {
				for x := gx * cell; x < (gx+1)*cell; x++ {
					v := gray.GrayAt(x, y).Y
					sig[base+int(v)*gridBins/256]++
				}
			}
		}
	}
	var norm float64
	for _, v := range sig {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range sig {
			sig[i] /= norm
		}
	}
	return sig, nil
}

func (e *GridEncoder) Distance(a, b Signature) float64 {
	return euclidean(a, b)
}

func euclidean(a, b Signature) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func scaleGray(src image.Image) (*image.Gray, error) {
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("empty face chip %v", b)
	}
	scaled := image.NewRGBA(image.Rect(0, 0, chipSize, chipSize))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, b, xdraw.Src, nil)
	gray := image.NewGray(scaled.Bounds())
	for y := 0; y < chipSize; y++ {
		for x := 0; x < chipSize; x++ {
			r, g, bl, _ := scaled.At(x, y).RGBA()
			// ITU-R BT.601 luma
			lum := (299*r + 587*g + 114*bl) / 1000
			gray.SetGray(x, y, color.Gray{Y: uint8(lum >> 8)})
		}
	}
	return gray, nil
}
