package capture

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/VasiKumar/ClassAI/internal/vision"
)

// Contours below this area are noise, not hand-held objects.
const minContourArea = 2000

// CannyProposer supplies rectangular object candidates for the geometric
// phone heuristic: blur, Canny edges, external contours, bounding rects.
type CannyProposer struct{}

func NewCannyProposer() *CannyProposer { return &CannyProposer{} }

func (p *CannyProposer) Proposals(img image.Image) ([]vision.Rect, error) {
	mat, gray, err := toGrayMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	// High thresholds keep weak edges out of the candidate pool.
	gocv.Canny(blurred, &edges, 100, 200)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	out := []vision.Rect{}
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		if gocv.ContourArea(c) < minContourArea {
			continue
		}
		r := gocv.BoundingRect(c)
		out = append(out, vision.Rect{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()})
	}
	return out, nil
}
