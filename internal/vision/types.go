package vision

import "image"

// Rect is an axis-aligned box in frame pixel coordinates.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// AspectRatio returns height/width, the orientation used for phone candidate
// filtering. Zero when the rect is degenerate.
func (r Rect) AspectRatio() float64 {
	if r.W <= 0 {
		return 0
	}
	return float64(r.H) / float64(r.W)
}

// Clamp returns the intersection of r with an image of the given bounds.
func (r Rect) Clamp(b image.Rectangle) Rect {
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.W, r.Y+r.H
	if x0 < b.Min.X {
		x0 = b.Min.X
	}
	if y0 < b.Min.Y {
		y0 = b.Min.Y
	}
	if x1 > b.Max.X {
		x1 = b.Max.X
	}
	if y1 > b.Max.Y {
		y1 = b.Max.Y
	}
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func (r Rect) ToImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// FaceState classifies a detected face for annotation purposes.
type FaceState int

const (
	FaceUnknown FaceState = iota
	FaceFocused
	FaceUnfocused
)

// FaceMark is one annotated face region.
type FaceMark struct {
	Box   Rect
	Label string
	State FaceState
}

// PhoneMark is one annotated phone detection.
type PhoneMark struct {
	Box        Rect
	Confidence float64
}
