package vision

import (
	"image"
	"image/draw"
)

// Crop returns the face-chip of img under r, clamped to the image bounds.
// The chip is a zero-origin, tightly packed copy: consumers that read Pix
// directly can assume rows of 4*Dx bytes starting at offset 0.
func Crop(img image.Image, r Rect) image.Image {
	clamped := r.Clamp(img.Bounds()).ToImageRect()
	out := image.NewRGBA(image.Rect(0, 0, clamped.Dx(), clamped.Dy()))
	draw.Draw(out, out.Bounds(), img, clamped.Min, draw.Src)
	return out
}
