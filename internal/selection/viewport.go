package selection

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrOutsideImage is returned when a rectangle does not overlap the bitmap.
var ErrOutsideImage = errors.New("selection lies outside the image")

// Viewport describes how a bitmap of size Source is shown on a surface of
// size Display using contain-fit (aspect preserved, centered).
//
// A zero Display means the image is shown at 1:1 with no offset.
type Viewport struct {
	Display image.Point `json:"display"`
	Source  image.Point `json:"source"`
}

// Identity returns a 1:1 viewport for a bitmap of the given size.
func Identity(source image.Point) Viewport {
	return Viewport{Display: source, Source: source}
}

// Frame returns the scale factor from source to display pixels and the
// top-left offset of the drawn bitmap inside the surface.
func (v Viewport) Frame() (scale, offX, offY float64) {
	if v.Display.X <= 0 || v.Display.Y <= 0 || v.Source.X <= 0 || v.Source.Y <= 0 {
		return 1, 0, 0
	}
	sx := float64(v.Display.X) / float64(v.Source.X)
	sy := float64(v.Display.Y) / float64(v.Source.Y)
	scale = math.Min(sx, sy)
	offX = (float64(v.Display.X) - float64(v.Source.X)*scale) / 2
	offY = (float64(v.Display.Y) - float64(v.Source.Y)*scale) / 2
	return scale, offX, offY
}

// ToSource maps a display-space rectangle to source pixel space and clamps it
// to the bitmap. The result always covers every source pixel touched by r.
func (v Viewport) ToSource(r Rect) (image.Rectangle, error) {
	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("empty selection %s", r)
	}
	scale, offX, offY := v.Frame()

	x0 := int(math.Floor((float64(r.X) - offX) / scale))
	y0 := int(math.Floor((float64(r.Y) - offY) / scale))
	x1 := int(math.Ceil((float64(r.X+r.W) - offX) / scale))
	y1 := int(math.Ceil((float64(r.Y+r.H) - offY) / scale))

	out := image.Rect(x0, y0, x1, y1)
	if v.Source.X > 0 && v.Source.Y > 0 {
		out = out.Intersect(image.Rect(0, 0, v.Source.X, v.Source.Y))
	}
	if out.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w: %s", ErrOutsideImage, r)
	}
	return out, nil
}
