package ui

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/ocrdesk/internal/imaging"
	"github.com/ironsheep/ocrdesk/internal/selection"
)

// DefaultOutlineColor is used when the configured colour cannot be parsed.
var DefaultOutlineColor = color.NRGBA{R: 255, A: 255}

// ParseColor parses a #rrggbb hex colour.
func ParseColor(hex string) (color.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// ImageSurface displays a bitmap scaled to fit and lets the user drag a
// selection rectangle over it.
type ImageSurface struct {
	widget.BaseWidget

	// OnRegionSelected receives each finished selection together with the
	// viewport it was drawn in.
	OnRegionSelected func(rect selection.Rect, vp selection.Viewport)

	// OnImageDropped receives the local path of the first file dropped.
	OnImageDropped func(path string)

	image       *canvas.Image
	outline     *canvas.Rectangle
	background  *canvas.Rectangle
	placeholder *widget.Label

	tracker selection.Tracker
	source  image.Point
}

var (
	_ desktop.Mouseable = (*ImageSurface)(nil)
	_ fyne.Draggable    = (*ImageSurface)(nil)
)

// NewImageSurface creates an empty surface that draws selections with the
// given stroke.
func NewImageSurface(outlineColor color.Color, outlineWidth float32) *ImageSurface {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth

	outline := canvas.NewRectangle(color.Transparent)
	outline.StrokeColor = outlineColor
	outline.StrokeWidth = outlineWidth
	outline.Hide()

	s := &ImageSurface{
		image:       img,
		outline:     outline,
		background:  canvas.NewRectangle(color.Transparent),
		placeholder: widget.NewLabelWithStyle("Drop an image here", fyne.TextAlignCenter, fyne.TextStyle{Italic: true}),
	}
	s.ExtendBaseWidget(s)
	return s
}

// LoadPixelData decodes data and displays it, clearing any selection. On
// failure the current display is left untouched.
func (s *ImageSurface) LoadPixelData(data []byte) error {
	img, _, err := imaging.Decode(data)
	if err != nil {
		return err
	}
	s.SetImage(img)
	return nil
}

// SetImage displays img, clearing any selection.
func (s *ImageSurface) SetImage(img image.Image) {
	s.image.Image = img
	s.source = img.Bounds().Size()
	s.tracker.SetImageLoaded(true)
	s.Refresh()
}

// SetOutline changes the selection stroke.
func (s *ImageSurface) SetOutline(c color.Color, width float32) {
	s.outline.StrokeColor = c
	s.outline.StrokeWidth = width
	s.Refresh()
}

// HasImage reports whether a bitmap is displayed.
func (s *ImageSurface) HasImage() bool {
	return s.tracker.ImageLoaded()
}

// Selection returns the current rectangle in surface coordinates.
func (s *ImageSurface) Selection() selection.Rect {
	return s.tracker.Rect()
}

// Viewport describes the current mapping from surface to bitmap pixels.
func (s *ImageSurface) Viewport() selection.Viewport {
	size := s.Size()
	return selection.Viewport{
		Display: image.Pt(int(math.Round(float64(size.Width))), int(math.Round(float64(size.Height)))),
		Source:  s.source,
	}
}

// Drop handles URIs dropped on the window. Only file URIs count and only the
// first one is used.
func (s *ImageSurface) Drop(uris []fyne.URI) {
	for _, u := range uris {
		if u == nil || u.Scheme() != "file" {
			continue
		}
		if s.OnImageDropped != nil {
			s.OnImageDropped(u.Path())
		}
		return
	}
}

// MouseDown starts a selection on primary button press.
func (s *ImageSurface) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	if s.tracker.Press(toPoint(ev.Position)) {
		s.Refresh()
	}
}

// Dragged grows the selection to the pointer.
func (s *ImageSurface) Dragged(ev *fyne.DragEvent) {
	if s.tracker.Drag(toPoint(ev.Position)) {
		s.Refresh()
	}
}

// DragEnd finishes the selection.
func (s *ImageSurface) DragEnd() {
	s.release()
}

// MouseUp finishes the selection when no drag event was delivered.
func (s *ImageSurface) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	s.release()
}

func (s *ImageSurface) release() {
	rect, ok := s.tracker.Release()
	if !ok {
		return
	}
	s.Refresh()
	if rect.Empty() {
		return
	}
	if s.OnRegionSelected != nil {
		s.OnRegionSelected(rect, s.Viewport())
	}
}

func toPoint(p fyne.Position) image.Point {
	return image.Pt(int(math.Round(float64(p.X))), int(math.Round(float64(p.Y))))
}

// CreateRenderer implements fyne.Widget.
func (s *ImageSurface) CreateRenderer() fyne.WidgetRenderer {
	return &surfaceRenderer{s: s}
}

type surfaceRenderer struct {
	s *ImageSurface
}

func (r *surfaceRenderer) Layout(size fyne.Size) {
	r.s.background.Resize(size)
	r.s.image.Resize(size)
	r.s.image.Move(fyne.NewPos(0, 0))
	r.s.placeholder.Resize(size)
	r.layoutOutline()
}

// layoutOutline draws the selection clipped to the surface, since a drag may
// leave the widget.
func (r *surfaceRenderer) layoutOutline() {
	bounds := image.Rectangle{Max: r.s.Viewport().Display}
	rect := r.s.tracker.Rect().Rectangle().Intersect(bounds)
	if rect.Empty() {
		r.s.outline.Hide()
		return
	}
	r.s.outline.Move(fyne.NewPos(float32(rect.Min.X), float32(rect.Min.Y)))
	r.s.outline.Resize(fyne.NewSize(float32(rect.Dx()), float32(rect.Dy())))
	r.s.outline.Show()
}

func (r *surfaceRenderer) MinSize() fyne.Size {
	return fyne.NewSize(200, 200)
}

func (r *surfaceRenderer) Refresh() {
	if r.s.HasImage() {
		r.s.placeholder.Hide()
	} else {
		r.s.placeholder.Show()
	}
	r.layoutOutline()
	canvas.Refresh(r.s.image)
	canvas.Refresh(r.s.outline)
}

func (r *surfaceRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.s.background, r.s.image, r.s.placeholder, r.s.outline}
}

func (r *surfaceRenderer) Destroy() {}
