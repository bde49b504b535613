package selection

import "image"

// Tracker follows a press/drag/release gesture and maintains the current
// selection rectangle.
//
// Tracker is not safe for concurrent use; it is driven from the UI event loop.
type Tracker struct {
	hasImage  bool
	selecting bool
	start     image.Point
	rect      Rect
}

// SetImageLoaded records whether an image is displayed. Any previous rectangle
// is cleared in both cases.
func (t *Tracker) SetImageLoaded(loaded bool) {
	t.hasImage = loaded
	t.selecting = false
	t.rect = Rect{}
}

// ImageLoaded reports whether presses will start a selection.
func (t *Tracker) ImageLoaded() bool {
	return t.hasImage
}

// Press starts a new selection at p. It returns false and does nothing when no
// image is displayed.
func (t *Tracker) Press(p image.Point) bool {
	if !t.hasImage {
		return false
	}
	t.start = p
	t.selecting = true
	t.rect = Rect{}
	return true
}

// Drag updates the rectangle to span the press point and p. It returns true
// when a redraw is needed.
func (t *Tracker) Drag(p image.Point) bool {
	if !t.selecting {
		return false
	}
	t.rect = Normalize(t.start, p)
	return true
}

// Release ends the active selection and returns the finished rectangle. The
// second return value is false when no selection was active, so a duplicate
// release never emits twice.
func (t *Tracker) Release() (Rect, bool) {
	if !t.selecting {
		return Rect{}, false
	}
	t.selecting = false
	return t.rect, true
}

// Selecting reports whether a drag is in progress.
func (t *Tracker) Selecting() bool {
	return t.selecting
}

// Rect returns the current rectangle; it is empty when nothing is selected.
func (t *Tracker) Rect() Rect {
	return t.rect
}
