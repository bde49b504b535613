//go:build !gosseract

package ocr

import (
	"context"
	"errors"
)

// LibraryAvailable reports whether this build links libtesseract.
const LibraryAvailable = false

// ErrLibraryUnavailable is returned when the gosseract engine is requested
// from a build without the "gosseract" tag.
var ErrLibraryUnavailable = errors.New("gosseract engine not compiled in; rebuild with -tags gosseract")

// LibraryEngine is unavailable in this build.
type LibraryEngine struct{}

// NewLibraryEngine always fails in builds without the "gosseract" tag.
func NewLibraryEngine(string) (*LibraryEngine, error) {
	return nil, ErrLibraryUnavailable
}

// Recognize always fails in this build.
func (e *LibraryEngine) Recognize(context.Context, string, string) (string, error) {
	return "", ErrLibraryUnavailable
}

// RecognizeToFile always fails in this build.
func (e *LibraryEngine) RecognizeToFile(context.Context, string, string, string) error {
	return ErrLibraryUnavailable
}
