package imaging

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ErrInvalidRegion is returned when a crop rectangle has no overlap with the
// image.
var ErrInvalidRegion = errors.New("invalid crop region")

// CropFilePrefix names every crop file written by SaveCrop.
const CropFilePrefix = "ocrdesk-crop-"

// Crop extracts region from img. The region is clamped to the image bounds;
// a region that does not overlap the image is an error.
func Crop(img image.Image, region image.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()
	clamped := region.Canon().Intersect(bounds)
	if clamped.Empty() {
		return nil, fmt.Errorf("%w: (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			ErrInvalidRegion,
			region.Min.X, region.Min.Y, region.Max.X, region.Max.Y,
			bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	return imaging.Crop(img, clamped), nil
}

// Grayscale converts img to gray, which often helps tesseract on colored
// backgrounds.
func Grayscale(img image.Image) image.Image {
	return effect.Grayscale(img)
}

// SaveCrop writes img as PNG to a new uniquely named file in dir (the OS temp
// directory when dir is empty) and returns its path.
//
// The caller is responsible for deleting the file.
func SaveCrop(img image.Image, dir string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create crop directory: %w", err)
	}

	path := filepath.Join(dir, CropFilePrefix+uuid.NewString()+".png")
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return "", fmt.Errorf("failed to write crop: %w", err)
	}
	return path, nil
}
