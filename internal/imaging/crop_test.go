package imaging

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newQuadrantImage returns an image that is red top-left, green top-right,
// blue bottom-left and white bottom-right.
func newQuadrantImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func rgb8(c color.Color) (uint8, uint8, uint8) {
	r, g, b, _ := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func TestCrop(t *testing.T) {
	img := newQuadrantImage(100, 100)

	cropped, err := Crop(img, image.Rect(10, 10, 110, 60))
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}

	// Clamped to the right edge.
	if w, h := cropped.Bounds().Dx(), cropped.Bounds().Dy(); w != 90 || h != 50 {
		t.Errorf("dimensions: got %dx%d, want 90x50", w, h)
	}
	if cropped.Bounds().Min != (image.Point{}) {
		t.Errorf("crop should start at origin, got %v", cropped.Bounds().Min)
	}
}

func TestCrop_VerifyContent(t *testing.T) {
	img := newQuadrantImage(100, 100)

	tests := []struct {
		name    string
		region  image.Rectangle
		r, g, b uint8
	}{
		{"top-left", image.Rect(0, 0, 50, 50), 255, 0, 0},
		{"top-right", image.Rect(50, 0, 100, 50), 0, 255, 0},
		{"bottom-left", image.Rect(0, 50, 50, 100), 0, 0, 255},
		{"bottom-right", image.Rect(50, 50, 100, 100), 255, 255, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cropped, err := Crop(img, tt.region)
			if err != nil {
				t.Fatalf("Crop failed: %v", err)
			}
			r, g, b := rgb8(cropped.At(25, 25))
			if r != tt.r || g != tt.g || b != tt.b {
				t.Errorf("color: got (%d,%d,%d), want (%d,%d,%d)", r, g, b, tt.r, tt.g, tt.b)
			}
		})
	}
}

func TestCrop_InvalidRegion(t *testing.T) {
	img := newQuadrantImage(100, 100)

	tests := []struct {
		name   string
		region image.Rectangle
	}{
		{"outside right", image.Rect(150, 0, 200, 50)},
		{"outside top", image.Rect(0, -50, 50, -1)},
		{"zero area", image.Rect(50, 50, 50, 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Crop(img, tt.region)
			if !errors.Is(err, ErrInvalidRegion) {
				t.Errorf("expected ErrInvalidRegion, got %v", err)
			}
		})
	}
}

func TestGrayscale(t *testing.T) {
	img := newQuadrantImage(20, 20)
	gray := Grayscale(img)

	r, g, b := rgb8(gray.At(2, 2))
	if r != g || g != b {
		t.Errorf("pixel not gray: (%d,%d,%d)", r, g, b)
	}
	if gray.Bounds().Dx() != 20 || gray.Bounds().Dy() != 20 {
		t.Errorf("size changed: %v", gray.Bounds())
	}
}

func TestSaveCrop_UniquePaths(t *testing.T) {
	dir := t.TempDir()
	img := newQuadrantImage(10, 10)

	first, err := SaveCrop(img, dir)
	if err != nil {
		t.Fatalf("SaveCrop failed: %v", err)
	}
	second, err := SaveCrop(img, dir)
	if err != nil {
		t.Fatalf("SaveCrop failed: %v", err)
	}

	if first == second {
		t.Fatalf("crop paths should be unique, both %s", first)
	}
	for _, p := range []string{first, second} {
		if filepath.Dir(p) != dir {
			t.Errorf("crop %s not written in %s", p, dir)
		}
		if !strings.HasPrefix(filepath.Base(p), CropFilePrefix) || filepath.Ext(p) != ".png" {
			t.Errorf("unexpected crop name %s", p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("crop not readable: %v", err)
		}
		decoded, format, err := Decode(data)
		if err != nil {
			t.Fatalf("crop not decodable: %v", err)
		}
		if format != "png" || decoded.Bounds().Dx() != 10 {
			t.Errorf("crop decoded as %s %v", format, decoded.Bounds())
		}
	}
}

func TestSaveCrop_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "crops")
	path, err := SaveCrop(newQuadrantImage(4, 4), dir)
	if err != nil {
		t.Fatalf("SaveCrop failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("crop missing: %v", err)
	}
}
