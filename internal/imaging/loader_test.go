package imaging

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// writeTestPNG encodes img into a PNG file under t.TempDir and returns its path.
func writeTestPNG(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestDecode(t *testing.T) {
	path := writeTestPNG(t, "decode.png", newQuadrantImage(40, 30))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	img, format, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != "png" {
		t.Errorf("format: got %s, want png", format)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("bounds: got %v", img.Bounds())
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, _, err := Decode([]byte("definitely not an image"))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	path := writeTestPNG(t, "open.png", newQuadrantImage(64, 32))

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Errorf("bounds: got %v", img.Bounds())
	}
	r, g, b := rgb8(img.At(60, 2))
	if r != 0 || g != 255 || b != 0 {
		t.Errorf("top-right pixel: got (%d,%d,%d), want green", r, g, b)
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open("/nonexistent/path/image.png"); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(bad); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestImageCache_LoadCachesAndEvicts(t *testing.T) {
	cache := NewImageCache()
	path := writeTestPNG(t, "cached.png", newQuadrantImage(10, 10))

	first, _, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second, _, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if first != second {
		t.Error("second Load should return the cached image")
	}

	cache.Evict(path)
	third, _, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load after Evict failed: %v", err)
	}
	if third == first {
		t.Error("Load after Evict should decode again")
	}

	cache.Clear()
	if len(cache.images) != 0 {
		t.Error("Clear should empty the cache")
	}
}

func TestImageCache_ReloadsChangedFile(t *testing.T) {
	cache := NewImageCache()
	path := writeTestPNG(t, "edited.png", newQuadrantImage(10, 10))

	if _, _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to rewrite file: %v", err)
	}
	if err := png.Encode(f, newQuadrantImage(40, 20)); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	f.Close()
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	img, _, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load after edit failed: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(40, 20) {
		t.Errorf("size after edit: got %v, want (40,20)", got)
	}

	info, err := LoadImageInfo(cache, path)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}
	if info.Width != 40 || info.Height != 20 {
		t.Errorf("info after edit: got %dx%d, want 40x20", info.Width, info.Height)
	}
}

func TestImageCache_RemovedFileEvicted(t *testing.T) {
	cache := NewImageCache()
	path := writeTestPNG(t, "gone.png", newQuadrantImage(10, 10))

	if _, _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, _, err := cache.Load(path); err == nil {
		t.Fatal("expected an error for a removed file")
	}
	if len(cache.images) != 0 {
		t.Error("removed file should be evicted from the cache")
	}
}

func TestImageCache_Concurrent(t *testing.T) {
	cache := NewImageCache()
	path := writeTestPNG(t, "concurrent.png", newQuadrantImage(10, 10))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := cache.Load(path); err != nil {
				t.Errorf("Load failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache()
	path := writeTestPNG(t, "info.png", newQuadrantImage(120, 80))

	info, err := LoadImageInfo(cache, path)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}
	if info.Width != 120 || info.Height != 80 {
		t.Errorf("dimensions: got %dx%d", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("format: got %s", info.Format)
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("file size: got %d", info.FileSizeBytes)
	}
	if info.Path != path {
		t.Errorf("path: got %s", info.Path)
	}
}
