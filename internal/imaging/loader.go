package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrDecode is wrapped by every error caused by unreadable pixel data.
var ErrDecode = errors.New("cannot decode image")

// Decode decodes an in-memory image and reports its format name.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

// Open decodes the image file at path. EXIF orientation is not applied, so the
// pixel grid matches what Decode produces for the same bytes.
func Open(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDecode, path, err)
	}
	return img, nil
}

// ImageCache provides thread-safe caching of decoded images keyed by path.
//
// Every Load stats the file and decodes it again when its size or
// modification time changed, so an edited image is never served stale.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]cachedImage
}

type cachedImage struct {
	img     image.Image
	format  string
	size    int64
	modTime time.Time
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]cachedImage),
	}
}

// Load returns the cached image for path, decoding it on first use and
// whenever the file changed on disk.
func (c *ImageCache) Load(path string) (image.Image, string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		c.Evict(path)
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.RLock()
	ci, ok := c.images[path]
	c.mu.RUnlock()
	if ok && ci.size == stat.Size() && ci.modTime.Equal(stat.ModTime()) {
		return ci.img, ci.format, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.Evict(path)
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	img, format, err := Decode(data)
	if err != nil {
		c.Evict(path)
		return nil, "", err
	}

	c.mu.Lock()
	c.images[path] = cachedImage{
		img:     img,
		format:  format,
		size:    stat.Size(),
		modTime: stat.ModTime(),
	}
	c.mu.Unlock()

	return img, format, nil
}

// Evict removes path from the cache.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Clear removes every cached image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]cachedImage)
	c.mu.Unlock()
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Path is the file the metadata was read from.
	Path string `json:"path"`

	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder's format name, e.g. "png", "jpeg", "bmp".
	Format string `json:"format"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads path through the cache and returns its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, format, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Path:          path,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}
