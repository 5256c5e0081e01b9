package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ImageCache keeps decoded images in memory, keyed either by file path or by
// an opaque handle issued for uploaded images.
//
// ImageCache is safe for concurrent use. Cached images stay in memory until
// Evict or Clear is called.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/path/to/image.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	id, _ := cache.Decode(uploadBody) // uploaded bytes -> handle
//	img, _ = cache.Resolve(id)
type ImageCache struct {
	mu      sync.RWMutex
	images  map[string]image.Image
	formats map[string]string
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images:  make(map[string]image.Image),
		formats: make(map[string]string),
	}
}

// Load returns the image at path, decoding it from disk on first use.
// PNG, JPEG and GIF are supported.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.formats[path] = format
	c.mu.Unlock()

	return img, nil
}

// Decode reads an encoded image from r, stores it under a new handle and
// returns the handle.
func (c *ImageCache) Decode(r io.Reader) (string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	id := uuid.NewString()

	c.mu.Lock()
	c.images[id] = img
	c.formats[id] = format
	c.mu.Unlock()

	return id, nil
}

// Resolve returns the image for ref, which is either a handle issued by
// Decode or a file path.
func (c *ImageCache) Resolve(ref string) (image.Image, error) {
	if _, err := uuid.Parse(ref); err == nil {
		c.mu.RLock()
		img, ok := c.images[ref]
		c.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("image handle %s: %w", ref, ErrNotFound)
		}
		return img, nil
	}
	return c.Load(ref)
}

// IsHandle reports whether ref is a handle issued by Decode that is still
// cached.
func (c *ImageCache) IsHandle(ref string) bool {
	if _, err := uuid.Parse(ref); err != nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.images[ref]
	return ok
}

// Evict removes one entry. Unknown keys are ignored.
func (c *ImageCache) Evict(ref string) {
	c.mu.Lock()
	delete(c.images, ref)
	delete(c.formats, ref)
	c.mu.Unlock()
}

// Clear removes every cached image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.formats = make(map[string]string)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// ImageInfo describes a cached image.
type ImageInfo struct {
	// Ref is the path or handle the image was resolved from.
	Ref string `json:"ref"`

	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder name reported by image.Decode ("png", "jpeg",
	// "gif"), or the file extension when the image came from elsewhere.
	Format string `json:"format"`

	// Grayscale is true when the source is already single channel. Color
	// sources are reduced to luminance before edge detection.
	Grayscale bool `json:"grayscale"`
}

// Describe resolves ref and reports its dimensions and format.
func (c *ImageCache) Describe(ref string) (*ImageInfo, error) {
	img, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	format := c.formats[ref]
	c.mu.RUnlock()
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(ref)), ".")
	}

	gray := false
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		gray = true
	}

	b := img.Bounds()
	return &ImageInfo{
		Ref:       ref,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Format:    format,
		Grayscale: gray,
	}, nil
}
