package photos

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// MaxPixels bounds the width*height an upload header may declare
const MaxPixels = 40_000_000

// ImageResizer implements Resizer with the imaging library
type ImageResizer struct{}

// NewResizer creates a new ImageResizer
func NewResizer() Resizer {
	return &ImageResizer{}
}

// Resize decodes data (JPEG, PNG, GIF, BMP, TIFF or WebP), applies EXIF
// orientation, scales it down to fit maxWidth x maxHeight keeping the aspect
// ratio, and returns PNG bytes.
func (r *ImageResizer) Resize(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrMissingPhoto
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, MaxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	var out image.Image = img
	bounds := img.Bounds()
	if bounds.Dx() > maxWidth || bounds.Dy() > maxHeight {
		out = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
