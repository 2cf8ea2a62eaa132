package images

import (
	"fmt"
	"image"
	"os"

	// Register decoders for every supported input format.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
)

// DefaultQuality is the WebP encoding quality used when none is configured.
const DefaultQuality = 80

// Converter turns a source image file into an output file in the target
// format. It is the codec boundary of the pipeline: callers only hand over
// paths and never touch pixel data.
type Converter interface {
	Convert(sourcePath, destinationPath string) error
}

// WebPConverter decodes a source image and re-encodes it as WebP.
// A positive MaxWidth downscales wider images, preserving aspect ratio.
type WebPConverter struct {
	Quality  float32
	MaxWidth int
}

// NewWebPConverter returns a converter with the given quality, falling back
// to DefaultQuality for non-positive values.
func NewWebPConverter(quality int, maxWidth int) *WebPConverter {
	if quality <= 0 {
		quality = DefaultQuality
	}
	return &WebPConverter{Quality: float32(quality), MaxWidth: maxWidth}
}

// Convert decodes sourcePath and writes it as WebP to destinationPath.
func (c *WebPConverter) Convert(sourcePath, destinationPath string) error {
	src, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("images: open %s: %w", sourcePath, err)
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return fmt.Errorf("images: decode %s: %w", sourcePath, err)
	}

	if c.MaxWidth > 0 {
		img = downscale(img, c.MaxWidth)
	}

	dst, err := os.Create(destinationPath)
	if err != nil {
		return fmt.Errorf("images: create %s: %w", destinationPath, err)
	}
	if err := webp.Encode(dst, img, &webp.Options{Quality: c.Quality}); err != nil {
		dst.Close()
		return fmt.Errorf("images: encode %s: %w", destinationPath, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("images: close %s: %w", destinationPath, err)
	}
	return nil
}

// downscale resizes img to maxWidth when it is wider, keeping aspect ratio.
func downscale(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxWidth {
		return img
	}
	newH := h * maxWidth / w
	resized := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}
