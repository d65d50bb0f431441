package media

import (
	"fmt"
	"image"
	"os"

	// Decoders for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageInfo holds the header information of an image file.
type ImageInfo struct {
	Width  int
	Height int
	Format string
}

// ProbeImage reads the dimensions and format of an image without decoding
// its pixels. Supported formats: png, jpeg, gif, bmp, tiff, webp.
func ProbeImage(path string) (ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return ImageInfo{}, fmt.Errorf("decoding image header: %w", err)
	}
	return ImageInfo{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}
