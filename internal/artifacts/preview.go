package artifacts

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxSourcePixels rejects images whose decoded size would exhaust memory.
const maxSourcePixels = 64 << 20

var (
	// ErrUnsupportedFormat is returned for input that is not a decodable image.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrImageTooLarge is returned for images above maxSourcePixels.
	ErrImageTooLarge = errors.New("image dimensions too large for preview")
)

// PreviewGenerator renders PNG thumbnails that fit within MaxDim x MaxDim.
type PreviewGenerator struct {
	MaxDim int
}

func NewPreviewGenerator(maxDim int) *PreviewGenerator {
	return &PreviewGenerator{MaxDim: maxDim}
}

// Generate decodes an image from r and writes a PNG thumbnail to w.
// Aspect ratio is preserved and images are never upscaled. Returns the thumbnail size.
func (g *PreviewGenerator) Generate(r io.Reader, w io.Writer) (image.Point, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return image.Point{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Point{}, fmt.Errorf("%w: empty image", ErrUnsupportedFormat)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxSourcePixels {
		return image.Point{}, ErrImageTooLarge
	}

	src, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return image.Point{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	size := FitWithin(src.Bounds().Size(), g.MaxDim)
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	if err := png.Encode(w, dst); err != nil {
		return image.Point{}, fmt.Errorf("failed to encode preview: %w", err)
	}
	return size, nil
}

// FitWithin scales size down to fit a maxDim square, keeping the aspect ratio.
// Sizes already within bounds are returned unchanged.
func FitWithin(size image.Point, maxDim int) image.Point {
	if maxDim <= 0 || (size.X <= maxDim && size.Y <= maxDim) {
		return size
	}
	if size.X >= size.Y {
		h := max(1, size.Y*maxDim/size.X)
		return image.Pt(maxDim, h)
	}
	w := max(1, size.X*maxDim/size.Y)
	return image.Pt(w, maxDim)
}
