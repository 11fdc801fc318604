// Package imaging normalizes uploaded point photos before they are stored.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

var (
	// ErrUnsupportedFormat is returned for uploads that are not JPEG or PNG.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrTooManyPixels is returned for uploads whose declared size exceeds
	// Options.MaxPixels. The check runs on the header, before any decoding.
	ErrTooManyPixels = errors.New("image dimensions too large")
)

// Options controls how uploads are normalized.
type Options struct {
	// MaxDimension bounds both width and height of the stored photo.
	MaxDimension int
	// Quality is the JPEG encoder quality, 1-100.
	Quality int
	// MaxPixels bounds width*height of the upload as declared in its header.
	MaxPixels int
}

// DefaultMaxPixels is 40 megapixels, above any phone camera in use.
const DefaultMaxPixels = 40_000_000

// DefaultOptions fit a point photo shown as a card thumbnail and detail header.
var DefaultOptions = Options{MaxDimension: 1024, Quality: 85, MaxPixels: DefaultMaxPixels}

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a normalized upload, always JPEG.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Process sniffs the upload's real type, checks its declared size against
// opts.MaxPixels, downscales it to fit opts.MaxDimension and re-encodes it as
// JPEG.
func Process(r io.Reader, opts Options) (*Photo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, detected)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading image header: %w", err)
	}
	maxPixels := opts.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = fit(img, opts.MaxDimension)

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultOptions.Quality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &Photo{
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// fit scales img down with Catmull-Rom so neither side exceeds maxDim,
// keeping the aspect ratio. Smaller images are returned untouched.
func fit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
