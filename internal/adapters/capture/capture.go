// Package capture prepares a photo for classification: decode, resize to
// the model's input width, check framing and re-encode as JPEG.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder for gallery uploads

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder for gallery uploads

	"github.com/okian/nativetree/internal/domain/model"
)

// Target dimensions. Width is what the model expects; height is the minimum
// a camera frame may have after resizing.
const (
	TargetWidth = 640
	MinHeight   = 480
	jpegQuality = 92

	// MaxPixels bounds the decoded input size.
	MaxPixels = 40_000_000
	// MaxAspect bounds the ratio of the longer side to the shorter one.
	MaxAspect = 8
)

// AlignmentMessage is shown to the user when a camera frame is rejected.
const AlignmentMessage = "Please align the camera properly to capture a clear image."

var (
	// ErrMisaligned rejects a camera frame that is too short once resized.
	ErrMisaligned = fmt.Errorf("capture misaligned: %w", model.ErrValidationRejection)
	// ErrDecode reports bytes that are not a supported image.
	ErrDecode = errors.New("capture: unsupported or corrupt image")
)

// Source distinguishes a live camera frame from a gallery upload. Only
// camera frames are checked for alignment.
type Source int

const (
	SourceCamera Source = iota
	SourceUpload
)

// Frame is a prepared image.
type Frame struct {
	JPEG   []byte
	Width  int
	Height int
	// Format is the decoder that read the input, e.g. "jpeg" or "png".
	Format string
}

// Prepare decodes data, scales it to TargetWidth keeping the aspect ratio
// and encodes it as JPEG. Inputs over MaxPixels or beyond MaxAspect are
// rejected with ErrDecode before the pixels are decoded.
func Prepare(data []byte, src Source) (Frame, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if err := checkSize(cfg.Width, cfg.Height); err != nil {
		return Frame{}, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return Frame{}, fmt.Errorf("%w: empty image", ErrDecode)
	}

	w, h := scaledSize(b.Dx(), b.Dy())
	if src == SourceCamera && (w < TargetWidth || h < MinHeight) {
		return Frame{}, ErrMisaligned
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Frame{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return Frame{JPEG: buf.Bytes(), Width: w, Height: h, Format: format}, nil
}

func checkSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: empty image", ErrDecode)
	}
	if int64(w)*int64(h) > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, w, h, MaxPixels)
	}
	if w > h*MaxAspect || h > w*MaxAspect {
		return fmt.Errorf("%w: %dx%d aspect ratio exceeds %d:1", ErrDecode, w, h, MaxAspect)
	}
	return nil
}

func scaledSize(w, h int) (int, int) {
	nh := (h*TargetWidth + w/2) / w
	nh = max(1, min(nh, TargetWidth*MaxAspect))
	return TargetWidth, nh
}
