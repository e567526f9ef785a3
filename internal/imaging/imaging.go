// Package imaging decodes uploaded photos into the canonical pixel
// representation the rest of the pipeline operates on: an RGBA grid in
// top-left origin coordinates. All format handling lives here; callers
// never see encoded bytes again after Normalize.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when input bytes do not parse as a supported
// image format. This is a client error, never retried.
var ErrDecode = errors.New("unsupported or corrupted image data")

// maxDetectSize bounds the longer edge of images sent to the detector.
// Phone uploads are routinely 4000px+; the detector gains nothing from
// them and the resize keeps request latency predictable.
const maxDetectSize = 1600

// Normalize decodes an encoded image (JPEG, PNG, GIF, BMP or WebP)
// into an RGBA pixel grid. Images larger than maxDetectSize on their
// longer edge are scaled down, preserving aspect ratio.
func Normalize(data []byte) (*image.RGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}

	newWidth, newHeight := fitWithin(width, height, maxDetectSize)
	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst, nil
}

// fitWithin computes dimensions scaled to fit maxSize on the longer
// edge. Dimensions already within the limit are returned unchanged.
func fitWithin(width, height, maxSize int) (int, int) {
	if width <= maxSize && height <= maxSize {
		return width, height
	}
	if width > height {
		return maxSize, max(int(float64(height)*float64(maxSize)/float64(width)), 1)
	}
	return max(int(float64(width)*float64(maxSize)/float64(height)), 1), maxSize
}

// Crop extracts the region of grid described by bbox [x1, y1, x2, y2]
// in pixel coordinates, expanded by padding (fraction of the box size)
// on every side. Coordinates are clamped to the grid bounds, so a bbox
// partially outside the image still yields a valid crop.
func Crop(grid *image.RGBA, bbox []float64, padding float64) (*image.RGBA, error) {
	if len(bbox) != 4 {
		return nil, fmt.Errorf("bbox must have 4 elements, got %d", len(bbox))
	}

	bounds := grid.Bounds()
	padX := (bbox[2] - bbox[0]) * padding
	padY := (bbox[3] - bbox[1]) * padding

	x1 := clamp(int(bbox[0]-padX), bounds.Min.X, bounds.Max.X)
	y1 := clamp(int(bbox[1]-padY), bounds.Min.Y, bounds.Max.Y)
	x2 := clamp(int(bbox[2]+padX), bounds.Min.X, bounds.Max.X)
	y2 := clamp(int(bbox[3]+padY), bounds.Min.Y, bounds.Max.Y)

	if x2 <= x1 || y2 <= y1 {
		return nil, fmt.Errorf("bbox [%v] is outside image bounds %v", bbox, bounds)
	}

	dst := image.NewRGBA(image.Rect(0, 0, x2-x1, y2-y1))
	draw.Draw(dst, dst.Bounds(), grid, image.Pt(x1, y1), draw.Src)
	return dst, nil
}

// EncodeJPEG encodes a pixel grid as JPEG for transport to the model
// server. Quality 90 keeps fine facial detail without large payloads.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
