// Package pipeline orchestrates the biometric workflows: enrollment
// (photo -> embedding -> store) and verification/identification
// (photo -> embedding -> compare). Each invocation is a synchronous,
// single-pass pipeline; a failure at any stage short-circuits with a
// typed outcome the caller can match on.
package pipeline

import (
	"context"
	"errors"
	"image"

	"github.com/jsvoboda/facegate/internal/face"
)

// ErrMissingField is returned when a required request field is empty.
// The wrapped message names the field.
var ErrMissingField = errors.New("missing required field")

// Locator finds the primary face region in a normalized pixel grid.
// face.ErrNoFace signals the expected zero-detections outcome.
type Locator interface {
	Locate(ctx context.Context, grid *image.RGBA) (*face.Region, error)
}

// Extractor maps a face region to a fixed-length embedding.
type Extractor interface {
	Extract(ctx context.Context, region *face.Region) ([]float32, error)
}
