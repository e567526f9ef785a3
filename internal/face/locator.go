package face

import (
	"context"
	"fmt"
	"image"

	"github.com/jsvoboda/facegate/internal/imaging"
)

// cropPadding expands the detector bbox by 10% on each side so the
// embedding model sees the full head, not a tight feature crop.
const cropPadding = 0.10

// Locator finds the primary face region in a normalized pixel grid.
type Locator struct {
	client      *Client
	minDetScore float64
}

// NewLocator creates a locator backed by the model server's detector.
// Detections scoring below minDetScore are discarded before selection.
func NewLocator(client *Client, minDetScore float64) *Locator {
	return &Locator{client: client, minDetScore: minDetScore}
}

// Locate runs face detection on the grid and selects the primary face.
//
// Selection policy: the detection with the largest bounding-box area
// wins; ties are broken by the lowest face index in the detector's
// stable output order. The policy is deterministic so the same
// multi-face photo always enrolls or verifies the same face.
//
// Returns ErrNoFace when no detection survives the confidence filter.
func (l *Locator) Locate(ctx context.Context, grid *image.RGBA) (*Region, error) {
	encoded, err := imaging.EncodeJPEG(grid)
	if err != nil {
		return nil, fmt.Errorf("encoding grid for detection: %w", err)
	}

	detections, err := l.client.DetectFaces(ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("face detection: %w", err)
	}

	primary := selectPrimary(detections, l.minDetScore)
	if primary == nil {
		return nil, ErrNoFace
	}

	pixels, err := imaging.Crop(grid, primary.BBox, cropPadding)
	if err != nil {
		return nil, fmt.Errorf("cropping face region: %w", err)
	}

	return &Region{
		BBox:   primary.BBox,
		Score:  primary.Score,
		Pixels: pixels,
	}, nil
}

// selectPrimary applies the largest-area selection policy. Returns nil
// when no detection passes the confidence filter.
func selectPrimary(detections []Detection, minScore float64) *Detection {
	var best *Detection
	var bestArea float64
	for i := range detections {
		d := &detections[i]
		if d.Score < minScore || len(d.BBox) != 4 {
			continue
		}
		area := d.Area()
		if area <= 0 {
			continue
		}
		// Strictly greater keeps the lowest index on ties.
		if best == nil || area > bestArea {
			best = d
			bestArea = area
		}
	}
	return best
}
