package face

import (
	"context"
	"fmt"

	"github.com/jsvoboda/facegate/internal/imaging"
)

// Extractor maps a located face region to a fixed-length embedding.
// The model and dimension are pinned at construction; a server that
// starts answering with a different embedding space is an error, never
// a silently incompatible vector.
type Extractor struct {
	client *Client
	model  string
	dim    int
}

// NewExtractor creates an extractor for the configured embedding space.
func NewExtractor(client *Client, model string, dim int) *Extractor {
	return &Extractor{client: client, model: model, dim: dim}
}

// Model returns the embedding model name the extractor is pinned to.
func (e *Extractor) Model() string {
	return e.model
}

// Dim returns the embedding dimensionality the extractor is pinned to.
func (e *Extractor) Dim() int {
	return e.dim
}

// Extract computes the embedding for a face region. All failures wrap
// ErrExtraction; "no face" cannot occur here because the locator has
// already established the region contains one.
func (e *Extractor) Extract(ctx context.Context, region *Region) ([]float32, error) {
	encoded, err := imaging.EncodeJPEG(region.Pixels)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding region: %v", ErrExtraction, err)
	}

	embedding, model, dim, err := e.client.EmbedFace(ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	if model != "" && model != e.model {
		return nil, fmt.Errorf("%w: server uses model %q, configured for %q", ErrExtraction, model, e.model)
	}
	if dim != 0 && dim != e.dim {
		return nil, fmt.Errorf("%w: server reports dim %d, configured for %d", ErrExtraction, dim, e.dim)
	}
	if len(embedding) != e.dim {
		return nil, fmt.Errorf("%w: got %d values, expected %d", ErrExtraction, len(embedding), e.dim)
	}

	return embedding, nil
}
