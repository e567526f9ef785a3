// Package face talks to the face model server and turns photos into
// embeddings. Detection and embedding are separate model calls so the
// pipeline can reject no-face photos before paying for extraction.
package face

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrNoFace is returned when the detector finds no face in an image.
// This is an expected business outcome, not a fault.
var ErrNoFace = errors.New("no face detected in image")

// ErrExtraction is returned when the embedding model fails or returns
// a vector incompatible with the configured embedding space.
var ErrExtraction = errors.New("face embedding extraction failed")

// Client computes face detections and embeddings using the model server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new face model client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// detectResponse represents the response from the detection endpoint.
type detectResponse struct {
	FacesCount int         `json:"faces_count"`
	Faces      []Detection `json:"faces"`
	Model      string      `json:"model"`
}

// embedResponse represents the response from the embedding endpoint.
type embedResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
	Model     string    `json:"model"`
}

// postMultipartImage constructs a multipart form with the image data
// and posts it to the given endpoint.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model server error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// DetectFaces runs face detection on an encoded image and returns all
// detections in the model's stable output order.
func (c *Client) DetectFaces(ctx context.Context, imageData []byte) ([]Detection, error) {
	body, err := c.postMultipartImage(ctx, "/detect/face", imageData)
	if err != nil {
		return nil, err
	}

	var detResp detectResponse
	if err := json.Unmarshal(body, &detResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return detResp.Faces, nil
}

// EmbedFace computes the embedding for a cropped face image. Returns
// the vector, the model name and the dimensionality the server reports.
func (c *Client) EmbedFace(ctx context.Context, faceData []byte) ([]float32, string, int, error) {
	body, err := c.postMultipartImage(ctx, "/embed/face", faceData)
	if err != nil {
		return nil, "", 0, err
	}

	var embResp embedResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, "", 0, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(embResp.Embedding) == 0 {
		return nil, "", 0, errors.New("empty embedding returned")
	}

	return embResp.Embedding, embResp.Model, embResp.Dim, nil
}
