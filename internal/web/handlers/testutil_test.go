package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/jsvoboda/facegate/internal/config"
	"github.com/jsvoboda/facegate/internal/database"
	"github.com/jsvoboda/facegate/internal/database/mock"
	"github.com/jsvoboda/facegate/internal/face"
	"github.com/jsvoboda/facegate/internal/match"
	"github.com/jsvoboda/facegate/internal/pipeline"
)

const (
	testModel = "facenet512"
	testDim   = 4
)

// stubLocator satisfies pipeline.Locator with a canned region.
type stubLocator struct {
	err error
}

func (s *stubLocator) Locate(ctx context.Context, grid *image.RGBA) (*face.Region, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &face.Region{
		BBox:   []float64{0, 0, 10, 10},
		Score:  0.9,
		Pixels: image.NewRGBA(image.Rect(0, 0, 10, 10)),
	}, nil
}

// stubExtractor satisfies pipeline.Extractor with a canned embedding.
type stubExtractor struct {
	embedding []float32
	err       error
}

func (s *stubExtractor) Extract(ctx context.Context, region *face.Region) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.embedding, nil
}

// testPhoto returns valid JPEG bytes.
func testPhoto(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 32, 32)), nil); err != nil {
		t.Fatalf("failed to encode test photo: %v", err)
	}
	return buf.Bytes()
}

// multipartRequest builds a multipart POST with form fields and an
// optional photo part.
func multipartRequest(t *testing.T, path string, fields map[string]string, photo []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field %s: %v", key, err)
		}
	}
	if photo != nil {
		part, err := writer.CreateFormFile(photoField, "photo.jpg")
		if err != nil {
			t.Fatalf("failed to create photo part: %v", err)
		}
		if _, err := part.Write(photo); err != nil {
			t.Fatalf("failed to write photo part: %v", err)
		}
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Calibration: config.Calibration{
			Model:           testModel,
			Dim:             testDim,
			Metric:          "cosine",
			VerifyThreshold: 0.30,
		},
	}
}

func newEnroller(repo *mock.PersonRepository, embedding []float32) *pipeline.Enroller {
	return pipeline.NewEnroller(&stubLocator{}, &stubExtractor{embedding: embedding}, repo, testModel, testDim)
}

func newVerifier(repo *mock.PersonRepository, embedding []float32) *pipeline.Verifier {
	return pipeline.NewVerifier(&stubLocator{}, &stubExtractor{embedding: embedding}, repo, match.NewComparator(0.30))
}

// enrollFixture inserts a record directly into the mock store.
func enrollFixture(t *testing.T, repo *mock.PersonRepository, name, documentID string, embedding []float32) {
	t.Helper()
	_, err := repo.Insert(context.Background(), &database.PersonRecord{
		UID:        "fixture-" + documentID,
		Name:       name,
		DocumentID: documentID,
		Embedding:  embedding,
		Model:      testModel,
		Dim:        len(embedding),
	})
	if err != nil {
		t.Fatalf("fixture insert failed: %v", err)
	}
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}
