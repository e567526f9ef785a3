package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/jsvoboda/facegate/internal/database"
	"github.com/jsvoboda/facegate/internal/database/mock"
	"github.com/jsvoboda/facegate/internal/face"
	"github.com/jsvoboda/facegate/internal/imaging"
	"github.com/jsvoboda/facegate/internal/match"
)

const (
	testModel = "facenet512"
	testDim   = 4
)

// stubLocator returns a fixed region or error and counts invocations.
type stubLocator struct {
	err   error
	calls int
}

func (s *stubLocator) Locate(ctx context.Context, grid *image.RGBA) (*face.Region, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &face.Region{
		BBox:   []float64{0, 0, 10, 10},
		Score:  0.9,
		Pixels: image.NewRGBA(image.Rect(0, 0, 10, 10)),
	}, nil
}

// stubExtractor returns a fixed embedding or error and counts invocations.
type stubExtractor struct {
	embedding []float32
	err       error
	calls     int
}

func (s *stubExtractor) Extract(ctx context.Context, region *face.Region) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.embedding, nil
}

// testPhoto returns valid JPEG bytes.
func testPhoto(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := range 40 {
		for x := range 40 {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test photo: %v", err)
	}
	return buf.Bytes()
}

func newTestEnroller(repo *mock.PersonRepository, locator Locator, extractor Extractor) *Enroller {
	return NewEnroller(locator, extractor, repo, testModel, testDim)
}

func TestEnroll_Success(t *testing.T) {
	repo := mock.NewPersonRepository()
	extractor := &stubExtractor{embedding: []float32{1, 0, 0, 0}}
	enroller := newTestEnroller(repo, &stubLocator{}, extractor)

	record, err := enroller.Enroll(context.Background(), "Ana", "X1", testPhoto(t))
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}

	if record.UID == "" {
		t.Error("expected assigned UID")
	}
	if record.Model != testModel || record.Dim != testDim {
		t.Errorf("expected embedding space %s/%d, got %s/%d", testModel, testDim, record.Model, record.Dim)
	}

	stored, err := repo.FindByDocumentID(context.Background(), "X1")
	if err != nil {
		t.Fatalf("expected stored record: %v", err)
	}
	if stored.Name != "Ana" {
		t.Errorf("expected stored name 'Ana', got '%s'", stored.Name)
	}
}

func TestEnroll_MissingFields(t *testing.T) {
	repo := mock.NewPersonRepository()
	enroller := newTestEnroller(repo, &stubLocator{}, &stubExtractor{embedding: []float32{1, 0, 0, 0}})

	tests := []struct {
		name       string
		personName string
		documentID string
		photo      []byte
	}{
		{"empty name", "", "X1", testPhoto(t)},
		{"empty document id", "Ana", "", testPhoto(t)},
		{"empty photo", "Ana", "X1", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := enroller.Enroll(context.Background(), tc.personName, tc.documentID, tc.photo)
			if !errors.Is(err, ErrMissingField) {
				t.Errorf("expected ErrMissingField, got %v", err)
			}
		})
	}

	if count, _ := repo.Count(context.Background()); count != 0 {
		t.Errorf("no record may be written for invalid input, got %d", count)
	}
}

func TestEnroll_MalformedPhoto(t *testing.T) {
	repo := mock.NewPersonRepository()
	enroller := newTestEnroller(repo, &stubLocator{}, &stubExtractor{embedding: []float32{1, 0, 0, 0}})

	_, err := enroller.Enroll(context.Background(), "Ana", "X1", []byte("not an image"))
	if !errors.Is(err, imaging.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
	if count, _ := repo.Count(context.Background()); count != 0 {
		t.Error("no record may be written for an undecodable photo")
	}
}

func TestEnroll_NoFaceWritesNothing(t *testing.T) {
	repo := mock.NewPersonRepository()
	extractor := &stubExtractor{embedding: []float32{1, 0, 0, 0}}
	enroller := newTestEnroller(repo, &stubLocator{err: face.ErrNoFace}, extractor)

	_, err := enroller.Enroll(context.Background(), "Ana", "X1", testPhoto(t))
	if !errors.Is(err, face.ErrNoFace) {
		t.Errorf("expected ErrNoFace, got %v", err)
	}
	if extractor.calls != 0 {
		t.Error("extraction must not run when no face was located")
	}
	if count, _ := repo.Count(context.Background()); count != 0 {
		t.Error("no record may be written when no face was located")
	}
}

func TestEnroll_Duplicate(t *testing.T) {
	repo := mock.NewPersonRepository()
	enroller := newTestEnroller(repo, &stubLocator{}, &stubExtractor{embedding: []float32{1, 0, 0, 0}})

	if _, err := enroller.Enroll(context.Background(), "Ana", "X1", testPhoto(t)); err != nil {
		t.Fatalf("first enrollment failed: %v", err)
	}
	_, err := enroller.Enroll(context.Background(), "Ana Again", "X1", testPhoto(t))
	if !errors.Is(err, database.ErrDuplicateDocumentID) {
		t.Errorf("expected ErrDuplicateDocumentID, got %v", err)
	}

	// The first record survives unchanged.
	stored, _ := repo.FindByDocumentID(context.Background(), "X1")
	if stored.Name != "Ana" {
		t.Errorf("expected original record to survive, got name '%s'", stored.Name)
	}
}

func TestEnroll_DimensionMismatchNotWritten(t *testing.T) {
	repo := mock.NewPersonRepository()
	enroller := newTestEnroller(repo, &stubLocator{}, &stubExtractor{embedding: []float32{1, 0}})

	_, err := enroller.Enroll(context.Background(), "Ana", "X1", testPhoto(t))
	if !errors.Is(err, database.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if count, _ := repo.Count(context.Background()); count != 0 {
		t.Error("mismatched embedding must never be written")
	}
}

func TestEnroll_OnEnrolledCallback(t *testing.T) {
	repo := mock.NewPersonRepository()
	enroller := newTestEnroller(repo, &stubLocator{}, &stubExtractor{embedding: []float32{1, 0, 0, 0}})

	var callbackRecord *database.PersonRecord
	enroller.OnEnrolled = func(r *database.PersonRecord) { callbackRecord = r }

	record, err := enroller.Enroll(context.Background(), "Ana", "X1", testPhoto(t))
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if callbackRecord == nil || callbackRecord.ID != record.ID {
		t.Error("expected OnEnrolled callback with the inserted record")
	}
}

func newTestVerifier(repo *mock.PersonRepository, locator Locator, extractor Extractor) *Verifier {
	return NewVerifier(locator, extractor, repo, match.NewComparator(0.30))
}

func enrollFixture(t *testing.T, repo *mock.PersonRepository, documentID string, embedding []float32) {
	t.Helper()
	_, err := repo.Insert(context.Background(), &database.PersonRecord{
		UID:        "fixture-" + documentID,
		Name:       "Ana",
		DocumentID: documentID,
		Embedding:  embedding,
		Model:      testModel,
		Dim:        len(embedding),
	})
	if err != nil {
		t.Fatalf("fixture insert failed: %v", err)
	}
}

func TestVerify_Match(t *testing.T) {
	repo := mock.NewPersonRepository()
	enrollFixture(t, repo, "X1", []float32{1, 0, 0, 0})

	verifier := newTestVerifier(repo, &stubLocator{}, &stubExtractor{embedding: []float32{1, 0, 0, 0}})
	result, err := verifier.Verify(context.Background(), "X1", testPhoto(t))
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if !result.Verified {
		t.Error("identical embeddings must verify")
	}
	if result.Score < 99.9 {
		t.Errorf("expected score ~100, got %f", result.Score)
	}
	if result.Person.Name != "Ana" {
		t.Errorf("expected matched name 'Ana', got '%s'", result.Person.Name)
	}
}

func TestVerify_Mismatch(t *testing.T) {
	repo := mock.NewPersonRepository()
	enrollFixture(t, repo, "X1", []float32{1, 0, 0, 0})

	// Orthogonal embedding: distance 1, far past the threshold.
	verifier := newTestVerifier(repo, &stubLocator{}, &stubExtractor{embedding: []float32{0, 1, 0, 0}})
	result, err := verifier.Verify(context.Background(), "X1", testPhoto(t))
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if result.Verified {
		t.Error("orthogonal embeddings must not verify")
	}
	if result.Score > 10 {
		t.Errorf("expected low score, got %f", result.Score)
	}
}

func TestVerify_NotFoundSkipsImageProcessing(t *testing.T) {
	repo := mock.NewPersonRepository()
	locator := &stubLocator{}
	extractor := &stubExtractor{embedding: []float32{1, 0, 0, 0}}
	verifier := newTestVerifier(repo, locator, extractor)

	_, err := verifier.Verify(context.Background(), "UNKNOWN", testPhoto(t))
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if locator.calls != 0 || extractor.calls != 0 {
		t.Error("unknown document id must not cost model calls")
	}
}

func TestVerify_NoFaceProducesNoVerdict(t *testing.T) {
	repo := mock.NewPersonRepository()
	enrollFixture(t, repo, "X1", []float32{1, 0, 0, 0})

	verifier := newTestVerifier(repo, &stubLocator{err: face.ErrNoFace}, &stubExtractor{})
	_, err := verifier.Verify(context.Background(), "X1", testPhoto(t))
	if !errors.Is(err, face.ErrNoFace) {
		t.Errorf("expected ErrNoFace, got %v", err)
	}
}

func TestVerify_StoredDimensionMismatch(t *testing.T) {
	repo := mock.NewPersonRepository()
	enrollFixture(t, repo, "X1", []float32{1, 0}) // 2-dim record in a 4-dim world

	verifier := newTestVerifier(repo, &stubLocator{}, &stubExtractor{embedding: []float32{1, 0, 0, 0}})
	_, err := verifier.Verify(context.Background(), "X1", testPhoto(t))
	if !errors.Is(err, database.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestIdentify_RanksByDistance(t *testing.T) {
	repo := mock.NewPersonRepository()
	enrollFixture(t, repo, "X1", []float32{1, 0, 0, 0})
	enrollFixture(t, repo, "X2", []float32{0, 1, 0, 0})

	identifier := NewIdentifier(&stubLocator{}, &stubExtractor{embedding: []float32{0.9, 0.1, 0, 0}}, repo, nil)
	candidates, err := identifier.Identify(context.Background(), testPhoto(t), 5)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Person.DocumentID != "X1" {
		t.Errorf("expected X1 as best candidate, got %s", candidates[0].Person.DocumentID)
	}
	if candidates[0].Score < candidates[1].Score {
		t.Error("candidate scores must decrease with distance")
	}
}

func TestIdentify_UsesIndexWhenAvailable(t *testing.T) {
	repo := mock.NewPersonRepository()
	enrollFixture(t, repo, "X1", []float32{1, 0, 0, 0})
	repo.FindNearestError = errors.New("store must not be hit")

	index := database.NewIdentifyIndex()
	all := []database.PersonRecord{{ID: 1, UID: "u1", Name: "Ana", DocumentID: "X1", Embedding: []float32{1, 0, 0, 0}}}
	if err := index.Build(all); err != nil {
		t.Fatalf("index build failed: %v", err)
	}

	identifier := NewIdentifier(&stubLocator{}, &stubExtractor{embedding: []float32{1, 0, 0, 0}}, repo, index)
	candidates, err := identifier.Identify(context.Background(), testPhoto(t), 3)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Person.DocumentID != "X1" {
		t.Errorf("expected index-served candidate X1, got %+v", candidates)
	}
}

func TestIdentify_NoFace(t *testing.T) {
	repo := mock.NewPersonRepository()
	identifier := NewIdentifier(&stubLocator{err: face.ErrNoFace}, &stubExtractor{}, repo, nil)

	_, err := identifier.Identify(context.Background(), testPhoto(t), 3)
	if !errors.Is(err, face.ErrNoFace) {
		t.Errorf("expected ErrNoFace, got %v", err)
	}
}
