package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/jsvoboda/facegate/internal/database"
	"github.com/jsvoboda/facegate/internal/face"
	"github.com/jsvoboda/facegate/internal/imaging"
	"github.com/jsvoboda/facegate/internal/pipeline"
)

// MaxUploadSize limits photo uploads to 10 MiB.
const MaxUploadSize = 10 << 20

// photoField is the multipart form field carrying the photo bytes.
const photoField = "photo"

// errPhotoTooLarge is returned when an uploaded photo exceeds MaxUploadSize.
var errPhotoTooLarge = fmt.Errorf("photo exceeds %d bytes", int64(MaxUploadSize))

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps workflow outcomes to HTTP status codes. Anything
// unrecognized is an infrastructure failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrMissingField),
		errors.Is(err, imaging.ErrDecode),
		errors.Is(err, face.ErrNoFace):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrDuplicateDocumentID):
		return http.StatusConflict
	case errors.Is(err, database.ErrDimensionMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errPhotoTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// respondWorkflowError translates a pipeline error into a JSON error
// response. Infrastructure failures are logged and their details kept
// out of the response body.
func respondWorkflowError(w http.ResponseWriter, op string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s failed: %v", op, err)
		respondError(w, status, "internal error")
		return
	}
	respondError(w, status, err.Error())
}

// readPhoto extracts the photo bytes from a multipart request. The
// form must already be parsed.
func readPhoto(r *http.Request) ([]byte, error) {
	file, header, err := r.FormFile(photoField)
	if err != nil {
		return nil, fmt.Errorf("%w: photo", pipeline.ErrMissingField)
	}
	defer file.Close()

	if header.Size > MaxUploadSize {
		return nil, errPhotoTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if int64(len(data)) > MaxUploadSize {
		return nil, errPhotoTooLarge
	}
	return data, nil
}

// personResponse is the wire shape of an enrolled identity. The raw
// embedding never leaves the service.
type personResponse struct {
	UID        string    `json:"uid"`
	Name       string    `json:"name"`
	DocumentID string    `json:"document_id"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
}

func toPersonResponse(p *database.PersonRecord) personResponse {
	return personResponse{
		UID:        p.UID,
		Name:       p.Name,
		DocumentID: p.DocumentID,
		Model:      p.Model,
		CreatedAt:  p.CreatedAt,
	}
}
