package handlers

import (
	"net/http"

	"github.com/jsvoboda/facegate/internal/pipeline"
)

// EnrollHandler handles identity registration.
type EnrollHandler struct {
	enroller *pipeline.Enroller
}

// NewEnrollHandler creates a new enrollment handler.
func NewEnrollHandler(enroller *pipeline.Enroller) *EnrollHandler {
	return &EnrollHandler{enroller: enroller}
}

// Enroll registers a person from a multipart form with "name",
// "document_id" and "photo" fields. Responds 201 with the created
// record, 400 for bad input or an unusable photo, 409 when the
// document identifier is already enrolled.
func (h *EnrollHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	name := r.FormValue("name")
	documentID := r.FormValue("document_id")

	photo, err := readPhoto(r)
	if err != nil {
		respondWorkflowError(w, "enroll", err)
		return
	}

	record, err := h.enroller.Enroll(r.Context(), name, documentID, photo)
	if err != nil {
		respondWorkflowError(w, "enroll", err)
		return
	}

	respondJSON(w, http.StatusCreated, toPersonResponse(record))
}
