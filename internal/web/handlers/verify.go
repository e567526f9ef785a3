package handlers

import (
	"net/http"

	"github.com/jsvoboda/facegate/internal/pipeline"
)

// VerifyHandler handles 1:1 verification requests.
type VerifyHandler struct {
	verifier *pipeline.Verifier
}

// NewVerifyHandler creates a new verification handler.
func NewVerifyHandler(verifier *pipeline.Verifier) *VerifyHandler {
	return &VerifyHandler{verifier: verifier}
}

type verifyResponse struct {
	Verified bool           `json:"verified"`
	Score    float64        `json:"score"`
	Distance float64        `json:"distance"`
	Person   personResponse `json:"person"`
}

// Verify compares a live photo against the identity enrolled under
// "document_id". A response with verified=false is still a 200: the
// comparison completed, the faces just do not match.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	documentID := r.FormValue("document_id")

	photo, err := readPhoto(r)
	if err != nil {
		respondWorkflowError(w, "verify", err)
		return
	}

	result, err := h.verifier.Verify(r.Context(), documentID, photo)
	if err != nil {
		respondWorkflowError(w, "verify", err)
		return
	}

	respondJSON(w, http.StatusOK, verifyResponse{
		Verified: result.Verified,
		Score:    result.Score,
		Distance: result.Distance,
		Person:   toPersonResponse(result.Person),
	})
}
