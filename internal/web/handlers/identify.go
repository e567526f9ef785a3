package handlers

import (
	"net/http"
	"strconv"

	"github.com/jsvoboda/facegate/internal/pipeline"
)

// maxIdentifyLimit caps how many candidates one query may request.
const maxIdentifyLimit = 50

// IdentifyHandler handles 1:N identification requests.
type IdentifyHandler struct {
	identifier *pipeline.Identifier
}

// NewIdentifyHandler creates a new identification handler.
func NewIdentifyHandler(identifier *pipeline.Identifier) *IdentifyHandler {
	return &IdentifyHandler{identifier: identifier}
}

type candidateResponse struct {
	Person   personResponse `json:"person"`
	Distance float64        `json:"distance"`
	Score    float64        `json:"score"`
}

type identifyResponse struct {
	Candidates []candidateResponse `json:"candidates"`
	Count      int                 `json:"count"`
}

// Identify returns the enrolled identities closest to the face in the
// uploaded photo, best match first. An optional "limit" form field
// bounds the candidate count.
func (h *IdentifyHandler) Identify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	limit := 0
	if v := r.FormValue("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxIdentifyLimit)
	}

	photo, err := readPhoto(r)
	if err != nil {
		respondWorkflowError(w, "identify", err)
		return
	}

	candidates, err := h.identifier.Identify(r.Context(), photo, limit)
	if err != nil {
		respondWorkflowError(w, "identify", err)
		return
	}

	resp := identifyResponse{Candidates: make([]candidateResponse, 0, len(candidates))}
	for _, c := range candidates {
		resp.Candidates = append(resp.Candidates, candidateResponse{
			Person:   toPersonResponse(&c.Person),
			Distance: c.Distance,
			Score:    c.Score,
		})
	}
	resp.Count = len(resp.Candidates)
	respondJSON(w, http.StatusOK, resp)
}
