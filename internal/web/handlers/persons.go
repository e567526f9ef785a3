package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jsvoboda/facegate/internal/database"
)

// defaultListLimit bounds unpaginated person listings.
const defaultListLimit = 100

// PersonsHandler serves read access to enrolled identities.
type PersonsHandler struct {
	store database.PersonReader
}

// NewPersonsHandler creates a new persons handler.
func NewPersonsHandler(store database.PersonReader) *PersonsHandler {
	return &PersonsHandler{store: store}
}

type personListResponse struct {
	Persons []personResponse `json:"persons"`
	Count   int              `json:"count"`
}

// List returns enrolled persons, newest first. The optional "name"
// query parameter filters by name, accent and case insensitive.
func (h *PersonsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	persons, err := h.store.List(r.Context(), r.URL.Query().Get("name"), limit)
	if err != nil {
		respondWorkflowError(w, "list persons", err)
		return
	}

	resp := personListResponse{Persons: make([]personResponse, 0, len(persons))}
	for i := range persons {
		resp.Persons = append(resp.Persons, toPersonResponse(&persons[i]))
	}
	resp.Count = len(resp.Persons)
	respondJSON(w, http.StatusOK, resp)
}

// Get returns the identity enrolled under a document identifier.
func (h *PersonsHandler) Get(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	person, err := h.store.FindByDocumentID(r.Context(), documentID)
	if err != nil {
		respondWorkflowError(w, "get person", err)
		return
	}
	respondJSON(w, http.StatusOK, toPersonResponse(person))
}
