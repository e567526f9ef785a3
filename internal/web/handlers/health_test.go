package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jsvoboda/facegate/internal/database/mock"
)

func TestHealthHandler_OK(t *testing.T) {
	repo := mock.NewPersonRepository()
	enrollFixture(t, repo, "Ana", "CZ-1", []float32{1, 0, 0, 0})
	handler := NewHealthHandler(testConfig(), repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var resp map[string]any
	parseJSONResponse(t, rec, &resp)
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %v", resp["status"])
	}
	if resp["model"] != testModel {
		t.Errorf("expected model %s, got %v", testModel, resp["model"])
	}
	if resp["enrolled"] != float64(1) {
		t.Errorf("expected 1 enrolled, got %v", resp["enrolled"])
	}
}

func TestHealthHandler_StoreDown(t *testing.T) {
	repo := mock.NewPersonRepository()
	repo.CountError = errors.New("connection refused")
	handler := NewHealthHandler(testConfig(), repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	assertStatusCode(t, rec, http.StatusServiceUnavailable)
}
