package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

type fakePinger struct{ err error }

func (p *fakePinger) Ping(ctx context.Context) error { return p.err }

func TestHealthCheck_DatabaseUp(t *testing.T) {
	h := &Handler{db: &fakePinger{}, logger: zerolog.Nop()}

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", body["status"])
	}
	if body["database"] != "up" {
		t.Errorf("database field = %v, want up", body["database"])
	}
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	h := &Handler{db: &fakePinger{err: errors.New("connection refused")}, logger: zerolog.Nop()}

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("status field = %v, want unhealthy", body["status"])
	}
	if body["database"] != "down" {
		t.Errorf("database field = %v, want down", body["database"])
	}
}
