package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func healthy() error { return nil }

func TestHealthCheckHandler(t *testing.T) {
	tests := []struct {
		name       string
		database   Checker
		broker     Checker
		wantStatus int
		wantState  string
	}{
		{"all healthy", healthy, healthy, http.StatusOK, "healthy"},
		{"database down", func() error { return errors.New("dial tcp") }, healthy, http.StatusServiceUnavailable, "unhealthy"},
		{"broker down", healthy, func() error { return errors.New("connection refused") }, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler("user-service", tt.database, tt.broker)
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

			if err := h.HealthCheckHandler(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.wantState {
				t.Errorf("status field = %q, want %q", resp.Status, tt.wantState)
			}
			if len(resp.Checks) != 2 {
				t.Errorf("checks = %v, want database and rabbitmq", resp.Checks)
			}
		})
	}
}

func TestReadinessIgnoresBroker(t *testing.T) {
	h := NewHealthHandler("user-service", healthy, func() error { return errors.New("down") })
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

	if err := h.ReadinessHandler(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestReadinessDatabaseDown(t *testing.T) {
	h := NewHealthHandler("user-service", func() error { return errors.New("down") }, healthy)
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

	if err := h.ReadinessHandler(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestLiveness(t *testing.T) {
	h := NewHealthHandler("user-service", nil, nil)
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/live", nil), rec)

	if err := h.LivenessHandler(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
