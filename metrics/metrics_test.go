package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/users/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	})

	req := httptest.NewRequest(http.MethodGet, "/users/9999", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	count := testutil.CollectAndCount(httpRequestDuration, "user_service_http_request_duration_seconds")
	if count == 0 {
		t.Fatal("expected at least one histogram series")
	}

	expected := `user_service_http_request_duration_seconds_count{method="GET",path="/users/:id",status="404"} 1`
	body := scrape(t, e)
	if !strings.Contains(body, expected) {
		t.Errorf("expected scrape to contain %q", expected)
	}
}

func TestEventsPublishedCounter(t *testing.T) {
	before := testutil.ToFloat64(EventsPublished.WithLabelValues("CREATED", "ok"))
	EventsPublished.WithLabelValues("CREATED", "ok").Inc()
	after := testutil.ToFloat64(EventsPublished.WithLabelValues("CREATED", "ok"))

	if after-before != 1 {
		t.Errorf("expected counter to increase by 1, got %v", after-before)
	}
}

func scrape(t *testing.T, e *echo.Echo) string {
	t.Helper()
	e.GET("/metrics", Handler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics endpoint returned %d", rec.Code)
	}
	return rec.Body.String()
}
