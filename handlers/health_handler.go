package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Checks    map[string]HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checker probes one dependency; nil means healthy.
type Checker func() error

type HealthHandler struct {
	service  string
	database Checker
	broker   Checker
}

// NewHealthHandler wires the database and broker probes. Readiness only
// depends on the database; the broker is reported but events are best-effort.
func NewHealthHandler(service string, database, broker Checker) *HealthHandler {
	return &HealthHandler{service: service, database: database, broker: broker}
}

// HealthCheckHandler returns the health status of the service
func (h *HealthHandler) HealthCheckHandler(c echo.Context) error {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.service,
		Checks:    make(map[string]HealthCheck),
	}

	for name, check := range map[string]Checker{"database": h.database, "rabbitmq": h.broker} {
		if check == nil {
			continue
		}
		if err := check(); err != nil {
			response.Checks[name] = HealthCheck{Status: "unhealthy", Message: err.Error()}
			response.Status = "unhealthy"
			continue
		}
		response.Checks[name] = HealthCheck{Status: "healthy"}
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	return c.JSON(statusCode, response)
}

// ReadinessHandler checks if the service is ready to accept traffic
func (h *HealthHandler) ReadinessHandler(c echo.Context) error {
	if h.database != nil {
		if err := h.database(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"ready":   false,
				"message": "Database not ready",
			})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"ready": true})
}

// LivenessHandler checks if the service is alive
func (h *HealthHandler) LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"alive": true})
}
