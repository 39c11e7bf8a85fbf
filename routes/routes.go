package routes

import (
	"github.com/labstack/echo/v4"

	"user-service/handlers"
	"user-service/metrics"
)

func RegisterRoutes(e *echo.Echo, users *handlers.UserHandler, health *handlers.HealthHandler) {
	e.GET("/health", health.HealthCheckHandler)
	e.GET("/health/live", health.LivenessHandler)
	e.GET("/health/ready", health.ReadinessHandler)
	e.GET("/metrics", metrics.Handler())

	e.GET("/users", users.GetUsers)
	e.GET("/users/:id", users.GetUserByID)
	e.POST("/users", users.CreateUser)
	e.PATCH("/users/:id", users.UpdateUser)
	e.DELETE("/users/:id", users.DeleteUser)
}
