package handlers

import (
	"log"

	"github.com/example/keystore/middleware"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// NewServer wires middleware and routes. All key actions share {prefix}/keys.
func NewServer(h *Handler, prefix string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator: func() string { return uuid.Must(uuid.NewV7()).String() },
	}))
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			log.Printf("REQUEST: method=%s uri=%s status=%v id=%s", v.Method, v.URI, v.Status, v.RequestID)
			return nil
		},
	}))
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.NewCORSMiddleware("*").Middleware)

	e.GET("/healthz", h.Healthz)

	api := e.Group(prefix)
	api.Any("/keys", h.Keys)

	return e
}
