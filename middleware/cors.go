package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = echo.HeaderContentType
)

// CORSMiddleware sets permissive CORS headers on every response and answers
// every OPTIONS request with an empty 200.
type CORSMiddleware struct {
	AllowOrigin string
}

func NewCORSMiddleware(origin string) *CORSMiddleware {
	return &CORSMiddleware{
		AllowOrigin: origin,
	}
}

func (m *CORSMiddleware) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Response().Header()
		header.Set(echo.HeaderAccessControlAllowOrigin, m.AllowOrigin)
		header.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
		header.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)

		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusOK)
		}
		return next(c)
	}
}
