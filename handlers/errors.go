package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/example/keystore/services"
	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every error as {success:false, message}. Request
// errors keep their status, out-of-range hours or expiries are 400s, and
// anything else is a 500 carrying the error text.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()

	var reqErr *RequestError
	var httpErr *echo.HTTPError
	switch {
	case errors.Is(err, services.ErrExpiryOutOfRange), errors.Is(err, services.ErrHoursOutOfRange):
		code = http.StatusBadRequest
	case errors.As(err, &reqErr):
		code = reqErr.Status
		msg = reqErr.Message
	case errors.As(err, &httpErr):
		code = httpErr.Code
		msg = fmt.Sprint(httpErr.Message)
	}

	if code >= http.StatusInternalServerError {
		log.Printf("ERROR: %s %s: %v", c.Request().Method, c.Request().RequestURI, err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, failureResponse{Message: msg})
	}
	if err != nil {
		log.Printf("Failed to write error response: %v", err)
	}
}
