package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/keystore/services"
	"github.com/labstack/echo/v4"
)

// Request is one of CreateRequest, ListRequest, VerifyRequest, ExtendRequest,
// DeleteRequest or UnknownRequest.
type Request interface {
	isRequest()
}

type CreateRequest struct {
	Hours float64
	IP    string
	Note  string
}

type ListRequest struct{}

type VerifyRequest struct {
	Key string
}

type ExtendRequest struct {
	Key   string
	Hours float64
}

type DeleteRequest struct {
	Key string
}

// UnknownRequest is a well-formed request that selects no action.
type UnknownRequest struct{}

func (CreateRequest) isRequest() {}
func (ListRequest) isRequest() {}
func (VerifyRequest) isRequest() {}
func (ExtendRequest) isRequest() {}
func (DeleteRequest) isRequest() {}
func (UnknownRequest) isRequest() {}

// RequestError is a malformed request, answered with a 4xx status.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string { return e.Message }

func badRequest(format string, args ...any) *RequestError {
	return &RequestError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Hours accepts a JSON number or a numeric string.
type Hours float64

func (h *Hours) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*h = Hours(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("expected a number, got %s", b)
	}
	return h.UnmarshalParam(s)
}

// UnmarshalParam lets echo bind Hours from form values.
func (h *Hours) UnmarshalParam(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("expected a number, got %q", s)
	}
	*h = Hours(f)
	return nil
}

type createBody struct {
	Action   string `json:"action" form:"action"`
	Duration *Hours `json:"duration" form:"duration"`
	IP       string `json:"ip" form:"ip"`
	Note     string `json:"note" form:"note"`
}

type extendBody struct {
	Key   string `json:"key" form:"key"`
	Hours *Hours `json:"hours" form:"hours"`
}

type deleteBody struct {
	Key string `json:"key" form:"key"`
}

// ParseRequest selects the action from the method plus the query or body
// and validates its fields.
func ParseRequest(c echo.Context) (Request, error) {
	switch c.Request().Method {
	case http.MethodGet:
		switch c.QueryParam("action") {
		case "list":
			return ListRequest{}, nil
		case "verify":
			key := c.QueryParam("key")
			if key == "" {
				return nil, badRequest("key is required")
			}
			return VerifyRequest{Key: key}, nil
		}
		return UnknownRequest{}, nil

	case http.MethodPost:
		var body createBody
		if err := bindBody(c, &body); err != nil {
			return nil, err
		}
		if body.Action != "create" {
			return UnknownRequest{}, nil
		}
		hours, err := requireHours("duration", body.Duration)
		if err != nil {
			return nil, err
		}
		return CreateRequest{Hours: hours, IP: body.IP, Note: body.Note}, nil

	case http.MethodPut:
		var body extendBody
		if err := bindBody(c, &body); err != nil {
			return nil, err
		}
		if body.Key == "" {
			return nil, badRequest("key is required")
		}
		hours, err := requireHours("hours", body.Hours)
		if err != nil {
			return nil, err
		}
		return ExtendRequest{Key: body.Key, Hours: hours}, nil

	case http.MethodDelete:
		var body deleteBody
		if err := bindBody(c, &body); err != nil {
			return nil, err
		}
		if body.Key == "" {
			return nil, badRequest("key is required")
		}
		return DeleteRequest{Key: body.Key}, nil
	}
	return UnknownRequest{}, nil
}

func bindBody(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return &RequestError{Status: he.Code, Message: fmt.Sprint(he.Message)}
		}
		return badRequest("%v", err)
	}
	return nil
}

func requireHours(field string, h *Hours) (float64, error) {
	if h == nil {
		return 0, badRequest("%s is required", field)
	}
	if _, err := services.HoursDuration(float64(*h)); err != nil {
		return 0, badRequest("%s: %v", field, err)
	}
	return float64(*h), nil
}
