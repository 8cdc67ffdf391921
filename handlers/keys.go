package handlers

import (
	"net/http"

	"github.com/example/keystore/models"
	"github.com/example/keystore/services"
	"github.com/labstack/echo/v4"
)

type failureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type createKeyResponse struct {
	Success   bool   `json:"success"`
	Key       string `json:"key"`
	ExpiresAt string `json:"expiresAt"`
}

type listKeysResponse struct {
	Success bool               `json:"success"`
	Keys    []models.KeyRecord `json:"keys"`
}

type verifyFailedResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type verifyOKResponse struct {
	Valid    bool    `json:"valid"`
	TimeLeft string  `json:"timeLeft"`
	IP       *string `json:"ip"`
	Note     *string `json:"note"`
}

// Keys is the single entry point for every key action. Store failures are
// returned to the error handler and become 500 responses.
func (h *Handler) Keys(c echo.Context) error {
	req, err := ParseRequest(c)
	if err != nil {
		return err
	}

	switch r := req.(type) {
	case CreateRequest:
		return h.createKey(c, r)
	case ListRequest:
		return h.listKeys(c)
	case VerifyRequest:
		return h.verifyKey(c, r)
	case ExtendRequest:
		return h.extendKey(c, r)
	case DeleteRequest:
		return h.deleteKey(c, r)
	}
	return c.JSON(http.StatusOK, failureResponse{Message: msgInvalidRequest})
}

func (h *Handler) createKey(c echo.Context, r CreateRequest) error {
	rec, err := h.KeyService.Create(c.Request().Context(), services.CreateParams{
		Hours: r.Hours,
		IP:    r.IP,
		Note:  r.Note,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, createKeyResponse{
		Success:   true,
		Key:       rec.Key,
		ExpiresAt: rec.ExpiresAt,
	})
}

func (h *Handler) listKeys(c echo.Context) error {
	keys, err := h.KeyService.List(c.Request().Context())
	if err != nil {
		return err
	}
	if keys == nil {
		keys = []models.KeyRecord{}
	}
	return c.JSON(http.StatusOK, listKeysResponse{Success: true, Keys: keys})
}

func (h *Handler) verifyKey(c echo.Context, r VerifyRequest) error {
	res, err := h.KeyService.Verify(c.Request().Context(), r.Key)
	if err != nil {
		return err
	}

	switch res.Status {
	case services.StatusNotFound:
		return c.JSON(http.StatusOK, verifyFailedResponse{Message: h.Messages.KeyNotFound()})
	case services.StatusExpired:
		return c.JSON(http.StatusOK, verifyFailedResponse{Message: h.Messages.KeyExpired()})
	}
	return c.JSON(http.StatusOK, verifyOKResponse{
		Valid:    true,
		TimeLeft: h.Messages.HoursLeft(res.HoursLeft),
		IP:       res.Record.IP,
		Note:     res.Record.Note,
	})
}

func (h *Handler) extendKey(c echo.Context, r ExtendRequest) error {
	found, err := h.KeyService.Extend(c.Request().Context(), r.Key, r.Hours)
	if err != nil {
		return err
	}
	if !found {
		return c.JSON(http.StatusOK, failureResponse{Message: h.Messages.KeyNotFound()})
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

func (h *Handler) deleteKey(c echo.Context, r DeleteRequest) error {
	if _, err := h.KeyService.Delete(c.Request().Context(), r.Key); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
