package handlers

import (
	"github.com/example/keystore/services"
)

type Handler struct {
	KeyService *services.KeyService
	Messages   *Messages
}

func NewHandler(service *services.KeyService, messages *Messages) *Handler {
	return &Handler{
		KeyService: service,
		Messages:   messages,
	}
}
