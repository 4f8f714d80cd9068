package handlers

import (
	"repair-tracker/internal/service"
	"repair-tracker/internal/token"
)

type Handler struct {
	auth     *service.AuthService
	requests *service.RequestService
	reports  *service.ReportService
	tokens   *token.Manager
}

func New(auth *service.AuthService, requests *service.RequestService, reports *service.ReportService, tokens *token.Manager) *Handler {
	return &Handler{
		auth:     auth,
		requests: requests,
		reports:  reports,
		tokens:   tokens,
	}
}
