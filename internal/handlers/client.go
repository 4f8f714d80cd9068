package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListStatuses(c *gin.Context) {
	statuses, err := h.requests.Statuses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, statuses)
}

func (h *Handler) ListEquipmentTypes(c *gin.Context) {
	types, err := h.requests.EquipmentTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, types)
}

// Клиенты и мастера видны только персоналу (администратор, менеджер, оператор).
func (h *Handler) ListClients(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	clients, err := h.requests.Clients(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, clients)
}

func (h *Handler) ListMasters(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	masters, err := h.requests.Masters(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, masters)
}
