package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestHistory: журнал изменений заявки, от старых к новым.
func (h *Handler) RequestHistory(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	logs, err := h.requests.History(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, logs)
}
