package handlers

import (
	"net/http"
	"strconv"

	"repair-tracker/internal/apperr"
	"repair-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// ListRequests: список заявок с учётом роли, ?status_id= фильтрует по статусу.
func (h *Handler) ListRequests(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var statusID uint
	if s := c.Query("status_id"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			respondError(c, apperr.Validation(apperr.ReasonNone, "invalid status_id"))
			return
		}
		statusID = uint(v)
	}

	list, err := h.requests.List(c.Request.Context(), p, statusID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}

func (h *Handler) CreateRequest(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var form service.CreateRequestInput
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.requests.Create(c.Request.Context(), p, form)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, view)
}

func (h *Handler) GetRequest(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	view, err := h.requests.Get(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, view)
}

func (h *Handler) AssignMaster(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var form service.AssignInput
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.requests.Assign(c.Request.Context(), p, id, form); err != nil {
		respondError(c, err)
		return
	}
	h.respondRequest(c, id)
}

func (h *Handler) Respond(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.requests.Respond(c.Request.Context(), p, id); err != nil {
		respondError(c, err)
		return
	}
	h.respondRequest(c, id)
}

func (h *Handler) Complete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var form service.CompleteInput
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.requests.Complete(c.Request.Context(), p, id, form); err != nil {
		respondError(c, err)
		return
	}
	h.respondRequest(c, id)
}

type descriptionForm struct {
	Description string `json:"description"`
}

func (h *Handler) EditDescription(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var form descriptionForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.requests.EditDescription(c.Request.Context(), p, id, form.Description); err != nil {
		respondError(c, err)
		return
	}
	h.respondRequest(c, id)
}

type statusForm struct {
	StatusID uint `json:"status_id"`
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var form statusForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.requests.ChangeStatus(c.Request.Context(), p, id, form.StatusID); err != nil {
		respondError(c, err)
		return
	}
	h.respondRequest(c, id)
}

type commentForm struct {
	Message string `json:"message"`
}

func (h *Handler) AddComment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var form commentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}

	comment, err := h.requests.AddComment(c.Request.Context(), p, id, form.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, comment)
}

func (h *Handler) ListComments(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	comments, err := h.requests.Comments(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, comments)
}

// после изменения отдаём заявку в актуальном виде
func (h *Handler) respondRequest(c *gin.Context, id uint) {
	p, _ := principal(c)
	view, err := h.requests.Get(c.Request.Context(), p, id)
	if err != nil {
		// изменение прошло, но заявка теперь может быть не видна (например, мастер снят)
		respondOK(c, http.StatusOK, gin.H{"id": id})
		return
	}
	respondOK(c, http.StatusOK, view)
}
