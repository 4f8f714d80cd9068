package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"repair-tracker/internal/apperr"
	"repair-tracker/internal/middleware"
	"repair-tracker/internal/models"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:         http.StatusBadRequest,
	apperr.KindInvalidCredentials: http.StatusUnauthorized,
	apperr.KindUnauthenticated:    http.StatusUnauthorized,
	apperr.KindUnauthorized:       http.StatusForbidden,
	apperr.KindNotFound:           http.StatusNotFound,
	apperr.KindInvalidState:       http.StatusConflict,
	apperr.KindLoginTaken:         http.StatusConflict,
	apperr.KindConstraint:         http.StatusUnprocessableEntity,
	apperr.KindInternal:           http.StatusInternalServerError,
}

// respondError: единый формат ошибки: {status, kind, reason, description}.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	code, ok := statusByKind[kind]
	if !ok {
		code = http.StatusInternalServerError
	}

	description := err.Error()
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Message != "" {
		description = ae.Message
	}
	if code >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		description = "internal error"
	}

	c.AbortWithStatusJSON(code, gin.H{
		"status":      "error",
		"kind":        kind,
		"reason":      apperr.ReasonOf(err),
		"description": description,
	})
}

func respondOK(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{
		"status": "success",
		"data":   data,
	})
}

func badRequest(c *gin.Context, err error) {
	respondError(c, apperr.Wrap(apperr.KindValidation, err, "malformed request body"))
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperr.Validation(apperr.ReasonNone, fmt.Sprintf("invalid %s", name)))
		return 0, false
	}
	return uint(id), true
}

// principal достаёт пользователя, положенного middleware.RequireAuth.
func principal(c *gin.Context) (models.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		respondError(c, apperr.New(apperr.KindUnauthenticated, apperr.ReasonNone, "authentication required"))
	}
	return p, ok
}
