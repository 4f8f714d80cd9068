package handlers

import (
	"net/http"

	"repair-tracker/internal/middleware"
	"repair-tracker/internal/models"
	"repair-tracker/internal/service"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) Register(c *gin.Context) {
	var form service.RegisterInput
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.auth.Register(c.Request.Context(), form)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"user_id": id})
}

type loginForm struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.auth.Authenticate(c.Request.Context(), form.Login, form.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	sess := sessions.Default(c)
	sess.Set(middleware.SessionUserKey, p.UserID)
	if err := sess.Save(); err != nil {
		log.WithError(err).Warn("save session")
	}

	signed, expires, err := h.tokens.Issue(p)
	if err != nil {
		respondError(c, err)
		return
	}

	log.WithFields(log.Fields{"user_id": p.UserID, "role": p.Role}).Info("user logged in")
	respondOK(c, http.StatusOK, gin.H{
		"token":      signed,
		"expires_at": expires,
		"user":       p,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if raw := middleware.BearerToken(c); raw != "" {
		if err := h.tokens.Revoke(c.Request.Context(), raw); err != nil {
			log.WithError(err).Warn("revoke token on logout")
		}
	}

	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()

	respondOK(c, http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, p)
}

func (h *Handler) ListUsers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	users, err := h.auth.ListUsers(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, users)
}

type roleForm struct {
	Role models.UserRole `json:"role"`
}

func (h *Handler) UpdateUserRole(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var form roleForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.auth.UpdateUserRole(c.Request.Context(), p, id, form.Role); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"user_id": id, "role": form.Role})
}
