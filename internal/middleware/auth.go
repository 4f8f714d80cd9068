package middleware

import (
	"context"
	"net/http"
	"strings"

	"repair-tracker/internal/apperr"
	"repair-tracker/internal/models"
	"repair-tracker/internal/token"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// UserResolver перечитывает пользователя за сессией или токеном.
type UserResolver interface {
	Principal(ctx context.Context, userID uint) (models.Principal, error)
}

type TokenParser interface {
	Parse(ctx context.Context, tokenString string) (*token.Claims, error)
}

const SessionUserKey = "user_id"

// BearerToken достаёт токен из заголовка Authorization, если он есть.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// RequireAuth пускает дальше только с валидным токеном или сессией.
// Роль всегда берётся из БД, а не из токена или cookie.
func RequireAuth(users UserResolver, tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID uint

		if raw := BearerToken(c); raw != "" {
			claims, err := tokens.Parse(c.Request.Context(), raw)
			if err != nil {
				log.WithError(err).Debug("bearer token rejected")
				abortUnauthenticated(c, "invalid or revoked token")
				return
			}
			userID = claims.UserID
		} else {
			sess := sessions.Default(c)
			if uid, ok := sess.Get(SessionUserKey).(uint); ok {
				userID = uid
			}
		}

		if userID == 0 {
			abortUnauthenticated(c, "authentication required")
			return
		}

		p, err := users.Principal(c.Request.Context(), userID)
		if apperr.KindOf(err) == apperr.KindNotFound {
			sess := sessions.Default(c)
			sess.Clear()
			_ = sess.Save()
			abortUnauthenticated(c, "user no longer exists")
			return
		}
		if err != nil {
			log.WithError(err).Error("resolve principal")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"status":      "error",
				"kind":        apperr.KindInternal,
				"description": "internal error",
			})
			return
		}

		SetPrincipal(c, p)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status":      "error",
		"kind":        apperr.KindUnauthenticated,
		"description": msg,
	})
}
