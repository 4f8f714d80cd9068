package middleware

import (
	"repair-tracker/internal/models"

	"github.com/gin-gonic/gin"
)

const principalKey = "CurrentPrincipal"

func SetPrincipal(c *gin.Context, p models.Principal) {
	c.Set(principalKey, p)
}

// CurrentPrincipal возвращает пользователя, которого положил RequireAuth.
func CurrentPrincipal(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}
