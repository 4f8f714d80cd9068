package server

import (
	"net/http"
	"time"

	"repair-tracker/internal/config"
	"repair-tracker/internal/handlers"
	"repair-tracker/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config, h *handlers.Handler, users middleware.UserResolver, tokens middleware.TokenParser) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.JWTTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("repair_session", store))

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")

	// AUTH
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)

	auth := api.Group("/")
	auth.Use(middleware.RequireAuth(users, tokens))

	auth.GET("/auth/me", h.Me)

	// ЗАЯВКИ
	auth.GET("/requests", h.ListRequests)
	auth.POST("/requests", h.CreateRequest)
	auth.GET("/requests/:id", h.GetRequest)
	auth.GET("/requests/:id/history", h.RequestHistory)
	auth.POST("/requests/:id/assign", h.AssignMaster)
	auth.POST("/requests/:id/respond", h.Respond)
	auth.POST("/requests/:id/complete", h.Complete)
	auth.PUT("/requests/:id/description", h.EditDescription)
	auth.PUT("/requests/:id/status", h.ChangeStatus)
	auth.GET("/requests/:id/comments", h.ListComments)
	auth.POST("/requests/:id/comments", h.AddComment)

	// СПРАВОЧНИКИ
	auth.GET("/statuses", h.ListStatuses)
	auth.GET("/equipment-types", h.ListEquipmentTypes)
	auth.GET("/clients", h.ListClients)
	auth.GET("/masters", h.ListMasters)

	// ПОЛЬЗОВАТЕЛИ, права проверяет сервис
	auth.GET("/users", h.ListUsers)
	auth.PUT("/users/:id/role", h.UpdateUserRole)

	// ОТЧЁТЫ
	auth.GET("/reports/status", h.StatusReport)
	auth.GET("/reports/master-load", h.MasterLoadReport)
	auth.GET("/reports/average-time", h.AverageRepairTime)
	auth.GET("/reports/performance", h.PerformanceReport)

	return r
}
