package handlers

import (
	"net/http"

	"repair-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) StatusReport(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	rows, err := h.reports.StatusReport(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, rows)
}

func (h *Handler) MasterLoadReport(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	rows, err := h.reports.MasterLoadReport(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, rows)
}

func (h *Handler) AverageRepairTime(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	avg, err := h.reports.AverageRepairTime(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, avg)
}

// PerformanceReport отдаёт JSON, а с ?format=text, готовый текст отчёта.
func (h *Handler) PerformanceReport(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	groups, err := h.reports.MasterPerformanceReport(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "text" {
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Status(http.StatusOK)
		if err := service.WritePerformanceText(c.Writer, groups); err != nil {
			_ = c.Error(err)
		}
		return
	}
	respondOK(c, http.StatusOK, groups)
}
