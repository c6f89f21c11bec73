package handlers

import (
	"net/http"

	"persistence-core/internal/database"

	"github.com/gin-gonic/gin"
)

// AuditTrail lists the audit records of one entity, oldest first.
// :entity is the Go type name, e.g. ApplicationUser.
func (h *Handler) AuditTrail(c *gin.Context) {
	entries, err := database.AuditTrail(c.Request.Context(), h.store.DB(), c.Param("entity"), c.Param("id"))
	if err != nil {
		h.log.WithError(err).Error("audit trail")
		renderError(c, http.StatusInternalServerError, "lookup failed")
		return
	}
	render(c, http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.String(http.StatusServiceUnavailable, "database unavailable")
		return
	}
	c.String(http.StatusOK, "ok")
}
