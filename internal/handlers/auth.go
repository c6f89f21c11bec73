package handlers

import (
	"errors"
	"net/http"
	"strings"

	"persistence-core/internal/middleware"
	"persistence-core/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type loginForm struct {
	Username string `json:"username" form:"username" binding:"required"`
}

// Login signs an existing user into the cookie session. There are no
// credentials; this host only exists to drive the audited store.
func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		renderError(c, http.StatusBadRequest, "username is required")
		return
	}

	var user models.ApplicationUser
	err := h.store.DB().WithContext(c.Request.Context()).
		Where("username = ?", strings.TrimSpace(form.Username)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		renderError(c, http.StatusUnauthorized, "unknown user")
		return
	}
	if err != nil {
		h.log.WithError(err).Error("login lookup")
		renderError(c, http.StatusInternalServerError, "lookup failed")
		return
	}

	sess := sessions.Default(c)
	sess.Set(middleware.SessionUserKey, user.ID.String())
	if err := sess.Save(); err != nil {
		h.log.WithError(err).Error("session save")
		renderError(c, http.StatusInternalServerError, "session failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": user.ID, "username": user.Username})
}

func (h *Handler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	c.Status(http.StatusNoContent)
}
