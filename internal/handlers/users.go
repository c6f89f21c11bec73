package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"persistence-core/internal/database"
	"persistence-core/internal/identity"
	"persistence-core/internal/middleware"
	"persistence-core/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userForm struct {
	Username string `json:"username" form:"username" binding:"required"`
}

type userView struct {
	ID              uuid.UUID  `json:"id"`
	Username        string     `json:"username"`
	CreatedAt       time.Time  `json:"created_at"`
	LastUpdatedAt   time.Time  `json:"last_updated_at"`
	CreatedByID     *uuid.UUID `json:"created_by_id"`
	LastUpdatedByID *uuid.UUID `json:"last_updated_by_id"`
}

func viewOf(u *models.ApplicationUser) userView {
	return userView{
		ID:              u.ID,
		Username:        u.Username,
		CreatedAt:       u.CreatedAt,
		LastUpdatedAt:   u.LastUpdatedAt,
		CreatedByID:     u.CreatedByID,
		LastUpdatedByID: u.LastUpdatedByID,
	}
}

// CreateUser inserts an application user through the audited save,
// attributed to the signed-in user.
func (h *Handler) CreateUser(c *gin.Context) {
	var form userForm
	if err := c.ShouldBind(&form); err != nil {
		renderError(c, http.StatusBadRequest, "username is required")
		return
	}

	form.Username = strings.TrimSpace(form.Username)
	if len(form.Username) < 3 {
		renderError(c, http.StatusBadRequest, "username is too short")
		return
	}

	if taken, ok := h.usernameTaken(c, form.Username); !ok || taken {
		if taken {
			renderError(c, http.StatusConflict, "user already exists")
		}
		return
	}

	user := &models.ApplicationUser{Username: form.Username}
	sess := h.store.Session()
	if err := sess.Add(user); err != nil {
		renderError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if !h.save(c, sess, user) {
		return
	}
	render(c, http.StatusCreated, gin.H{"user": viewOf(user)})
}

// GetUser loads one user by id.
func (h *Handler) GetUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	render(c, http.StatusOK, gin.H{"user": viewOf(user)})
}

// UpdateUser renames a user through a tracked session, producing an
// UPDATE audit record.
func (h *Handler) UpdateUser(c *gin.Context) {
	var form userForm
	if err := c.ShouldBind(&form); err != nil {
		renderError(c, http.StatusBadRequest, "username is required")
		return
	}
	form.Username = strings.TrimSpace(form.Username)
	if len(form.Username) < 3 {
		renderError(c, http.StatusBadRequest, "username is too short")
		return
	}

	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	if user.Username == form.Username {
		render(c, http.StatusOK, gin.H{"user": viewOf(user)})
		return
	}
	if taken, ok := h.usernameTaken(c, form.Username); !ok || taken {
		if taken {
			renderError(c, http.StatusConflict, "user already exists")
		}
		return
	}

	sess := h.store.Session()
	if err := sess.Track(user); err != nil {
		renderError(c, http.StatusInternalServerError, err.Error())
		return
	}
	user.Username = form.Username

	if !h.save(c, sess, user) {
		return
	}
	render(c, http.StatusOK, gin.H{"user": viewOf(user)})
}

// DeleteUser removes a user other than the signed-in one.
func (h *Handler) DeleteUser(c *gin.Context) {
	user, ok := h.loadUser(c)
	if !ok {
		return
	}
	if me, ok := middleware.CurrentUser(c); ok && me.ID == user.ID {
		renderError(c, http.StatusConflict, "cannot delete the signed-in user")
		return
	}

	sess := h.store.Session()
	if err := sess.Remove(user); err != nil {
		renderError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !h.save(c, sess, user) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) loadUser(c *gin.Context) (*models.ApplicationUser, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		renderError(c, http.StatusBadRequest, "invalid user id")
		return nil, false
	}

	var user models.ApplicationUser
	err = h.store.DB().WithContext(c.Request.Context()).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		renderError(c, http.StatusNotFound, "user not found")
		return nil, false
	}
	if err != nil {
		h.log.WithError(err).Error("user lookup")
		renderError(c, http.StatusInternalServerError, "lookup failed")
		return nil, false
	}
	return &user, true
}

// usernameTaken writes the error response itself when the lookup fails.
func (h *Handler) usernameTaken(c *gin.Context, username string) (taken, ok bool) {
	var count int64
	if err := h.store.DB().WithContext(c.Request.Context()).Model(&models.ApplicationUser{}).
		Where("username = ?", username).Count(&count).Error; err != nil {
		h.log.WithError(err).Error("user lookup")
		renderError(c, http.StatusInternalServerError, "lookup failed")
		return false, false
	}
	return count > 0, true
}

// save runs the audited save as the request's identity. It reports false
// after writing an error response. An incomplete audit trail is logged and
// the request still succeeds, since the data change is durable.
func (h *Handler) save(c *gin.Context, sess *database.Session, user *models.ApplicationUser) bool {
	ctx := c.Request.Context()
	_, err := sess.SaveContext(ctx, identity.FromContext(ctx))
	switch {
	case err == nil:
		return true
	case errors.Is(err, database.ErrActorRequired):
		renderError(c, http.StatusUnauthorized, "sign in to change users")
	case database.IsAuditIncomplete(err):
		h.log.WithError(err).WithField("user_id", user.ID).Error("user saved without audit trail")
		c.Header("X-Audit-Incomplete", "true")
		return true
	case errors.Is(err, database.ErrStaleEntity):
		renderError(c, http.StatusNotFound, "user not found")
	default:
		h.log.WithError(err).Error("save user")
		renderError(c, http.StatusInternalServerError, "save failed")
	}
	return false
}

func (h *Handler) Me(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		renderError(c, http.StatusUnauthorized, "not signed in")
		return
	}
	render(c, http.StatusOK, gin.H{"user": viewOf(u)})
}
