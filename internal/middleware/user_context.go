package middleware

import (
	"persistence-core/internal/database"
	"persistence-core/internal/identity"
	"persistence-core/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CurrentUserKey is the gin context key of the signed-in *models.ApplicationUser.
const CurrentUserKey = "CurrentUser"

// SessionUserKey holds the signed-in user id (string form) in the cookie session.
const SessionUserKey = "user_id"

// InjectIdentity loads the session's user and exposes it both on the gin
// context and as the request's acting identity. A stale or malformed
// session value is dropped.
func InjectIdentity(store *database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		raw, _ := sess.Get(SessionUserKey).(string)
		if raw == "" {
			c.Next()
			return
		}

		uid, err := uuid.Parse(raw)
		if err != nil {
			sess.Delete(SessionUserKey)
			_ = sess.Save()
			c.Next()
			return
		}

		var user models.ApplicationUser
		if err := store.DB().WithContext(c.Request.Context()).First(&user, "id = ?", uid).Error; err != nil {
			sess.Delete(SessionUserKey)
			_ = sess.Save()
			c.Next()
			return
		}

		c.Set(CurrentUserKey, &user)
		c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), user.Identity()))
		c.Next()
	}
}

// CurrentUser returns the user set by InjectIdentity.
func CurrentUser(c *gin.Context) (*models.ApplicationUser, bool) {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.ApplicationUser)
	return u, ok
}
