package handlers

import (
	"persistence-core/internal/database"
	"persistence-core/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler serves the dev host endpoints on top of one Store.
type Handler struct {
	store *database.Store
	log   logrus.FieldLogger
}

func New(store *database.Store, log logrus.FieldLogger) *Handler {
	return &Handler{store: store, log: log.WithField("component", "http")}
}

// render writes data as JSON and adds the signed-in username, if any.
func render(c *gin.Context, status int, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if u, ok := middleware.CurrentUser(c); ok {
		data["current_user"] = u.Username
	}
	c.JSON(status, data)
}

func renderError(c *gin.Context, status int, msg string) {
	render(c, status, gin.H{"error": msg})
}
