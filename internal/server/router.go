package server

import (
	"net/http"

	"persistence-core/internal/config"
	"persistence-core/internal/database"
	"persistence-core/internal/handlers"
	"persistence-core/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const sessionName = "pc_session"

func NewRouter(cfg *config.Config, store *database.Store, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	cookies := cookie.NewStore([]byte(cfg.SessionSecret))
	cookies.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, cookies))

	r.Use(middleware.InjectIdentity(store))

	h := handlers.New(store, log)

	// AUTH
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	// USERS
	// creation without a session is only accepted while auditing is off
	r.POST("/users", h.CreateUser)

	auth := r.Group("/")
	auth.Use(middleware.RequireAuth())

	auth.GET("/users/me", h.Me)
	auth.GET("/users/:id", h.GetUser)
	auth.PUT("/users/:id", h.UpdateUser)
	auth.DELETE("/users/:id", h.DeleteUser)

	// AUDIT
	auth.GET("/audit/:entity/:id", h.AuditTrail)

	r.GET("/health", h.Health)

	return r
}
