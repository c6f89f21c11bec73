package main

import (
	"fmt"
	"os"

	"persistence-core/internal/config"
	"persistence-core/internal/database"
	"persistence-core/internal/logging"
	"persistence-core/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	for _, w := range cfg.Database.Warnings {
		log.Warn(w)
	}
	if !log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("database open")
	}

	if cfg.Database.Reset {
		log.Warn("DATABASE_RESET set, dropping all tables")
		err = database.Reset(db)
	} else {
		err = database.Migrate(db)
	}
	if err != nil {
		log.WithError(err).Fatal("schema")
	}

	store := database.NewStore(db, database.Options{
		Auditing: cfg.Database.Auditing,
		Logger:   log,
	})
	if !store.Auditing() {
		log.Warn("auditing disabled")
	}

	r := server.NewRouter(cfg, store, log)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.WithFields(logrus.Fields{
		"addr":     addr,
		"provider": cfg.Database.Provider,
	}).Info("starting server")
	if err := r.Run(addr); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
