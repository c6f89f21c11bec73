package database

import (
	"fmt"
	"time"

	"persistence-core/internal/config"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	maxConnectAttempts = 10
	connectRetryDelay  = 2 * time.Second
)

// Open validates the connection string and connects to the configured
// provider, retrying while the server is not reachable yet.
func Open(cfg config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	if err := ValidateConnectionString(cfg.Provider, cfg.ConnectionString); err != nil {
		return nil, err
	}

	dialector, err := dialectorFor(cfg.Provider, cfg.ConnectionString)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		Logger:  newGormLogger(log, cfg.SensitiveLogging),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	var db *gorm.DB
	for i := 1; i <= maxConnectAttempts; i++ {
		log.WithField("provider", cfg.Provider).Infof("trying to connect to DB (attempt %d/%d)...", i, maxConnectAttempts)

		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			break
		}

		log.WithError(err).Warn("failed to connect to DB")
		if !retryable(cfg.Provider) {
			break
		}
		time.Sleep(connectRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Provider, err)
	}

	if cfg.Provider == config.InMemory {
		// every new connection would get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}

	log.WithField("provider", cfg.Provider).Info("connected to DB successfully")
	return db, nil
}

func dialectorFor(p config.Provider, dsn string) (gorm.Dialector, error) {
	switch p {
	case config.InMemory, config.SQLite:
		return sqlite.Open(dsn), nil
	case config.SqlServer:
		return sqlserver.Open(dsn), nil
	case config.Postgres:
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidProvider, p)
	}
}

func retryable(p config.Provider) bool {
	return p == config.Postgres || p == config.SqlServer
}

func newGormLogger(log logrus.FieldLogger, sensitive bool) gormlogger.Interface {
	level := gormlogger.Warn
	if l, ok := log.(*logrus.Logger); ok && l.IsLevelEnabled(logrus.DebugLevel) {
		level = gormlogger.Info
	}
	return gormlogger.New(log, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      !sensitive,
	})
}
