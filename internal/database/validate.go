package database

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"persistence-core/internal/config"

	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
)

var ErrInvalidConnectionString = errors.New("invalid DATABASE_CONNECTION_STRING")

// ValidateConnectionString checks the syntax of dsn for provider p
// without opening a connection.
func ValidateConnectionString(p config.Provider, dsn string) error {
	if strings.TrimSpace(dsn) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidConnectionString)
	}

	var err error
	switch p {
	case config.InMemory, config.SQLite:
		err = validateSQLite(dsn)
	case config.SqlServer:
		_, err = mssql.NewConnector(dsn)
	case config.Postgres:
		_, err = pgconn.ParseConfig(dsn)
	default:
		return fmt.Errorf("%w: %q", config.ErrInvalidProvider, p)
	}
	if err != nil {
		return fmt.Errorf("%w for %s: %v", ErrInvalidConnectionString, p, err)
	}
	return nil
}

// sqlite accepts a plain path, ":memory:" or a "file:" URI.
func validateSQLite(dsn string) error {
	if strings.ContainsRune(dsn, 0) {
		return errors.New("contains NUL byte")
	}
	if strings.Contains(dsn, "=") && !strings.Contains(dsn, "?") {
		// ADO-style "Data Source=...;" strings are not understood by the driver
		return errors.New("key=value connection strings are not supported, use a path or file: URI")
	}
	if strings.HasPrefix(dsn, "file:") {
		if _, err := url.Parse(dsn); err != nil {
			return err
		}
		return nil
	}
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		if _, err := url.ParseQuery(dsn[i+1:]); err != nil {
			return err
		}
	}
	return nil
}
