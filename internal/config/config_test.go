package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestLoadDatabase_Defaults(t *testing.T) {
	cfg, err := LoadDatabase(env(nil))
	require.NoError(t, err)

	assert.Equal(t, SQLite, cfg.Provider)
	assert.Equal(t, DefaultSQLiteConnectionString, cfg.ConnectionString)
	assert.True(t, cfg.Auditing, "auditing is on when unset")
	assert.False(t, cfg.Reset)
	assert.Len(t, cfg.Warnings, 1)
}

func TestLoadDatabase_InMemoryIgnoresConnectionString(t *testing.T) {
	cfg, err := LoadDatabase(env(map[string]string{
		EnvProvider:         "inmemory",
		EnvConnectionString: "somewhere.db",
	}))
	require.NoError(t, err)

	assert.Equal(t, InMemory, cfg.Provider)
	assert.Equal(t, DefaultInMemoryConnectionString, cfg.ConnectionString)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadDatabase_InvalidProvider(t *testing.T) {
	_, err := LoadDatabase(env(map[string]string{EnvProvider: "Oracle"}))
	assert.ErrorIs(t, err, ErrInvalidProvider)
}

func TestLoadDatabase_PostgresNeedsConnectionString(t *testing.T) {
	_, err := LoadDatabase(env(map[string]string{EnvProvider: "Postgres"}))
	assert.ErrorIs(t, err, ErrMissingConnectionString)

	cfg, err := LoadDatabase(env(map[string]string{
		EnvProvider:         "Postgres",
		EnvConnectionString: "host=localhost user=app dbname=app",
	}))
	require.NoError(t, err)
	assert.Equal(t, Postgres, cfg.Provider)
}

func TestLoadDatabase_AuditingFlag(t *testing.T) {
	cases := []struct {
		raw     string
		want    bool
		wantErr bool
	}{
		{raw: "false", want: false},
		{raw: "0", want: false},
		{raw: "TRUE", want: true},
		{raw: " 1 ", want: true},
		{raw: "yes", wantErr: true},
		{raw: "enabled", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			cfg, err := LoadDatabase(env(map[string]string{EnvAuditingEnabled: tc.raw}))
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBool)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.Auditing)
		})
	}
}

func TestParseProvider(t *testing.T) {
	for _, p := range providers {
		got, err := ParseProvider(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err := ParseProvider("SQLite,Postgres")
	assert.ErrorIs(t, err, ErrInvalidProvider)
}

func TestLoad_RequiresSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv(EnvProvider, "InMemory")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingSessionSecret)
}

func TestLoad(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv(EnvProvider, "InMemory")
	t.Setenv(EnvAuditingEnabled, "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Database.Auditing)
}
