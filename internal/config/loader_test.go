package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/sqldesk/internal/dialect"
)

func TestLoadMissingConfig(t *testing.T) {
	t.Setenv(dirEnv, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Connections)
	assert.Empty(t, cfg.History)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv(dirEnv, filepath.Join(t.TempDir(), "conf"))

	cfg := &Config{
		Connections: []Connection{{
			Name: "postgres-db.internal-5432-app", Dialect: dialect.Postgres,
			Host: "db.internal", Port: 5432, Database: "app", Username: "alice",
		}},
		Preferences: Preferences{Theme: "default", DefaultConnection: "postgres-db.internal-5432-app"},
	}
	cfg.AddHistory("postgres://alice@db.internal/app")
	require.NoError(t, Save(cfg))

	loaded, err := Load()
	require.NoError(t, err)
	require.Len(t, loaded.Connections, 1)
	assert.Equal(t, cfg.Connections[0], loaded.Connections[0])
	assert.Equal(t, cfg.History, loaded.History)
	assert.Equal(t, "postgres-db.internal-5432-app", loaded.Preferences.DefaultConnection)
}

func TestDefaultConnection(t *testing.T) {
	cfg := &Config{
		Connections: []Connection{
			{Name: "first"},
			{Name: "second"},
		},
	}

	assert.Equal(t, "first", DefaultConnection(cfg).Name)

	cfg.Preferences.DefaultConnection = "second"
	assert.Equal(t, "second", DefaultConnection(cfg).Name)

	cfg.Preferences.DefaultConnection = "missing"
	assert.Equal(t, "first", DefaultConnection(cfg).Name)

	assert.Nil(t, DefaultConnection(&Config{}))
}

func TestCacheDirUnderConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(dirEnv, dir)

	got, err := CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache"), got)
}
