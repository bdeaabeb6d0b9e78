package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/AzielCF/az-console/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase_SQLite(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver: "sqlite",
		Name:   filepath.Join(t.TempDir(), "console.db"),
	}}

	db, err := NewDatabase(cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	assert.NoError(t, Probe(db)(context.Background()))
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "oracle", Name: "x"}}

	_, err := NewDatabase(cfg)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestProbe_NilDatabase(t *testing.T) {
	assert.Error(t, Probe(nil)(context.Background()))
}
