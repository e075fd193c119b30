package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexivanou/cityinfo-api/internal/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_MemoryAndMigrate(t *testing.T) {
	cfg := config.DBConfig{Type: config.DBTypeMemory, Name: fmt.Sprintf("db_%s", uuid.NewString())}

	db, err := Connect(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, MigrateUp(db, cfg, "../../migrations"))
	// Applying again is a no-op
	require.NoError(t, MigrateUp(db, cfg, "../../migrations"))

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM cities"))
	assert.Equal(t, 0, count)

	m, err := NewMigrator(db, cfg, "../../migrations")
	require.NoError(t, err)
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestNewMigrator_MissingDirectory(t *testing.T) {
	cfg := config.DBConfig{Type: config.DBTypeMemory, Name: fmt.Sprintf("db_%s", uuid.NewString())}
	db, err := Connect(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()

	_, err = NewMigrator(db, cfg, "does-not-exist")
	assert.Error(t, err)
}
