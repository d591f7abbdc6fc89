package db

import (
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	src, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	for _, name := range names {
		body, err := fs.ReadFile(migrationsFS, name)
		require.NoError(t, err)
		assert.NotEmpty(t, body, name)
	}
	assert.Contains(t, names, "migrations/0001_catalog.up.sql")
	assert.Contains(t, names, "migrations/0001_catalog.down.sql")
}
