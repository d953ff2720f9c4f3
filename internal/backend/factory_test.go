package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	cfg := config.Default()
	cfg.DataBackend = "memory"

	bc, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, MemoryBackend, bc.Type)
	assert.Equal(t, "expenses", bc.AMQPExchange)

	cfg.DataBackend = "sheets"
	_, err = FromAppConfig(cfg)
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	result, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend})
	require.NoError(t, err)

	require.NoError(t, result.Store.Set(ctx, "k", []byte("v")))
	assert.Nil(t, result.Publisher)
	assert.NoError(t, result.Ping(ctx))
	assert.NoError(t, result.Cleanup())
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "expenses.db")

	result, err := NewFactory(nil).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	defer result.Cleanup()

	require.NoError(t, result.Store.Set(ctx, "k", []byte("v")))
	v, found, err := result.Store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", string(v))
	assert.NoError(t, result.Ping(ctx))
}

func TestCreateBackendValidates(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend})
	assert.EqualError(t, err, "SQLite database path is required for sqlite backend")

	_, err = NewFactory(nil).CreateBackend(context.Background(), Config{Type: "sheets"})
	assert.Error(t, err)
}
