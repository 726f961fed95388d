package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/config"
)

func TestOpen_Memory(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: config.BackendMemory},
		Cache:   config.CacheConfig{Enabled: true, Size: 8},
		Redis:   config.RedisConfig{Disabled: true},
	}

	b, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer b.Close(context.Background())

	assert.Equal(t, "memory", b.Store.Name(), "memory store is not wrapped")
	assert.Nil(t, b.Cache)
	assert.Nil(t, b.Redis)

	v, err := b.Store.Put(context.Background(), "k", []byte(`{}`), 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "floppy"}}
	_, err := Open(context.Background(), cfg, nil)
	require.Error(t, err)
}

func TestConfigMapping(t *testing.T) {
	pc := PostgresConfig(config.DatabaseConfig{
		URL:             "postgres://u:p@h/db",
		MaxConns:        7,
		MinConns:        1,
		ConnMaxLifetime: time.Minute,
	})
	assert.Equal(t, "postgres://u:p@h/db", pc.DSN())
	assert.EqualValues(t, 7, pc.MaxConns)
	assert.EqualValues(t, 1, pc.MinConns)
	assert.Equal(t, time.Minute, pc.MaxConnLifetime)

	rc := RedisConfig(config.RedisConfig{Host: "cache", Port: 6380})
	assert.Equal(t, "cache:6380", rc.Addr())
	assert.Equal(t, "skillera:", rc.KeyPrefix)
}
