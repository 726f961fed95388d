package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Password = "secret"
	assert.Equal(t,
		"host=localhost port=5432 dbname=skillera user=postgres password=secret sslmode=disable connect_timeout=10",
		cfg.DSN())

	cfg.URL = "postgres://u:p@db:5432/x"
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DSN())
}

func TestPoolConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConns = 7
	cfg.MaxConnIdleTime = time.Minute

	pc, err := cfg.PoolConfig()
	require.NoError(t, err)
	assert.EqualValues(t, 7, pc.MaxConns)
	assert.Equal(t, time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, "skillera-hub", pc.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "5000", pc.ConnConfig.RuntimeParams["statement_timeout"])

	cfg.StatementTimeout = 0
	pc, err = cfg.PoolConfig()
	require.NoError(t, err)
	_, set := pc.ConnConfig.RuntimeParams["statement_timeout"]
	assert.False(t, set)
}

func TestLikePrefix(t *testing.T) {
	assert.Equal(t, `students/%`, likePrefix("students/"))
	assert.Equal(t, `a\_b\%%`, likePrefix("a_b%"))
}

func TestMigrationsAreOrdered(t *testing.T) {
	migs := GetMigrations()
	require.NotEmpty(t, migs)
	for i, m := range migs {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.UpSQL)
		assert.NotEmpty(t, m.DownSQL)
	}
	assert.Contains(t, migs[0].UpSQL, "CREATE TABLE IF NOT EXISTS documents")
}
