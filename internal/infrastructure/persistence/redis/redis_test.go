package redis

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/internal/domain/leaderboard"
	"github.com/skillera/skillera-hub/internal/domain/shared"
)

// memKV is an in-memory KV without expiry.
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) GetJSON(_ context.Context, key string, dest any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memKV) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.data, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *memKV) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = []byte(value)
	return true, nil
}

func (m *memKV) CompareAndDelete(_ context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if string(m.data[key]) != value {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func TestConfigAddr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr())
	assert.Equal(t, "skillera:", cfg.KeyPrefix)
}

func TestLeaderboardCache(t *testing.T) {
	ctx := context.Background()
	c := NewLeaderboardCache(newMemKV(), 0)

	snap, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap, "miss is not an error")

	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, c.Set(ctx, leaderboard.NewSnapshot([]leaderboard.Candidate{
		{StudentID: "a", Name: "Asha", Points: 120},
		{StudentID: "b", Name: "Bo", Points: 300},
	}, now)))

	snap, err = c.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, snap.Count())
	assert.Equal(t, "b", snap.Entries[0].StudentID)
	assert.True(t, now.Equal(snap.GeneratedAt))

	require.NoError(t, c.Invalidate(ctx))
	snap, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestStudentLocker(t *testing.T) {
	kv := newMemKV()
	l := NewStudentLocker(kv, nil)
	l.pollWait = time.Millisecond

	unlock, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "s1")
	assert.True(t, shared.IsConflict(err))

	other, err := l.Lock(context.Background(), "s2")
	require.NoError(t, err)
	other()

	unlock()
	unlock2, err := l.Lock(context.Background(), "s1")
	require.NoError(t, err)
	unlock2()
}
