package redis

import (
	"context"
	"errors"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/leaderboard"
)

// LeaderboardCache implements leaderboard.SnapshotCache.
type LeaderboardCache struct {
	kv  KV
	ttl time.Duration
}

// NewLeaderboardCache creates a snapshot cache. ttl <= 0 uses the default.
func NewLeaderboardCache(kv KV, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = TTLLeaderboardSnapshot
	}
	return &LeaderboardCache{kv: kv, ttl: ttl}
}

// Get implements leaderboard.SnapshotCache.
func (c *LeaderboardCache) Get(ctx context.Context) (*leaderboard.Snapshot, error) {
	var snap leaderboard.Snapshot
	if err := c.kv.GetJSON(ctx, keyLeaderboard, &snap); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

// Set implements leaderboard.SnapshotCache.
func (c *LeaderboardCache) Set(ctx context.Context, snap *leaderboard.Snapshot) error {
	if snap == nil {
		return nil
	}
	return c.kv.SetJSON(ctx, keyLeaderboard, snap, c.ttl)
}

// Invalidate implements leaderboard.SnapshotCache.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	return c.kv.Delete(ctx, keyLeaderboard)
}

var _ leaderboard.SnapshotCache = (*LeaderboardCache)(nil)
