package jobs

import (
	"context"

	"github.com/skillera/skillera-hub/internal/domain/leaderboard"
	"github.com/skillera/skillera-hub/pkg/logger"
)

// SnapshotSource is satisfied by *query.GetLeaderboardHandler.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*leaderboard.Snapshot, error)
}

// LeaderboardWarmJob drops the cached ranking and rebuilds it, so the first
// reader after a quiet period does not pay for the full profile scan.
type LeaderboardWarmJob struct {
	cache  leaderboard.SnapshotCache
	source SnapshotSource
	log    *logger.Logger
}

// NewLeaderboardWarmJob creates the job.
func NewLeaderboardWarmJob(cache leaderboard.SnapshotCache, source SnapshotSource, log *logger.Logger) *LeaderboardWarmJob {
	if cache == nil {
		cache = leaderboard.NoopCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LeaderboardWarmJob{cache: cache, source: source, log: log.Named("job.leaderboard")}
}

// Name implements scheduler.Job.
func (j *LeaderboardWarmJob) Name() string { return "leaderboard_warm" }

// Run implements scheduler.Job.
func (j *LeaderboardWarmJob) Run(ctx context.Context) error {
	if err := j.cache.Invalidate(ctx); err != nil {
		return err
	}
	snap, err := j.source.Snapshot(ctx)
	if err != nil {
		return err
	}
	j.log.Debug("leaderboard rebuilt", logger.Int("entries", snap.Count()))
	return nil
}
