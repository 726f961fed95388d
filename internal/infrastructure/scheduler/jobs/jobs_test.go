package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/internal/application/command"
	"github.com/skillera/skillera-hub/internal/domain/leaderboard"
)

type fakeAuditor struct {
	got command.AuditPointsCommand
	res *command.AuditPointsResult
	err error
}

func (f *fakeAuditor) Handle(_ context.Context, cmd command.AuditPointsCommand) (*command.AuditPointsResult, error) {
	f.got = cmd
	return f.res, f.err
}

func TestPointsAuditJob(t *testing.T) {
	a := &fakeAuditor{res: &command.AuditPointsResult{
		Checked: 3,
		Drifts:  []command.PointsDrift{{StudentID: "s1", Stored: 50, Expected: 40, Fixed: true}},
	}}
	job := NewPointsAuditJob(a, true, nil)

	assert.Equal(t, "points_audit", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.True(t, a.got.Fix)

	a.err = errors.New("store down")
	assert.EqualError(t, job.Run(context.Background()), "store down")
}

type recordingCache struct {
	leaderboard.NoopCache
	invalidated int
}

func (c *recordingCache) Invalidate(context.Context) error {
	c.invalidated++
	return nil
}

type fakeSource struct{ calls int }

func (f *fakeSource) Snapshot(context.Context) (*leaderboard.Snapshot, error) {
	f.calls++
	return leaderboard.NewSnapshot([]leaderboard.Candidate{{StudentID: "s1", Name: "A", Points: 10}}, time.Now()), nil
}

func TestLeaderboardWarmJob(t *testing.T) {
	cache := &recordingCache{}
	src := &fakeSource{}
	job := NewLeaderboardWarmJob(cache, src, nil)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, cache.invalidated)
	assert.Equal(t, 1, src.calls)
}
