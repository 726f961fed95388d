package eventhandler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/internal/domain/leaderboard"
	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/infrastructure/messaging"
)

var at = time.Date(2024, 7, 21, 9, 0, 0, 0, time.UTC)

type countingCache struct {
	invalidations int
	err           error
}

func (c *countingCache) Get(context.Context) (*leaderboard.Snapshot, error) { return nil, nil }
func (c *countingCache) Set(context.Context, *leaderboard.Snapshot) error   { return nil }
func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	return c.err
}

type evictions struct {
	keys   []string
	purges int
}

func (e *evictions) Evict(key string) { e.keys = append(e.keys, key) }
func (e *evictions) Purge()           { e.purges++ }

func TestOnProgressChanged_InvalidatesOnRankingEvents(t *testing.T) {
	cache := &countingCache{}
	bus := messaging.NewInMemoryEventBus(messaging.DefaultInMemoryEventBusConfig())
	defer bus.Close()
	require.NoError(t, NewOnProgressChangedHandler(cache, nil).Subscribe(bus))

	require.NoError(t, bus.Publish(shared.NewPointsChangedEvent("s1", 0, 10, "goal_completed", at)))
	require.NoError(t, bus.Publish(shared.NewStudentRegisteredEvent("s2", "Ann", "ann@school.edu", at)))
	require.NoError(t, bus.Publish(shared.NewProfileUpdatedEvent("s1", []string{"name"}, at)))
	assert.Equal(t, 3, cache.invalidations)

	// bio does not appear on the leaderboard
	require.NoError(t, bus.Publish(shared.NewProfileUpdatedEvent("s1", []string{"bio"}, at)))
	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("s1", 1, 2, "Novice", at)))
	assert.Equal(t, 3, cache.invalidations)
}

func TestOnProgressChanged_ReportsCacheFailure(t *testing.T) {
	cache := &countingCache{err: errors.New("redis down")}
	h := NewOnProgressChangedHandler(cache, nil)
	assert.Error(t, h.Handle(shared.NewPointsChangedEvent("s1", 0, 10, "goal_completed", at)))
}

func TestTouchesName(t *testing.T) {
	assert.True(t, touchesName(map[string]any{"fields": []string{"bio", "name"}}))
	assert.True(t, touchesName(map[string]any{"fields": []any{"name"}}))
	assert.False(t, touchesName(map[string]any{"fields": []any{"interests"}}))
	assert.True(t, touchesName(map[string]any{}))
}

func TestOnRemoteWrite(t *testing.T) {
	docs := &evictions{}
	h := NewOnRemoteWriteHandler(docs, nil)

	// local writes already refreshed the cache
	require.NoError(t, h.Handle(shared.NewPointsChangedEvent("s1", 0, 10, "goal_completed", at)))
	assert.Empty(t, docs.keys)

	h.isRemote = func(shared.Event) bool { return true }
	require.NoError(t, h.Handle(shared.NewPointsChangedEvent("s1", 0, 10, "goal_completed", at)))
	require.NoError(t, h.Handle(shared.NewCatalogChangedEvent(string(school.CollectionProjects), "proj1", at)))
	pct := 90.0
	require.NoError(t, h.Handle(shared.NewAppealResolvedEvent("ap1", "s2", "approved", &pct, at)))
	assert.Equal(t, []string{"students/s1", "projects", "appeals", "students/s2"}, docs.keys)
	assert.Zero(t, docs.purges)

	require.NoError(t, h.Handle(shared.NewCatalogChangedEvent("", "x", at)))
	assert.Equal(t, 1, docs.purges)
}

func TestOnRemoteWrite_WithoutCache(t *testing.T) {
	h := NewOnRemoteWriteHandler(nil, nil)
	h.isRemote = func(shared.Event) bool { return true }
	assert.NoError(t, h.Handle(shared.NewPointsChangedEvent("s1", 0, 10, "goal_completed", at)))
}

func TestOnMilestone(t *testing.T) {
	bus := messaging.NewInMemoryEventBus(messaging.DefaultInMemoryEventBusConfig())
	defer bus.Close()
	require.NoError(t, NewOnMilestoneHandler(nil).Subscribe(bus))

	require.NoError(t, bus.Publish(shared.NewBadgeUnlockedEvent("s1", "novice", "Novice Achiever", at)))
	assert.EqualValues(t, 1, bus.Metrics().Snapshot().HandlerExecutions)
	assert.Zero(t, bus.Metrics().Snapshot().HandlerFailures)
}
