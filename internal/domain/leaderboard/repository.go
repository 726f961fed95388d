package leaderboard

import (
	"context"
)

// SnapshotCache хранит последний рассчитанный рейтинг.
// Реализация в infrastructure/persistence/redis.
type SnapshotCache interface {
	// Get возвращает снимок или (nil, nil), если кэш пуст.
	Get(ctx context.Context) (*Snapshot, error)

	// Set сохраняет снимок.
	Set(ctx context.Context, snap *Snapshot) error

	// Invalidate сбрасывает снимок после изменения очков.
	Invalidate(ctx context.Context) error
}

// NoopCache - кэш, который ничего не хранит.
type NoopCache struct{}

func (NoopCache) Get(context.Context) (*Snapshot, error) { return nil, nil }
func (NoopCache) Set(context.Context, *Snapshot) error   { return nil }
func (NoopCache) Invalidate(context.Context) error       { return nil }
