// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"

	"github.com/skillera/skillera-hub/internal/domain/leaderboard"
	"github.com/skillera/skillera-hub/internal/domain/student"
	"github.com/skillera/skillera-hub/pkg/logger"
	"github.com/skillera/skillera-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Рейтинг учеников. Снимок кэшируется до следующего изменения очков.
// ══════════════════════════════════════════════════════════════════════════════

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 500
)

// GetLeaderboardQuery содержит параметры запроса рейтинга.
type GetLeaderboardQuery struct {
	// Limit - размер страницы (по умолчанию 50).
	Limit int
	// Page - номер страницы с 1.
	Page int
	// StudentID - если задан, в результат добавляется строка этого ученика.
	StudentID string
}

// normalize приводит параметры к допустимым значениям.
func (q *GetLeaderboardQuery) normalize() {
	if q.Limit <= 0 {
		q.Limit = defaultLeaderboardLimit
	}
	if q.Limit > maxLeaderboardLimit {
		q.Limit = maxLeaderboardLimit
	}
	if q.Page < 1 {
		q.Page = 1
	}
}

// GetLeaderboardResult содержит страницу рейтинга.
type GetLeaderboardResult struct {
	Entries    []leaderboard.Entry `json:"entries"`
	TotalCount int                 `json:"totalCount"`
	Page       int                 `json:"page"`
	Me         *leaderboard.Entry  `json:"me,omitempty"`
	FromCache  bool                `json:"-"`
}

// GetLeaderboardHandler обрабатывает запрос рейтинга.
type GetLeaderboardHandler struct {
	students student.Repository
	cache    leaderboard.SnapshotCache
	clock    timeutil.Clock
	log      *logger.Logger
}

// NewGetLeaderboardHandler создаёт обработчик. cache может быть nil.
func NewGetLeaderboardHandler(students student.Repository, cache leaderboard.SnapshotCache, clock timeutil.Clock, log *logger.Logger) *GetLeaderboardHandler {
	if cache == nil {
		cache = leaderboard.NoopCache{}
	}
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GetLeaderboardHandler{students: students, cache: cache, clock: clock, log: log.Named("leaderboard")}
}

// Handle выполняет запрос.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	q.normalize()

	snap, cached, err := h.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	result := &GetLeaderboardResult{
		Entries:    snap.Page(q.Page, q.Limit),
		TotalCount: snap.Count(),
		Page:       q.Page,
		FromCache:  cached,
	}
	if q.StudentID != "" {
		if e, ok := leaderboard.Find(snap.Entries, q.StudentID); ok {
			result.Me = &e
		}
	}
	return result, nil
}

// Snapshot возвращает полный текущий рейтинг.
func (h *GetLeaderboardHandler) Snapshot(ctx context.Context) (*leaderboard.Snapshot, error) {
	snap, _, err := h.snapshot(ctx)
	return snap, err
}

// snapshot читает кэш; ошибки кэша не мешают пересчёту из профилей.
func (h *GetLeaderboardHandler) snapshot(ctx context.Context) (*leaderboard.Snapshot, bool, error) {
	snap, err := h.cache.Get(ctx)
	if err != nil {
		h.log.Warn("leaderboard cache read failed", logger.Err(err))
	}
	if snap != nil {
		return snap, true, nil
	}

	all, err := h.students.List(ctx)
	if err != nil {
		return nil, false, err
	}
	ranked := student.Select(all, student.OnlyRole(student.RoleStudent))
	candidates := make([]leaderboard.Candidate, len(ranked))
	for i, s := range ranked {
		candidates[i] = leaderboard.Candidate{
			StudentID: s.ID,
			Name:      s.Name,
			Avatar:    s.Avatar,
			Class:     s.Class,
			Section:   s.Section,
			Points:    s.Points,
		}
	}

	snap = leaderboard.NewSnapshot(candidates, h.clock.Now())
	if err := h.cache.Set(ctx, snap); err != nil {
		h.log.Warn("leaderboard cache write failed", logger.Err(err))
	}
	return snap, false, nil
}
