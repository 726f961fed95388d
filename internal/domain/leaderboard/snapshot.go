package leaderboard

import (
	"time"
)

// Snapshot - рассчитанный рейтинг на момент времени.
// Используется кэшем: пересчёт из всех профилей дороже чтения готового снимка.
type Snapshot struct {
	Entries     []Entry   `json:"entries"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// NewSnapshot ранжирует кандидатов и фиксирует время.
func NewSnapshot(candidates []Candidate, now time.Time) *Snapshot {
	return &Snapshot{
		Entries:     Rank(candidates),
		GeneratedAt: now,
	}
}

// IsEmpty возвращает true для пустого рейтинга.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || len(s.Entries) == 0
}

// Count возвращает количество строк.
func (s *Snapshot) Count() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// Page возвращает страницу рейтинга (page с 1).
func (s *Snapshot) Page(page, pageSize int) []Entry {
	if s == nil || pageSize <= 0 {
		return nil
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(s.Entries) {
		return []Entry{}
	}
	end := start + pageSize
	if end > len(s.Entries) {
		end = len(s.Entries)
	}
	return s.Entries[start:end]
}
