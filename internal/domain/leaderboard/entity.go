// Package leaderboard содержит доменную модель рейтинга учеников.
// Рейтинг строится из очков профилей; уровень и значки вычисляются из очков.
package leaderboard

import (
	"sort"
	"strings"

	"github.com/skillera/skillera-hub/internal/domain/progression"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry - строка рейтинга.
type Entry struct {
	Rank      int    `json:"rank"`
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar,omitempty"`
	Class     string `json:"class,omitempty"`
	Section   string `json:"section,omitempty"`
	Points    int    `json:"points"`
	Level     int    `json:"level"`
	LevelName string `json:"levelName"`
}

// Candidate - входные данные для ранжирования.
type Candidate struct {
	StudentID string
	Name      string
	Avatar    string
	Class     string
	Section   string
	Points    int
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// Rank сортирует кандидатов по убыванию очков. При равенстве очков порядок
// определяется именем, затем ID, поэтому результат детерминирован.
// Места нумеруются с 1 подряд.
func Rank(candidates []Candidate) []Entry {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.StudentID < b.StudentID
	})

	out := make([]Entry, len(sorted))
	for i, c := range sorted {
		lvl := progression.LevelFor(c.Points)
		out[i] = Entry{
			Rank:      i + 1,
			StudentID: c.StudentID,
			Name:      c.Name,
			Avatar:    c.Avatar,
			Class:     c.Class,
			Section:   c.Section,
			Points:    c.Points,
			Level:     lvl.Level,
			LevelName: lvl.Name,
		}
	}
	return out
}

// Top возвращает первые n строк (n <= 0 - все).
func Top(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}

// Find возвращает строку ученика.
func Find(entries []Entry, studentID string) (Entry, bool) {
	for _, e := range entries {
		if e.StudentID == studentID {
			return e, true
		}
	}
	return Entry{}, false
}

// Neighbors возвращает до radius строк выше и ниже ученика.
func Neighbors(entries []Entry, studentID string, radius int) []Entry {
	for i, e := range entries {
		if e.StudentID != studentID {
			continue
		}
		from := i - radius
		if from < 0 {
			from = 0
		}
		to := i + radius + 1
		if to > len(entries) {
			to = len(entries)
		}
		return entries[from:to]
	}
	return nil
}
