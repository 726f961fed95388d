// Package progression содержит правила прогрессии: таблицу уровней, значки,
// оценку входа (серия дней) и выбор ежедневного задания.
// Пакет не зависит от инфраструктуры и не хранит состояние студента.
package progression

import (
	"fmt"
	"math"
	"sort"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL TABLE
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MaxLevel - количество уровней в таблице.
	MaxLevel = 100

	baseIncrement   = 50
	levelsPerStep   = 5
	levelsPerTier   = 10
	incrementGrowth = 1.15
	incrementBonus  = 10
)

var tierNames = [...]string{
	"Novice", "Apprentice", "Journeyman", "Expert", "Master",
	"Grandmaster", "Legend", "Mythic", "Celestial", "Ascendant",
}

var romanNumerals = [...]string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X"}

// Level описывает один уровень таблицы.
type Level struct {
	Level          int    `json:"level"`
	Name           string `json:"name"`
	PointsRequired int    `json:"pointsRequired"`
}

// levels строится один раз и дальше только читается.
var levels = generateLevels()

// generateLevels строит 100 уровней: порог растёт на increment,
// а после каждого пятого уровня increment = floor(increment*1.15 + 10).
func generateLevels() []Level {
	table := make([]Level, 0, MaxLevel)
	required := 0
	increment := baseIncrement

	for i := 1; i <= MaxLevel; i++ {
		tier := (i - 1) / levelsPerTier
		sub := (i - 1) % levelsPerTier

		table = append(table, Level{
			Level:          i,
			Name:           fmt.Sprintf("%s %s", tierNames[tier], romanNumerals[sub]),
			PointsRequired: required,
		})

		required += increment
		if i%levelsPerStep == 0 {
			increment = int(math.Floor(float64(increment)*incrementGrowth + incrementBonus))
		}
	}
	return table
}

// Levels возвращает копию таблицы уровней.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}

// LevelByNumber возвращает уровень по номеру.
func LevelByNumber(n int) (Level, bool) {
	if n < 1 || n > len(levels) {
		return Level{}, false
	}
	return levels[n-1], true
}

// LevelFor возвращает наивысший уровень, порог которого не превышает points.
// Отрицательные очки дают первый уровень.
func LevelFor(points int) Level {
	// Первый индекс, чей порог строго больше points.
	idx := sort.Search(len(levels), func(i int) bool {
		return levels[i].PointsRequired > points
	})
	if idx == 0 {
		return levels[0]
	}
	return levels[idx-1]
}

// NextLevelFor возвращает следующий уровень, если он существует.
func NextLevelFor(points int) (Level, bool) {
	current := LevelFor(points)
	return LevelByNumber(current.Level + 1)
}

// LevelProgress - сводка о положении очков внутри текущего уровня.
type LevelProgress struct {
	Current         Level  `json:"current"`
	Next            *Level `json:"next,omitempty"`
	PointsIntoLevel int    `json:"pointsIntoLevel"`
	PointsToNext    int    `json:"pointsToNext"`
	Percent         int    `json:"percent"`
}

// ProgressFor вычисляет прогресс к следующему уровню.
func ProgressFor(points int) LevelProgress {
	if points < 0 {
		points = 0
	}
	current := LevelFor(points)
	p := LevelProgress{
		Current:         current,
		PointsIntoLevel: points - current.PointsRequired,
		Percent:         100,
	}

	next, ok := NextLevelFor(points)
	if !ok {
		return p
	}
	span := next.PointsRequired - current.PointsRequired
	p.Next = &next
	p.PointsToNext = next.PointsRequired - points
	p.Percent = p.PointsIntoLevel * 100 / span
	return p
}
