package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/pkg/timeutil"
)

func TestLevels_TableShape(t *testing.T) {
	table := Levels()
	require.Len(t, table, MaxLevel)

	want := []int{0, 50, 100, 150, 200, 250, 317, 384, 451, 518, 585, 672}
	for i, pts := range want {
		assert.Equal(t, pts, table[i].PointsRequired, "level %d", i+1)
	}

	assert.Equal(t, "Novice I", table[0].Name)
	assert.Equal(t, "Novice X", table[9].Name)
	assert.Equal(t, "Apprentice I", table[10].Name)
	assert.Equal(t, "Ascendant X", table[99].Name)

	for i := 1; i < len(table); i++ {
		assert.Equal(t, i+1, table[i].Level)
		assert.Greater(t, table[i].PointsRequired, table[i-1].PointsRequired)
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		points int
		level  int
	}{
		{-5, 1},
		{0, 1},
		{30, 1},
		{49, 1},
		{50, 2},
		{55, 2},
		{250, 6},
		{316, 6},
		{317, 7},
		{1_000_000, MaxLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelFor(tt.points).Level, "points=%d", tt.points)
	}
}

func TestLevelFor_Monotonic(t *testing.T) {
	prev := LevelFor(0).Level
	for p := 1; p <= 60_000; p += 7 {
		cur := LevelFor(p).Level
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestNextLevelFor(t *testing.T) {
	next, ok := NextLevelFor(30)
	require.True(t, ok)
	assert.Equal(t, 2, next.Level)
	assert.Equal(t, 50, next.PointsRequired)

	top := Levels()[MaxLevel-1]
	_, ok = NextLevelFor(top.PointsRequired)
	assert.False(t, ok)
}

func TestProgressFor(t *testing.T) {
	p := ProgressFor(75)
	assert.Equal(t, 2, p.Current.Level)
	require.NotNil(t, p.Next)
	assert.Equal(t, 25, p.PointsIntoLevel)
	assert.Equal(t, 25, p.PointsToNext)
	assert.Equal(t, 50, p.Percent)

	top := ProgressFor(10_000_000)
	assert.Nil(t, top.Next)
	assert.Equal(t, 100, top.Percent)
}

func TestBadges(t *testing.T) {
	assert.Empty(t, UnlockedBadges(9))

	unlocked := UnlockedBadges(100)
	ids := make([]string, 0, len(unlocked))
	for _, b := range unlocked {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"novice", "getter", "competitor", "consistent"}, ids)

	next, ok := NextBadge(100)
	require.True(t, ok)
	assert.Equal(t, "master", next.ID)

	_, ok = NextBadge(1000)
	assert.False(t, ok)

	fresh := NewlyUnlocked(40, 80)
	require.Len(t, fresh, 2)
	assert.Equal(t, "getter", fresh[0].ID)
	assert.Equal(t, "competitor", fresh[1].ID)
	assert.Empty(t, NewlyUnlocked(80, 40))
}

func TestEvaluateLogin(t *testing.T) {
	cal := timeutil.NewCalendar(time.UTC)
	now := time.Date(2024, 7, 21, 9, 0, 0, 0, time.UTC)
	ptr := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name      string
		lastLogin *time.Time
		streak    int
		want      LoginOutcome
	}{
		{"never logged in", nil, 0, LoginOutcome{Streak: 1, QuestRefreshNeeded: true}},
		{"same day", ptr(now.Add(-2 * time.Hour)), 4, LoginOutcome{Streak: 4}},
		{"yesterday", ptr(time.Date(2024, 7, 20, 23, 59, 0, 0, time.UTC)), 3, LoginOutcome{Streak: 4, QuestRefreshNeeded: true}},
		{"gap", ptr(time.Date(2024, 7, 18, 10, 0, 0, 0, time.UTC)), 7, LoginOutcome{Streak: 1, QuestRefreshNeeded: true, Broken: true}},
		{"gap with single-day streak", ptr(time.Date(2024, 7, 10, 10, 0, 0, 0, time.UTC)), 1, LoginOutcome{Streak: 1, QuestRefreshNeeded: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateLogin(cal, tt.lastLogin, now, tt.streak))
		})
	}
}

func TestEvaluateLogin_UsesCalendarZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*60*60+30*60)
	cal := timeutil.NewCalendar(ist)

	// 18:00 UTC on the 20th is 23:30 IST on the 20th; 19:00 UTC is 00:30 IST on the 21st.
	last := time.Date(2024, 7, 20, 18, 0, 0, 0, time.UTC)
	now := time.Date(2024, 7, 20, 19, 0, 0, 0, time.UTC)

	out := EvaluateLogin(cal, &last, now, 2)
	assert.Equal(t, 3, out.Streak)
	assert.True(t, out.QuestRefreshNeeded)
}

type fixedRandom int

func (f fixedRandom) Intn(n int) int { return int(f) % n }

func TestPickTemplate(t *testing.T) {
	_, ok := PickTemplate([]string{}, fixedRandom(0))
	assert.False(t, ok)

	v, ok := PickTemplate([]string{"a", "b", "c"}, fixedRandom(2))
	require.True(t, ok)
	assert.Equal(t, "c", v)

	seen := map[string]bool{}
	rnd := NewLockedRand(7)
	for i := 0; i < 200; i++ {
		v, _ := PickTemplate([]string{"a", "b", "c"}, rnd)
		seen[v] = true
	}
	assert.Len(t, seen, 3)
}
