package progression

import (
	"math/rand"
	"sync"
	"time"

	"github.com/skillera/skillera-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN EVALUATION
// ══════════════════════════════════════════════════════════════════════════════

// LoginOutcome - результат оценки входа.
type LoginOutcome struct {
	// Streak - серия после входа (>= 1).
	Streak int
	// QuestRefreshNeeded - первый вход за календарный день.
	QuestRefreshNeeded bool
	// Broken - серия прервана и начата заново.
	Broken bool
}

// EvaluateLogin применяет правила серии дней в зоне календаря:
//   - последний вход сегодня: серия без изменений, задание не обновляется;
//   - вчера: серия +1, задание обновляется;
//   - раньше или никогда: серия = 1, задание обновляется.
func EvaluateLogin(cal timeutil.Calendar, lastLogin *time.Time, now time.Time, currentStreak int) LoginOutcome {
	if currentStreak < 1 {
		currentStreak = 1
	}

	if lastLogin == nil {
		return LoginOutcome{Streak: 1, QuestRefreshNeeded: true}
	}

	switch {
	case cal.IsSameDay(*lastLogin, now):
		return LoginOutcome{Streak: currentStreak}
	case cal.IsConsecutiveDay(*lastLogin, now):
		return LoginOutcome{Streak: currentStreak + 1, QuestRefreshNeeded: true}
	default:
		// Вход "из будущего" (сдвиг часов) тоже сбрасывает серию.
		return LoginOutcome{Streak: 1, QuestRefreshNeeded: true, Broken: currentStreak > 1}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// QUEST SELECTION
// ══════════════════════════════════════════════════════════════════════════════

// Random - источник случайности для выбора задания.
type Random interface {
	Intn(n int) int
}

// LockedRand - потокобезопасная обёртка над math/rand.
type LockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewLockedRand создаёт генератор с заданным seed.
func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{rnd: rand.New(rand.NewSource(seed))}
}

// Intn возвращает число из [0, n).
func (r *LockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

// PickTemplate выбирает шаблон равновероятно. Пустой пул -> false.
func PickTemplate[T any](pool []T, rnd Random) (T, bool) {
	var zero T
	if len(pool) == 0 || rnd == nil {
		return zero, false
	}
	return pool[rnd.Intn(len(pool))], true
}
