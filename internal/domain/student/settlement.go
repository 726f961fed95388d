package student

import (
	"time"

	"github.com/skillera/skillera-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER MUTATIONS
// ══════════════════════════════════════════════════════════════════════════════

// LogActivity добавляет запись в журнал. Засчитанные сразу записи (тест)
// увеличивают очки. Возвращает начисленные очки.
func (s *Student) LogActivity(a Activity) (int, error) {
	if !a.Kind.IsValid() {
		return 0, shared.Validationf("student", "LogActivity", "unknown activity kind %q", a.Kind)
	}
	if a.ID == "" {
		return 0, shared.NewDomainError("student", "LogActivity", shared.ErrInvalidID, "activity id is required")
	}
	if s.activityIndex(a.ID) >= 0 {
		return 0, shared.NewDomainError("student", "LogActivity", shared.ErrAlreadyExists, "activity id already used")
	}
	if a.Kind == KindProject && s.hasPendingSubmission(a.ProjectID) {
		return 0, shared.ErrPendingSubmission
	}

	s.Activities = append(s.Activities, a)
	if a.Counted() {
		s.Points += a.Points
		return a.Points, nil
	}
	return 0, nil
}

func (s *Student) hasPendingSubmission(projectID string) bool {
	for _, a := range s.Activities {
		if a.Kind == KindProject && a.ProjectID == projectID && a.Status == StatusPending {
			return true
		}
	}
	return false
}

// CompleteGoal отмечает цель выполненной и начисляет очки один раз.
// Повторный вызов для выполненной цели ничего не меняет.
func (s *Student) CompleteGoal(activityID string) (int, error) {
	i := s.activityIndex(activityID)
	if i < 0 {
		return 0, shared.ErrActivityNotFound
	}
	a := &s.Activities[i]
	if a.Kind != KindGoal {
		return 0, shared.ErrNotAGoal
	}
	if a.Completed {
		return 0, nil
	}
	a.Completed = true
	s.Points += a.Points
	return a.Points, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SETTLEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Settlement - итог решения по заявке.
type Settlement struct {
	ActivityID     string
	Decision       Decision
	PreviousStatus Status
	Delta          int
}

// Changed возвращает true, если решение изменило статус.
func (r Settlement) Changed() bool {
	return Status(r.Decision) != r.PreviousStatus
}

// SettleActivity применяет решение проверяющего к заявке.
//
//   - одобрение незасчитанной заявки: +points;
//   - отклонение засчитанной: -points;
//   - иначе очки не меняются (повторное решение идемпотентно).
//
// Completed после решения равно (status == approved).
func (s *Student) SettleActivity(activityID string, decision Decision, now time.Time) (Settlement, error) {
	if !decision.IsValid() {
		return Settlement{}, shared.Validationf("student", "SettleActivity", "invalid decision %q", decision)
	}
	i := s.activityIndex(activityID)
	if i < 0 {
		return Settlement{}, shared.ErrActivityNotFound
	}
	a := &s.Activities[i]
	if !a.Kind.RequiresVerification() {
		return Settlement{}, shared.ErrNoVerification
	}

	res := Settlement{ActivityID: a.ID, Decision: decision, PreviousStatus: a.Status}
	counted := a.Counted()

	switch {
	case decision == DecisionApproved && !counted:
		res.Delta = a.Points
	case decision == DecisionRejected && counted:
		res.Delta = -a.Points
	}

	a.Status = Status(decision)
	a.Completed = a.Status == StatusApproved
	if res.Changed() {
		a.SettledAt = &now
	}
	s.Points += res.Delta
	return res, nil
}
