package student

import (
	"strings"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/progression"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/pkg/timeutil"
)

// QuestStatus - состояние ежедневного задания.
type QuestStatus string

const (
	QuestUnclaimed QuestStatus = "unclaimed"
	QuestPending   QuestStatus = "pending"
	QuestCompleted QuestStatus = "completed"
	QuestRejected  QuestStatus = "rejected"
)

// DailyQuest - экземпляр задания, выданный студенту.
// Награда начисляется ровно один раз, при переходе в completed.
type DailyQuest struct {
	ID             string      `json:"id"`
	TemplateID     string      `json:"templateId,omitempty"`
	Text           string      `json:"text"`
	Reward         int         `json:"reward"`
	Status         QuestStatus `json:"status"`
	SubmissionText string      `json:"submissionText,omitempty"`
	AssignedAt     time.Time   `json:"assignedAt"`
	SubmittedAt    *time.Time  `json:"submittedAt,omitempty"`
	SettledAt      *time.Time  `json:"settledAt,omitempty"`
}

// QuestOffer - шаблон задания, предложенный при обновлении.
// ID - идентификатор нового экземпляра, TemplateID - шаблона.
type QuestOffer struct {
	ID         string
	TemplateID string
	Text       string
	Reward     int
}

// LoginResult - что изменилось при обработке входа.
type LoginResult struct {
	Outcome        progression.LoginOutcome
	PreviousStreak int
	Assigned       *DailyQuest
	Archived       *DailyQuest
}

// RecordLogin обрабатывает событие входа: обновляет серию и дату входа,
// а при первом входе за день заменяет задание на offer (nil - задания нет).
// Завершённое, отклонённое или ожидающее проверки задание уходит в историю,
// невостребованное отбрасывается.
func (s *Student) RecordLogin(cal timeutil.Calendar, now time.Time, offer *QuestOffer) LoginResult {
	res := LoginResult{PreviousStreak: s.LoginStreak}
	res.Outcome = progression.EvaluateLogin(cal, s.LastLoginDate, now, s.LoginStreak)

	s.LoginStreak = res.Outcome.Streak
	s.LastLoginDate = &now

	if !res.Outcome.QuestRefreshNeeded {
		return res
	}

	if prev := s.DailyQuest; prev != nil && prev.Status != QuestUnclaimed {
		archived := *prev
		s.QuestHistory = append(s.QuestHistory, archived)
		res.Archived = &archived
	}

	s.DailyQuest = nil
	if offer != nil {
		s.DailyQuest = &DailyQuest{
			ID:         offer.ID,
			TemplateID: offer.TemplateID,
			Text:       offer.Text,
			Reward:     offer.Reward,
			Status:     QuestUnclaimed,
			AssignedAt: now,
		}
		assigned := *s.DailyQuest
		res.Assigned = &assigned
	}
	return res
}

// SubmitQuest переводит задание из unclaimed в pending с текстом отчёта.
func (s *Student) SubmitQuest(text string, now time.Time) error {
	if s.DailyQuest == nil {
		return shared.ErrNoDailyQuest
	}
	if s.DailyQuest.Status != QuestUnclaimed {
		return shared.ErrQuestNotClaimable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return shared.NewDomainError("student", "SubmitQuest", shared.ErrEmptyValue, "submission text is required")
	}
	s.DailyQuest.Status = QuestPending
	s.DailyQuest.SubmissionText = text
	s.DailyQuest.SubmittedAt = &now
	return nil
}

// SettleQuest решает текущее задание, ожидающее проверки. Для любого другого
// состояния (нет задания, не pending) это no-op: applied=false, очки не меняются.
func (s *Student) SettleQuest(decision Decision, now time.Time) (applied bool, delta int) {
	return s.settleQuest(s.DailyQuest, decision, now)
}

// SettleQuestByID решает экземпляр задания по ID: текущее или уже ушедшее в
// историю. Неизвестный ID - ErrQuestNotFound, не pending - no-op.
func (s *Student) SettleQuestByID(questID string, decision Decision, now time.Time) (applied bool, delta int, err error) {
	q := s.FindQuest(questID)
	if q == nil {
		return false, 0, shared.ErrQuestNotFound
	}
	applied, delta = s.settleQuest(q, decision, now)
	return applied, delta, nil
}

// FindQuest ищет экземпляр задания среди текущего и архивных.
func (s *Student) FindQuest(questID string) *DailyQuest {
	if q := s.DailyQuest; q != nil && q.ID == questID {
		return q
	}
	for i := range s.QuestHistory {
		if s.QuestHistory[i].ID == questID {
			return &s.QuestHistory[i]
		}
	}
	return nil
}

// PendingQuests возвращает все задания в статусе pending, включая архивные.
func (s *Student) PendingQuests() []DailyQuest {
	var out []DailyQuest
	for _, q := range s.QuestHistory {
		if q.Status == QuestPending {
			out = append(out, q)
		}
	}
	if q := s.DailyQuest; q != nil && q.Status == QuestPending {
		out = append(out, *q)
	}
	return out
}

func (s *Student) settleQuest(q *DailyQuest, decision Decision, now time.Time) (applied bool, delta int) {
	if q == nil || q.Status != QuestPending {
		return false, 0
	}
	switch decision {
	case DecisionApproved:
		q.Status = QuestCompleted
		delta = q.Reward
		s.Points += delta
	case DecisionRejected:
		q.Status = QuestRejected
	default:
		return false, 0
	}
	q.SettledAt = &now
	return true, delta
}

// questRewards - сумма наград за выполненные задания (текущее и архив).
func (s *Student) questRewards() int {
	total := 0
	if s.DailyQuest != nil && s.DailyQuest.Status == QuestCompleted {
		total += s.DailyQuest.Reward
	}
	for _, q := range s.QuestHistory {
		if q.Status == QuestCompleted {
			total += q.Reward
		}
	}
	return total
}
