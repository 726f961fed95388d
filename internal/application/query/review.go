package query

import (
	"context"
	"sort"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW QUEUES
// Очереди проверки для сотрудников: заявки и ежедневные задания.
// ══════════════════════════════════════════════════════════════════════════════

// PendingSubmission - заявка, ожидающая решения, с данными ученика.
type PendingSubmission struct {
	StudentID   string           `json:"studentId"`
	StudentName string           `json:"studentName"`
	Class       string           `json:"class,omitempty"`
	Section     string           `json:"section,omitempty"`
	Activity    student.Activity `json:"activity"`
}

// PendingQuest - задание, ожидающее проверки.
type PendingQuest struct {
	StudentID   string             `json:"studentId"`
	StudentName string             `json:"studentName"`
	Quest       student.DailyQuest `json:"quest"`
}

// ReviewQueueHandler строит очереди проверки.
type ReviewQueueHandler struct {
	students student.Repository
}

// NewReviewQueueHandler создаёт обработчик.
func NewReviewQueueHandler(students student.Repository) *ReviewQueueHandler {
	return &ReviewQueueHandler{students: students}
}

// PendingSubmissions возвращает заявки всех учеников, старые первыми.
func (h *ReviewQueueHandler) PendingSubmissions(ctx context.Context) ([]PendingSubmission, error) {
	all, err := h.students.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []PendingSubmission{}
	for _, s := range all {
		for _, a := range s.PendingActivities() {
			out = append(out, PendingSubmission{
				StudentID:   s.ID,
				StudentName: s.Name,
				Class:       s.Class,
				Section:     s.Section,
				Activity:    a,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Activity.Timestamp.Before(out[j].Activity.Timestamp)
	})
	return out, nil
}

// PendingQuests возвращает задания в статусе pending, старые первыми.
// Задания, ушедшие в историю до проверки, тоже попадают в очередь.
func (h *ReviewQueueHandler) PendingQuests(ctx context.Context) ([]PendingQuest, error) {
	all, err := h.students.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []PendingQuest{}
	for _, s := range all {
		for _, q := range s.PendingQuests() {
			out = append(out, PendingQuest{StudentID: s.ID, StudentName: s.Name, Quest: q})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return submittedAt(out[i].Quest).Before(submittedAt(out[j].Quest))
	})
	return out, nil
}

func submittedAt(q student.DailyQuest) time.Time {
	if q.SubmittedAt != nil {
		return *q.SubmittedAt
	}
	return q.AssignedAt
}
