package query

import (
	"context"
	"sort"

	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHOOL QUERIES
// Каталог, наставники, переписка, апелляции и сводка для директора.
// ══════════════════════════════════════════════════════════════════════════════

// SchoolHandler отвечает на запросы по общим коллекциям.
type SchoolHandler struct {
	students student.Repository
	catalog  *school.Catalog
}

// NewSchoolHandler создаёт обработчик.
func NewSchoolHandler(students student.Repository, catalog *school.Catalog) *SchoolHandler {
	return &SchoolHandler{students: students, catalog: catalog}
}

func load[T school.Item](ctx context.Context, repo school.Repository[T]) ([]T, error) {
	items, _, err := repo.Load(ctx)
	return items, err
}

// Events возвращает мероприятия.
func (h *SchoolHandler) Events(ctx context.Context) ([]school.Event, error) {
	return load(ctx, h.catalog.Events)
}

// Projects возвращает проекты.
func (h *SchoolHandler) Projects(ctx context.Context) ([]school.Project, error) {
	return load(ctx, h.catalog.Projects)
}

// QuestTemplates возвращает шаблоны заданий.
func (h *SchoolHandler) QuestTemplates(ctx context.Context) ([]school.QuestTemplate, error) {
	return load(ctx, h.catalog.Quests)
}

// Quizzes возвращает тесты без правильных ответов.
func (h *SchoolHandler) Quizzes(ctx context.Context) ([]school.Quiz, error) {
	all, err := load(ctx, h.catalog.Quizzes)
	if err != nil {
		return nil, err
	}
	out := make([]school.Quiz, len(all))
	for i, q := range all {
		out[i] = q.Public()
	}
	return out, nil
}

// Mentors возвращает публичные профили наставников.
func (h *SchoolHandler) Mentors(ctx context.Context) ([]PublicProfile, error) {
	all, err := h.students.List(ctx)
	if err != nil {
		return nil, err
	}
	mentors := student.Select(all, student.OnlyMentors())
	out := make([]PublicProfile, len(mentors))
	for i, s := range mentors {
		out[i] = PublicProfileOf(s)
	}
	return out, nil
}

// Conversation возвращает переписку двух профилей по времени.
func (h *SchoolHandler) Conversation(ctx context.Context, a, b string) ([]school.Message, error) {
	all, err := load(ctx, h.catalog.Messages)
	if err != nil {
		return nil, err
	}
	out := []school.Message{}
	for _, m := range all {
		if m.Between(a, b) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Appeals возвращает апелляции, новые первыми. Пустой status - все.
func (h *SchoolHandler) Appeals(ctx context.Context, status school.AppealStatus) ([]school.Appeal, error) {
	all, err := load(ctx, h.catalog.Appeals)
	if err != nil {
		return nil, err
	}
	out := []school.Appeal{}
	for _, a := range all {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PRINCIPAL STATS
// ══════════════════════════════════════════════════════════════════════════════

// PrincipalStats - сводка по школе.
type PrincipalStats struct {
	StudentCount       int     `json:"studentCount"`
	AveragePoints      float64 `json:"averagePoints"`
	AverageAcademic    float64 `json:"averageAcademicPercentage"`
	PendingAppeals     int     `json:"pendingAppeals"`
	PendingSubmissions int     `json:"pendingSubmissions"`
	PendingQuests      int     `json:"pendingQuests"`
	MentorCount        int     `json:"mentorCount"`
}

// Stats считает сводку. Учитываются только профили с ролью student.
func (h *SchoolHandler) Stats(ctx context.Context) (*PrincipalStats, error) {
	all, err := h.students.List(ctx)
	if err != nil {
		return nil, err
	}
	appeals, err := load(ctx, h.catalog.Appeals)
	if err != nil {
		return nil, err
	}

	stats := &PrincipalStats{}
	var points, academic float64
	for _, s := range all {
		if s.IsMentor {
			stats.MentorCount++
		}
		if s.Role != student.RoleStudent {
			continue
		}
		stats.StudentCount++
		points += float64(s.Points)
		academic += s.AcademicPercentage
		stats.PendingSubmissions += len(s.PendingActivities())
		if q := s.DailyQuest; q != nil && q.Status == student.QuestPending {
			stats.PendingQuests++
		}
	}
	if stats.StudentCount > 0 {
		stats.AveragePoints = points / float64(stats.StudentCount)
		stats.AverageAcademic = academic / float64(stats.StudentCount)
	}
	for _, a := range appeals {
		if a.Status == school.AppealPending {
			stats.PendingAppeals++
		}
	}
	return stats, nil
}
