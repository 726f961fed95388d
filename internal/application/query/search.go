package query

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEARCH QUERIES
// Нечёткий поиск по профилям и учебным материалам (sahilm/fuzzy).
// Пустой запрос возвращает всё в исходном порядке.
// ══════════════════════════════════════════════════════════════════════════════

// studentSource реализует fuzzy.Source: имя, номер зачисления, email, класс.
type studentSource []*student.Student

func (s studentSource) Len() int { return len(s) }

func (s studentSource) String(i int) string {
	p := s[i]
	return strings.ToLower(strings.Join([]string{p.Name, p.AdmissionNumber, p.Email, p.Class + p.Section}, " "))
}

// resourceSource реализует fuzzy.Source: название и теги.
type resourceSource []school.LearningResource

func (r resourceSource) Len() int { return len(r) }

func (r resourceSource) String(i int) string {
	res := r[i]
	return strings.ToLower(res.Title + " " + strings.Join(res.Tags, " ") + " " + string(res.Type))
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

// SearchStudents возвращает профили, отсортированные по релевантности.
func SearchStudents(all []*student.Student, q string) []*student.Student {
	q = normalizeQuery(q)
	if q == "" {
		return all
	}
	src := studentSource(all)
	matches := fuzzy.FindFrom(q, src)
	out := make([]*student.Student, len(matches))
	for i, m := range matches {
		out[i] = src[m.Index]
	}
	return out
}

// SearchResources возвращает материалы, отсортированные по релевантности.
func SearchResources(all []school.LearningResource, q string) []school.LearningResource {
	q = normalizeQuery(q)
	if q == "" {
		return all
	}
	src := resourceSource(all)
	matches := fuzzy.FindFrom(q, src)
	out := make([]school.LearningResource, len(matches))
	for i, m := range matches {
		out[i] = src[m.Index]
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Handlers
// ──────────────────────────────────────────────────────────────────────────────

// StudentSearchQuery - поиск профилей для сотрудников.
type StudentSearchQuery struct {
	Query string
	// Role - фильтр по роли (пусто - все роли).
	Role student.Role
}

// SearchStudentsHandler ищет профили.
type SearchStudentsHandler struct {
	students student.Repository
}

// NewSearchStudentsHandler создаёт обработчик.
func NewSearchStudentsHandler(students student.Repository) *SearchStudentsHandler {
	return &SearchStudentsHandler{students: students}
}

// Handle выполняет поиск.
func (h *SearchStudentsHandler) Handle(ctx context.Context, q StudentSearchQuery) ([]*student.Student, error) {
	all, err := h.students.List(ctx)
	if err != nil {
		return nil, err
	}
	if q.Role != "" {
		all = student.Select(all, student.OnlyRole(q.Role))
	}
	return SearchStudents(all, q.Query), nil
}

// SearchResourcesHandler ищет учебные материалы.
type SearchResourcesHandler struct {
	resources school.Repository[school.LearningResource]
}

// NewSearchResourcesHandler создаёт обработчик.
func NewSearchResourcesHandler(resources school.Repository[school.LearningResource]) *SearchResourcesHandler {
	return &SearchResourcesHandler{resources: resources}
}

// Handle выполняет поиск.
func (h *SearchResourcesHandler) Handle(ctx context.Context, q string) ([]school.LearningResource, error) {
	all, _, err := h.resources.Load(ctx)
	if err != nil {
		return nil, err
	}
	return SearchResources(all, q), nil
}
