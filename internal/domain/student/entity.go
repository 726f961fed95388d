package student

import (
	"strings"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Role определяет роль профиля.
type Role string

const (
	// RoleStudent - ученик, участвует в рейтинге.
	RoleStudent Role = "student"
	// RoleAdmin - сотрудник, проверяет заявки и ведёт каталог.
	RoleAdmin Role = "admin"
	// RolePrincipal - директор, рассматривает апелляции.
	RolePrincipal Role = "principal"
)

// IsValid проверяет роль.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RolePrincipal:
		return true
	default:
		return false
	}
}

// IsStaff возвращает true для сотрудников школы.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RolePrincipal
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Student - агрегат профиля. Единственный владелец журнала, задания и очков.
//
// Инвариант: Points == сумма очков засчитанных записей + награды
// выполненных заданий (текущего и из истории).
type Student struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Avatar             string     `json:"avatar"`
	Role               Role       `json:"role"`
	Points             int        `json:"points"`
	AcademicPercentage float64    `json:"academicPercentage"`
	Bio                string     `json:"bio"`
	Interests          []string   `json:"interests"`
	LastNameChangeDate *time.Time `json:"lastNameChangeDate,omitempty"`
	Class              string     `json:"class"`
	Section            string     `json:"section"`
	AdmissionNumber    string     `json:"admissionNumber"`
	IsMentor           bool       `json:"isMentor,omitempty"`
	MentorshipBio      string     `json:"mentorshipBio,omitempty"`

	Activities   []Activity   `json:"activities"`
	DailyQuest   *DailyQuest  `json:"dailyQuest,omitempty"`
	QuestHistory []DailyQuest `json:"questHistory,omitempty"`

	LoginStreak   int        `json:"loginStreak"`
	LastLoginDate *time.Time `json:"lastLoginDate,omitempty"`

	// Version - версия документа в хранилище для compare-and-swap.
	Version int64 `json:"-"`
}

// DefaultAcademicPercentage - стартовая успеваемость нового профиля.
const DefaultAcademicPercentage = 70

// NewStudentParams - параметры регистрации профиля.
type NewStudentParams struct {
	ID              string
	Name            string
	Class           string
	Section         string
	AdmissionNumber string
	EmailDomain     string
	Now             time.Time
}

// NewStudent создаёт профиль ученика. Email формируется из номера зачисления.
func NewStudent(p NewStudentParams) (*Student, error) {
	name := strings.TrimSpace(p.Name)
	admission := strings.TrimSpace(p.AdmissionNumber)

	switch {
	case p.ID == "":
		return nil, shared.NewDomainError("student", "New", shared.ErrInvalidID, "id is required")
	case name == "":
		return nil, shared.NewDomainError("student", "New", shared.ErrEmptyValue, "name is required")
	case admission == "":
		return nil, shared.NewDomainError("student", "New", shared.ErrEmptyValue, "admission number is required")
	case strings.ContainsAny(admission, " @/"):
		return nil, shared.NewDomainError("student", "New", shared.ErrInvalidInput, "admission number contains invalid characters")
	}

	return &Student{
		ID:                 p.ID,
		Name:               name,
		Email:              EmailFor(admission, p.EmailDomain),
		Avatar:             AvatarFor(name),
		Role:               RoleStudent,
		AcademicPercentage: DefaultAcademicPercentage,
		Interests:          []string{},
		Class:              strings.TrimSpace(p.Class),
		Section:            strings.TrimSpace(p.Section),
		AdmissionNumber:    admission,
		Activities:         []Activity{},
		LoginStreak:        1,
	}, nil
}

// EmailFor строит школьный email по номеру зачисления.
func EmailFor(admissionNumber, domain string) string {
	return strings.ToLower(admissionNumber + "@" + domain)
}

// AvatarFor возвращает URL аватара с инициалами.
func AvatarFor(name string) string {
	return "https://api.dicebear.com/7.x/initials/svg?seed=" + strings.ReplaceAll(name, " ", "%20")
}

// Clone возвращает глубокую копию агрегата.
func (s *Student) Clone() *Student {
	c := *s
	c.Interests = append([]string(nil), s.Interests...)
	c.Activities = make([]Activity, len(s.Activities))
	for i, a := range s.Activities {
		if a.QuizDetails != nil {
			qd := *a.QuizDetails
			a.QuizDetails = &qd
		}
		if a.SettledAt != nil {
			t := *a.SettledAt
			a.SettledAt = &t
		}
		c.Activities[i] = a
	}
	if s.DailyQuest != nil {
		q := *s.DailyQuest
		c.DailyQuest = &q
	}
	c.QuestHistory = append([]DailyQuest(nil), s.QuestHistory...)
	if s.LastLoginDate != nil {
		t := *s.LastLoginDate
		c.LastLoginDate = &t
	}
	if s.LastNameChangeDate != nil {
		t := *s.LastNameChangeDate
		c.LastNameChangeDate = &t
	}
	return &c
}

// Normalize приводит документ, прочитанный из хранилища, к рабочему виду:
// пустые срезы вместо nil, серия не меньше 1, completed согласован со статусом.
func (s *Student) Normalize() {
	if s.Activities == nil {
		s.Activities = []Activity{}
	}
	if s.Interests == nil {
		s.Interests = []string{}
	}
	if s.Role == "" {
		s.Role = RoleStudent
	}
	if s.LoginStreak < 1 {
		s.LoginStreak = 1
	}
	for i := range s.Activities {
		a := &s.Activities[i]
		if a.Kind.RequiresVerification() {
			if a.Status == "" {
				a.Status = StatusPending
			}
			a.Completed = a.Status == StatusApproved
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// Activity возвращает запись по ID.
func (s *Student) Activity(id string) (Activity, bool) {
	if i := s.activityIndex(id); i >= 0 {
		return s.Activities[i], true
	}
	return Activity{}, false
}

func (s *Student) activityIndex(id string) int {
	for i := range s.Activities {
		if s.Activities[i].ID == id {
			return i
		}
	}
	return -1
}

// PendingActivities возвращает заявки, ожидающие проверки.
func (s *Student) PendingActivities() []Activity {
	var out []Activity
	for _, a := range s.Activities {
		if a.IsPending() {
			out = append(out, a)
		}
	}
	return out
}

// ExpectedPoints пересчитывает очки по журналу и заданиям.
func (s *Student) ExpectedPoints() int {
	total := 0
	for _, a := range s.Activities {
		if a.Counted() {
			total += a.Points
		}
	}
	return total + s.questRewards()
}

// CheckPoints проверяет инвариант суммы очков.
func (s *Student) CheckPoints() error {
	if want := s.ExpectedPoints(); want != s.Points {
		return shared.WrapError("student", "CheckPoints", shared.ErrInvariantViolation,
			"stored points differ from ledger", shared.ErrPointsDrift)
	}
	return nil
}

// ReconcilePoints выставляет очки по журналу и возвращает поправку.
func (s *Student) ReconcilePoints() int {
	want := s.ExpectedPoints()
	delta := want - s.Points
	s.Points = want
	return delta
}
