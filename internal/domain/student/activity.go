package student

import (
	"fmt"
	"strings"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// ActivityKind - тип записи в журнале достижений.
type ActivityKind string

const (
	KindGoal        ActivityKind = "goal"
	KindCompetition ActivityKind = "competition"
	KindProject     ActivityKind = "project"
	KindQuiz        ActivityKind = "quiz"
)

// IsValid проверяет тип.
func (k ActivityKind) IsValid() bool {
	switch k {
	case KindGoal, KindCompetition, KindProject, KindQuiz:
		return true
	default:
		return false
	}
}

// RequiresVerification возвращает true для типов, которые подтверждает сотрудник.
func (k ActivityKind) RequiresVerification() bool {
	return k == KindCompetition || k == KindProject
}

// Status - статус проверки заявки.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Decision - решение проверяющего.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// IsValid проверяет решение.
func (d Decision) IsValid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// ParseDecision разбирает решение из строки.
func ParseDecision(s string) (Decision, error) {
	d := Decision(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", shared.Validationf("student", "ParseDecision", "decision must be %q or %q", DecisionApproved, DecisionRejected)
	}
	return d, nil
}

// CompetitionLevel - уровень соревнования.
type CompetitionLevel string

const (
	LevelInterhouse    CompetitionLevel = "interhouse"
	LevelCluster       CompetitionLevel = "cluster"
	LevelDistrict      CompetitionLevel = "district"
	LevelState         CompetitionLevel = "state"
	LevelNational      CompetitionLevel = "national"
	LevelInternational CompetitionLevel = "international"
)

// CompetitionResult - итог участия.
type CompetitionResult string

const (
	ResultParticipated CompetitionResult = "participated"
	ResultWon          CompetitionResult = "won"
)

// competitionPoints - фиксированная таблица очков: уровень -> {участие, победа}.
var competitionPoints = map[CompetitionLevel][2]int{
	LevelInterhouse:    {5, 10},
	LevelCluster:       {15, 30},
	LevelDistrict:      {25, 50},
	LevelState:         {35, 70},
	LevelNational:      {45, 90},
	LevelInternational: {60, 120},
}

// CompetitionPoints возвращает очки за результат на уровне.
func CompetitionPoints(level CompetitionLevel, result CompetitionResult) (int, error) {
	row, ok := competitionPoints[level]
	if !ok {
		return 0, shared.Validationf("student", "CompetitionPoints", "unknown competition level %q", level)
	}
	switch result {
	case ResultParticipated:
		return row[0], nil
	case ResultWon:
		return row[1], nil
	default:
		return 0, shared.Validationf("student", "CompetitionPoints", "unknown competition result %q", result)
	}
}

// GoalPoints - очки за выполненную личную цель.
const GoalPoints = 10

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY
// ══════════════════════════════════════════════════════════════════════════════

// QuizDetails - детали результата теста.
type QuizDetails struct {
	QuizID         string `json:"quizId,omitempty"`
	QuizName       string `json:"quizName"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
}

// Activity - запись журнала. Для goal/quiz авторитетно поле Completed,
// для competition/project - Status, а Completed == (Status == approved).
type Activity struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	Kind      ActivityKind `json:"type"`
	Points    int          `json:"points"`
	Timestamp time.Time    `json:"timestamp"`
	Completed bool         `json:"completed"`
	Status    Status       `json:"status,omitempty"`
	SettledAt *time.Time   `json:"settledAt,omitempty"`

	CompetitionLevel CompetitionLevel  `json:"competitionLevel,omitempty"`
	Result           CompetitionResult `json:"result,omitempty"`
	CertificateURL   string            `json:"certificateUrl,omitempty"`

	ProjectID            string `json:"projectId,omitempty"`
	ProjectTitle         string `json:"projectTitle,omitempty"`
	ProjectSubmissionURL string `json:"projectSubmissionUrl,omitempty"`

	QuizDetails *QuizDetails `json:"quizDetails,omitempty"`
}

// Counted возвращает true, если очки записи входят в сумму студента.
func (a Activity) Counted() bool {
	if a.Kind.RequiresVerification() {
		return a.Status == StatusApproved
	}
	return a.Completed
}

// IsPending возвращает true для заявки, ожидающей проверки.
func (a Activity) IsPending() bool {
	return a.Kind.RequiresVerification() && a.Status == StatusPending
}

// NewGoal создаёт личную цель (не выполнена, без статуса).
func NewGoal(id, text string, now time.Time) (Activity, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Activity{}, shared.NewDomainError("student", "NewGoal", shared.ErrEmptyValue, "goal text is required")
	}
	return Activity{
		ID:        id,
		Text:      text,
		Kind:      KindGoal,
		Points:    GoalPoints,
		Timestamp: now,
	}, nil
}

// NewCompetition создаёт заявку о соревновании со статусом pending.
func NewCompetition(id, text string, level CompetitionLevel, result CompetitionResult, certificateURL string, now time.Time) (Activity, error) {
	points, err := CompetitionPoints(level, result)
	if err != nil {
		return Activity{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Activity{}, shared.NewDomainError("student", "NewCompetition", shared.ErrEmptyValue, "competition description is required")
	}
	return Activity{
		ID:               id,
		Text:             text,
		Kind:             KindCompetition,
		Points:           points,
		Timestamp:        now,
		Status:           StatusPending,
		CompetitionLevel: level,
		Result:           result,
		CertificateURL:   certificateURL,
	}, nil
}

// ProjectRef - данные проекта, нужные для заявки.
type ProjectRef struct {
	ID     string
	Title  string
	Points int
}

// NewProjectSubmission создаёт заявку о сдаче проекта со статусом pending.
func NewProjectSubmission(id string, project ProjectRef, submissionURL string, now time.Time) (Activity, error) {
	if project.Points < 0 {
		return Activity{}, shared.NewDomainError("student", "NewProjectSubmission", shared.ErrValueOutOfRange, "project points cannot be negative")
	}
	return Activity{
		ID:                   id,
		Text:                 "Submitted work for project: " + project.Title,
		Kind:                 KindProject,
		Points:               project.Points,
		Timestamp:            now,
		Status:               StatusPending,
		ProjectID:            project.ID,
		ProjectTitle:         project.Title,
		ProjectSubmissionURL: submissionURL,
	}, nil
}

// QuizResult - проверенный результат теста.
type QuizResult struct {
	QuizID            string
	Subject           string
	Chapter           string
	Score             int
	TotalQuestions    int
	PointsPerQuestion int
}

// NewQuizResult создаёт сразу засчитанную запись: очки = score * pointsPerQuestion.
func NewQuizResult(id string, r QuizResult, now time.Time) (Activity, error) {
	if r.TotalQuestions <= 0 || r.Score < 0 || r.Score > r.TotalQuestions {
		return Activity{}, shared.Validationf("student", "NewQuizResult", "score must be between 0 and %d", r.TotalQuestions)
	}
	if r.PointsPerQuestion < 0 {
		return Activity{}, shared.NewDomainError("student", "NewQuizResult", shared.ErrValueOutOfRange, "points per question cannot be negative")
	}
	name := fmt.Sprintf("%s: %s", r.Subject, r.Chapter)
	return Activity{
		ID:        id,
		Text:      "Completed Quiz: " + name,
		Kind:      KindQuiz,
		Points:    r.Score * r.PointsPerQuestion,
		Timestamp: now,
		Completed: true,
		QuizDetails: &QuizDetails{
			QuizID:         r.QuizID,
			QuizName:       name,
			Score:          r.Score,
			TotalQuestions: r.TotalQuestions,
		},
	}, nil
}
