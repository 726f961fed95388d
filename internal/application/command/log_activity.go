package command

import (
	"context"
	"strings"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/moderation"
	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY COMMANDS
// Goals, competition results and quiz attempts appended to the ledger.
// ══════════════════════════════════════════════════════════════════════════════

// ActivityResult is returned by every command that touches one ledger entry.
type ActivityResult struct {
	Student  *student.Student
	Activity student.Activity
	Awarded  int
}

func activityResult(out *Outcome, activityID string) *ActivityResult {
	a, _ := out.Student.Activity(activityID)
	return &ActivityResult{Student: out.Student, Activity: a, Awarded: out.PointsDelta()}
}

func activityLogged(studentID string, a student.Activity, now time.Time) shared.Event {
	return shared.NewActivityLoggedEvent(studentID, a.ID, string(a.Kind), a.Points, a.IsPending(), now)
}

// ══════════════════════════════════════════════════════════════════════════════
// LOG GOAL
// ══════════════════════════════════════════════════════════════════════════════

// LogGoalCommand adds a personal goal.
type LogGoalCommand struct {
	StudentID string
	Text      string
}

// Validate validates the command.
func (c LogGoalCommand) Validate() error {
	if c.StudentID == "" {
		return shared.Validationf("command", "LogGoal", "student id is required")
	}
	return moderation.CheckText(c.Text, "goal")
}

// LogGoalHandler handles the LogGoalCommand.
type LogGoalHandler struct {
	exec *Executor
	ids  IDGenerator
}

// NewLogGoalHandler creates a new LogGoalHandler.
func NewLogGoalHandler(exec *Executor, ids IDGenerator) *LogGoalHandler {
	if ids == nil {
		ids = NewUUID
	}
	return &LogGoalHandler{exec: exec, ids: ids}
}

// Handle executes the command.
func (h *LogGoalHandler) Handle(ctx context.Context, cmd LogGoalCommand) (*ActivityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	id := h.ids()
	out, err := h.exec.Mutate(ctx, cmd.StudentID, func(s *student.Student, now time.Time) (Change, error) {
		a, err := student.NewGoal(id, cmd.Text, now)
		if err != nil {
			return Change{}, err
		}
		if _, err := s.LogActivity(a); err != nil {
			return Change{}, err
		}
		return Change{Reason: "goal_logged", Events: []shared.Event{activityLogged(s.ID, a, now)}}, nil
	})
	if err != nil {
		return nil, err
	}
	return activityResult(out, id), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE GOAL
// ══════════════════════════════════════════════════════════════════════════════

// CompleteGoalCommand marks a goal as done.
type CompleteGoalCommand struct {
	StudentID  string
	ActivityID string
}

// Validate validates the command.
func (c CompleteGoalCommand) Validate() error {
	if c.StudentID == "" || c.ActivityID == "" {
		return shared.Validationf("command", "CompleteGoal", "student id and activity id are required")
	}
	return nil
}

// CompleteGoalHandler handles the CompleteGoalCommand.
type CompleteGoalHandler struct {
	exec *Executor
}

// NewCompleteGoalHandler creates a new CompleteGoalHandler.
func NewCompleteGoalHandler(exec *Executor) *CompleteGoalHandler {
	return &CompleteGoalHandler{exec: exec}
}

// Handle executes the command. Completing a finished goal awards nothing.
func (h *CompleteGoalHandler) Handle(ctx context.Context, cmd CompleteGoalCommand) (*ActivityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	out, err := h.exec.Mutate(ctx, cmd.StudentID, func(s *student.Student, _ time.Time) (Change, error) {
		awarded, err := s.CompleteGoal(cmd.ActivityID)
		if err != nil {
			return Change{}, err
		}
		if awarded == 0 {
			return Change{NoOp: true}, nil
		}
		return Change{Reason: "goal_completed"}, nil
	})
	if err != nil {
		return nil, err
	}
	return activityResult(out, cmd.ActivityID), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOG COMPETITION
// ══════════════════════════════════════════════════════════════════════════════

// LogCompetitionCommand files a competition result for review.
type LogCompetitionCommand struct {
	StudentID      string
	Text           string
	Level          student.CompetitionLevel
	Result         student.CompetitionResult
	CertificateURL string
}

// Validate validates the command.
func (c LogCompetitionCommand) Validate() error {
	if c.StudentID == "" {
		return shared.Validationf("command", "LogCompetition", "student id is required")
	}
	if _, err := student.CompetitionPoints(c.Level, c.Result); err != nil {
		return err
	}
	if c.CertificateURL != "" {
		if err := school.ValidateURL(c.CertificateURL); err != nil {
			return err
		}
	}
	return moderation.CheckText(c.Text, "description")
}

// LogCompetitionHandler handles the LogCompetitionCommand.
type LogCompetitionHandler struct {
	exec *Executor
	ids  IDGenerator
}

// NewLogCompetitionHandler creates a new LogCompetitionHandler.
func NewLogCompetitionHandler(exec *Executor, ids IDGenerator) *LogCompetitionHandler {
	if ids == nil {
		ids = NewUUID
	}
	return &LogCompetitionHandler{exec: exec, ids: ids}
}

// Handle executes the command. The entry stays pending until staff decide.
func (h *LogCompetitionHandler) Handle(ctx context.Context, cmd LogCompetitionCommand) (*ActivityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	id := h.ids()
	out, err := h.exec.Mutate(ctx, cmd.StudentID, func(s *student.Student, now time.Time) (Change, error) {
		a, err := student.NewCompetition(id, cmd.Text, cmd.Level, cmd.Result, cmd.CertificateURL, now)
		if err != nil {
			return Change{}, err
		}
		if _, err := s.LogActivity(a); err != nil {
			return Change{}, err
		}
		return Change{Reason: "competition_logged", Events: []shared.Event{activityLogged(s.ID, a, now)}}, nil
	})
	if err != nil {
		return nil, err
	}
	return activityResult(out, id), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTEMPT QUIZ
// ══════════════════════════════════════════════════════════════════════════════

// AttemptQuizCommand submits answers for server-side grading.
type AttemptQuizCommand struct {
	StudentID string
	QuizID    string
	// Answers maps question ID to the chosen option.
	Answers map[string]string
}

// Validate validates the command.
func (c AttemptQuizCommand) Validate() error {
	if c.StudentID == "" || c.QuizID == "" {
		return shared.Validationf("command", "AttemptQuiz", "student id and quiz id are required")
	}
	if len(c.Answers) == 0 {
		return shared.Validationf("command", "AttemptQuiz", "answers are required")
	}
	return nil
}

// AttemptQuizResult contains the graded attempt.
type AttemptQuizResult struct {
	ActivityResult
	Score          int
	TotalQuestions int
}

// AttemptQuizHandler handles the AttemptQuizCommand.
type AttemptQuizHandler struct {
	exec    *Executor
	quizzes school.Repository[school.Quiz]
	ids     IDGenerator
}

// NewAttemptQuizHandler creates a new AttemptQuizHandler.
func NewAttemptQuizHandler(exec *Executor, quizzes school.Repository[school.Quiz], ids IDGenerator) *AttemptQuizHandler {
	if ids == nil {
		ids = NewUUID
	}
	return &AttemptQuizHandler{exec: exec, quizzes: quizzes, ids: ids}
}

// Handle grades the answers and records a settled quiz entry.
func (h *AttemptQuizHandler) Handle(ctx context.Context, cmd AttemptQuizCommand) (*AttemptQuizResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	quizzes, _, err := h.quizzes.Load(ctx)
	if err != nil {
		return nil, err
	}
	quiz, _, ok := school.FindByID(quizzes, strings.TrimSpace(cmd.QuizID))
	if !ok {
		return nil, shared.ErrQuizNotFound
	}
	score, total, err := quiz.Grade(cmd.Answers)
	if err != nil {
		return nil, err
	}

	id := h.ids()
	out, err := h.exec.Mutate(ctx, cmd.StudentID, func(s *student.Student, now time.Time) (Change, error) {
		a, err := student.NewQuizResult(id, student.QuizResult{
			QuizID:            quiz.ID,
			Subject:           quiz.Subject,
			Chapter:           quiz.Chapter,
			Score:             score,
			TotalQuestions:    total,
			PointsPerQuestion: quiz.PointsPerQuestion,
		}, now)
		if err != nil {
			return Change{}, err
		}
		if _, err := s.LogActivity(a); err != nil {
			return Change{}, err
		}
		return Change{Reason: "quiz_completed", Events: []shared.Event{activityLogged(s.ID, a, now)}}, nil
	})
	if err != nil {
		return nil, err
	}

	return &AttemptQuizResult{
		ActivityResult: *activityResult(out, id),
		Score:          score,
		TotalQuestions: total,
	}, nil
}
