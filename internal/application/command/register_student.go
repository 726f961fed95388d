package command

import (
	"context"
	"errors"
	"strings"

	"github.com/skillera/skillera-hub/internal/domain/moderation"
	"github.com/skillera/skillera-hub/internal/domain/progression"
	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
	"github.com/skillera/skillera-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER STUDENT COMMAND
// Creates a profile. Credentials are managed elsewhere.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterStudentCommand contains the data to create a profile.
type RegisterStudentCommand struct {
	Name            string
	Class           string
	Section         string
	AdmissionNumber string
}

// Validate validates the command.
func (c RegisterStudentCommand) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return shared.Validationf("command", "RegisterStudent", "name is required")
	}
	if strings.TrimSpace(c.AdmissionNumber) == "" {
		return shared.Validationf("command", "RegisterStudent", "admission number is required")
	}
	return moderation.CheckText(c.Name, "name")
}

// RegisterStudentResult contains the created profile.
type RegisterStudentResult struct {
	Student *student.Student
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RegisterStudentHandler handles the RegisterStudentCommand.
type RegisterStudentHandler struct {
	students    student.Repository
	quests      school.Repository[school.QuestTemplate]
	exec        *Executor
	cal         timeutil.Calendar
	rnd         progression.Random
	emailDomain string
	ids         IDGenerator
}

// NewRegisterStudentHandler creates a new RegisterStudentHandler.
func NewRegisterStudentHandler(
	students student.Repository,
	quests school.Repository[school.QuestTemplate],
	exec *Executor,
	cal timeutil.Calendar,
	rnd progression.Random,
	emailDomain string,
	ids IDGenerator,
) *RegisterStudentHandler {
	if ids == nil {
		ids = NewUUID
	}
	return &RegisterStudentHandler{
		students:    students,
		quests:      quests,
		exec:        exec,
		cal:         cal,
		rnd:         rnd,
		emailDomain: emailDomain,
		ids:         ids,
	}
}

// Handle executes the register student command.
func (h *RegisterStudentHandler) Handle(ctx context.Context, cmd RegisterStudentCommand) (*RegisterStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := h.exec.Clock().Now()
	s, err := student.NewStudent(student.NewStudentParams{
		ID:              h.ids(),
		Name:            cmd.Name,
		Class:           cmd.Class,
		Section:         cmd.Section,
		AdmissionNumber: cmd.AdmissionNumber,
		EmailDomain:     h.emailDomain,
		Now:             now,
	})
	if err != nil {
		return nil, err
	}

	switch _, err := h.students.GetByEmail(ctx, s.Email); {
	case err == nil:
		return nil, shared.WrapError("student", "Register", shared.ErrAlreadyExists,
			"a profile with this admission number already exists", shared.ErrStudentAlreadyExists)
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	pool, _, err := h.quests.Load(ctx)
	if err != nil {
		return nil, err
	}
	// The first login of the new profile assigns the initial quest.
	login := s.RecordLogin(h.cal, now, pickOffer(pool, h.rnd, h.ids))

	if err := h.students.Create(ctx, s); err != nil {
		return nil, err
	}

	events := []shared.Event{shared.NewStudentRegisteredEvent(s.ID, s.Name, s.Email, now)}
	if q := login.Assigned; q != nil {
		events = append(events, shared.NewQuestEvent(shared.EventQuestAssigned, s.ID, q.ID, string(q.Status), q.Reward, now))
	}
	h.exec.Dispatch(events...)

	return &RegisterStudentResult{Student: s}, nil
}
