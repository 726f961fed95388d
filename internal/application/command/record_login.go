package command

import (
	"context"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/progression"
	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
	"github.com/skillera/skillera-hub/pkg/logger"
	"github.com/skillera/skillera-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD LOGIN COMMAND
// Processes a login event: streak continuation and the daily quest refresh.
// ══════════════════════════════════════════════════════════════════════════════

// RecordLoginCommand contains the data to record a login.
type RecordLoginCommand struct {
	StudentID string
}

// Validate validates the command.
func (c RecordLoginCommand) Validate() error {
	if c.StudentID == "" {
		return shared.Validationf("command", "RecordLogin", "student id is required")
	}
	return nil
}

// RecordLoginResult contains the result of a login.
type RecordLoginResult struct {
	Student        *student.Student
	Streak         int
	PreviousStreak int
	StreakBroken   bool
	QuestRefreshed bool
	Quest          *student.DailyQuest
	Archived       *student.DailyQuest
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordLoginHandler handles the RecordLoginCommand.
type RecordLoginHandler struct {
	exec   *Executor
	quests school.Repository[school.QuestTemplate]
	cal    timeutil.Calendar
	rnd    progression.Random
	ids    IDGenerator
	log    *logger.Logger
}

// NewRecordLoginHandler creates a new RecordLoginHandler.
func NewRecordLoginHandler(
	exec *Executor,
	quests school.Repository[school.QuestTemplate],
	cal timeutil.Calendar,
	rnd progression.Random,
	ids IDGenerator,
	log *logger.Logger,
) *RecordLoginHandler {
	if log == nil {
		log = logger.Nop()
	}
	if ids == nil {
		ids = NewUUID
	}
	return &RecordLoginHandler{exec: exec, quests: quests, cal: cal, rnd: rnd, ids: ids, log: log.Named("record_login")}
}

// Handle executes the record login command.
func (h *RecordLoginHandler) Handle(ctx context.Context, cmd RecordLoginCommand) (*RecordLoginResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	pool, _, err := h.quests.Load(ctx)
	if err != nil {
		return nil, err
	}

	result := &RecordLoginResult{}
	out, err := h.exec.Mutate(ctx, cmd.StudentID, func(s *student.Student, now time.Time) (Change, error) {
		offer := h.offerFor(s, pool, now)
		login := s.RecordLogin(h.cal, now, offer)

		*result = RecordLoginResult{
			Streak:         login.Outcome.Streak,
			PreviousStreak: login.PreviousStreak,
			StreakBroken:   login.Outcome.Broken,
			QuestRefreshed: login.Outcome.QuestRefreshNeeded,
			Quest:          login.Assigned,
			Archived:       login.Archived,
		}
		return Change{Reason: "login", Events: loginEvents(s.ID, login, now)}, nil
	})
	if err != nil {
		return nil, err
	}

	result.Student = out.Student
	if !result.QuestRefreshed {
		result.Quest = out.Student.DailyQuest
	}
	if a := result.Archived; a != nil && a.Status == student.QuestPending {
		h.log.Warn("archived a quest that was still awaiting review",
			logger.StudentID(cmd.StudentID), logger.String("quest_id", a.ID))
	}
	return result, nil
}

// offerFor draws a template only when this login starts a new calendar day.
func (h *RecordLoginHandler) offerFor(s *student.Student, pool []school.QuestTemplate, now time.Time) *student.QuestOffer {
	outcome := progression.EvaluateLogin(h.cal, s.LastLoginDate, now, s.LoginStreak)
	if !outcome.QuestRefreshNeeded {
		return nil
	}
	return pickOffer(pool, h.rnd, h.ids)
}

// pickOffer draws a template and gives the new quest its own instance id.
func pickOffer(pool []school.QuestTemplate, rnd progression.Random, ids IDGenerator) *student.QuestOffer {
	t, ok := progression.PickTemplate(pool, rnd)
	if !ok {
		return nil
	}
	return &student.QuestOffer{ID: ids(), TemplateID: t.ID, Text: t.Text, Reward: t.Reward}
}

func loginEvents(studentID string, login student.LoginResult, now time.Time) []shared.Event {
	if !login.Outcome.QuestRefreshNeeded {
		return nil
	}
	events := []shared.Event{
		shared.NewStreakUpdatedEvent(studentID, login.PreviousStreak, login.Outcome.Streak, login.Outcome.Broken, now),
	}
	if a := login.Archived; a != nil {
		events = append(events, shared.NewQuestEvent(shared.EventQuestArchived, studentID, a.ID, string(a.Status), a.Reward, now))
	}
	if q := login.Assigned; q != nil {
		events = append(events, shared.NewQuestEvent(shared.EventQuestAssigned, studentID, q.ID, string(q.Status), q.Reward, now))
	}
	return events
}
