package command

import (
	"context"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/moderation"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
	"github.com/skillera/skillera-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SETTLE SUBMISSION COMMAND
// Staff approve or reject a competition or project entry.
// ══════════════════════════════════════════════════════════════════════════════

// SettleSubmissionCommand contains a reviewer decision.
type SettleSubmissionCommand struct {
	StudentID  string
	ActivityID string
	Decision   string
	ReviewerID string
}

// Validate validates the command.
func (c SettleSubmissionCommand) Validate() error {
	if c.StudentID == "" || c.ActivityID == "" {
		return shared.Validationf("command", "SettleSubmission", "student id and activity id are required")
	}
	_, err := student.ParseDecision(c.Decision)
	return err
}

// SettleSubmissionResult contains the settled entry.
type SettleSubmissionResult struct {
	ActivityResult
	Settlement student.Settlement
}

// SettleSubmissionHandler handles the SettleSubmissionCommand.
type SettleSubmissionHandler struct {
	exec *Executor
	log  *logger.Logger
}

// NewSettleSubmissionHandler creates a new SettleSubmissionHandler.
func NewSettleSubmissionHandler(exec *Executor, log *logger.Logger) *SettleSubmissionHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SettleSubmissionHandler{exec: exec, log: log.Named("settle_submission")}
}

// Handle executes the command. Repeating a decision changes nothing.
func (h *SettleSubmissionHandler) Handle(ctx context.Context, cmd SettleSubmissionCommand) (*SettleSubmissionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	decision, _ := student.ParseDecision(cmd.Decision)

	var settlement student.Settlement
	out, err := h.exec.Mutate(ctx, cmd.StudentID, func(s *student.Student, now time.Time) (Change, error) {
		res, err := s.SettleActivity(cmd.ActivityID, decision, now)
		if err != nil {
			return Change{}, err
		}
		settlement = res
		if !res.Changed() {
			return Change{NoOp: true}, nil
		}
		return Change{
			Reason: "submission_" + string(decision),
			Events: []shared.Event{
				shared.NewSubmissionSettledEvent(s.ID, res.ActivityID, string(res.Decision), res.Delta, now),
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	h.log.Info("submission settled",
		logger.StudentID(cmd.StudentID),
		logger.ActivityID(cmd.ActivityID),
		logger.Decision(string(decision)),
		logger.PointsDelta(settlement.Delta),
		logger.String("reviewer_id", cmd.ReviewerID))

	return &SettleSubmissionResult{
		ActivityResult: *activityResult(out, cmd.ActivityID),
		Settlement:     settlement,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT QUEST COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SubmitQuestCommand claims the daily quest with a short report.
type SubmitQuestCommand struct {
	StudentID string
	Text      string
}

// Validate validates the command.
func (c SubmitQuestCommand) Validate() error {
	if c.StudentID == "" {
		return shared.Validationf("command", "SubmitQuest", "student id is required")
	}
	return moderation.CheckText(c.Text, "submission")
}

// QuestResult contains the quest after a transition.
type QuestResult struct {
	Student *student.Student
	Quest   *student.DailyQuest
	// Applied is false when a settlement found no quest awaiting review.
	Applied bool
	Awarded int
}

// SubmitQuestHandler handles the SubmitQuestCommand.
type SubmitQuestHandler struct {
	exec *Executor
}

// NewSubmitQuestHandler creates a new SubmitQuestHandler.
func NewSubmitQuestHandler(exec *Executor) *SubmitQuestHandler {
	return &SubmitQuestHandler{exec: exec}
}

// Handle executes the command.
func (h *SubmitQuestHandler) Handle(ctx context.Context, cmd SubmitQuestCommand) (*QuestResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	out, err := h.exec.Mutate(ctx, cmd.StudentID, func(s *student.Student, now time.Time) (Change, error) {
		if err := s.SubmitQuest(cmd.Text, now); err != nil {
			return Change{}, err
		}
		q := s.DailyQuest
		return Change{Events: []shared.Event{
			shared.NewQuestEvent(shared.EventQuestSubmitted, s.ID, q.ID, string(q.Status), q.Reward, now),
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return &QuestResult{Student: out.Student, Quest: out.Student.DailyQuest, Applied: true}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SETTLE QUEST COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SettleQuestCommand resolves a pending quest. QuestID selects an instance,
// current or archived; empty means the current daily quest.
type SettleQuestCommand struct {
	StudentID  string
	QuestID    string
	Decision   string
	ReviewerID string
}

// Validate validates the command.
func (c SettleQuestCommand) Validate() error {
	if c.StudentID == "" {
		return shared.Validationf("command", "SettleQuest", "student id is required")
	}
	_, err := student.ParseDecision(c.Decision)
	return err
}

// SettleQuestHandler handles the SettleQuestCommand.
type SettleQuestHandler struct {
	exec *Executor
	log  *logger.Logger
}

// NewSettleQuestHandler creates a new SettleQuestHandler.
func NewSettleQuestHandler(exec *Executor, log *logger.Logger) *SettleQuestHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SettleQuestHandler{exec: exec, log: log.Named("settle_quest")}
}

// Handle executes the command. When the quest is not pending nothing is
// written and the result reports Applied=false.
func (h *SettleQuestHandler) Handle(ctx context.Context, cmd SettleQuestCommand) (*QuestResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	decision, _ := student.ParseDecision(cmd.Decision)

	result := &QuestResult{}
	var settled student.DailyQuest
	out, err := h.exec.Mutate(ctx, cmd.StudentID, func(s *student.Student, now time.Time) (Change, error) {
		settled = student.DailyQuest{}
		var (
			applied bool
			delta   int
			q       = s.DailyQuest
		)
		if cmd.QuestID == "" {
			applied, delta = s.SettleQuest(decision, now)
		} else {
			var err error
			if applied, delta, err = s.SettleQuestByID(cmd.QuestID, decision, now); err != nil {
				return Change{}, err
			}
			q = s.FindQuest(cmd.QuestID)
		}
		result.Applied, result.Awarded = applied, delta
		if q != nil {
			settled = *q
		}
		if !applied {
			return Change{NoOp: true}, nil
		}
		return Change{
			Reason: "quest_" + string(decision),
			Events: []shared.Event{shared.NewQuestSettledEvent(s.ID, q.ID, string(decision), delta, now)},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	result.Student = out.Student
	result.Quest = out.Student.DailyQuest
	if settled.ID != "" {
		result.Quest = &settled
	}
	if result.Applied {
		h.log.Info("quest settled",
			logger.StudentID(cmd.StudentID),
			logger.String("quest_id", settled.ID),
			logger.Decision(string(decision)),
			logger.PointsDelta(result.Awarded),
			logger.String("reviewer_id", cmd.ReviewerID))
	}
	return result, nil
}
