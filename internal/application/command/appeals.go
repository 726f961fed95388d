package command

import (
	"context"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
	"github.com/skillera/skillera-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE APPEAL COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CreateAppealCommand asks the principal to review the academic percentage.
type CreateAppealCommand struct {
	StudentID         string
	ClaimedPercentage float64
	Reason            string
	AnswerSheetURL    string
}

// Validate validates the command.
func (c CreateAppealCommand) Validate() error {
	if c.StudentID == "" {
		return shared.Validationf("command", "CreateAppeal", "student id is required")
	}
	return nil
}

// CreateAppealHandler handles the CreateAppealCommand.
type CreateAppealHandler struct {
	exec     *Executor
	students student.Repository
	appeals  school.Repository[school.Appeal]
	ids      IDGenerator
}

// NewCreateAppealHandler creates a new CreateAppealHandler.
func NewCreateAppealHandler(exec *Executor, students student.Repository, appeals school.Repository[school.Appeal], ids IDGenerator) *CreateAppealHandler {
	if ids == nil {
		ids = NewUUID
	}
	return &CreateAppealHandler{exec: exec, students: students, appeals: appeals, ids: ids}
}

// Handle executes the command.
func (h *CreateAppealHandler) Handle(ctx context.Context, cmd CreateAppealCommand) (*school.Appeal, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	s, err := h.students.GetByID(ctx, cmd.StudentID)
	if err != nil {
		return nil, err
	}
	now := h.exec.Clock().Now()
	appeal, err := school.NewAppeal(h.ids(), s.ID, s.Name, cmd.ClaimedPercentage, cmd.Reason, cmd.AnswerSheetURL, now)
	if err != nil {
		return nil, err
	}

	if _, err := UpdateCollection(ctx, h.exec.Retrier(), h.appeals, func(items []school.Appeal) ([]school.Appeal, error) {
		return append(items, appeal), nil
	}); err != nil {
		return nil, err
	}

	h.exec.Dispatch(shared.NewCatalogChangedEvent(string(school.CollectionAppeals), appeal.ID, now))
	return &appeal, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RESOLVE APPEAL COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// ResolveAppealCommand contains the principal's decision.
type ResolveAppealCommand struct {
	AppealID   string
	Approve    bool
	ResolverID string
	// NewPercentage overrides the claimed value on approval.
	NewPercentage *float64
}

// Validate validates the command.
func (c ResolveAppealCommand) Validate() error {
	if c.AppealID == "" {
		return shared.Validationf("command", "ResolveAppeal", "appeal id is required")
	}
	if p := c.NewPercentage; p != nil && (*p < 0 || *p > 100) {
		return shared.NewDomainError("command", "ResolveAppeal", shared.ErrValueOutOfRange, "percentage must be between 0 and 100")
	}
	return nil
}

// ResolveAppealHandler handles the ResolveAppealCommand.
type ResolveAppealHandler struct {
	exec    *Executor
	appeals school.Repository[school.Appeal]
	log     *logger.Logger
}

// NewResolveAppealHandler creates a new ResolveAppealHandler.
func NewResolveAppealHandler(exec *Executor, appeals school.Repository[school.Appeal], log *logger.Logger) *ResolveAppealHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ResolveAppealHandler{exec: exec, appeals: appeals, log: log.Named("resolve_appeal")}
}

// Handle executes the command. The appeal is closed first; the granted
// percentage is applied to the profile only after that write succeeds.
// Approving an already approved appeal re-applies its granted percentage,
// so a failed profile write can be repaired by repeating the request.
func (h *ResolveAppealHandler) Handle(ctx context.Context, cmd ResolveAppealCommand) (*school.Appeal, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	items, _, err := h.appeals.Load(ctx)
	if err != nil {
		return nil, err
	}
	current, _, ok := school.FindByID(items, cmd.AppealID)
	if !ok {
		return nil, shared.ErrAppealNotFound
	}
	if current.Status == school.AppealApproved && cmd.Approve && current.GrantedPercentage != nil {
		if err := h.applyPercentage(ctx, current.StudentID, *current.GrantedPercentage); err != nil {
			return nil, err
		}
		return &current, nil
	}

	now := h.exec.Clock().Now()
	var resolved school.Appeal
	if _, err := UpdateCollection(ctx, h.exec.Retrier(), h.appeals, func(items []school.Appeal) ([]school.Appeal, error) {
		a, i, ok := school.FindByID(items, cmd.AppealID)
		if !ok {
			return nil, shared.ErrAppealNotFound
		}
		granted := a.ClaimedPercentage
		if cmd.NewPercentage != nil {
			granted = *cmd.NewPercentage
		}
		if err := a.Resolve(cmd.Approve, granted, now); err != nil {
			return nil, err
		}
		items[i] = a
		resolved = a
		return items, nil
	}); err != nil {
		return nil, err
	}

	if p := resolved.GrantedPercentage; p != nil {
		if err := h.applyPercentage(ctx, resolved.StudentID, *p); err != nil {
			h.log.Error("appeal approved but profile update failed",
				logger.String("appeal_id", resolved.ID),
				logger.StudentID(resolved.StudentID),
				logger.Err(err))
			return nil, err
		}
	}

	h.log.Info("appeal resolved",
		logger.String("appeal_id", resolved.ID),
		logger.StudentID(resolved.StudentID),
		logger.Decision(string(resolved.Status)),
		logger.String("resolver_id", cmd.ResolverID))
	h.exec.Dispatch(shared.NewAppealResolvedEvent(resolved.ID, resolved.StudentID, string(resolved.Status), resolved.GrantedPercentage, now))
	return &resolved, nil
}

// applyPercentage is a no-op when the profile already holds pct.
func (h *ResolveAppealHandler) applyPercentage(ctx context.Context, studentID string, pct float64) error {
	_, err := h.exec.Mutate(ctx, studentID, func(s *student.Student, now time.Time) (Change, error) {
		if s.AcademicPercentage == pct {
			return Change{NoOp: true}, nil
		}
		if err := s.SetAcademicPercentage(pct); err != nil {
			return Change{}, err
		}
		return Change{Events: []shared.Event{
			shared.NewProfileUpdatedEvent(s.ID, []string{"academicPercentage"}, now),
		}}, nil
	})
	return err
}
