package command

import (
	"context"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/student"
	"github.com/skillera/skillera-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUDIT POINTS COMMAND
// Verifies the point sum of every profile against its ledger.
// ══════════════════════════════════════════════════════════════════════════════

// AuditPointsCommand optionally repairs drifted profiles.
type AuditPointsCommand struct {
	Fix bool
}

// PointsDrift describes one inconsistent profile.
type PointsDrift struct {
	StudentID string
	Stored    int
	Expected  int
	Fixed     bool
}

// AuditPointsResult summarizes an audit run.
type AuditPointsResult struct {
	Checked int
	Drifts  []PointsDrift
}

// AuditPointsHandler handles the AuditPointsCommand.
type AuditPointsHandler struct {
	exec     *Executor
	students student.Repository
	log      *logger.Logger
}

// NewAuditPointsHandler creates a new AuditPointsHandler.
func NewAuditPointsHandler(exec *Executor, students student.Repository, log *logger.Logger) *AuditPointsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AuditPointsHandler{exec: exec, students: students, log: log.Named("audit")}
}

// Handle executes the audit.
func (h *AuditPointsHandler) Handle(ctx context.Context, cmd AuditPointsCommand) (*AuditPointsResult, error) {
	all, err := h.students.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &AuditPointsResult{Checked: len(all)}
	for _, s := range all {
		if s.CheckPoints() == nil {
			continue
		}
		drift := PointsDrift{StudentID: s.ID, Stored: s.Points, Expected: s.ExpectedPoints()}
		h.log.Warn("points drift detected",
			logger.StudentID(s.ID), logger.Points(s.Points), logger.Int("expected", drift.Expected))

		if cmd.Fix {
			if _, err := h.exec.Mutate(ctx, s.ID, func(s *student.Student, _ time.Time) (Change, error) {
				if s.ReconcilePoints() == 0 {
					return Change{NoOp: true}, nil
				}
				return Change{Reason: "audit_reconcile"}, nil
			}); err != nil {
				return result, err
			}
			drift.Fixed = true
		}
		result.Drifts = append(result.Drifts, drift)
	}
	return result, nil
}
