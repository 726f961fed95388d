// Package jobs contains the scheduled jobs of SkillEra Hub.
package jobs

import (
	"context"

	"github.com/skillera/skillera-hub/internal/application/command"
	"github.com/skillera/skillera-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// POINTS AUDIT JOB
// ══════════════════════════════════════════════════════════════════════════════

// Auditor is satisfied by *command.AuditPointsHandler.
type Auditor interface {
	Handle(ctx context.Context, cmd command.AuditPointsCommand) (*command.AuditPointsResult, error)
}

// PointsAuditJob compares every profile's stored points with the sum of
// its ledger and optionally repairs the drift.
type PointsAuditJob struct {
	audit Auditor
	fix   bool
	log   *logger.Logger
}

// NewPointsAuditJob creates the job.
func NewPointsAuditJob(audit Auditor, fix bool, log *logger.Logger) *PointsAuditJob {
	if log == nil {
		log = logger.Nop()
	}
	return &PointsAuditJob{audit: audit, fix: fix, log: log.Named("job.audit")}
}

// Name implements scheduler.Job.
func (j *PointsAuditJob) Name() string { return "points_audit" }

// Run implements scheduler.Job.
func (j *PointsAuditJob) Run(ctx context.Context) error {
	res, err := j.audit.Handle(ctx, command.AuditPointsCommand{Fix: j.fix})
	if err != nil {
		return err
	}

	fixed := 0
	for _, d := range res.Drifts {
		if d.Fixed {
			fixed++
		}
	}
	if len(res.Drifts) > 0 {
		j.log.Warn("points audit found drift",
			logger.Int("checked", res.Checked),
			logger.Int("drifted", len(res.Drifts)),
			logger.Int("fixed", fixed),
		)
		return nil
	}
	j.log.Info("points audit clean", logger.Int("checked", res.Checked))
	return nil
}
