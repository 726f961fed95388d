package command

import (
	"context"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOIN PROJECT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// JoinProjectCommand adds a student to a project's member list.
type JoinProjectCommand struct {
	StudentID string
	ProjectID string
}

// Validate validates the command.
func (c JoinProjectCommand) Validate() error {
	if c.StudentID == "" || c.ProjectID == "" {
		return shared.Validationf("command", "JoinProject", "student id and project id are required")
	}
	return nil
}

// JoinProjectResult contains the project after joining.
type JoinProjectResult struct {
	Project school.Project
	// Joined is false when the student was already a member.
	Joined bool
}

// JoinProjectHandler handles the JoinProjectCommand.
type JoinProjectHandler struct {
	exec     *Executor
	students student.Repository
	projects school.Repository[school.Project]
}

// NewJoinProjectHandler creates a new JoinProjectHandler.
func NewJoinProjectHandler(exec *Executor, students student.Repository, projects school.Repository[school.Project]) *JoinProjectHandler {
	return &JoinProjectHandler{exec: exec, students: students, projects: projects}
}

// Handle executes the command. Joining twice is a no-op.
func (h *JoinProjectHandler) Handle(ctx context.Context, cmd JoinProjectCommand) (*JoinProjectResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if _, err := h.students.GetByID(ctx, cmd.StudentID); err != nil {
		return nil, err
	}

	current, _, err := h.projects.Load(ctx)
	if err != nil {
		return nil, err
	}
	if p, _, ok := school.FindByID(current, cmd.ProjectID); ok && p.HasMember(cmd.StudentID) {
		return &JoinProjectResult{Project: p}, nil
	}

	result := &JoinProjectResult{}
	_, err = UpdateCollection(ctx, h.exec.Retrier(), h.projects, func(items []school.Project) ([]school.Project, error) {
		p, i, ok := school.FindByID(items, cmd.ProjectID)
		if !ok {
			return nil, shared.ErrProjectNotFound
		}
		p.Members = append([]string(nil), p.Members...)
		result.Joined = p.Join(cmd.StudentID)
		result.Project = p
		items[i] = p
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	if result.Joined {
		h.exec.Dispatch(shared.NewCatalogChangedEvent(string(school.CollectionProjects), cmd.ProjectID, h.exec.Clock().Now()))
	}
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT PROJECT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SubmitProjectCommand files project work for review. Every submission gets a
// new ledger entry, so a rejected project can be resubmitted.
type SubmitProjectCommand struct {
	StudentID     string
	ProjectID     string
	SubmissionURL string
}

// Validate validates the command.
func (c SubmitProjectCommand) Validate() error {
	if c.StudentID == "" || c.ProjectID == "" {
		return shared.Validationf("command", "SubmitProject", "student id and project id are required")
	}
	if c.SubmissionURL == "" {
		return shared.Validationf("command", "SubmitProject", "submission URL is required")
	}
	return school.ValidateURL(c.SubmissionURL)
}

// SubmitProjectHandler handles the SubmitProjectCommand.
type SubmitProjectHandler struct {
	exec     *Executor
	projects school.Repository[school.Project]
	ids      IDGenerator
}

// NewSubmitProjectHandler creates a new SubmitProjectHandler.
func NewSubmitProjectHandler(exec *Executor, projects school.Repository[school.Project], ids IDGenerator) *SubmitProjectHandler {
	if ids == nil {
		ids = NewUUID
	}
	return &SubmitProjectHandler{exec: exec, projects: projects, ids: ids}
}

// Handle executes the command.
func (h *SubmitProjectHandler) Handle(ctx context.Context, cmd SubmitProjectCommand) (*ActivityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	projects, _, err := h.projects.Load(ctx)
	if err != nil {
		return nil, err
	}
	project, _, ok := school.FindByID(projects, cmd.ProjectID)
	if !ok {
		return nil, shared.ErrProjectNotFound
	}
	if !project.HasMember(cmd.StudentID) {
		return nil, shared.ErrNotProjectMember
	}

	id := h.ids()
	ref := student.ProjectRef{ID: project.ID, Title: project.Title, Points: project.Points}
	out, err := h.exec.Mutate(ctx, cmd.StudentID, func(s *student.Student, now time.Time) (Change, error) {
		a, err := student.NewProjectSubmission(id, ref, cmd.SubmissionURL, now)
		if err != nil {
			return Change{}, err
		}
		if _, err := s.LogActivity(a); err != nil {
			return Change{}, err
		}
		return Change{Reason: "project_submitted", Events: []shared.Event{activityLogged(s.ID, a, now)}}, nil
	})
	if err != nil {
		return nil, err
	}
	return activityResult(out, id), nil
}
