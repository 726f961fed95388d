package command

import (
	"context"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PROFILE COMMAND
// Partial profile edit. Nil fields are left untouched.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProfileCommand contains the fields to change.
type UpdateProfileCommand struct {
	StudentID     string
	Name          *string
	Bio           *string
	Interests     []string
	SetInterests  bool
	IsMentor      *bool
	MentorshipBio *string
}

// Validate validates the command.
func (c UpdateProfileCommand) Validate() error {
	if c.StudentID == "" {
		return shared.Validationf("command", "UpdateProfile", "student id is required")
	}
	if c.Name == nil && c.Bio == nil && !c.SetInterests && c.IsMentor == nil && c.MentorshipBio == nil {
		return shared.Validationf("command", "UpdateProfile", "nothing to update")
	}
	return nil
}

// UpdateProfileResult contains the updated profile.
type UpdateProfileResult struct {
	Student *student.Student
	Fields  []string
}

// UpdateProfileHandler handles the UpdateProfileCommand.
type UpdateProfileHandler struct {
	exec *Executor
}

// NewUpdateProfileHandler creates a new UpdateProfileHandler.
func NewUpdateProfileHandler(exec *Executor) *UpdateProfileHandler {
	return &UpdateProfileHandler{exec: exec}
}

// Handle executes the command. All edits are applied or none.
func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd UpdateProfileCommand) (*UpdateProfileResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var fields []string
	out, err := h.exec.Mutate(ctx, cmd.StudentID, func(s *student.Student, now time.Time) (Change, error) {
		fields = fields[:0]
		before := s.Clone()

		if cmd.Name != nil {
			if err := s.ChangeName(*cmd.Name, now); err != nil {
				return Change{}, err
			}
			if s.Name != before.Name {
				fields = append(fields, "name")
			}
		}
		if cmd.Bio != nil {
			if err := s.UpdateBio(*cmd.Bio); err != nil {
				return Change{}, err
			}
			if s.Bio != before.Bio {
				fields = append(fields, "bio")
			}
		}
		if cmd.SetInterests {
			if err := s.SetInterests(cmd.Interests); err != nil {
				return Change{}, err
			}
			fields = append(fields, "interests")
		}
		if cmd.IsMentor != nil || cmd.MentorshipBio != nil {
			isMentor, bio := s.IsMentor, s.MentorshipBio
			if cmd.IsMentor != nil {
				isMentor = *cmd.IsMentor
			}
			if cmd.MentorshipBio != nil {
				bio = *cmd.MentorshipBio
			}
			if err := s.SetMentorship(isMentor, bio); err != nil {
				return Change{}, err
			}
			if s.IsMentor != before.IsMentor || s.MentorshipBio != before.MentorshipBio {
				fields = append(fields, "mentorship")
			}
		}

		if len(fields) == 0 {
			return Change{NoOp: true}, nil
		}
		return Change{Events: []shared.Event{
			shared.NewProfileUpdatedEvent(s.ID, append([]string(nil), fields...), now),
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return &UpdateProfileResult{Student: out.Student, Fields: fields}, nil
}
