package command

import (
	"context"

	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEND MESSAGE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// SendMessageCommand delivers a direct message between two profiles.
type SendMessageCommand struct {
	SenderID   string
	ReceiverID string
	Text       string
}

// Validate validates the command.
func (c SendMessageCommand) Validate() error {
	if c.SenderID == "" || c.ReceiverID == "" {
		return shared.Validationf("command", "SendMessage", "sender and receiver are required")
	}
	return nil
}

// SendMessageHandler handles the SendMessageCommand.
type SendMessageHandler struct {
	exec     *Executor
	students student.Repository
	messages school.Repository[school.Message]
	ids      IDGenerator
}

// NewSendMessageHandler creates a new SendMessageHandler.
func NewSendMessageHandler(exec *Executor, students student.Repository, messages school.Repository[school.Message], ids IDGenerator) *SendMessageHandler {
	if ids == nil {
		ids = NewUUID
	}
	return &SendMessageHandler{exec: exec, students: students, messages: messages, ids: ids}
}

// Handle executes the command.
func (h *SendMessageHandler) Handle(ctx context.Context, cmd SendMessageCommand) (*school.Message, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	msg, err := school.NewMessage(h.ids(), cmd.SenderID, cmd.ReceiverID, cmd.Text, h.exec.Clock().Now())
	if err != nil {
		return nil, err
	}
	if _, err := h.students.GetByID(ctx, cmd.ReceiverID); err != nil {
		return nil, err
	}

	if _, err := UpdateCollection(ctx, h.exec.Retrier(), h.messages, func(items []school.Message) ([]school.Message, error) {
		return append(items, msg), nil
	}); err != nil {
		return nil, err
	}
	return &msg, nil
}
