package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/skillera/skillera-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DTOs
// Shape checks live here; business rules stay in the command Validate methods.
// ══════════════════════════════════════════════════════════════════════════════

var validate = validator.New()

// bind decodes the JSON body into dst and validates its tags.
func bind(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return shared.WrapError("http", "Bind", shared.ErrInvalidInput, "malformed request body", err)
	}
	if err := validate.Struct(dst); err != nil {
		return shared.NewDomainError("http", "Validate", shared.ErrValidation, describe(err))
	}
	return nil
}

// describe renders validator errors as one readable line.
func describe(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err.Error()
	}
	parts := make([]string, 0, len(ves))
	for _, fe := range ves {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "url":
			parts = append(parts, field+" must be a URL")
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

type registerRequest struct {
	Name            string `json:"name" validate:"required,max=80"`
	Class           string `json:"class" validate:"max=8"`
	Section         string `json:"section" validate:"max=8"`
	AdmissionNumber string `json:"admissionNumber" validate:"required,max=32"`
}

type updateProfileRequest struct {
	Name          *string  `json:"name" validate:"omitempty,max=80"`
	Bio           *string  `json:"bio" validate:"omitempty,max=500"`
	Interests     []string `json:"interests" validate:"omitempty,max=20,dive,max=40"`
	IsMentor      *bool    `json:"isMentor"`
	MentorshipBio *string  `json:"mentorshipBio" validate:"omitempty,max=500"`
}

type goalRequest struct {
	Text string `json:"text" validate:"required,max=200"`
}

type competitionRequest struct {
	Text           string `json:"text" validate:"required,max=200"`
	Level          string `json:"level" validate:"required,oneof=interhouse cluster district state national international"`
	Result         string `json:"result" validate:"required,oneof=participated won"`
	CertificateURL string `json:"certificateUrl" validate:"omitempty,url"`
}

type projectSubmissionRequest struct {
	SubmissionURL string `json:"submissionUrl" validate:"required,url"`
}

type quizAttemptRequest struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

type questSubmissionRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

type appealRequest struct {
	ClaimedPercentage float64 `json:"claimedPercentage" validate:"gte=0,lte=100"`
	Reason            string  `json:"reason" validate:"required,max=1000"`
	AnswerSheetURL    string  `json:"answerSheetUrl" validate:"omitempty,url"`
}

type messageRequest struct {
	ReceiverID string `json:"receiverId" validate:"required"`
	Text       string `json:"text" validate:"required,max=1000"`
}

type decisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
}

type appealDecisionRequest struct {
	Approve       *bool    `json:"approve" validate:"required"`
	NewPercentage *float64 `json:"newPercentage" validate:"omitempty,gte=0,lte=100"`
}

type questTemplateRequest struct {
	Text   string `json:"text" validate:"required,max=300"`
	Reward int    `json:"reward" validate:"gte=1,lte=1000"`
}

type projectRequest struct {
	Title       string   `json:"title" validate:"required,max=120"`
	Description string   `json:"description" validate:"max=2000"`
	Skills      []string `json:"skills"`
	Points      int      `json:"points" validate:"gte=0,lte=10000"`
	Mentors     []string `json:"mentors"`
}

type eventRequest struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Date        string `json:"date" validate:"required,max=40"`
}
