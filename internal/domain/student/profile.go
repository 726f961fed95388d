package student

import (
	"fmt"
	"strings"
	"time"

	"github.com/skillera/skillera-hub/internal/domain/moderation"
	"github.com/skillera/skillera-hub/internal/domain/shared"
)

const (
	// NameChangeCooldown - минимальный интервал между сменами имени.
	NameChangeCooldown = 30 * 24 * time.Hour
	// MaxInterests - лимит интересов в профиле.
	MaxInterests       = 10
	maxNameLength      = 60
	maxBioLength       = 500
)

// ChangeName меняет отображаемое имя не чаще раза в 30 дней.
func (s *Student) ChangeName(name string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("student", "ChangeName", shared.ErrEmptyValue, "name is required")
	}
	if len([]rune(name)) > maxNameLength {
		return shared.Validationf("student", "ChangeName", "name must be at most %d characters", maxNameLength)
	}
	if name == s.Name {
		return nil
	}
	if err := moderation.CheckText(name, "name"); err != nil {
		return err
	}
	if s.LastNameChangeDate != nil {
		next := s.LastNameChangeDate.Add(NameChangeCooldown)
		if now.Before(next) {
			days := int((next.Sub(now) + 24*time.Hour - 1) / (24 * time.Hour))
			return shared.WrapError("student", "ChangeName", shared.ErrRateLimited,
				fmt.Sprintf("you can change your name again in %d day(s)", days), shared.ErrNameChangeTooSoon)
		}
	}
	s.Name = name
	s.Avatar = AvatarFor(name)
	s.LastNameChangeDate = &now
	return nil
}

// UpdateBio меняет описание профиля.
func (s *Student) UpdateBio(bio string) error {
	bio = strings.TrimSpace(bio)
	if len([]rune(bio)) > maxBioLength {
		return shared.Validationf("student", "UpdateBio", "bio must be at most %d characters", maxBioLength)
	}
	if err := moderation.CheckText(bio, "bio"); err != nil {
		return err
	}
	s.Bio = bio
	return nil
}

// SetInterests заменяет список интересов (без дублей, не более MaxInterests).
func (s *Student) SetInterests(interests []string) error {
	seen := make(map[string]struct{}, len(interests))
	out := make([]string, 0, len(interests))
	for _, in := range interests {
		in = strings.TrimSpace(in)
		key := strings.ToLower(in)
		if in == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		if err := moderation.CheckText(in, "interest"); err != nil {
			return err
		}
		seen[key] = struct{}{}
		out = append(out, in)
	}
	if len(out) > MaxInterests {
		return shared.Validationf("student", "SetInterests", "at most %d interests are allowed", MaxInterests)
	}
	s.Interests = out
	return nil
}

// SetMentorship включает или выключает режим наставника.
func (s *Student) SetMentorship(isMentor bool, bio string) error {
	bio = strings.TrimSpace(bio)
	if isMentor && bio == "" {
		return shared.NewDomainError("student", "SetMentorship", shared.ErrEmptyValue, "mentorship bio is required for mentors")
	}
	if err := moderation.CheckText(bio, "mentorship bio"); err != nil {
		return err
	}
	s.IsMentor = isMentor
	s.MentorshipBio = bio
	return nil
}

// SetAcademicPercentage устанавливает успеваемость (0..100).
func (s *Student) SetAcademicPercentage(p float64) error {
	if p < 0 || p > 100 {
		return shared.NewDomainError("student", "SetAcademicPercentage", shared.ErrValueOutOfRange, "percentage must be between 0 and 100")
	}
	s.AcademicPercentage = p
	return nil
}
