package query

import (
	"context"

	"github.com/skillera/skillera-hub/internal/domain/leaderboard"
	"github.com/skillera/skillera-hub/internal/domain/progression"
	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE QUERY
// Полная карточка ученика: профиль, уровень, значки, место и рекомендации.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// maxRecommendations - сколько материалов предлагать по интересам.
	maxRecommendations = 5

	// neighborRadius - сколько соседей выше и ниже показывать рядом с местом.
	neighborRadius = 2
)

// ProfileView - карточка профиля для владельца.
type ProfileView struct {
	Student         *student.Student           `json:"student"`
	Progress        progression.LevelProgress  `json:"progress"`
	Badges          []progression.Badge        `json:"badges"`
	NextBadge       *progression.Badge         `json:"nextBadge,omitempty"`
	Rank            *leaderboard.Entry         `json:"rank,omitempty"`
	Nearby          []leaderboard.Entry        `json:"nearby,omitempty"`
	PendingCount    int                        `json:"pendingCount"`
	Recommendations []school.LearningResource `json:"recommendations"`
}

// GetProfileHandler собирает карточку профиля.
type GetProfileHandler struct {
	students  student.Repository
	resources school.Repository[school.LearningResource]
	board     *GetLeaderboardHandler
}

// NewGetProfileHandler создаёт обработчик.
func NewGetProfileHandler(students student.Repository, resources school.Repository[school.LearningResource], board *GetLeaderboardHandler) *GetProfileHandler {
	return &GetProfileHandler{students: students, resources: resources, board: board}
}

// Handle возвращает карточку профиля studentID.
func (h *GetProfileHandler) Handle(ctx context.Context, studentID string) (*ProfileView, error) {
	s, err := h.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	view := &ProfileView{
		Student:         s,
		Progress:        progression.ProgressFor(s.Points),
		Badges:          progression.UnlockedBadges(s.Points),
		PendingCount:    len(s.PendingActivities()),
		Recommendations: []school.LearningResource{},
	}
	if next, ok := progression.NextBadge(s.Points); ok {
		view.NextBadge = &next
	}

	if s.Role == student.RoleStudent && h.board != nil {
		snap, err := h.board.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		if e, ok := leaderboard.Find(snap.Entries, s.ID); ok {
			view.Rank = &e
			view.Nearby = append([]leaderboard.Entry(nil), leaderboard.Neighbors(snap.Entries, s.ID, neighborRadius)...)
		}
	}

	if len(s.Interests) > 0 {
		resources, _, err := h.resources.Load(ctx)
		if err != nil {
			return nil, err
		}
		view.Recommendations = Recommend(resources, s.Interests, maxRecommendations)
	}
	return view, nil
}

// Recommend отбирает материалы, у которых есть тег из интересов.
func Recommend(resources []school.LearningResource, interests []string, limit int) []school.LearningResource {
	out := []school.LearningResource{}
	for _, r := range resources {
		if len(out) == limit {
			break
		}
		if r.MatchesAny(interests) {
			out = append(out, r)
		}
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// PUBLIC PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// PublicProfile - то, что другие ученики видят о профиле.
type PublicProfile struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Avatar        string   `json:"avatar"`
	Role          string   `json:"role"`
	Class         string   `json:"class,omitempty"`
	Section       string   `json:"section,omitempty"`
	Points        int      `json:"points"`
	Level         int      `json:"level"`
	LevelName     string   `json:"levelName"`
	Bio           string   `json:"bio,omitempty"`
	Interests     []string `json:"interests"`
	IsMentor      bool     `json:"isMentor"`
	MentorshipBio string   `json:"mentorshipBio,omitempty"`
}

// PublicProfileOf строит публичное представление профиля.
func PublicProfileOf(s *student.Student) PublicProfile {
	lvl := progression.LevelFor(s.Points)
	return PublicProfile{
		ID:            s.ID,
		Name:          s.Name,
		Avatar:        s.Avatar,
		Role:          string(s.Role),
		Class:         s.Class,
		Section:       s.Section,
		Points:        s.Points,
		Level:         lvl.Level,
		LevelName:     lvl.Name,
		Bio:           s.Bio,
		Interests:     s.Interests,
		IsMentor:      s.IsMentor,
		MentorshipBio: s.MentorshipBio,
	}
}
