package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/skillera/skillera-hub/internal/application/command"
	"github.com/skillera/skillera-hub/internal/application/query"
	"github.com/skillera/skillera-hub/internal/domain/progression"
	"github.com/skillera/skillera-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(c *gin.Context) {
	status := s.deps.HealthChecker.Check(c.Request.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	respond(c, code, status)
}

func (s *Server) handleLive(c *gin.Context) {
	respondOK(c, gin.H{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	res, err := s.deps.Register.Handle(c.Request.Context(), command.RegisterStudentCommand{
		Name:            req.Name,
		Class:           req.Class,
		Section:         req.Section,
		AdmissionNumber: req.AdmissionNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, res.Student)
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED READS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleLevels(c *gin.Context) {
	respondOK(c, progression.Levels())
}

func (s *Server) handleBadges(c *gin.Context) {
	respondOK(c, progression.Badges())
}

func (s *Server) handleLeaderboard(c *gin.Context) {
	q := query.GetLeaderboardQuery{
		Limit: queryInt(c, "limit", s.config.DefaultPageSize),
		Page:  queryInt(c, "page", 1),
	}
	if id := identityFrom(c); id.Role == student.RoleStudent {
		q.StudentID = id.StudentID
	}
	res, err := s.deps.Leaderboard.Handle(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, res)
}

func (s *Server) handleEvents(c *gin.Context) {
	events, err := s.deps.School.Events(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, events)
}

func (s *Server) handleProjects(c *gin.Context) {
	projects, err := s.deps.School.Projects(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, projects)
}

func (s *Server) handleQuizzes(c *gin.Context) {
	quizzes, err := s.deps.School.Quizzes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, quizzes)
}

func (s *Server) handleResources(c *gin.Context) {
	resources, err := s.deps.SearchResources.Handle(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, resources)
}

func (s *Server) handleMentors(c *gin.Context) {
	mentors, err := s.deps.School.Mentors(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, mentors)
}

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleSendMessage(c *gin.Context) {
	var req messageRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	msg, err := s.deps.SendMessage.Handle(c.Request.Context(), command.SendMessageCommand{
		SenderID:   identityFrom(c).StudentID,
		ReceiverID: req.ReceiverID,
		Text:       req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, msg)
}

func (s *Server) handleConversation(c *gin.Context) {
	msgs, err := s.deps.School.Conversation(c.Request.Context(), identityFrom(c).StudentID, c.Param("peerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, msgs)
}

// ══════════════════════════════════════════════════════════════════════════════
// OWN PROFILE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleMe(c *gin.Context) {
	view, err := s.deps.Profile.Handle(c.Request.Context(), identityFrom(c).StudentID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

type profileUpdateResponse struct {
	Student *student.Student `json:"student"`
	Fields  []string         `json:"fields"`
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	res, err := s.deps.UpdateProfile.Handle(c.Request.Context(), command.UpdateProfileCommand{
		StudentID:     identityFrom(c).StudentID,
		Name:          req.Name,
		Bio:           req.Bio,
		Interests:     req.Interests,
		SetInterests:  req.Interests != nil,
		IsMentor:      req.IsMentor,
		MentorshipBio: req.MentorshipBio,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, profileUpdateResponse{Student: res.Student, Fields: res.Fields})
}

// queryInt reads an integer query parameter; junk falls back to def.
func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
