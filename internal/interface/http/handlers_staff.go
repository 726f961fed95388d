package http

import (
	"github.com/gin-gonic/gin"

	"github.com/skillera/skillera-hub/internal/application/command"
	"github.com/skillera/skillera-hub/internal/application/query"
	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW (admin)
// ══════════════════════════════════════════════════════════════════════════════

type settlementResponse struct {
	activityResponse
	PreviousStatus student.Status `json:"previousStatus"`
	Changed        bool           `json:"changed"`
}

type auditResponse struct {
	Checked int          `json:"checked"`
	Drifts  []driftEntry `json:"drifts"`
}

type driftEntry struct {
	StudentID string `json:"studentId"`
	Stored    int    `json:"stored"`
	Expected  int    `json:"expected"`
	Fixed     bool   `json:"fixed"`
}

func (s *Server) handleSearchStudents(c *gin.Context) {
	found, err := s.deps.SearchStudents.Handle(c.Request.Context(), query.StudentSearchQuery{
		Query: c.Query("q"),
		Role:  student.Role(c.Query("role")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, found)
}

func (s *Server) handlePendingSubmissions(c *gin.Context) {
	subs, err := s.deps.Reviews.PendingSubmissions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, subs)
}

func (s *Server) handleSettleSubmission(c *gin.Context) {
	var req decisionRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	res, err := s.deps.SettleSubmission.Handle(c.Request.Context(), command.SettleSubmissionCommand{
		StudentID:  c.Param("id"),
		ActivityID: c.Param("activityId"),
		Decision:   req.Decision,
		ReviewerID: identityFrom(c).StudentID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, settlementResponse{
		activityResponse: activityView(&res.ActivityResult),
		PreviousStatus:   res.Settlement.PreviousStatus,
		Changed:          res.Settlement.Changed(),
	})
}

func (s *Server) handlePendingQuests(c *gin.Context) {
	quests, err := s.deps.Reviews.PendingQuests(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, quests)
}

func (s *Server) handleSettleQuest(c *gin.Context) {
	var req decisionRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	res, err := s.deps.SettleQuest.Handle(c.Request.Context(), command.SettleQuestCommand{
		StudentID:  c.Param("id"),
		QuestID:    c.Param("questId"),
		Decision:   req.Decision,
		ReviewerID: identityFrom(c).StudentID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if !res.Applied {
		respondError(c, shared.ErrQuestNotPending)
		return
	}
	respondOK(c, questResponse{Student: res.Student, Quest: res.Quest, Awarded: res.Awarded})
}

func (s *Server) handleAudit(c *gin.Context) {
	res, err := s.deps.AuditPoints.Handle(c.Request.Context(), command.AuditPointsCommand{
		Fix: c.Query("fix") == "true",
	})
	if err != nil {
		respondError(c, err)
		return
	}
	out := auditResponse{Checked: res.Checked, Drifts: make([]driftEntry, len(res.Drifts))}
	for i, d := range res.Drifts {
		out.Drifts[i] = driftEntry{StudentID: d.StudentID, Stored: d.Stored, Expected: d.Expected, Fixed: d.Fixed}
	}
	respondOK(c, out)
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG (admin)
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleQuestTemplates(c *gin.Context) {
	templates, err := s.deps.School.QuestTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, templates)
}

func (s *Server) handleCreateQuestTemplate(c *gin.Context) {
	var req questTemplateRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	t, err := s.deps.Catalog.CreateQuestTemplate(c.Request.Context(), school.QuestTemplate{Text: req.Text, Reward: req.Reward})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, t)
}

func (s *Server) handleUpdateQuestTemplate(c *gin.Context) {
	var req questTemplateRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	t, err := s.deps.Catalog.UpdateQuestTemplate(c.Request.Context(), school.QuestTemplate{
		ID: c.Param("id"), Text: req.Text, Reward: req.Reward,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, t)
}

func (s *Server) handleDeleteQuestTemplate(c *gin.Context) {
	s.deleted(c, s.deps.Catalog.DeleteQuestTemplate(c.Request.Context(), c.Param("id")))
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req projectRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	p, err := s.deps.Catalog.CreateProject(c.Request.Context(), req.project(""))
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, p)
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	var req projectRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	p, err := s.deps.Catalog.UpdateProject(c.Request.Context(), req.project(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, p)
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	s.deleted(c, s.deps.Catalog.DeleteProject(c.Request.Context(), c.Param("id")))
}

func (r projectRequest) project(id string) school.Project {
	return school.Project{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Skills:      r.Skills,
		Points:      r.Points,
		Mentors:     r.Mentors,
	}
}

func (s *Server) handleCreateEvent(c *gin.Context) {
	var req eventRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	e, err := s.deps.Catalog.CreateEvent(c.Request.Context(), school.Event{
		Title: req.Title, Description: req.Description, Date: req.Date,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, e)
}

func (s *Server) handleUpdateEvent(c *gin.Context) {
	var req eventRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	e, err := s.deps.Catalog.UpdateEvent(c.Request.Context(), school.Event{
		ID: c.Param("id"), Title: req.Title, Description: req.Description, Date: req.Date,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, e)
}

func (s *Server) handleDeleteEvent(c *gin.Context) {
	s.deleted(c, s.deps.Catalog.DeleteEvent(c.Request.Context(), c.Param("id")))
}

func (s *Server) deleted(c *gin.Context, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": c.Param("id")})
}

// ══════════════════════════════════════════════════════════════════════════════
// PRINCIPAL
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleAppeals(c *gin.Context) {
	status := school.AppealStatus(c.Query("status"))
	switch status {
	case "", school.AppealPending, school.AppealApproved, school.AppealRejected:
	default:
		respondError(c, shared.Validationf("http", "ListAppeals", "unknown appeal status %q", status))
		return
	}
	appeals, err := s.deps.School.Appeals(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, appeals)
}

func (s *Server) handleResolveAppeal(c *gin.Context) {
	var req appealDecisionRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	appeal, err := s.deps.ResolveAppeal.Handle(c.Request.Context(), command.ResolveAppealCommand{
		AppealID:      c.Param("id"),
		Approve:       *req.Approve,
		ResolverID:    identityFrom(c).StudentID,
		NewPercentage: req.NewPercentage,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, appeal)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.deps.School.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}
