package http

import (
	"github.com/gin-gonic/gin"

	"github.com/skillera/skillera-hub/internal/application/command"
	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE VIEWS
// ══════════════════════════════════════════════════════════════════════════════

type activityResponse struct {
	Student  *student.Student `json:"student"`
	Activity student.Activity `json:"activity"`
	Awarded  int              `json:"awarded"`
}

func activityView(r *command.ActivityResult) activityResponse {
	return activityResponse{Student: r.Student, Activity: r.Activity, Awarded: r.Awarded}
}

type loginResponse struct {
	Student        *student.Student    `json:"student"`
	Streak         int                 `json:"streak"`
	PreviousStreak int                 `json:"previousStreak"`
	StreakBroken   bool                `json:"streakBroken"`
	QuestRefreshed bool                `json:"questRefreshed"`
	Quest          *student.DailyQuest `json:"quest,omitempty"`
	Archived       *student.DailyQuest `json:"archived,omitempty"`
}

type questResponse struct {
	Student *student.Student    `json:"student"`
	Quest   *student.DailyQuest `json:"quest,omitempty"`
	Awarded int                 `json:"awarded"`
}

type quizResponse struct {
	activityResponse
	Score          int `json:"score"`
	TotalQuestions int `json:"totalQuestions"`
}

type joinResponse struct {
	Project school.Project `json:"project"`
	Joined  bool           `json:"joined"`
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRecordLogin(c *gin.Context) {
	res, err := s.deps.RecordLogin.Handle(c.Request.Context(), command.RecordLoginCommand{
		StudentID: identityFrom(c).StudentID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, loginResponse{
		Student:        res.Student,
		Streak:         res.Streak,
		PreviousStreak: res.PreviousStreak,
		StreakBroken:   res.StreakBroken,
		QuestRefreshed: res.QuestRefreshed,
		Quest:          res.Quest,
		Archived:       res.Archived,
	})
}

func (s *Server) handleLogGoal(c *gin.Context) {
	var req goalRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	res, err := s.deps.LogGoal.Handle(c.Request.Context(), command.LogGoalCommand{
		StudentID: identityFrom(c).StudentID,
		Text:      req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, activityView(res))
}

func (s *Server) handleCompleteGoal(c *gin.Context) {
	res, err := s.deps.CompleteGoal.Handle(c.Request.Context(), command.CompleteGoalCommand{
		StudentID:  identityFrom(c).StudentID,
		ActivityID: c.Param("id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, activityView(res))
}

func (s *Server) handleLogCompetition(c *gin.Context) {
	var req competitionRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	res, err := s.deps.LogCompetition.Handle(c.Request.Context(), command.LogCompetitionCommand{
		StudentID:      identityFrom(c).StudentID,
		Text:           req.Text,
		Level:          student.CompetitionLevel(req.Level),
		Result:         student.CompetitionResult(req.Result),
		CertificateURL: req.CertificateURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, activityView(res))
}

func (s *Server) handleJoinProject(c *gin.Context) {
	res, err := s.deps.JoinProject.Handle(c.Request.Context(), command.JoinProjectCommand{
		StudentID: identityFrom(c).StudentID,
		ProjectID: c.Param("projectId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, joinResponse{Project: res.Project, Joined: res.Joined})
}

func (s *Server) handleSubmitProject(c *gin.Context) {
	var req projectSubmissionRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	res, err := s.deps.SubmitProject.Handle(c.Request.Context(), command.SubmitProjectCommand{
		StudentID:     identityFrom(c).StudentID,
		ProjectID:     c.Param("projectId"),
		SubmissionURL: req.SubmissionURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, activityView(res))
}

func (s *Server) handleAttemptQuiz(c *gin.Context) {
	var req quizAttemptRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	res, err := s.deps.AttemptQuiz.Handle(c.Request.Context(), command.AttemptQuizCommand{
		StudentID: identityFrom(c).StudentID,
		QuizID:    c.Param("quizId"),
		Answers:   req.Answers,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, quizResponse{
		activityResponse: activityView(&res.ActivityResult),
		Score:            res.Score,
		TotalQuestions:   res.TotalQuestions,
	})
}

func (s *Server) handleSubmitQuest(c *gin.Context) {
	var req questSubmissionRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	res, err := s.deps.SubmitQuest.Handle(c.Request.Context(), command.SubmitQuestCommand{
		StudentID: identityFrom(c).StudentID,
		Text:      req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, questResponse{Student: res.Student, Quest: res.Quest, Awarded: res.Awarded})
}

func (s *Server) handleCreateAppeal(c *gin.Context) {
	var req appealRequest
	if err := bind(c, &req); err != nil {
		respondError(c, err)
		return
	}
	appeal, err := s.deps.CreateAppeal.Handle(c.Request.Context(), command.CreateAppealCommand{
		StudentID:         identityFrom(c).StudentID,
		ClaimedPercentage: req.ClaimedPercentage,
		Reason:            req.Reason,
		AnswerSheetURL:    req.AnswerSheetURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, appeal)
}
