// Package app wires repositories, the event bus, command and query handlers
// into the dependency set served over HTTP and used by the worker and the
// admin CLI.
package app

import (
	"github.com/skillera/skillera-hub/internal/application/command"
	"github.com/skillera/skillera-hub/internal/application/query"
	"github.com/skillera/skillera-hub/internal/domain/leaderboard"
	"github.com/skillera/skillera-hub/internal/domain/progression"
	"github.com/skillera/skillera-hub/internal/domain/school"
	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/domain/student"
	httpapi "github.com/skillera/skillera-hub/internal/interface/http"
	"github.com/skillera/skillera-hub/internal/interface/http/handlers"
	"github.com/skillera/skillera-hub/pkg/logger"
	"github.com/skillera/skillera-hub/pkg/timeutil"
)

// Components are the already-opened building blocks. Nil optional fields
// fall back to no-op implementations.
type Components struct {
	Students  student.Repository
	Catalog   *school.Catalog
	Publisher shared.EventPublisher

	Clock    timeutil.Clock
	Calendar timeutil.Calendar
	Random   progression.Random

	EmailDomain string

	// optional
	LeaderboardCache leaderboard.SnapshotCache
	ExecutorOptions  []command.ExecutorOption
	IDs              command.IDGenerator
	Tokens           *httpapi.TokenVerifier
	Health           handlers.HealthChecker
	Logger           *logger.Logger
}

// Build creates every command and query handler around one Executor.
func Build(c Components) httpapi.Dependencies {
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}
	ids := c.IDs
	if ids == nil {
		ids = command.NewUUID
	}

	opts := append([]command.ExecutorOption{command.WithLogger(log.Named("executor"))}, c.ExecutorOptions...)
	exec := command.NewExecutor(c.Students, c.Publisher, c.Clock, opts...)

	board := query.NewGetLeaderboardHandler(c.Students, c.LeaderboardCache, c.Clock, log)

	return httpapi.Dependencies{
		Register:         command.NewRegisterStudentHandler(c.Students, c.Catalog.Quests, exec, c.Calendar, c.Random, c.EmailDomain, ids),
		RecordLogin:      command.NewRecordLoginHandler(exec, c.Catalog.Quests, c.Calendar, c.Random, ids, log),
		UpdateProfile:    command.NewUpdateProfileHandler(exec),
		LogGoal:          command.NewLogGoalHandler(exec, ids),
		CompleteGoal:     command.NewCompleteGoalHandler(exec),
		LogCompetition:   command.NewLogCompetitionHandler(exec, ids),
		JoinProject:      command.NewJoinProjectHandler(exec, c.Students, c.Catalog.Projects),
		SubmitProject:    command.NewSubmitProjectHandler(exec, c.Catalog.Projects, ids),
		AttemptQuiz:      command.NewAttemptQuizHandler(exec, c.Catalog.Quizzes, ids),
		SubmitQuest:      command.NewSubmitQuestHandler(exec),
		SettleSubmission: command.NewSettleSubmissionHandler(exec, log),
		SettleQuest:      command.NewSettleQuestHandler(exec, log),
		CreateAppeal:     command.NewCreateAppealHandler(exec, c.Students, c.Catalog.Appeals, ids),
		ResolveAppeal:    command.NewResolveAppealHandler(exec, c.Catalog.Appeals, log),
		SendMessage:      command.NewSendMessageHandler(exec, c.Students, c.Catalog.Messages, ids),
		Catalog:          command.NewCatalogHandler(exec, c.Catalog, ids),
		AuditPoints:      command.NewAuditPointsHandler(exec, c.Students, log),

		Leaderboard:     board,
		Profile:         query.NewGetProfileHandler(c.Students, c.Catalog.Resources, board),
		SearchStudents:  query.NewSearchStudentsHandler(c.Students),
		SearchResources: query.NewSearchResourcesHandler(c.Catalog.Resources),
		Reviews:         query.NewReviewQueueHandler(c.Students),
		School:          query.NewSchoolHandler(c.Students, c.Catalog),

		Tokens:        c.Tokens,
		HealthChecker: c.Health,
		Logger:        log,
	}
}
