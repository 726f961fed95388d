// Package http implements the REST API of SkillEra Hub on gin.
// Every response uses the JSONResponse envelope; domain errors are mapped to
// status codes in one place (respondError).
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillera/skillera-hub/internal/application/command"
	"github.com/skillera/skillera-hub/internal/application/query"
	"github.com/skillera/skillera-hub/internal/domain/student"
	"github.com/skillera/skillera-hub/internal/interface/http/handlers"
	"github.com/skillera/skillera-hub/pkg/logger"
	"github.com/skillera/skillera-hub/pkg/ratelimit"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Addr - address to bind (default: ":8080").
	Addr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// RequestTimeout bounds the handler context.
	RequestTimeout time.Duration

	// AllowedOrigins - allowed origins for CORS ("*" for any).
	AllowedOrigins []string

	// DefaultPageSize for the leaderboard.
	DefaultPageSize int

	// Release switches gin to release mode.
	Release bool

	// RateLimitPerMinute caps requests per caller; 0 disables limiting.
	RateLimitPerMinute int
	RateLimitBurst     int
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		RequestTimeout:  10 * time.Second,
		AllowedOrigins:  []string{"*"},
		DefaultPageSize: 50,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains all dependencies required by HTTP handlers.
type Dependencies struct {
	// Command Handlers (CQRS Write Side)
	Register         *command.RegisterStudentHandler
	RecordLogin      *command.RecordLoginHandler
	UpdateProfile    *command.UpdateProfileHandler
	LogGoal          *command.LogGoalHandler
	CompleteGoal     *command.CompleteGoalHandler
	LogCompetition   *command.LogCompetitionHandler
	JoinProject      *command.JoinProjectHandler
	SubmitProject    *command.SubmitProjectHandler
	AttemptQuiz      *command.AttemptQuizHandler
	SubmitQuest      *command.SubmitQuestHandler
	SettleSubmission *command.SettleSubmissionHandler
	SettleQuest      *command.SettleQuestHandler
	CreateAppeal     *command.CreateAppealHandler
	ResolveAppeal    *command.ResolveAppealHandler
	SendMessage      *command.SendMessageHandler
	Catalog          *command.CatalogHandler
	AuditPoints      *command.AuditPointsHandler

	// Query Handlers (CQRS Read Side)
	Leaderboard     *query.GetLeaderboardHandler
	Profile         *query.GetProfileHandler
	SearchStudents  *query.SearchStudentsHandler
	SearchResources *query.SearchResourcesHandler
	Reviews         *query.ReviewQueueHandler
	School          *query.SchoolHandler

	// Identity
	Tokens *TokenVerifier

	// Health Check Dependencies
	HealthChecker handlers.HealthChecker

	Logger *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	engine     *gin.Engine
	httpServer *http.Server
	limiter    *ratelimit.Limiter
	logger     *logger.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	if config.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = DefaultConfig().DefaultPageSize
	}

	s := &Server{
		config: config,
		deps:   deps,
		engine: gin.New(),
		logger: deps.Logger,
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	s.logger = s.logger.Named("http")
	if s.deps.HealthChecker == nil {
		s.deps.HealthChecker = handlers.NewCompositeHealthChecker("")
	}

	if config.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.New(ratelimit.Config{
			RequestsPerMinute: config.RateLimitPerMinute,
			Burst:             config.RateLimitBurst,
		})
	}

	s.engine.Use(
		requestID(s.logger),
		accessLog(s.logger),
		recovery(s.logger),
		corsMiddleware(config.AllowedOrigins),
		requestTimeout(config.RequestTimeout),
	)
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.engine,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// requestTimeout bounds the request context.
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Health & Status Endpoints
	// ─────────────────────────────────────────────────────────────────────────
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/live", s.handleLive)

	v1 := s.engine.Group("/api/v1")
	v1.POST("/register", rateLimit(s.limiter), s.handleRegister)

	// ─────────────────────────────────────────────────────────────────────────
	// Any authenticated role
	// ─────────────────────────────────────────────────────────────────────────
	authed := v1.Group("", authenticate(s.deps.Tokens), rateLimit(s.limiter))
	authed.GET("/levels", s.handleLevels)
	authed.GET("/badges", s.handleBadges)
	authed.GET("/leaderboard", s.handleLeaderboard)
	authed.GET("/events", s.handleEvents)
	authed.GET("/projects", s.handleProjects)
	authed.GET("/quizzes", s.handleQuizzes)
	authed.GET("/resources", s.handleResources)
	authed.GET("/mentors", s.handleMentors)
	authed.POST("/messages", s.handleSendMessage)
	authed.GET("/messages/:peerId", s.handleConversation)
	authed.GET("/me", s.handleMe)
	authed.PATCH("/me/profile", s.handleUpdateProfile)

	// ─────────────────────────────────────────────────────────────────────────
	// Student
	// ─────────────────────────────────────────────────────────────────────────
	me := authed.Group("/me", requireRole(student.RoleStudent))
	me.POST("/logins", s.handleRecordLogin)
	me.POST("/goals", s.handleLogGoal)
	me.POST("/goals/:id/complete", s.handleCompleteGoal)
	me.POST("/competitions", s.handleLogCompetition)
	me.POST("/projects/:projectId/join", s.handleJoinProject)
	me.POST("/projects/:projectId/submissions", s.handleSubmitProject)
	me.POST("/quizzes/:quizId/attempts", s.handleAttemptQuiz)
	me.POST("/quest/submission", s.handleSubmitQuest)
	me.POST("/appeals", s.handleCreateAppeal)

	// ─────────────────────────────────────────────────────────────────────────
	// Admin
	// ─────────────────────────────────────────────────────────────────────────
	admin := authed.Group("/admin", requireRole(student.RoleAdmin))
	admin.GET("/students", s.handleSearchStudents)
	admin.GET("/submissions", s.handlePendingSubmissions)
	admin.POST("/students/:id/activities/:activityId/decision", s.handleSettleSubmission)
	admin.GET("/quests/pending", s.handlePendingQuests)
	admin.POST("/students/:id/quest/decision", s.handleSettleQuest)
	admin.POST("/students/:id/quests/:questId/decision", s.handleSettleQuest)
	admin.POST("/audit", s.handleAudit)

	admin.GET("/quest-templates", s.handleQuestTemplates)
	admin.POST("/quest-templates", s.handleCreateQuestTemplate)
	admin.PUT("/quest-templates/:id", s.handleUpdateQuestTemplate)
	admin.DELETE("/quest-templates/:id", s.handleDeleteQuestTemplate)

	admin.GET("/projects", s.handleProjects)
	admin.POST("/projects", s.handleCreateProject)
	admin.PUT("/projects/:id", s.handleUpdateProject)
	admin.DELETE("/projects/:id", s.handleDeleteProject)

	admin.GET("/events", s.handleEvents)
	admin.POST("/events", s.handleCreateEvent)
	admin.PUT("/events/:id", s.handleUpdateEvent)
	admin.DELETE("/events/:id", s.handleDeleteEvent)

	// ─────────────────────────────────────────────────────────────────────────
	// Principal
	// ─────────────────────────────────────────────────────────────────────────
	principal := authed.Group("/principal", requireRole(student.RolePrincipal))
	principal.GET("/appeals", s.handleAppeals)
	principal.POST("/appeals/:id/decision", s.handleResolveAppeal)
	principal.GET("/stats", s.handleStats)

	s.engine.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "not_found", "route not found")
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", s.config.Addr))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns the server uptime.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}
