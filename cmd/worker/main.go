// Package main - точка входа фоновых задач SkillEra Hub.
//
// Worker выполняет периодические задачи:
//   - ночная сверка очков с журналом активностей (WORKER_AUDIT_AT);
//   - пересборка кэша рейтинга (WORKER_WARM_INTERVAL).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/skillera/skillera-hub/config"
	"github.com/skillera/skillera-hub/internal/app"
	"github.com/skillera/skillera-hub/internal/infrastructure/scheduler"
	"github.com/skillera/skillera-hub/internal/infrastructure/scheduler/jobs"
	"github.com/skillera/skillera-hub/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := app.NewLogger(cfg).Named("worker")
	defer func() { _ = log.Sync() }()

	rt, err := app.Bootstrap(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to bootstrap: %w", err)
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			log.Warn("storage shutdown failed", logger.Err(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// РЕГИСТРАЦИЯ ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{Logger: log, Location: cfg.App.Location})

	if cfg.Worker.AuditAt != "" {
		daily, err := scheduler.ParseDaily(cfg.Worker.AuditAt)
		if err != nil {
			return err
		}
		if err := sched.Register(jobs.NewPointsAuditJob(rt.Deps.AuditPoints, cfg.Worker.AuditFix, log), daily); err != nil {
			return err
		}
	}

	// Без общего кэша прогревать нечего: каждый процесс считает рейтинг сам.
	if cfg.Worker.WarmInterval > 0 && rt.LeaderboardCache != nil {
		job := jobs.NewLeaderboardWarmJob(rt.LeaderboardCache, rt.Deps.Leaderboard, log)
		if err := sched.Register(job, scheduler.NewIntervalSchedule(cfg.Worker.WarmInterval)); err != nil {
			return err
		}
	}

	if len(sched.Jobs()) == 0 {
		log.Warn("no jobs enabled, exiting")
		return nil
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	log.Info("SkillEra Hub worker is running", logger.String("timezone", cfg.App.Timezone))

	<-ctx.Done()
	log.Info("received shutdown signal")
	return sched.Stop()
}
