package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillera/skillera-hub/config"
	"github.com/skillera/skillera-hub/internal/app"
	"github.com/skillera/skillera-hub/internal/domain/progression"
	"github.com/skillera/skillera-hub/internal/domain/student"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/backend"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/docstore"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/postgres"
	httpapi "github.com/skillera/skillera-hub/internal/interface/http"
	"github.com/skillera/skillera-hub/pkg/logger"
	"github.com/skillera/skillera-hub/pkg/timeutil"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth:    config.AuthConfig{JWTSecret: "cli-secret", Issuer: "skillera"},
		Storage: config.StorageConfig{Backend: config.BackendMemory},
		School:  config.SchoolConfig{EmailDomain: "school.edu"},
	}
}

// memoryRuntime wires a runtime over one shared memory store.
func memoryRuntime(cfg *config.Config, mem *docstore.MemoryStore) *app.Runtime {
	students := docstore.NewStudentRepository(mem)
	catalog := docstore.NewCatalog(mem)
	clock := timeutil.NewFixedClock(time.Date(2024, 11, 20, 10, 0, 0, 0, time.UTC))
	return &app.Runtime{
		Config:   cfg,
		Log:      logger.Nop(),
		Backend:  &backend.Backend{Store: mem},
		Students: students,
		Catalog:  catalog,
		Clock:    clock,
		Deps: app.Build(app.Components{
			Students:    students,
			Catalog:     catalog,
			Clock:       clock,
			Calendar:    timeutil.NewCalendar(time.UTC),
			Random:      progression.NewLockedRand(1),
			EmailDomain: cfg.School.EmailDomain,
		}),
	}
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	cli := newCommandLine(testConfig(), logger.Nop(), &out)

	assert.ErrorIs(t, cli.run(context.Background(), []string{"admin"}), errHelp)
	assert.Contains(t, out.String(), "Usage:")

	assert.ErrorIs(t, cli.run(context.Background(), []string{"admin", "frobnicate"}), errHelp)
}

func TestRun_Token(t *testing.T) {
	var out bytes.Buffer
	cfg := testConfig()
	cli := newCommandLine(cfg, logger.Nop(), &out)

	require.NoError(t, cli.run(context.Background(), []string{"admin", "token", "-sub", "admin-1", "-role", "admin"}))

	id, err := httpapi.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "admin-1", id.StudentID)
	assert.Equal(t, student.RoleAdmin, id.Role)

	assert.ErrorIs(t, cli.run(context.Background(), []string{"admin", "token", "-role", "admin"}), errHelp)
	assert.ErrorIs(t, cli.run(context.Background(), []string{"admin", "token", "-sub", "x", "-role", "janitor"}), errHelp)
}

func TestRun_SeedThenAudit(t *testing.T) {
	var out bytes.Buffer
	cfg := testConfig()
	mem := docstore.NewMemoryStore()
	cli := newCommandLine(cfg, logger.Nop(), &out)
	cli.bootstrap = func(context.Context) (*app.Runtime, error) { return memoryRuntime(cfg, mem), nil }

	require.NoError(t, cli.run(context.Background(), []string{"admin", "seed"}))

	require.NoError(t, cli.run(context.Background(), []string{"admin", "audit", "-fix"}))
	assert.Contains(t, out.String(), "checked 6 profiles, 0 drifted")
}

func TestRun_Migrate(t *testing.T) {
	var out bytes.Buffer
	cfg := testConfig()
	cli := newCommandLine(cfg, logger.Nop(), &out)

	err := cli.run(context.Background(), []string{"admin", "migrate"})
	assert.ErrorContains(t, err, "STORAGE_BACKEND=postgres")

	cfg.Storage.Backend = config.BackendPostgres
	applied := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	cli.migrate = func(context.Context) ([]postgres.Migration, error) {
		return []postgres.Migration{
			{Version: 1, Name: "create_documents", IsApplied: true, AppliedAt: applied},
			{Version: 2, Name: "next"},
		}, nil
	}
	require.NoError(t, cli.run(context.Background(), []string{"admin", "migrate"}))
	assert.Contains(t, out.String(), "create_documents")
	assert.Contains(t, out.String(), "2024-11-01T00:00:00Z")
	assert.Contains(t, out.String(), "pending")
}
