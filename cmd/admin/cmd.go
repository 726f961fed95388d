package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/skillera/skillera-hub/config"
	"github.com/skillera/skillera-hub/internal/app"
	"github.com/skillera/skillera-hub/internal/application/command"
	"github.com/skillera/skillera-hub/internal/domain/student"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/backend"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/postgres"
	httpapi "github.com/skillera/skillera-hub/internal/interface/http"
	"github.com/skillera/skillera-hub/pkg/logger"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	cfg *config.Config
	log *logger.Logger
	out io.Writer

	// mockable
	bootstrap func(ctx context.Context) (*app.Runtime, error)
	migrate   func(ctx context.Context) ([]postgres.Migration, error)
}

func newCommandLine(cfg *config.Config, log *logger.Logger, out io.Writer) *commandLine {
	cli := &commandLine{cfg: cfg, log: log, out: out}
	cli.bootstrap = func(ctx context.Context) (*app.Runtime, error) {
		return app.Bootstrap(ctx, cfg, log)
	}
	cli.migrate = cli.runMigrations
	return cli
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate                                   - apply PostgreSQL migrations and print their state")
	fmt.Fprintln(cli.out, "  seed                                      - load the demo catalog into an empty store")
	fmt.Fprintln(cli.out, "  audit [-fix]                              - compare stored points with the activity ledger")
	fmt.Fprintln(cli.out, "  token -sub ID -role ROLE [-ttl DURATION]  - issue an API token for local testing")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		return cli.runMigrate(ctx)

	case "seed":
		return cli.withRuntime(ctx, func(rt *app.Runtime) error {
			return rt.Seed(ctx)
		})

	case "audit":
		fs := flag.NewFlagSet("audit", flag.ContinueOnError)
		fs.SetOutput(cli.out)
		fix := fs.Bool("fix", false, "Repair drifted profiles instead of only reporting them.")
		if err := fs.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.withRuntime(ctx, func(rt *app.Runtime) error {
			res, err := rt.Deps.AuditPoints.Handle(ctx, command.AuditPointsCommand{Fix: *fix})
			if err != nil {
				return err
			}
			cli.printAudit(res)
			return nil
		})

	case "token":
		fs := flag.NewFlagSet("token", flag.ContinueOnError)
		fs.SetOutput(cli.out)
		sub := fs.String("sub", "", "Profile id the token is issued for.")
		role := fs.String("role", string(student.RoleStudent), "student, admin or principal.")
		ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime.")
		if err := fs.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *sub == "" || !student.Role(*role).IsValid() {
			fs.Usage()
			return errHelp
		}
		tok, err := httpapi.NewTokenVerifier(cli.cfg.Auth.JWTSecret, cli.cfg.Auth.Issuer).
			Sign(*sub, student.Role(*role), *ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cli.out, tok)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) withRuntime(ctx context.Context, fn func(rt *app.Runtime) error) error {
	rt, err := cli.bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			cli.log.Warn("storage shutdown failed", logger.Err(err))
		}
	}()
	return fn(rt)
}

func (cli *commandLine) runMigrate(ctx context.Context) error {
	if cli.cfg.Storage.Backend != config.BackendPostgres {
		return fmt.Errorf("migrate needs STORAGE_BACKEND=postgres, got %q", cli.cfg.Storage.Backend)
	}
	migrations, err := cli.migrate(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
	for _, m := range migrations {
		at := "pending"
		if m.IsApplied {
			at = m.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", m.Version, m.Name, at)
	}
	return w.Flush()
}

// runMigrations opens the store without auto-migration so the run is
// reported here rather than hidden in startup.
func (cli *commandLine) runMigrations(ctx context.Context) ([]postgres.Migration, error) {
	cfg := *cli.cfg
	cfg.Database.AutoMigrate = false
	cfg.Redis.Disabled = true

	b, err := backend.Open(ctx, &cfg, cli.log)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close(context.Background()) }()

	migrator := postgres.NewMigrator(b.Postgres)
	n, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, err
	}
	cli.log.Info("migrations applied", logger.Int("count", n))
	return migrator.Status(ctx)
}

func (cli *commandLine) printAudit(res *command.AuditPointsResult) {
	fmt.Fprintf(cli.out, "checked %d profiles, %d drifted\n", res.Checked, len(res.Drifts))
	if len(res.Drifts) == 0 {
		return
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STUDENT\tSTORED\tEXPECTED\tFIXED")
	for _, d := range res.Drifts {
		fmt.Fprintf(w, "%s\t%d\t%d\t%t\n", d.StudentID, d.Stored, d.Expected, d.Fixed)
	}
	_ = w.Flush()
}
