// Command migrate applies, inspects and reverts the Nestling schema.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"nestling/internal/config"
	"nestling/internal/database"
	"nestling/internal/middleware"
)

const usage = `usage: migrate <command> [args]

commands:
  up               apply pending SQL migrations
  auto             run GORM AutoMigrate for every model
  status           print the schema policy and pending migrations
  list             print every embedded migration
  down [version]   revert one migration (default: the latest applied)`

func main() {
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(context.Background(), flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, command string, args []string) error {
	if command == "list" {
		for _, m := range database.GetMigrations() {
			fmt.Println(m.String())
		}
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return err
	}
	logger := middleware.Logger.With(slog.String("command", command))

	switch command {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		logger.Info("SQL migrations applied")

	case "auto":
		if err := database.AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate failed: %w", err)
		}
		logger.Info("AutoMigrate finished", slog.Int("models", len(database.PersistentModels())))

	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		logger.Info("Schema status",
			slog.String("mode", status.Mode),
			slog.String("env", status.Environment),
			slog.Bool("run_sql", status.WillRunSQL),
			slog.Bool("run_auto", status.WillRunAutoMigrate),
			slog.Int("applied", len(status.AppliedVersions)),
			slog.Int("pending", len(status.PendingMigrations)),
		)
		for _, m := range status.PendingMigrations {
			fmt.Printf("pending: %s\n", m.String())
		}

	case "down":
		version, err := downTarget(args, func() ([]int, error) {
			return database.NewMigrationStore(db).GetAppliedMigrations(ctx)
		})
		if err != nil {
			return err
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		logger.Info("Migration rolled back", slog.Int("version", version))

	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}

	return nil
}

// downTarget picks the explicit version argument or the latest applied one.
func downTarget(args []string, applied func() ([]int, error)) (int, error) {
	if len(args) > 0 {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return version, nil
	}

	versions, err := applied()
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, errors.New("no migrations have been applied")
	}
	return versions[len(versions)-1], nil
}
