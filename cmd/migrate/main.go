package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mipastel/pedidos-backend/pkg/config"
	"github.com/mipastel/pedidos-backend/pkg/db"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
	"github.com/mipastel/pedidos-backend/pkg/logger"
	"github.com/mipastel/pedidos-backend/pkg/migrate"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations root (one subdirectory per database)")
	targetFlag := flag.String("target", "all", "database: normales|clientes|all")

	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")

	flag.Parse()

	targets, err := selectTargets(*targetFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"cmd":    *cmd,
		"dir":    *dir,
		"target": *targetFlag,
	})

	// create and validate only touch the filesystem
	switch *cmd {
	case "create":
		if *name == "" || len(targets) != 1 {
			fmt.Fprintln(os.Stderr, "create needs -name and a single -target")
			os.Exit(1)
		}
		path, err := migrate.CreateSQLMigration(targets[0].Dir(*dir), *name, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		for _, target := range targets {
			if err := migrate.ValidateDir(target.Dir(*dir)); err != nil {
				fmt.Fprintf(os.Stderr, "%s: migration validation failed: %v\n", target, err)
				os.Exit(1)
			}
		}
		fmt.Println("migration validation passed")
		return
	}

	if cfg.DB.IsSQLite() {
		fmt.Fprintln(os.Stderr, "goose migrations target postgres; sqlite schemas are created by AUTO_MIGRATE")
		os.Exit(1)
	}

	for _, target := range targets {
		tctx := logg.WithField(ctx, "database", string(target))
		dsn := cfg.DB.NormalesDSN
		if target == migrate.TargetClientes {
			dsn = cfg.DB.ClientesDSN
		}

		sqlDB, err := db.OpenPostgresSQL(tctx, string(target), dsn)
		requireResource(tctx, logg, "database "+string(target), err)

		logg.Info(tctx, "migrate ready")
		runErr := runCommand(tctx, *cmd, sqlDB, target.Dir(*dir), *version)
		_ = sqlDB.Close()
		if runErr != nil {
			// driver detail (SQLSTATE, constraint) from a failed migration
			logg.Error(logg.WithFields(tctx, pkgerrors.Dump(runErr).Store.Fields()), "migrate.failed", runErr)
			fmt.Fprintf(os.Stderr, "%s: %v\n", target, runErr)
			os.Exit(1)
		}
	}
}

func runCommand(ctx context.Context, cmd string, sqlDB *sql.DB, dir, version string) error {
	switch cmd {
	case "up", "down", "status":
		if err := migrate.Run(ctx, sqlDB, dir, cmd); err != nil {
			return fmt.Errorf("goose %s failed: %w", cmd, err)
		}
	case "version":
		if version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, dir, version); err != nil {
			return fmt.Errorf("goose version migrate failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown -cmd value: %s", cmd)
	}
	return nil
}

func selectTargets(value string) ([]migrate.Target, error) {
	if value == "" || value == "all" {
		return migrate.Targets(), nil
	}
	target, err := migrate.ParseTarget(value)
	if err != nil {
		return nil, err
	}
	return []migrate.Target{target}, nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
