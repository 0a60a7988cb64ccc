package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BradenHooton/landing/internal/config"
	"github.com/BradenHooton/landing/internal/database"
	pkglogger "github.com/BradenHooton/landing/pkg/logger"
	_ "github.com/lib/pq"
)

const usage = `usage: migrate [-timeout 60s] <up|down|status>

  up      apply every pending migration
  down    roll back the most recent migration
  status  print the applied migration version`

func main() {
	timeout := flag.Duration("timeout", 60*time.Second, "overall deadline for the command")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := pkglogger.New(pkglogger.Options{Level: cfg.Log.Level, ToStdout: true})

	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("database unreachable", slog.Any("error", err))
		os.Exit(1)
	}

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = database.MigrateSQL(ctx, sqlDB)
	case "down":
		err = database.MigrateDown(ctx, sqlDB)
	case "status":
		err = database.MigrationStatus(ctx, sqlDB, logger)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("migration command failed", slog.String("command", flag.Arg(0)), slog.Any("error", err))
		os.Exit(1)
	}

	if flag.Arg(0) != "status" {
		_ = database.MigrationStatus(ctx, sqlDB, logger)
	}
}
