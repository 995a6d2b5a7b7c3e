// Package main - утилита управления схемой базы Audira Progress Hub.
//
// Команды:
//
//	migrate up       применить все непримененные миграции
//	migrate down     откатить последнюю миграцию
//	migrate status   показать состояние миграций
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/audira-hub/audira-progress-hub/config"
	"github.com/audira-hub/audira-progress-hub/internal/infrastructure/persistence/postgres"
)

func main() {
	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: migrate <up|down|status>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var conn *postgres.Connection
	if cfg.Database.URL != "" {
		conn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	} else {
		conn, err = postgres.NewConnection(ctx, postgres.DefaultConfig())
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	migrator := postgres.NewMigrator(conn)

	switch args[0] {
	case "up":
		if err := migrator.Migrate(ctx); err != nil {
			return err
		}
		fmt.Println("migrations applied")
		return nil

	case "down":
		if err := migrator.Rollback(ctx); err != nil {
			return err
		}
		fmt.Println("last migration rolled back")
		return nil

	case "status":
		status, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, m := range status {
			mark := " "
			applied := "pending"
			if m.IsApplied {
				mark = "x"
				applied = m.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("[%s] %03d %-32s %s\n", mark, m.Version, m.Name, applied)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q, expected up, down or status", args[0])
	}
}
