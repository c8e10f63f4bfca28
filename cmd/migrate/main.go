package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"teamchat/config"
	"teamchat/pkg/database"
	"teamchat/pkg/logger"
)

const usage = `
teamchat - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Apply the embedded SQL schema to the Postgres store
  status      Show database connection status and known migrations

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go status
`

func main() {
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	l := logger.New(logger.DevelopmentMode)
	if err != nil {
		l.Fatalf("Failed to load config: %v", err)
	}
	defer l.Sync()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.PostgresDSN(), l.Component("postgres"))
	if err != nil {
		l.Fatalf("Database connection failed: %v", err)
	}
	defer pool.Close()

	switch command := flag.Arg(0); command {
	case "up":
		if err := database.ApplyMigrations(ctx, pool, l.Component("migrate")); err != nil {
			l.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("Migrations applied")
	case "status":
		if err := database.HealthCheck(ctx, pool); err != nil {
			l.Fatalf("Database connection failed: %v", err)
		}
		names, err := database.MigrationNames()
		if err != nil {
			l.Fatalf("Failed to list migrations: %v", err)
		}
		fmt.Println("Database connection: OK")
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
