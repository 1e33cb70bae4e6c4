package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"fairplay/internal/config"
	"fairplay/internal/database"
	"fairplay/internal/logger"
)

const migrationsDir = "./internal/database/migrations"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	logger.Init(&logger.Options{Level: logger.ParseLevel(os.Getenv("LOG_LEVEL"))})

	command := os.Args[1]
	if command == "create" {
		if len(os.Args) < 3 {
			logger.Fatal("Usage: migrate create <migration_name>")
		}
		createMigration(os.Args[2])
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Load config failed", "err", err)
	}

	db, err := sql.Open("pgx", cfg.DB.DSN())
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer db.Close()

	switch command {
	case "up":
		logger.Info("Running migrations...")
		if err := database.RunMigrations(db); err != nil {
			logger.Fatal("Migration failed", "err", err)
		}
		logger.Info("Migrations completed successfully")

	case "down":
		logger.Info("Rolling back last migration...")
		if err := database.RollbackMigration(db); err != nil {
			logger.Fatal("Rollback failed", "err", err)
		}
		logger.Info("Rollback completed successfully")

	case "version":
		version, dirty, err := database.GetMigrationVersion(db)
		if err != nil {
			logger.Fatal("Failed to get version", "err", err)
		}
		if dirty {
			logger.Warn("Current version is DIRTY, needs manual intervention", "version", version)
		} else {
			logger.Info("Current version", "version", version)
		}

	default:
		logger.Error("Unknown command", "command", command)
		printUsage()
		os.Exit(1)
	}
}

// createMigration writes an empty up/down pair numbered after the highest
// existing version. The files are embedded, so rebuild after editing them.
func createMigration(name string) {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		logger.Fatal("Failed to read migrations directory", "err", err)
	}

	nextVersion := 1
	for _, file := range files {
		var version int
		if _, err := fmt.Sscanf(file.Name(), "%06d_", &version); err == nil && version >= nextVersion {
			nextVersion = version + 1
		}
	}

	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	upFile := filepath.Join(migrationsDir, fmt.Sprintf("%06d_%s.up.sql", nextVersion, name))
	downFile := filepath.Join(migrationsDir, fmt.Sprintf("%06d_%s.down.sql", nextVersion, name))

	upContent := fmt.Sprintf("-- Migration: %s\n-- Created: %s\n\n-- Add your SQL here\n", name, time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(upFile, []byte(upContent), 0644); err != nil {
		logger.Fatal("Failed to create up migration", "err", err)
	}
	downContent := fmt.Sprintf("-- Rollback: %s\n\n-- Add your rollback SQL here\n", name)
	if err := os.WriteFile(downFile, []byte(downContent), 0644); err != nil {
		logger.Fatal("Failed to create down migration", "err", err)
	}

	logger.Info("Created migration files", "up", upFile, "down", downFile)
}

func printUsage() {
	fmt.Println("Database Migration Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  migrate up              Run all pending migrations")
	fmt.Println("  migrate down            Rollback the last migration")
	fmt.Println("  migrate version         Show current migration version")
	fmt.Println("  migrate create <name>   Create a new migration file")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  BLUEPRINT_DB_HOST       Database host (default: localhost)")
	fmt.Println("  BLUEPRINT_DB_PORT       Database port (default: 5432)")
	fmt.Println("  BLUEPRINT_DB_DATABASE   Database name (default: fairplay)")
	fmt.Println("  BLUEPRINT_DB_USERNAME   Database user (default: postgres)")
	fmt.Println("  BLUEPRINT_DB_PASSWORD   Database password (default: postgres)")
	fmt.Println("  BLUEPRINT_DB_SCHEMA     Search path (default: public)")
}
