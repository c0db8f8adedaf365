package main

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"roulette/internal/database"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
)

const DEFAULT_MIGRATIONS_DIR = "./internal/database/migrations"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		getEnv("BLUEPRINT_DB_USERNAME", "postgres"),
		getEnv("BLUEPRINT_DB_PASSWORD", "postgres"),
		getEnv("BLUEPRINT_DB_HOST", "localhost"),
		getEnv("BLUEPRINT_DB_PORT", "5432"),
		getEnv("BLUEPRINT_DB_DATABASE", "roulette"),
		getEnv("BLUEPRINT_DB_SCHEMA", "public"),
	)

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")

	switch command {
	case "up":
		log.Println("Running migrations...")
		if err := database.RunMigrations(db, migrationsPath); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")

	case "down":
		log.Println("Rolling back last migration...")
		if err := database.RollbackMigration(db, migrationsPath); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		log.Println("Rollback completed successfully")

	case "version":
		version, dirty, err := database.GetMigrationVersion(db, migrationsPath)
		if err != nil {
			log.Fatalf("Failed to get version: %v", err)
		}
		if dirty {
			log.Printf("Current version: %d (DIRTY - needs manual intervention)", version)
		} else {
			log.Printf("Current version: %d", version)
		}

	case "create":
		if len(os.Args) < 3 {
			log.Fatal("Usage: migrate create <migration_name>")
		}
		createMigration(getEnv("MIGRATIONS_PATH", DEFAULT_MIGRATIONS_DIR), os.Args[2])

	default:
		log.Printf("Unknown command: %s", command)
		printUsage()
		os.Exit(1)
	}
}

var migrationName = regexp.MustCompile(`^[a-z0-9_]+$`)

// createMigration writes an empty up/down pair numbered after the highest existing version
func createMigration(dir, name string) {
	if !migrationName.MatchString(name) {
		log.Fatalf("Invalid migration name %q: use lowercase letters, digits and underscores", name)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalf("Failed to read migrations directory: %v", err)
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if !file.IsDir() {
			names = append(names, file.Name())
		}
	}
	next := nextVersion(names)

	upFile := filepath.Join(dir, fmt.Sprintf("%06d_%s.up.sql", next, name))
	downFile := filepath.Join(dir, fmt.Sprintf("%06d_%s.down.sql", next, name))

	upContent := fmt.Sprintf("-- Migration: %s\n-- Created: %s\n\n", name, time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(upFile, []byte(upContent), 0644); err != nil {
		log.Fatalf("Failed to create up migration: %v", err)
	}
	downContent := fmt.Sprintf("-- Rollback: %s\n\n", name)
	if err := os.WriteFile(downFile, []byte(downContent), 0644); err != nil {
		log.Fatalf("Failed to create down migration: %v", err)
	}

	log.Printf("Created migration files:")
	log.Printf("   - %s", upFile)
	log.Printf("   - %s", downFile)
}

// nextVersion returns one past the highest NNNNNN_ prefix among the migration files
func nextVersion(names []string) int {
	latest := 0
	for _, name := range names {
		prefix, _, found := strings.Cut(name, "_")
		if !found {
			continue
		}
		if v, err := strconv.Atoi(prefix); err == nil && v > latest {
			latest = v
		}
	}
	return latest + 1
}

func printUsage() {
	usage(os.Stdout)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Roulette Round Archive Migrations")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Manages the Postgres schema behind the round archive: the rounds table")
	fmt.Fprintln(w, "(round id, winning segment, bet count, staked and payout totals) and its")
	fmt.Fprintln(w, "finished_at index. The server applies pending migrations itself on startup.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  migrate up              Apply all pending migrations")
	fmt.Fprintln(w, "  migrate down            Roll back the newest migration")
	fmt.Fprintln(w, "  migrate version         Show the schema version and dirty flag")
	fmt.Fprintln(w, "  migrate create <name>   Add an empty up/down pair, e.g. create add_round_wheel_speed")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment Variables:")
	fmt.Fprintln(w, "  BLUEPRINT_DB_HOST       Database host (default: localhost)")
	fmt.Fprintln(w, "  BLUEPRINT_DB_PORT       Database port (default: 5432)")
	fmt.Fprintln(w, "  BLUEPRINT_DB_DATABASE   Database name (default: roulette)")
	fmt.Fprintln(w, "  BLUEPRINT_DB_USERNAME   Database user (default: postgres)")
	fmt.Fprintln(w, "  BLUEPRINT_DB_PASSWORD   Database password (default: postgres)")
	fmt.Fprintln(w, "  BLUEPRINT_DB_SCHEMA     Database schema (default: public)")
	fmt.Fprintln(w, "  MIGRATIONS_PATH         Migrations directory for up/down/version (default: embedded set);")
	fmt.Fprintf(w, "                          create writes to it (default: %s)\n", DEFAULT_MIGRATIONS_DIR)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
