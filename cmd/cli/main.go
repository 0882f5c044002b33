package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/akeren/atelier-waitlist/config"
	"github.com/akeren/atelier-waitlist/internal/log"
	"github.com/akeren/atelier-waitlist/pkg/migrations"
	"github.com/akeren/atelier-waitlist/pkg/utils"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger) // Load envs early for CLI consistency

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		if err := migrate(logger); err != nil {
			logger.Error("Database migration failed", "error", err.Error())
			os.Exit(1)
		}

		logger.Info("Database migrations completed")
		return

	case "help", "-h", "--help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

// migrate applies the SQL migrations to the database named by WAITLIST_BACKEND. For the supabase
// backend that is the project's own Postgres, reached through APP_DATABASE_URL or POSTGRES_*.
func migrate(logger *log.Logger) error {
	store, err := config.NewStoreConfig()
	if err != nil {
		// Migrating needs only the SQL connection, not the table service keys.
		logger.Warn("Store configuration incomplete; migrating the postgres database", "error", err.Error())
		store = &config.StoreConfig{Backend: config.BackendPostgres}
	}

	dialect := migrations.DialectPostgres
	if store.Backend == config.BackendSQLite {
		dialect = migrations.DialectSQLite
	} else {
		store.Backend = config.BackendPostgres
	}

	db, err := config.NewDatabase(logger, store, nil)
	if err != nil {
		return fmt.Errorf("connect to database for migration: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get SQL DB instance for migration: %w", err)
	}
	// The migrate driver closes the handle when it finishes; a second close is harmless.
	defer func() { _ = sqlDB.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	return migrations.Up(ctx, sqlDB, migrations.Config{
		Dir:     utils.GetEnvTrimmed("MIGRATIONS_DIR"),
		Dialect: dialect,
		Logger:  logger,
	})
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate  Create or update the waitlist table and exit")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  WAITLIST_BACKEND  postgres (default for migrate) or sqlite")
	fmt.Println("  MIGRATIONS_DIR    read migrations from this directory instead of the embedded set")
}
