package main

import (
	"flag"
	"fmt"
	"os"

	"auditline/internal/config"
	"auditline/internal/db"
	"auditline/internal/log"

	"github.com/joho/godotenv"
)

func main() {
	direction := flag.String("direction", string(db.Up), "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of migrations to apply; 0 applies all")
	showVersion := flag.Bool("version", false, "print the current schema version and exit")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := log.New(log.Config{Level: cfg.SlogLevel(), Component: log.ComponentStorage})

	if *showVersion {
		version, dirty, err := db.Version(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to read schema version", log.FieldError, err)
			os.Exit(1)
		}
		fmt.Printf("version %d dirty=%t\n", version, dirty)
		return
	}

	dir := db.Direction(*direction)
	if dir != db.Up && dir != db.Down {
		logger.Error("unknown direction", "direction", *direction)
		os.Exit(2)
	}
	if err := db.Migrate(cfg.DatabaseURL, dir, *steps); err != nil {
		logger.Error("migration failed", log.FieldOperation, log.OpMigrate, log.FieldError, err)
		os.Exit(1)
	}
	version, _, err := db.Version(cfg.DatabaseURL)
	if err != nil {
		logger.Warn("migrations applied but version is unknown", log.FieldError, err)
		return
	}
	logger.Info("migrations applied", log.FieldOperation, log.OpMigrate, "direction", dir, "version", version)
}
