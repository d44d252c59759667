package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/repository/postgres"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	dir := flag.String("dir", "migrations", "directory holding *.sql migrations")
	flag.Parse()

	log := logger.Setup(logger.Options{Name: "newsletter-migrate", Level: logger.INFO, RedactPII: true}, os.Stdout)

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Error("Failed to load config", "error", err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		log.Error("Failed to open database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to connect to database", "error", err.Error())
		os.Exit(1)
	}

	n, err := postgres.Migrate(ctx, db, os.DirFS(*dir), log)
	if err != nil {
		log.Error("Migration failed", "applied", n, "error", err.Error())
		os.Exit(1)
	}
	log.Info("Migrations complete", "applied", n, "dir", *dir)
}
