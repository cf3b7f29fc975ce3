// Command migrate applies the postgres schema used when DATA_BACKEND=postgres.
package main

import (
	"flag"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/neven/neven/internal/config"
	"github.com/neven/neven/migrations"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	command := flag.String("command", "up", "goose command: up, down, status")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if cfg.Postgres.DSN == "" {
		logger.Fatal("DATABASE_URL is empty")
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		logger.WithError(err).Fatal("Failed to set goose dialect")
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.Postgres.DSN)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open database")
	}
	defer db.Close()

	if err := goose.Run(*command, db, "."); err != nil {
		logger.WithError(err).WithField("command", *command).Fatal("Migration failed")
	}

	logger.WithField("command", *command).Info("Migrations done")
}
