package main

import (
	"context"
	"log"

	"github.com/ilinovom/photo-stats-bot/internal/app"
	"github.com/ilinovom/photo-stats-bot/internal/config"
	"github.com/ilinovom/photo-stats-bot/internal/repository"
	"github.com/ilinovom/photo-stats-bot/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Fatal(err)
	}

	repo, err := repository.Open(cfg.DBDriver, cfg.DBDSN, repository.WithLogger(logger.Named("repository")))
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	application := app.New(cfg, repo, logger.Named("app"))
	if err := application.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
