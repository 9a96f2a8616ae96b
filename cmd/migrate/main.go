package main

import (
	"flag"
	"os"

	"github.com/ridloal/gym-membership-service/internal/platform/config"
	"github.com/ridloal/gym-membership-service/internal/platform/database"
	"github.com/ridloal/gym-membership-service/internal/platform/logger"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load("8081")
	if err != nil {
		logger.Error("Failed to load config", err)
		os.Exit(1)
	}
	logger.Setup(os.Stdout, cfg.LogLevel)

	if err := database.Migrate(cfg.DB.DSN, *direction); err != nil {
		logger.Error("Migration failed", err, "direction", *direction)
		os.Exit(1)
	}
	logger.Info("Migration finished", "direction", *direction)
}
