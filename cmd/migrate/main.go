package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/shinyyama/dm-backend/internal/config"
	"github.com/shinyyama/dm-backend/internal/db"
	"github.com/shinyyama/dm-backend/internal/logging"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(log.GetLevel())

	gdb, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	if err := db.Migrate(context.Background(), gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Info("migrations applied")
}
