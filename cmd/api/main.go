package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shinyyama/dm-backend/internal/config"
	"github.com/shinyyama/dm-backend/internal/db"
	"github.com/shinyyama/dm-backend/internal/events"
	"github.com/shinyyama/dm-backend/internal/hub"
	"github.com/shinyyama/dm-backend/internal/logging"
	"github.com/shinyyama/dm-backend/internal/server"
	"github.com/shinyyama/dm-backend/internal/service"
	"github.com/sirupsen/logrus"
)

// Set with -ldflags "-X main.gitSHA=... -X main.buildTime=...".
var (
	gitSHA    string
	buildTime string
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config load error: %v", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverID := cfg.ServerID
	if serverID == "" {
		serverID = uuid.NewString()
	}

	var relay hub.Relay
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		relay = hub.NewRedisRelay(rdb, serverID, log)
		defer relay.Close()
		log.WithFields(logrus.Fields{"redis": cfg.RedisAddr, "server_id": serverID}).Info("using redis hub relay")
	}
	h := hub.New(relay, log)
	go h.Run(ctx)

	var publisher service.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		log.WithField("topic", cfg.KafkaTopic).Info("publishing message events to kafka")
	}

	srv := server.New(server.Deps{
		Config:    cfg,
		Hub:       h,
		Events:    publisher,
		Log:       log,
		SHA:       gitSHA,
		BuildTime: buildTime,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting server on %s", addr)
		errCh <- srv.Start(addr)
	}()

	// The listener comes up before the database so health checks pass during
	// slow Cloud SQL starts; store routes answer 503 until SetDB.
	go func() {
		conn, err := db.Connect(cfg)
		if err != nil {
			log.WithError(err).Error("db connect error")
			return
		}
		if cfg.MigrateOnStart {
			if err := db.Migrate(ctx, conn); err != nil {
				log.WithError(err).Error("migrate error")
				return
			}
		}
		srv.SetDB(conn)
		log.Info("database ready")
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}
}
