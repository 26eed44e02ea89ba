package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shinyyama/dm-backend/internal/client"
	"github.com/shinyyama/dm-backend/internal/logging"
	"github.com/shinyyama/dm-backend/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	userID := flag.Int("user", 0, "active user id (overrides config)")
	flag.Parse()

	cfg, err := tui.LoadConfig(*configPath)
	if err != nil {
		fail(err)
	}
	if *userID > 0 {
		cfg.UserID = *userID
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fail(err)
		}
		defer f.Close()
		out = f
	}
	logger, err := logging.New(cfg.LogLevel, "text", out)
	if err != nil {
		fail(err)
	}
	log := logger.WithField("user_id", cfg.UserID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := tui.New(client.NewAPI(cfg.APIURL, nil), cfg.UserID, log)

	hub := client.NewHubConnection(cfg.APIURL, cfg.UserID, client.WithHubLogger(log))
	hub.OnMessage(m.Push)
	hub.OnStateChange(m.SetConnState)
	if err := hub.Start(ctx); err != nil {
		log.WithError(err).Warn("push hub unavailable, messages will not update live")
	}
	defer hub.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		fail(err)
	}
}

func fail(err error) {
	_, _ = fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
