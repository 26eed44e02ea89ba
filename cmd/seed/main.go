package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/dm-backend/internal/config"
	"github.com/shinyyama/dm-backend/internal/db"
	"github.com/shinyyama/dm-backend/internal/model"
	"github.com/shinyyama/dm-backend/internal/repository"
	"github.com/sirupsen/logrus"
)

type seedMessage struct {
	from, to int // indexes into seedUsers
	body     string
	ago      time.Duration
}

var seedUsers = []repository.NewUser{
	{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"},
	{Email: "alan@example.com", FirstName: "Alan", LastName: "Turing", Mi: ptr("M")},
	{Email: "grace@example.com", FirstName: "Grace", LastName: "Hopper", Mi: ptr("B")},
	{Email: "edsger@example.com", FirstName: "Edsger", LastName: "Dijkstra", Mi: ptr("W")},
}

var seedMessages = []seedMessage{
	{1, 0, "Did you get the notes on the engine?", 72 * time.Hour},
	{0, 1, "Yes, reading them tonight.", 71 * time.Hour},
	{2, 0, "Found a moth in relay 70.", 48 * time.Hour},
	{0, 2, "Tape it into the log book!", 47 * time.Hour},
	{3, 0, "Goto considered harmful, thoughts?", 26 * time.Hour},
	{1, 0, "Lunch on Thursday?", 3 * time.Hour},
	{0, 1, "Thursday works.", 2 * time.Hour},
	{3, 1, "Shortest path question for you.", time.Hour},
}

func main() {
	if err := run(); err != nil {
		logrus.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(ctx, gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	users := repository.NewUserRepository(gdb)
	messages := repository.NewMessageRepository(gdb, repository.NewUserMapper())

	n, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 && !strings.EqualFold(os.Getenv("FORCE_SEED"), "true") {
		logrus.Info("users already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	ids := make([]int, len(seedUsers))
	for i, u := range seedUsers {
		u.AvatarURL = ptr(fmt.Sprintf("https://picsum.photos/seed/%s/96/96", strings.ToLower(u.FirstName)))
		id, err := users.Ensure(ctx, u)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	now := time.Now().UTC()
	for _, sm := range seedMessages {
		sent := now.Add(-sm.ago)
		msg, err := messages.Create(ctx, &model.MessageAddRequest{
			Message:     sm.body,
			RecipientID: ids[sm.to],
			SenderID:    ids[sm.from],
			DateSent:    &sent,
		})
		if err != nil {
			return fmt.Errorf("seed message %q: %w", sm.body, err)
		}
		logrus.WithFields(logrus.Fields{"message_id": msg.ID, "from": msg.Sender.ID, "to": msg.Recipient.ID}).Debug("seeded message")
	}
	logrus.WithFields(logrus.Fields{"users": len(ids), "messages": len(seedMessages)}).Info("seed complete")
	return nil
}

func ptr(s string) *string { return &s }
