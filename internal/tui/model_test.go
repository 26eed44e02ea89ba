package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/shinyyama/dm-backend/internal/client"
	"github.com/shinyyama/dm-backend/internal/model"
)

type stubAPI struct {
	mu      sync.Mutex
	inbox   []model.Message
	all     []model.Message
	posted  []*model.MessageAddRequest
	failAll bool
}

func (s *stubAPI) GetMessagesAll(context.Context, int, int) (*model.Paged[model.Message], error) {
	if s.failAll {
		return nil, errors.New("api down")
	}
	return model.NewPaged(s.all, 0, 500, len(s.all)), nil
}

func (s *stubAPI) GetMessagesByRecipientID(context.Context, int, int, int) (*model.Paged[model.Message], error) {
	return model.NewPaged(s.inbox, 0, 10, len(s.inbox)), nil
}

func (s *stubAPI) PostMessage(_ context.Context, req *model.MessageAddRequest) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posted = append(s.posted, req)
	return &model.Message{
		ID:        100 + len(s.posted),
		Content:   req.Message,
		Sender:    model.BaseUser{ID: req.SenderID},
		Recipient: model.BaseUser{ID: req.RecipientID},
		DateSent:  req.DateSent,
	}, nil
}

func message(id, from, to int, content string) model.Message {
	at := time.Date(2024, 5, 1, 9, id, 0, 0, time.UTC)
	return model.Message{
		ID:          id,
		Content:     content,
		Sender:      model.BaseUser{ID: from, FirstName: "Ann", LastName: "Lee"},
		Recipient:   model.BaseUser{ID: to},
		DateSent:    &at,
		DateCreated: at,
	}
}

// run executes cmd and feeds its messages back into m. Commands that block,
// such as the hub listener or cursor blinking, are abandoned after a short wait.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-out:
	case <-time.After(100 * time.Millisecond):
		return
	}
	switch msg := msg.(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			run(t, m, c)
		}
	default:
		_, next := m.Update(msg)
		run(t, m, next)
	}
}

func newTestModel(api *stubAPI) *Model {
	logger, _ := test.NewNullLogger()
	m := New(api, 1, logger)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return m
}

func TestOpenThreadAndSend(t *testing.T) {
	api := &stubAPI{
		inbox: []model.Message{message(1, 2, 1, "hello there")},
		all: []model.Message{
			message(1, 2, 1, "hello there"),
			message(2, 1, 2, "hi back"),
			message(3, 1, 3, "not for this thread"),
		},
	}
	m := newTestModel(api)
	run(t, m, m.loadPartners())
	if !strings.Contains(m.View(), "Ann Lee") {
		t.Fatalf("partner missing from view:\n%s", m.View())
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)
	if m.thread.PartnerID() != 2 || m.focus != focusInput {
		t.Fatalf("partner=%d focus=%d", m.thread.PartnerID(), m.focus)
	}
	view := m.View()
	if !strings.Contains(view, "hi back") || strings.Contains(view, "not for this thread") {
		t.Fatalf("unexpected thread:\n%s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("yo")})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)
	if len(api.posted) != 1 || api.posted[0].Message != "yo" || api.posted[0].RecipientID != 2 {
		t.Fatalf("posted = %+v", api.posted)
	}
	if m.input.Value() != "" {
		t.Fatal("input should be cleared after send")
	}
	if got := len(m.thread.Messages()); got != 3 {
		t.Fatalf("thread has %d messages", got)
	}
}

func TestPushUpdatesOpenThread(t *testing.T) {
	api := &stubAPI{
		inbox: []model.Message{message(1, 2, 1, "hello")},
		all:   []model.Message{message(1, 2, 1, "hello")},
	}
	m := newTestModel(api)
	run(t, m, m.loadPartners())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)

	m.Push(message(5, 3, 1, "from someone else"))
	m.Push(message(6, 2, 1, "pushed reply"))
	for i := 0; i < 2; i++ {
		run(t, m, m.listen())
	}

	view := m.View()
	if !strings.Contains(view, "pushed reply") {
		t.Fatalf("pushed message missing:\n%s", view)
	}
	for _, msg := range m.thread.Messages() {
		if msg.ID == 5 {
			t.Fatal("other conversation leaked into thread")
		}
	}
	if ps := m.list.Partners(); len(ps) != 2 || ps[0].ID != 2 {
		t.Fatalf("partners = %+v", ps)
	}
}

func TestStatusLine(t *testing.T) {
	api := &stubAPI{inbox: []model.Message{message(1, 2, 1, "hello")}, failAll: true}
	m := newTestModel(api)
	run(t, m, m.loadPartners())

	m.SetConnState(client.StateReconnecting, errors.New("eof"))
	run(t, m, m.listen())
	if !strings.Contains(m.View(), "hub reconnecting (eof)") {
		t.Fatalf("status line:\n%s", m.View())
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)
	if !m.statusErr || !strings.Contains(m.status, "api down") {
		t.Fatalf("status = %q", m.status)
	}
	if m.thread.Loading() {
		t.Fatal("loading indicator should clear after a failed fetch")
	}
}

func TestRenderMessage(t *testing.T) {
	url := "https://example.com/me.png"
	own := message(1, 1, 2, "mine")
	theirs := message(2, 2, 1, "yours")
	theirs.Sender.AvatarURL = &url

	tests := []struct {
		name string
		m    model.Message
		want string
	}{
		{"own", own, "mine"},
		{"theirs with avatar", theirs, " AL "},
		{"time", own, own.DateSent.Local().Format(timeLayout)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderMessage(tt.m, 1, 60); !strings.Contains(got, tt.want) {
				t.Fatalf("%q does not contain %q", got, tt.want)
			}
		})
	}
}

func TestInitials(t *testing.T) {
	tests := []struct {
		u    model.BaseUser
		want string
	}{
		{model.BaseUser{FirstName: "ann", LastName: "lee"}, "AL"},
		{model.BaseUser{FirstName: "Bo"}, "B"},
		{model.BaseUser{}, "?"},
	}
	for _, tt := range tests {
		if got := initials(tt.u); got != tt.want {
			t.Errorf("initials(%+v) = %q, want %q", tt.u, got, tt.want)
		}
	}
	if got := displayName(model.BaseUser{ID: 7}); got != "User 7" {
		t.Errorf("displayName = %q", got)
	}
}
