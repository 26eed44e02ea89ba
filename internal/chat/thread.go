package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shinyyama/dm-backend/internal/model"
)

var ErrNoPartner = errors.New("no conversation partner selected")

// FilterPair keeps the messages exchanged by a and b, oldest first.
func FilterPair(msgs []model.Message, a, b int) []model.Message {
	out := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Between(a, b) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Timestamp(), out[j].Timestamp()
		if ti.Equal(tj) {
			return out[i].ID < out[j].ID
		}
		return ti.Before(tj)
	})
	return out
}

// Thread is the open conversation between the active user and one partner.
// Fetch results, pushed messages and sends all go through it, so readers
// always see the current list.
type Thread struct {
	api    MessageAPI
	userID int
	now    func() time.Time

	mu        sync.Mutex
	partnerID int
	gen       uint64
	loading   bool
	messages  []model.Message
}

func NewThread(api MessageAPI, userID int) *Thread {
	return &Thread{api: api, userID: userID, now: time.Now}
}

// Open switches to partnerID and empties the thread. The returned generation
// is passed to Load; loads for an older generation are discarded.
func (t *Thread) Open(partnerID int) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.partnerID = partnerID
	t.gen++
	t.loading = true
	t.messages = nil
	return t.gen
}

// Load fetches up to ThreadPageSize messages and keeps those of the open pair.
// It reports false when the partner changed while the fetch was in flight.
func (t *Thread) Load(ctx context.Context, gen uint64) (bool, error) {
	t.mu.Lock()
	partnerID := t.partnerID
	current := gen == t.gen
	t.mu.Unlock()
	if !current {
		return false, nil
	}

	page, err := t.api.GetMessagesAll(ctx, 0, ThreadPageSize)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return false, nil
	}
	t.loading = false
	if err != nil {
		return true, err
	}
	var msgs []model.Message
	if page != nil {
		msgs = page.PagedItems
	}
	// Messages pushed or sent during the fetch are kept.
	fetched := FilterPair(msgs, t.userID, partnerID)
	t.messages = mergeByID(fetched, t.messages)
	return true, nil
}

// Apply appends a pushed message when it belongs to the open pair and is not
// already shown.
func (t *Thread) Apply(m model.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.apply(m)
}

func (t *Thread) apply(m model.Message) bool {
	if t.partnerID == 0 || !m.Between(t.userID, t.partnerID) {
		return false
	}
	for i := range t.messages {
		if t.messages[i].ID == m.ID {
			return false
		}
	}
	t.messages = append(t.messages, m)
	return true
}

// Send posts content to the open partner and appends the stored message
// without waiting for the push echo.
func (t *Thread) Send(ctx context.Context, content string) (*model.Message, error) {
	t.mu.Lock()
	partnerID := t.partnerID
	t.mu.Unlock()
	if partnerID == 0 {
		return nil, ErrNoPartner
	}

	subject := ""
	sent := t.now().UTC()
	req := &model.MessageAddRequest{
		Message:     content,
		Subject:     &subject,
		RecipientID: partnerID,
		SenderID:    t.userID,
		DateSent:    &sent,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	msg, err := t.api.PostMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	if msg != nil {
		t.Apply(*msg)
	}
	return msg, nil
}

func (t *Thread) PartnerID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.partnerID
}

func (t *Thread) UserID() int { return t.userID }

func (t *Thread) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

func (t *Thread) Messages() []model.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func mergeByID(base, extra []model.Message) []model.Message {
	seen := make(map[int]bool, len(base))
	for _, m := range base {
		seen[m.ID] = true
	}
	for _, m := range extra {
		if !seen[m.ID] {
			seen[m.ID] = true
			base = append(base, m)
		}
	}
	return base
}
