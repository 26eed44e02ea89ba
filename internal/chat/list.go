package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shinyyama/dm-backend/internal/model"
)

const (
	ListPageSize   = 10
	ThreadPageSize = 500
)

// MessageAPI is the part of the message API the chat views use.
type MessageAPI interface {
	GetMessagesAll(ctx context.Context, pageIndex, pageSize int) (*model.Paged[model.Message], error)
	GetMessagesByRecipientID(ctx context.Context, recipientID, pageIndex, pageSize int) (*model.Paged[model.Message], error)
	PostMessage(ctx context.Context, req *model.MessageAddRequest) (*model.Message, error)
}

// Partner is a user the active user has received messages from.
type Partner struct {
	ID            int
	FirstName     string
	LastName      string
	Avatar        string
	LastMessage   string
	LastMessageOn time.Time
}

func (p Partner) DisplayName() string {
	return model.BaseUser{FirstName: p.FirstName, LastName: p.LastName}.DisplayName()
}

func partnerFrom(m model.Message) Partner {
	p := Partner{
		ID:            m.Sender.ID,
		FirstName:     m.Sender.FirstName,
		LastName:      m.Sender.LastName,
		LastMessage:   m.Content,
		LastMessageOn: m.Timestamp(),
	}
	if m.Sender.AvatarURL != nil {
		p.Avatar = *m.Sender.AvatarURL
	}
	return p
}

// Partners derives one entry per distinct sender, most recent conversation
// first. Each entry carries that sender's latest message.
func Partners(msgs []model.Message) []Partner {
	sorted := make([]model.Message, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp().After(sorted[j].Timestamp())
	})

	seen := make(map[int]bool, len(sorted))
	out := make([]Partner, 0, len(sorted))
	for _, m := range sorted {
		if seen[m.Sender.ID] {
			continue
		}
		seen[m.Sender.ID] = true
		out = append(out, partnerFrom(m))
	}
	return out
}

// List holds the partner list of the active user and the current selection.
type List struct {
	api MessageAPI

	mu       sync.Mutex
	userID   int
	gen      uint64
	partners []Partner
	selected int
}

func NewList(api MessageAPI, userID int) *List {
	return &List{api: api, userID: userID}
}

// SetUser switches the active user and clears the list; call Load afterwards.
func (l *List) SetUser(userID int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.userID = userID
	l.gen++
	l.partners = nil
	l.selected = 0
}

func (l *List) UserID() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.userID
}

// Load fetches the first page of messages addressed to the active user and
// rebuilds the partners from it. A result for a user that is no longer active
// is dropped.
func (l *List) Load(ctx context.Context) error {
	l.mu.Lock()
	userID, gen := l.userID, l.gen
	l.mu.Unlock()

	page, err := l.api.GetMessagesByRecipientID(ctx, userID, 0, ListPageSize)
	if err != nil {
		return err
	}
	var msgs []model.Message
	if page != nil {
		msgs = page.PagedItems
	}
	partners := Partners(msgs)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return nil
	}
	l.partners = partners
	return nil
}

// Observe moves the sender of a message addressed to the active user to the
// top of the list, adding them if new.
func (l *List) Observe(m model.Message) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m.Recipient.ID != l.userID || m.Sender.ID == l.userID {
		return false
	}
	p := partnerFrom(m)
	rest := make([]Partner, 0, len(l.partners)+1)
	rest = append(rest, p)
	for _, q := range l.partners {
		if q.ID == p.ID {
			if q.LastMessageOn.After(p.LastMessageOn) {
				return false
			}
			continue
		}
		rest = append(rest, q)
	}
	l.partners = rest
	return true
}

func (l *List) Partners() []Partner {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Partner, len(l.partners))
	copy(out, l.partners)
	return out
}

// Select makes partnerID the active conversation partner.
func (l *List) Select(partnerID int) (Partner, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.partners {
		if p.ID == partnerID {
			l.selected = partnerID
			return p, true
		}
	}
	return Partner{}, false
}

func (l *List) Selected() (Partner, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.partners {
		if p.ID == l.selected {
			return p, true
		}
	}
	return Partner{}, false
}
