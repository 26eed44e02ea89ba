package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/shinyyama/dm-backend/internal/model"
	"github.com/sirupsen/logrus"
)

const EventReceiveMessage = "ReceiveMessage"

// Frame is the JSON shape of every server to client websocket message.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Relay carries deliveries between API instances. A nil Relay means this
// instance is the only one.
type Relay interface {
	Publish(ctx context.Context, userID int, payload []byte) error
	// Subscribe blocks, calling deliver for every payload published by another instance.
	Subscribe(ctx context.Context, deliver func(userID int, payload []byte)) error
	Close() error
}

type delivery struct {
	userID  int
	payload []byte
}

// Hub tracks websocket connections by user id. A user may hold several
// connections; each delivery goes to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[int]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	done       chan struct{}

	relay Relay
	log   logrus.FieldLogger
}

func New(relay Relay, log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		clients:    make(map[int]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		done:       make(chan struct{}),
		relay:      relay,
		log:        log,
	}
}

// Run owns the registry until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.relay != nil {
		go func() {
			err := h.relay.Subscribe(ctx, func(userID int, payload []byte) {
				select {
				case h.deliver <- delivery{userID: userID, payload: payload}:
				case <-ctx.Done():
				}
			})
			if err != nil && ctx.Err() == nil {
				h.log.WithError(err).Error("hub relay subscription ended")
			}
		}()
	}

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			conns, ok := h.clients[c.userID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[c.userID] = conns
			}
			conns[c] = struct{}{}
			h.mu.Unlock()
			h.log.WithFields(logrus.Fields{"user_id": c.userID, "conn_id": c.id}).Info("hub client connected")

		case c := <-h.unregister:
			h.remove(c)

		case d := <-h.deliver:
			h.deliverLocal(d)

		case <-ctx.Done():
			h.mu.Lock()
			for userID, conns := range h.clients {
				for c := range conns {
					close(c.send)
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, exists := conns[c]; !exists {
		return
	}
	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
	h.log.WithFields(logrus.Fields{"user_id": c.userID, "conn_id": c.id}).Info("hub client disconnected")
}

func (h *Hub) deliverLocal(d delivery) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[d.userID] {
		select {
		case c.send <- d.payload:
		default:
			h.log.WithFields(logrus.Fields{"user_id": d.userID, "conn_id": c.id}).Warn("hub client send buffer full, dropping frame")
		}
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// SendToUser delivers payload to the user's connections on this instance and,
// through the relay, on every other instance.
func (h *Hub) SendToUser(userID int, payload []byte) {
	select {
	case h.deliver <- delivery{userID: userID, payload: payload}:
	case <-h.done:
		return
	}
	if h.relay != nil {
		if err := h.relay.Publish(context.Background(), userID, payload); err != nil {
			h.log.WithError(err).WithField("user_id", userID).Warn("hub relay publish failed")
		}
	}
}

// NotifyMessage pushes a ReceiveMessage frame to the recipient and echoes it to the sender.
func (h *Hub) NotifyMessage(msg *model.Message) {
	payload, err := json.Marshal(Frame{Type: EventReceiveMessage, Data: msg})
	if err != nil {
		h.log.WithError(err).WithField("message_id", msg.ID).Error("encode hub frame")
		return
	}
	h.SendToUser(msg.Recipient.ID, payload)
	if msg.Sender.ID != msg.Recipient.ID {
		h.SendToUser(msg.Sender.ID, payload)
	}
}

func (h *Hub) ConnectionCount(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
