package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shinyyama/dm-backend/internal/model"
	"github.com/sirupsen/logrus"
)

const (
	EventReceiveMessage = "ReceiveMessage"

	hubPongWait  = 70 * time.Second
	hubWriteWait = 10 * time.Second
)

// DefaultReconnectDelays are waited before each reconnect attempt. When all
// attempts fail the connection is reported closed.
var DefaultReconnectDelays = []time.Duration{0, 2 * time.Second, 10 * time.Second, 30 * time.Second}

type ConnState int

const (
	StateConnecting ConnState = iota
	StateConnected
	StateReconnecting
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "closed"
	}
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type HubOption func(*HubConnection)

func WithReconnectDelays(d ...time.Duration) HubOption {
	return func(h *HubConnection) { h.delays = d }
}

func WithDialer(d *websocket.Dialer) HubOption {
	return func(h *HubConnection) { h.dialer = d }
}

func WithHubLogger(l logrus.FieldLogger) HubOption {
	return func(h *HubConnection) { h.log = l }
}

// HubConnection is a persistent push connection to /hubs/chat that
// reconnects on its own.
type HubConnection struct {
	url    string
	dialer *websocket.Dialer
	delays []time.Duration
	log    logrus.FieldLogger

	mu       sync.Mutex
	handlers map[string][]func(json.RawMessage)
	onState  []func(ConnState, error)
	conn     *websocket.Conn
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewHubConnection(baseURL string, userID int, opts ...HubOption) *HubConnection {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	h := &HubConnection{
		url:      u + "/hubs/chat?userId=" + strconv.Itoa(userID),
		dialer:   websocket.DefaultDialer,
		delays:   DefaultReconnectDelays,
		log:      logrus.StandardLogger(),
		handlers: make(map[string][]func(json.RawMessage)),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// On registers fn for frames of the given type. Handlers run on the read goroutine.
func (h *HubConnection) On(event string, fn func(data json.RawMessage)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[event] = append(h.handlers[event], fn)
}

// OnMessage registers fn for ReceiveMessage frames.
func (h *HubConnection) OnMessage(fn func(model.Message)) {
	h.On(EventReceiveMessage, func(data json.RawMessage) {
		var m model.Message
		if err := json.Unmarshal(data, &m); err != nil {
			h.log.WithError(err).Warn("hub: bad ReceiveMessage payload")
			return
		}
		fn(m)
	})
}

func (h *HubConnection) OnStateChange(fn func(ConnState, error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onState = append(h.onState, fn)
}

// Start dials once and returns the dial error, if any. After a successful
// start, dropped connections are retried with the reconnect delays.
func (h *HubConnection) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.cancel != nil {
		h.mu.Unlock()
		return errors.New("hub connection already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.done = make(chan struct{})
	done := h.done
	h.mu.Unlock()

	h.setState(StateConnecting, nil)
	conn, err := h.dial(ctx)
	if err != nil {
		cancel()
		close(done)
		h.mu.Lock()
		h.cancel = nil
		h.mu.Unlock()
		h.setState(StateClosed, err)
		return err
	}
	h.setState(StateConnected, nil)
	go h.run(ctx, conn, done)
	return nil
}

// Close stops reconnecting, closes the socket and waits for the read loop.
func (h *HubConnection) Close() error {
	h.mu.Lock()
	cancel, conn, done := h.cancel, h.conn, h.done
	h.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(hubWriteWait))
		_ = conn.Close()
	}
	<-done
	return nil
}

func (h *HubConnection) run(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		err := h.read(conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			h.setState(StateClosed, nil)
			return
		}
		h.log.WithError(err).Warn("hub connection lost, reconnecting")
		h.setState(StateReconnecting, err)

		conn = h.reconnect(ctx)
		if conn == nil {
			h.setState(StateClosed, err)
			return
		}
		if ctx.Err() != nil {
			_ = conn.Close()
			h.setState(StateClosed, nil)
			return
		}
		h.setState(StateConnected, nil)
	}
}

func (h *HubConnection) reconnect(ctx context.Context) *websocket.Conn {
	for i, d := range h.delays {
		if d > 0 {
			t := time.NewTimer(d)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return nil
			}
		}
		conn, err := h.dial(ctx)
		if err == nil {
			return conn
		}
		if ctx.Err() != nil {
			return nil
		}
		h.log.WithError(err).WithField("attempt", i+1).Warn("hub reconnect failed")
	}
	return nil
}

func (h *HubConnection) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := h.dialer.DialContext(ctx, h.url, nil)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, err
	}
	_ = conn.SetReadDeadline(time.Now().Add(hubPongWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(hubPongWait))
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(hubWriteWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})
	h.mu.Lock()
	h.conn = conn
	h.mu.Unlock()
	return conn, nil
}

func (h *HubConnection) read(conn *websocket.Conn) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			h.log.WithError(err).Warn("hub: undecodable frame")
			continue
		}
		h.mu.Lock()
		fns := append([]func(json.RawMessage){}, h.handlers[f.Type]...)
		h.mu.Unlock()
		for _, fn := range fns {
			fn(f.Data)
		}
	}
}

func (h *HubConnection) setState(s ConnState, err error) {
	h.mu.Lock()
	fns := append([]func(ConnState, error){}, h.onState...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(s, err)
	}
}
