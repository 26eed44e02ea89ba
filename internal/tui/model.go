package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/shinyyama/dm-backend/internal/chat"
	"github.com/shinyyama/dm-backend/internal/client"
	"github.com/shinyyama/dm-backend/internal/model"
)

const requestTimeout = 15 * time.Second

type focus int

const (
	focusList focus = iota
	focusInput
)

type partnersLoadedMsg struct{ err error }

type threadLoadedMsg struct {
	current bool
	err     error
}

type sentMsg struct{ err error }

// refreshMsg asks for a redraw after a pushed message changed state.
type refreshMsg struct{}

type connStateMsg struct {
	state client.ConnState
	err   error
}

type partnerItem struct {
	chat.Partner
}

func (i partnerItem) Title() string {
	return displayName(model.BaseUser{ID: i.ID, FirstName: i.FirstName, LastName: i.LastName})
}

func (i partnerItem) Description() string {
	return i.LastMessageOn.Local().Format(listDayLayout) + " · " + i.LastMessage
}

func (i partnerItem) FilterValue() string { return i.Title() }

// Model is the chat screen: partners on the left, the open thread and the
// compose line on the right.
type Model struct {
	list   *chat.List
	thread *chat.Thread
	log    logrus.FieldLogger
	events chan tea.Msg

	width   int
	height  int
	listW   int
	threadW int
	bodyH   int

	focus    focus
	partners list.Model
	view     viewport.Model
	input    textinput.Model

	partnerName string
	conn        client.ConnState
	connErr     error
	status      string
	statusErr   bool
}

func New(api chat.MessageAPI, userID int, log logrus.FieldLogger) *Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Chats"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	in := textinput.New()
	in.Placeholder = "Type a message"
	in.CharLimit = model.MaxContentLength
	in.Prompt = "> "

	return &Model{
		list:     chat.NewList(api, userID),
		thread:   chat.NewThread(api, userID),
		log:      log,
		events:   make(chan tea.Msg, 64),
		partners: l,
		view:     viewport.New(0, 0),
		input:    in,
		conn:     client.StateConnecting,
	}
}

// Push feeds a message from the hub into the open thread and the partner
// list. It is safe to call from the hub's read goroutine.
func (m *Model) Push(msg model.Message) {
	appended := m.thread.Apply(msg)
	moved := m.list.Observe(msg)
	if appended || moved {
		m.emit(refreshMsg{})
	}
}

// SetConnState reports hub connection changes to the status line.
func (m *Model) SetConnState(s client.ConnState, err error) {
	m.emit(connStateMsg{state: s, err: err})
}

func (m *Model) emit(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
		m.log.Debug("tui: event queue full, dropping")
	}
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg { return <-m.events }
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadPartners(), m.listen(), textinput.Blink)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case partnersLoadedMsg:
		if msg.err != nil {
			m.setError("load chats", msg.err)
		} else if !m.statusErr {
			m.status = ""
		}
		return m, m.syncPartners()
	case threadLoadedMsg:
		if !msg.current {
			return m, nil
		}
		if msg.err != nil {
			m.setError("load messages", msg.err)
		}
		m.syncThread()
		return m, nil
	case sentMsg:
		if msg.err != nil {
			m.setError("send", msg.err)
		} else {
			m.status, m.statusErr = "", false
		}
		m.syncThread()
		return m, nil
	case refreshMsg:
		m.syncThread()
		return m, tea.Batch(m.syncPartners(), m.listen())
	case connStateMsg:
		m.conn, m.connErr = msg.state, msg.err
		return m, m.listen()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "tab":
		if m.focus == focusList {
			return m.focusInput()
		}
		m.focusList()
		return nil
	}

	var cmd tea.Cmd
	if m.focus == focusList {
		if m.partners.FilterState() != list.Filtering {
			switch msg.String() {
			case "q":
				return tea.Quit
			case "r":
				m.status, m.statusErr = "refreshing…", false
				return m.loadPartners()
			case "enter":
				return m.openSelected()
			}
		}
		m.partners, cmd = m.partners.Update(msg)
		return cmd
	}

	switch msg.String() {
	case "esc":
		m.focusList()
		return nil
	case "enter":
		return m.send()
	case "pgup", "pgdown":
		m.view, cmd = m.view.Update(msg)
		return cmd
	}
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) focusInput() tea.Cmd {
	m.focus = focusInput
	return m.input.Focus()
}

func (m *Model) focusList() {
	m.focus = focusList
	m.input.Blur()
}

func (m *Model) openSelected() tea.Cmd {
	it, ok := m.partners.SelectedItem().(partnerItem)
	if !ok {
		return nil
	}
	p, ok := m.list.Select(it.ID)
	if !ok {
		return nil
	}
	m.partnerName = partnerItem{p}.Title()
	gen := m.thread.Open(p.ID)
	m.syncThread()
	return tea.Batch(m.loadThread(gen), m.focusInput())
}

func (m *Model) loadPartners() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := m.list.Load(ctx)
		if err != nil {
			m.log.WithError(err).WithField("user_id", m.list.UserID()).Warn("load chats")
		}
		return partnersLoadedMsg{err: err}
	}
}

func (m *Model) loadThread(gen uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		current, err := m.thread.Load(ctx, gen)
		if err != nil {
			m.log.WithError(err).WithField("partner_id", m.thread.PartnerID()).Warn("load messages")
		}
		return threadLoadedMsg{current: current, err: err}
	}
}

func (m *Model) send() tea.Cmd {
	content := m.input.Value()
	if strings.TrimSpace(content) == "" {
		return nil
	}
	m.input.Reset()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := m.thread.Send(ctx, content)
		if err != nil {
			m.log.WithError(err).Warn("send message")
		}
		return sentMsg{err: err}
	}
}

func (m *Model) setError(what string, err error) {
	m.status = what + ": " + err.Error()
	m.statusErr = true
}

func (m *Model) syncPartners() tea.Cmd {
	ps := m.list.Partners()
	items := make([]list.Item, 0, len(ps))
	for _, p := range ps {
		items = append(items, partnerItem{p})
	}
	return m.partners.SetItems(items)
}

func (m *Model) syncThread() {
	var content string
	switch {
	case m.thread.PartnerID() == 0:
		content = faintStyle.Render("Select a conversation")
	case m.thread.Loading():
		content = faintStyle.Render("Loading…")
	default:
		msgs := m.thread.Messages()
		if len(msgs) == 0 {
			content = faintStyle.Render("No messages yet")
		} else {
			content = renderThread(msgs, m.thread.UserID(), m.view.Width)
		}
	}
	m.view.SetContent(content)
	m.view.GotoBottom()
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.listW = min(32, w/3)
	m.threadW = max(w-m.listW-4, 10)
	m.bodyH = max(h-3, 4)

	m.partners.SetSize(m.listW, m.bodyH)
	m.view.Width = m.threadW
	m.view.Height = m.bodyH - 2
	m.input.Width = m.threadW - len(m.input.Prompt) - 1
	m.syncThread()
}

func (m *Model) View() string {
	if m.width == 0 {
		return "starting…"
	}

	listPane, threadPane := paneStyle, focusPane
	if m.focus == focusList {
		listPane, threadPane = focusPane, paneStyle
	}

	header := m.partnerName
	if header == "" {
		header = "No conversation"
	}
	left := listPane.Width(m.listW).Height(m.bodyH).Render(m.partners.View())
	right := threadPane.Width(m.threadW).Height(m.bodyH).Render(
		lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(header), m.view.View(), m.input.View()))

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		m.statusLine())
}

func (m *Model) statusLine() string {
	conn := "hub " + m.conn.String()
	if m.connErr != nil && m.conn != client.StateConnected {
		conn += " (" + m.connErr.Error() + ")"
	}
	line := fmt.Sprintf("user %d · %s · tab switch · enter open/send · r refresh · q quit", m.list.UserID(), conn)
	if m.status == "" {
		return statusStyle.Render(line)
	}
	if m.statusErr {
		return errStyle.Render(m.status) + "  " + statusStyle.Render(line)
	}
	return statusStyle.Render(m.status + "  " + line)
}
