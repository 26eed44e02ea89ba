package tui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/shinyyama/dm-backend/internal/model"
)

const (
	timeLayout    = "15:04"
	listDayLayout = "Jan 2 06"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	ownStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	theirStyle = lipgloss.NewStyle()

	avatarStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")).Bold(true)
	fallbackAvatarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("7"))

	paneStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8"))
	focusPane = paneStyle.BorderForeground(lipgloss.Color("12"))
)

func initials(u model.BaseUser) string {
	var b strings.Builder
	for _, s := range []string{u.FirstName, u.LastName} {
		for _, r := range s {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

// avatar renders a user badge. Users without a picture get the grey default.
func avatar(u model.BaseUser) string {
	badge := " " + initials(u) + " "
	if u.AvatarURL == nil || *u.AvatarURL == "" {
		return fallbackAvatarStyle.Render(badge)
	}
	return avatarStyle.Render(badge)
}

func displayName(u model.BaseUser) string {
	if n := u.DisplayName(); n != "" {
		return n
	}
	return fmt.Sprintf("User %d", u.ID)
}

// renderMessage draws one thread line. The active user's own messages are
// right aligned.
func renderMessage(m model.Message, userID, width int) string {
	at := m.Timestamp().Local().Format(timeLayout)
	if m.Sender.ID == userID {
		line := ownStyle.Render(m.Content) + " " + faintStyle.Render(at)
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Right).Render(line)
	}
	line := avatar(m.Sender) + " " + faintStyle.Render(at) + " " + theirStyle.Render(m.Content)
	return lipgloss.NewStyle().Width(width).Render(line)
}

func renderThread(msgs []model.Message, userID, width int) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, renderMessage(m, userID, width))
	}
	return strings.Join(lines, "\n")
}
