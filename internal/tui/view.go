// ABOUTME: View rendering and lipgloss styles for the terminal widget
// ABOUTME: Pure projection of the engine Snapshot; holds no chat state

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/2389/embedchat/internal/config"
	"github.com/2389/embedchat/internal/widget"
)

// Styles holds the lipgloss styles derived from the widget config.
type Styles struct {
	Header    lipgloss.Style
	Bubble    lipgloss.Style
	Badge     lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Faint     lipgloss.Style
	Error     lipgloss.Style
	Frame     lipgloss.Style
}

// NewStyles builds the style set from the embed's primary color.
func NewStyles(cfg *config.WidgetConfig) Styles {
	primary := lipgloss.Color(cfg.PrimaryColor)
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(primary).Padding(0, 1),
		Bubble:    lipgloss.NewStyle().Bold(true).Foreground(primary),
		Badge:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")).Padding(0, 1),
		User:      lipgloss.NewStyle().Foreground(primary).Bold(true),
		Assistant: lipgloss.NewStyle(),
		Faint:     lipgloss.NewStyle().Faint(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Frame:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(primary).Padding(0, 1),
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.done {
		return ""
	}

	snap := m.widget.Snapshot()
	cfg := m.widget.Config()

	if !snap.IsOpen {
		return m.viewClosed(snap)
	}

	var b strings.Builder
	b.WriteString(m.styles.Header.Render(cfg.HeaderTitle))
	b.WriteString("\n\n")

	if snap.Phase == widget.PhaseGuestGatePending {
		b.WriteString(m.viewGuestForm())
	} else {
		b.WriteString(m.viewConversation(snap, cfg))
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Faint.Render("esc close · ctrl+c quit"))

	return m.styles.Frame.Render(b.String())
}

// viewClosed renders the collapsed chat bubble with the unread badge.
func (m Model) viewClosed(snap widget.SessionState) string {
	bubble := m.styles.Bubble.Render("● Chat")
	if snap.UnreadCount > 0 {
		bubble += " " + m.styles.Badge.Render(fmt.Sprintf("%d", snap.UnreadCount))
	}
	hint := m.styles.Faint.Render("press enter to open")
	return bubble + "\n" + hint + "\n"
}

func (m Model) viewConversation(snap widget.SessionState, cfg *config.WidgetConfig) string {
	var b strings.Builder

	if m.welcome != "" {
		b.WriteString(m.styles.Assistant.Render(m.welcome))
		b.WriteString("\n")
	} else if len(snap.Messages) == 0 {
		b.WriteString(m.styles.Assistant.Render(cfg.InitialMessage))
		b.WriteString("\n")
	}
	for _, msg := range snap.Messages {
		switch msg.Role {
		case widget.RoleUser:
			b.WriteString(m.styles.User.Render("You: " + msg.Content))
		default:
			b.WriteString(m.styles.Assistant.Render(msg.Content))
		}
		b.WriteString("\n")
	}

	if snap.IsTyping {
		b.WriteString(m.spin.View())
		b.WriteString(m.styles.Faint.Render(" typing..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if snap.SessionID == "" {
		b.WriteString(m.styles.Faint.Render("connecting..."))
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewGuestForm() string {
	var b strings.Builder
	b.WriteString("Before we start, tell us who you are:\n\n")
	b.WriteString(m.name.View())
	b.WriteString("\n")
	b.WriteString(m.email.View())
	b.WriteString("\n")
	b.WriteString(m.phone.View())
	b.WriteString("\n")
	if m.formErr != "" {
		b.WriteString(m.styles.Error.Render(m.formErr))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Faint.Render("tab next field · enter submit"))
	b.WriteString("\n")
	return b.String()
}
