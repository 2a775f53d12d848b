// ABOUTME: Bubbletea render adapter projecting widget state onto a terminal
// ABOUTME: A thin I/O boundary; all chat semantics live in the widget engine

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389/embedchat/internal/widget"
)

// focusable guest form fields, in tab order
const (
	fieldName = iota
	fieldEmail
	fieldPhone
)

type (
	// deltaMsg carries one engine render delta into the update loop
	deltaMsg widget.Delta

	// deltasClosedMsg means the engine shut down
	deltasClosedMsg struct{}

	// openedMsg signals that the blocking open (init + hydration) finished
	openedMsg struct{}

	// sentMsg signals that a send round-trip finished
	sentMsg struct{}

	// registeredMsg carries the guest registration outcome
	registeredMsg struct {
		welcome string
		err     error
	}
)

// Model renders one widget instance. Everything it shows is derived from
// the engine's Snapshot; deltas only tell it when to look again.
type Model struct {
	widget *widget.Instance
	deltas <-chan widget.Delta
	styles Styles

	input textinput.Model
	spin  spinner.Model

	name  textinput.Model
	email textinput.Model
	phone textinput.Model
	focus int

	formErr string
	welcome string
	width   int
	done    bool
}

// New creates the render adapter for an already-bootstrapped instance.
func New(w *widget.Instance) Model {
	cfg := w.Config()

	input := textinput.New()
	input.Placeholder = cfg.InputPlaceholder
	input.CharLimit = 2000
	input.Focus()

	name := textinput.New()
	name.Placeholder = "Full name"
	name.Focus()
	email := textinput.New()
	email.Placeholder = "Email (optional)"
	phone := textinput.New()
	phone.Placeholder = "Phone"

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		widget: w,
		deltas: w.Subscribe(),
		styles: NewStyles(cfg),
		input:  input,
		spin:   sp,
		name:   name,
		email:  email,
		phone:  phone,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForDelta(), m.spin.Tick)
}

// waitForDelta blocks on the engine's delta stream.
func (m Model) waitForDelta() tea.Cmd {
	return func() tea.Msg {
		d, ok := <-m.deltas
		if !ok {
			return deltasClosedMsg{}
		}
		return deltaMsg(d)
	}
}

func (m Model) openCmd() tea.Cmd {
	return func() tea.Msg {
		m.widget.Open(context.Background())
		return openedMsg{}
	}
}

func (m Model) sendCmd(text string) tea.Cmd {
	return func() tea.Msg {
		m.widget.SendUserMessage(context.Background(), text)
		return sentMsg{}
	}
}

func (m Model) registerCmd(profile widget.GuestProfile) tea.Cmd {
	return func() tea.Msg {
		welcome, err := m.widget.RegisterGuest(context.Background(), profile)
		return registeredMsg{welcome: welcome, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case deltaMsg:
		// State already changed inside the engine; re-render and keep
		// listening. The unread badge, typing line and transcript all
		// come straight from Snapshot in View.
		return m, m.waitForDelta()

	case deltasClosedMsg:
		m.done = true
		return m, tea.Quit

	case openedMsg, sentMsg:
		return m, nil

	case registeredMsg:
		if msg.err != nil {
			m.formErr = registrationErrorText(msg.err)
			return m, nil
		}
		m.formErr = ""
		m.welcome = msg.welcome
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.widget.Snapshot()

	switch msg.String() {
	case "ctrl+c":
		m.widget.Shutdown()
		return m, tea.Quit

	case "esc":
		if snap.IsOpen {
			m.widget.Close()
		}
		return m, nil
	}

	if !snap.IsOpen {
		if msg.String() == "enter" || msg.String() == "o" {
			return m, m.openCmd()
		}
		return m, nil
	}

	if snap.Phase == widget.PhaseGuestGatePending {
		return m.updateGuestForm(msg)
	}

	if msg.String() == "enter" {
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		if snap.IsTyping || snap.SessionID == "" {
			// Input stays disabled while a send is in flight or before
			// the session exists
			return m, nil
		}
		m.input.Reset()
		return m, m.sendCmd(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateGuestForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		if msg.String() == "shift+tab" || msg.String() == "up" {
			m.focus = (m.focus + 2) % 3
		} else {
			m.focus = (m.focus + 1) % 3
		}
		m.name.Blur()
		m.email.Blur()
		m.phone.Blur()
		switch m.focus {
		case fieldName:
			m.name.Focus()
		case fieldEmail:
			m.email.Focus()
		case fieldPhone:
			m.phone.Focus()
		}
		return m, nil

	case "enter":
		if m.focus != fieldPhone {
			return m.updateGuestForm(tea.KeyMsg{Type: tea.KeyTab})
		}
		profile := widget.GuestProfile{
			FullName: m.name.Value(),
			Email:    m.email.Value(),
			Phone:    m.phone.Value(),
		}
		return m, m.registerCmd(profile)
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldName:
		m.name, cmd = m.name.Update(msg)
	case fieldEmail:
		m.email, cmd = m.email.Update(msg)
	case fieldPhone:
		m.phone, cmd = m.phone.Update(msg)
	}
	return m, cmd
}

func registrationErrorText(err error) string {
	var vErr *widget.ValidationError
	if errors.As(err, &vErr) {
		return fmt.Sprintf("%s: %s", vErr.Field, vErr.Reason)
	}
	return widget.GuestRegisterFailedText
}
