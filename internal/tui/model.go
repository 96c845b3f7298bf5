package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatweb/internal/models"
	"github.com/diogo/chatweb/internal/session"
)

// stateBuffer bounds the in-flight states queued between the session and
// the UI. Intermediate states may be dropped when it is full; the terminal
// state always arrives through doneMsg.
const stateBuffer = 32

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	// stateMsg carries an in-flight session state (sending or streaming)
	stateMsg struct {
		state session.State
	}
	// doneMsg carries the state a submission ended in
	doneMsg struct {
		state session.State
		err   error
	}
)

// Submitter is the part of the session the chat view drives
type Submitter interface {
	Submit(ctx context.Context, fields models.MessageFields) (session.State, error)
	Observe(o session.Observer)
}

// ChatOptions configures the chat view
type ChatOptions struct {
	// Endpoint and ModelName are shown in the header
	Endpoint  string
	ModelName string
	// DeveloperMessage is sent ahead of every user message
	DeveloperMessage string
}

// Model represents the TUI state
type Model struct {
	ctx     context.Context
	session Submitter
	opts    ChatOptions
	updates chan session.State

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	messages       []chatMessage
	loading        bool
	ready          bool
	phase          session.Phase
	animationFrame int

	// Dimensions
	width  int
	height int
}

// chatMessage is one entry of the on-screen transcript
type chatMessage struct {
	role    string // "user" or "assistant"
	content string
	failed  bool
}

// NewChatModel creates a chat model bound to sess. It registers an observer
// on sess, so one session should back at most one model.
func NewChatModel(ctx context.Context, sess Submitter, opts ChatOptions) Model {
	if ctx == nil {
		ctx = context.Background()
	}

	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 8000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	updates := make(chan session.State, stateBuffer)
	sess.Observe(forwardState(updates))

	return Model{
		ctx:      ctx,
		session:  sess,
		opts:     opts,
		updates:  updates,
		textarea: ta,
		spinner:  s,
		messages: []chatMessage{},
	}
}

// forwardState returns an observer that queues in-flight states on ch
// without ever blocking the submitting goroutine.
func forwardState(ch chan<- session.State) session.Observer {
	return func(st session.State) {
		if !st.Phase.InFlight() {
			return
		}
		select {
		case ch <- st:
		default:
		}
	}
}

// listen waits for the next queued state. Exactly one listen is outstanding
// for the lifetime of the model.
func listen(ch <-chan session.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg{state: st}
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		listen(m.updates),
	)
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// isExitCommand reports whether input asks to leave the chat
func isExitCommand(input string) bool {
	switch input {
	case "exit", "quit", "/exit", "/quit":
		return true
	}
	return false
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4 // Header panel with border
		inputHeight := 6  // Input panel with border
		statusHeight := 1 // Status bar
		padding := 2      // Extra spacing

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}

		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.textarea.SetWidth(contentWidth - 4)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
			m.textarea.SetWidth(contentWidth - 4)
		}
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			input := strings.TrimSpace(m.textarea.Value())
			if isExitCommand(input) {
				return m, tea.Quit
			}
			// Submissions are inert while one is in flight
			if m.loading {
				return m, nil
			}
			return m.startSubmission(input)
		}

	case stateMsg:
		if m.loading && msg.state.Phase.InFlight() {
			m.phase = msg.state.Phase
			m.setReply(msg.state.Text, false)
		}
		return m, listen(m.updates)

	case doneMsg:
		if errors.Is(msg.err, session.ErrBusy) {
			return m, nil
		}
		m.loading = false
		m.phase = msg.state.Phase
		m.setReply(msg.state.Text, msg.state.Phase == session.PhaseFailed)
		m.textarea.Focus()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only pass KeyMsg to textarea to prevent escape sequence leaks
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// startSubmission records the exchange and hands the input to the session.
// Blank input is submitted too so the session reports the validation text.
func (m Model) startSubmission(input string) (tea.Model, tea.Cmd) {
	if input != "" {
		m.messages = append(m.messages, chatMessage{role: "user", content: input})
	}
	m.messages = append(m.messages, chatMessage{role: "assistant"})
	m.updateViewport()
	m.viewport.GotoBottom()

	m.drainUpdates()
	m.loading = true
	m.phase = session.PhaseSending
	m.animationFrame = 0
	m.textarea.Reset()
	m.textarea.Blur()

	fields := models.MessageFields{
		DeveloperMessage: m.opts.DeveloperMessage,
		UserMessage:      input,
	}

	return m, tea.Batch(
		m.submit(fields),
		m.spinner.Tick,
		animationTick(),
	)
}

// drainUpdates discards states left over from a previous submission
func (m Model) drainUpdates() {
	for {
		select {
		case <-m.updates:
		default:
			return
		}
	}
}

// submit creates a command that runs one submission to completion
func (m Model) submit(fields models.MessageFields) tea.Cmd {
	ctx, sess := m.ctx, m.session
	return func() tea.Msg {
		st, err := sess.Submit(ctx, fields)
		return doneMsg{state: st, err: err}
	}
}

// setReply replaces the text of the pending assistant message
func (m *Model) setReply(text string, failed bool) {
	if n := len(m.messages); n > 0 && m.messages[n-1].role == "assistant" {
		m.messages[n-1].content = text
		m.messages[n-1].failed = failed
	}
	m.updateViewport()
	m.viewport.GotoBottom()
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	// Header
	headerParts := []string{titleStyle.Render("✦ chatweb")}
	if m.opts.ModelName != "" {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			subtitleStyle.Render(m.opts.ModelName),
		)
	}
	if m.opts.Endpoint != "" {
		headerParts = append(headerParts,
			hintStyle.Render("  •  "),
			hintStyle.Render(m.opts.Endpoint),
		)
	}
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, headerParts...)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	// Messages
	var messagesContent string
	if len(m.messages) == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	messagesPanel := messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent)
	sections = append(sections, messagesPanel)

	// Input
	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	title := welcomeTitleStyle.Width(width).Render("Welcome to chatweb")
	subtitle := welcomeStyle.Width(width).Render("Type a message below and press Enter")

	content := lipgloss.JoinVertical(lipgloss.Center, "", title, "", subtitle, "")

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation renders the busy indicator
func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame

	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[frame%len(chars)])

	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)
		bar.WriteString(lipgloss.NewStyle().Foreground(gradientColors[colorIdx]).Render(barChars[charIdx]))
	}

	label := " Waiting for reply "
	if m.phase == session.PhaseStreaming {
		label = " Receiving reply "
	}
	text := lipgloss.NewStyle().Foreground(colorText).Render(label)
	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, m.spinner.View())
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Esc", "Quit"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		))
	}
	phase := lipgloss.NewStyle().Foreground(colorWarning).Render(m.phase.String())
	items = append(items, phase)

	bar := strings.Join(items, "  │  ")
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	for i, msg := range m.messages {
		if i > 0 {
			content.WriteString("\n")
		}

		switch {
		case msg.role == "user":
			label := userLabelStyle.Render("⬤ You")
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.content)
			content.WriteString(label + "\n" + bubble)
		case msg.failed:
			label := failedLabelStyle.Render("✗ Error")
			bubble := failedBubbleStyle.Width(bubbleWidth).Render(msg.content)
			content.WriteString(label + "\n" + bubble)
		default:
			label := assistantLabelStyle.Render("✦ Assistant")
			text := msg.content
			if text == "" {
				text = hintStyle.Render("…")
			}
			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(text)
			content.WriteString(label + "\n" + bubble)
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// RunChat starts the chat TUI on sess
func RunChat(ctx context.Context, sess Submitter, opts ChatOptions) error {
	m := NewChatModel(ctx, sess, opts)
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
