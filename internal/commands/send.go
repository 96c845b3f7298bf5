package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/diogo/chatweb/internal/api"
	"github.com/diogo/chatweb/internal/models"
	"github.com/diogo/chatweb/internal/session"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"), // Red
	lipgloss.Color("#feca57"), // Yellow
	lipgloss.Color("#48dbfb"), // Cyan
	lipgloss.Color("#ff9ff3"), // Pink
	lipgloss.Color("#54a0ff"), // Blue
	lipgloss.Color("#5f27cd"), // Purple
	lipgloss.Color("#00d2d3"), // Teal
	lipgloss.Color("#1dd1a1"), // Green
}

var (
	colorText    = lipgloss.Color("#c0caf5")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorPrimary = lipgloss.Color("#7aa2f7")
	colorError   = lipgloss.Color("#f7768e")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginBottom(1)
)

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner drawing on out
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	barWidth := 16
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + s.frame) % len(gradientColors)
		charIdx := (i + s.frame/2) % len(barChars)
		bar.WriteString(lipgloss.NewStyle().Foreground(gradientColors[colorIdx]).Render(barChars[charIdx]))
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	fmt.Fprintf(s.out, "\r\033[K%s %s %s", spinnerChar, bar.String(), msg)
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	close(s.stop)
	s.stopped = true
	return true
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(s.out, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner without a message
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// liveWriter prints streamed text as it grows. Each state replaces the
// whole reply, so only the new suffix is written; a reply that does not
// extend the previous one is printed again on a fresh line.
type liveWriter struct {
	out     io.Writer
	mu      sync.Mutex
	shown   string
	started bool
	onStart func()
}

func (w *liveWriter) update(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		w.started = true
		if w.onStart != nil {
			w.onStart()
		}
	}

	if strings.HasPrefix(text, w.shown) {
		fmt.Fprint(w.out, text[len(w.shown):])
	} else {
		fmt.Fprint(w.out, "\n"+text)
	}
	w.shown = text
}

func (w *liveWriter) wrote() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

// runSend submits a single message and prints the outcome. A failed
// submission prints its text to stderr and returns errSubmissionFailed.
func runSend(ctx context.Context, deps *Dependencies, message string) error {
	cfg := deps.Config
	verbose := cfg.Verbose && deps.Interactive

	client, err := deps.NewClient()
	if err != nil {
		return err
	}
	defer client.Close()

	host := deps.Host()
	if verbose {
		fmt.Fprintf(deps.Stderr, "[verbose] Endpoint: %s\n", api.ResolveEndpoint(host))
		if cfg.Model != "" {
			fmt.Fprintf(deps.Stderr, "[verbose] Model: %s\n", cfg.Model)
		}
	}

	var spin *spinner
	if deps.Interactive {
		spin = newSpinner(deps.Stderr, "Waiting for reply")
		spin.start()
	}
	stopSpinner := func() {
		if spin != nil {
			spin.stopWithError()
		}
	}

	// Streamed text goes straight to a terminal; piped output gets only the final reply
	live := &liveWriter{out: deps.Stdout, onStart: stopSpinner}
	var observers []session.Observer
	if deps.Interactive {
		observers = append(observers, func(st session.State) {
			if st.Phase == session.PhaseStreaming {
				live.update(st.Text)
			}
		})
	}

	sess := deps.NewSession(client, observers...)

	fields := models.MessageFields{
		DeveloperMessage: developerFlag,
		UserMessage:      message,
	}

	startTime := time.Now()
	final, err := sess.Submit(ctx, fields)
	requestDuration := time.Since(startTime)
	stopSpinner()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(deps.Stderr, "[verbose] Request took %s\n", requestDuration.Round(time.Millisecond))
	}

	if final.Phase == session.PhaseFailed {
		if live.wrote() {
			fmt.Fprintln(deps.Stdout)
		}
		errorMsg := lipgloss.NewStyle().Foreground(colorError).Render("✗ " + final.Text)
		fmt.Fprintln(deps.Stderr, errorMsg)
		deps.logger().Debug("one-shot submission failed", zap.String("session_id", sess.ID()))
		return errSubmissionFailed
	}

	text := final.Text

	if cfg.CopyToClipboard {
		if err := clipboard.WriteAll(text); err != nil {
			warnMsg := lipgloss.NewStyle().Foreground(colorError).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			)
			fmt.Fprintln(deps.Stderr, warnMsg)
		} else if deps.Interactive {
			clipMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard")
			fmt.Fprintln(deps.Stderr, clipMsg)
		}
	}

	if outputFlag != "" {
		if live.wrote() {
			fmt.Fprintln(deps.Stdout)
		}
		if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if deps.Interactive {
			successMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render(
				fmt.Sprintf("✓ Reply saved to %s", outputFlag),
			)
			fmt.Fprintln(deps.Stderr, successMsg)
		}
		return nil
	}

	// Piped output: the raw reply only
	if !deps.Interactive {
		fmt.Fprint(deps.Stdout, text)
		return nil
	}

	if live.wrote() {
		fmt.Fprintln(deps.Stdout)
		return nil
	}

	bubbleWidth := getTerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}

	fmt.Fprintln(deps.Stdout, assistantLabelStyle.Render("✦ Assistant"))
	fmt.Fprintln(deps.Stdout, assistantBubbleStyle.Width(bubbleWidth).Render(text))
	return nil
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
