package commands

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/diogo/chatweb/internal/api"
	"github.com/diogo/chatweb/internal/config"
	"github.com/diogo/chatweb/internal/observability"
	"github.com/diogo/chatweb/internal/tui"
)

// isolate points HOME at a temp dir and clears every override variable
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		config.EnvOrigin, config.EnvModel, config.EnvAPIKey, config.EnvOpenAIAPIKey,
		config.EnvStream, config.EnvResponseMode, config.EnvTimeout, config.EnvLogLevel,
		config.EnvLogFile, config.EnvOTLPEndpoint,
	} {
		t.Setenv(key, "")
	}
	return home
}

// resetFlags restores the package flag variables after a test
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		originFlag, modelFlag, responseModeFlag, developerFlag, logLevelFlag = "", "", "", "", ""
		streamFlag, verboseFlag, copyFlag = false, false, false
		timeoutFlag = 0
		outputFlag, fileFlag = "", ""
	})
}

// fakeTUI records the chat it was asked to run and, when script is set,
// drives the session with it
type fakeTUI struct {
	mu     sync.Mutex
	opts   tui.ChatOptions
	calls  int
	script func(ctx context.Context, sess tui.Submitter) error
}

func (f *fakeTUI) RunChat(ctx context.Context, sess tui.Submitter, opts tui.ChatOptions) error {
	f.mu.Lock()
	f.opts = opts
	f.calls++
	f.mu.Unlock()
	if f.script != nil {
		return f.script(ctx, sess)
	}
	return nil
}

type testDeps struct {
	*Dependencies
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	tui    *fakeTUI
}

// newTestDeps builds non-interactive dependencies sending through mock
func newTestDeps(t *testing.T, mock *api.MockHttpClient) testDeps {
	t.Helper()
	resetFlags(t)

	cfg := config.DefaultConfig()
	cfg.LogLevel = "off"

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	fake := &fakeTUI{}
	return testDeps{
		Dependencies: &Dependencies{
			Config:     cfg,
			Metrics:    observability.NewMetrics(),
			HTTPClient: mock,
			TUI:        fake,
			Stdin:      &bytes.Buffer{},
			Stdout:     stdout,
			Stderr:     stderr,
		},
		stdout: stdout,
		stderr: stderr,
		tui:    fake,
	}
}
