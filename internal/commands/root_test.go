package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestRootCommand_Help(t *testing.T) {
	cmd := rootCmd
	if cmd.Use != "chatweb [message]" {
		t.Errorf("Expected use 'chatweb [message]', got %s", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	if cmd.Long == "" {
		t.Error("Long description should not be empty")
	}

	if rootCmd.Args == nil {
		t.Error("Args validation should be configured")
	}
}

func TestRootCommand_Flags(t *testing.T) {
	persistent := []string{"origin", "model", "stream", "timeout", "response-mode", "developer", "log-level", "verbose"}
	for _, name := range persistent {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("persistent flag --%s not registered", name)
		}
	}

	local := []string{"output", "file", "copy", "version"}
	for _, name := range local {
		if rootCmd.Flags().Lookup(name) == nil {
			t.Errorf("flag --%s not registered", name)
		}
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	want := map[string]bool{"chat": false, "config": false, "health": false}
	for _, sub := range rootCmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %s not registered", name)
		}
	}
}

func TestReadMessage(t *testing.T) {
	dir := t.TempDir()
	promptFile := filepath.Join(dir, "prompt.md")
	if err := os.WriteFile(promptFile, []byte("from file"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		file    string
		args    []string
		stdin   string
		piped   bool
		want    string
		wantOK  bool
		wantErr bool
	}{
		{name: "file wins", file: promptFile, args: []string{"arg"}, stdin: "pipe", piped: true, want: "from file", wantOK: true},
		{name: "stdin over argument", args: []string{"arg"}, stdin: "from stdin", piped: true, want: "from stdin", wantOK: true},
		{name: "argument", args: []string{"from arg"}, want: "from arg", wantOK: true},
		{name: "nothing", wantOK: false},
		{name: "missing file", file: filepath.Join(dir, "missing.md"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			fileFlag = tt.file

			got, ok, err := readMessage(tt.args, strings.NewReader(tt.stdin), tt.piped)
			if (err != nil) != tt.wantErr {
				t.Fatalf("readMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

// newFlagCommand registers the root flags on a fresh command so parsing
// does not touch rootCmd
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	pf := cmd.Flags()
	pf.StringVar(&originFlag, "origin", "", "")
	pf.StringVarP(&modelFlag, "model", "m", "", "")
	pf.BoolVar(&streamFlag, "stream", false, "")
	pf.IntVar(&timeoutFlag, "timeout", 0, "")
	pf.StringVar(&responseModeFlag, "response-mode", "", "")
	pf.StringVar(&logLevelFlag, "log-level", "", "")
	pf.BoolVar(&verboseFlag, "verbose", false, "")
	pf.BoolVarP(&copyFlag, "copy", "c", false, "")
	return cmd
}

func TestResolveConfig_FlagsOverride(t *testing.T) {
	isolate(t)
	resetFlags(t)
	t.Setenv("CHATWEB_MODEL", "from-env")
	t.Setenv("CHATWEB_TIMEOUT", "30")

	cmd := newFlagCommand()
	if err := cmd.ParseFlags([]string{"--origin", "https://chat.example.com", "--timeout", "5", "--stream", "--copy"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatalf("resolveConfig() error = %v", err)
	}
	if cfg.Origin != "https://chat.example.com" {
		t.Errorf("Origin = %s", cfg.Origin)
	}
	if cfg.Model != "from-env" {
		t.Errorf("Model = %s, want the environment value", cfg.Model)
	}
	if cfg.RequestTimeoutSeconds != 5 {
		t.Errorf("RequestTimeoutSeconds = %d, want 5", cfg.RequestTimeoutSeconds)
	}
	if !cfg.Stream || !cfg.CopyToClipboard {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestResolveConfig_UnsetFlagsKeepConfig(t *testing.T) {
	isolate(t)
	resetFlags(t)
	t.Setenv("CHATWEB_TIMEOUT", "30")

	cmd := newFlagCommand()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatalf("resolveConfig() error = %v", err)
	}
	if cfg.RequestTimeoutSeconds != 30 {
		t.Errorf("an unset --timeout must not override the environment, got %d", cfg.RequestTimeoutSeconds)
	}
	if cfg.Origin != "http://localhost:3000" {
		t.Errorf("Origin = %s", cfg.Origin)
	}
}

func TestResolveConfig_InvalidFlag(t *testing.T) {
	isolate(t)
	resetFlags(t)

	cmd := newFlagCommand()
	if err := cmd.ParseFlags([]string{"--response-mode", "sse"}); err != nil {
		t.Fatal(err)
	}

	if _, err := resolveConfig(cmd); err == nil {
		t.Error("expected a validation error")
	}
}
