// Package commands provides CLI commands for chatweb.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/diogo/chatweb/internal/config"
	"github.com/diogo/chatweb/internal/tui"
)

var (
	// Global flags
	originFlag       string
	modelFlag        string
	streamFlag       bool
	timeoutFlag      int
	responseModeFlag string
	developerFlag    string
	logLevelFlag     string
	verboseFlag      bool

	// One-shot flags
	outputFlag string
	fileFlag   string
	copyFlag   bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// errSubmissionFailed signals a failed submission whose text was already
// printed; it only sets the exit status.
var errSubmissionFailed = errors.New("submission failed")

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chatweb [message]",
	Short: "Terminal client for a chat-completion backend",
	Long: `chatweb sends messages to a chat-completion backend and shows the reply,
streamed as it arrives when the backend streams, or all at once otherwise.

Local origins (localhost, 127.0.0.1) talk to the backend on port 8000;
any other origin uses its own /api/chat path.

Examples:
  chatweb chat                              Start interactive chat
  chatweb "What is Go?"                     Send a single message
  chatweb -f prompt.md                      Read the message from file
  cat prompt.md | chatweb                   Read the message from stdin
  chatweb "Hello" -o reply.txt              Save the reply to file
  chatweb --origin https://chat.example.com "Hi"
  chatweb health                            Check the backend`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(cmd.OutOrStdout(), "chatweb %s (built %s)\n", Version, BuildTime)
			return nil
		}

		message, ok, err := readMessage(args, os.Stdin, stdinIsPiped())
		if err != nil {
			return err
		}
		if !ok {
			return cmd.Help()
		}

		return withDependencies(cmd, func(ctx context.Context, deps *Dependencies) error {
			return runSend(ctx, deps, message)
		})
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errSubmissionFailed) {
			tui.PrintError(err)
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&originFlag, "origin", "", "Origin the client acts from (e.g., http://localhost:3000)")
	pf.StringVarP(&modelFlag, "model", "m", "", "Model to request (sent only when set)")
	pf.BoolVar(&streamFlag, "stream", false, "Ask the backend for a streamed reply")
	pf.IntVar(&timeoutFlag, "timeout", 0, "Request timeout in seconds (0 disables)")
	pf.StringVar(&responseModeFlag, "response-mode", "", "Reply decoding: auto, stream or buffered")
	pf.StringVarP(&developerFlag, "developer", "d", "", "Developer instructions sent ahead of each message")
	pf.StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error or off")
	pf.BoolVar(&verboseFlag, "verbose", false, "Print request details to stderr")

	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save reply to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read message from file")
	rootCmd.Flags().BoolVarP(&copyFlag, "copy", "c", false, "Copy the reply to the clipboard")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(healthCmd)
}

// readMessage picks the message from --file, stdin or the positional
// argument, in that order. ok is false when none was given.
func readMessage(args []string, stdin io.Reader, piped bool) (string, bool, error) {
	if fileFlag != "" {
		data, err := os.ReadFile(fileFlag)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if piped {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), true, nil
	}

	if len(args) > 0 {
		return args[0], true, nil
	}

	return "", false, nil
}

// stdinIsPiped reports whether stdin is a pipe or file rather than a terminal
func stdinIsPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// resolveConfig loads the effective configuration and applies the flags
// that were set on cmd.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("origin") {
		cfg.Origin = originFlag
	}
	if flags.Changed("model") {
		cfg.Model = modelFlag
	}
	if flags.Changed("stream") {
		cfg.Stream = streamFlag
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeoutSeconds = timeoutFlag
	}
	if flags.Changed("response-mode") {
		cfg.ResponseMode = responseModeFlag
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevelFlag
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verboseFlag
	}
	if flags.Lookup("copy") != nil && flags.Changed("copy") {
		cfg.CopyToClipboard = copyFlag
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// withDependencies resolves the configuration, builds the dependencies and
// runs fn with them, releasing them afterwards.
func withDependencies(cmd *cobra.Command, fn func(context.Context, *Dependencies) error) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	deps, err := dependencyFactory(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close(context.WithoutCancel(ctx))

	return fn(ctx, deps)
}
