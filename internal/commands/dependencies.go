package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/diogo/chatweb/internal/api"
	"github.com/diogo/chatweb/internal/config"
	"github.com/diogo/chatweb/internal/observability"
	"github.com/diogo/chatweb/internal/session"
	"github.com/diogo/chatweb/internal/tui"
)

const serviceName = "chatweb"

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(ctx context.Context, sess tui.Submitter, opts tui.ChatOptions) error
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(ctx context.Context, sess tui.Submitter, opts tui.ChatOptions) error {
	return tui.RunChat(ctx, sess, opts)
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	Config config.Config

	Logger         *zap.Logger
	Metrics        *observability.Metrics
	TracerProvider trace.TracerProvider

	// HTTPClient replaces the TLS client when set
	HTTPClient api.HTTPDoer

	// TUI is the terminal user interface.
	TUI TUIInterface

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Interactive is true when stdout is a terminal
	Interactive bool

	shutdown observability.ShutdownFunc
}

// NewDependencies wires logging, metrics and tracing for cfg.
func NewDependencies(ctx context.Context, cfg config.Config) (*Dependencies, error) {
	logPath, err := config.GetLogPath(cfg)
	if err != nil {
		return nil, err
	}
	logger, err := observability.NewLogger(cfg.LogLevel, logPath)
	if err != nil {
		return nil, err
	}

	tp, shutdown, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, serviceName)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
		tp, shutdown, _ = observability.InitTracer(ctx, "", serviceName)
	}

	return &Dependencies{
		Config:         cfg,
		Logger:         logger,
		Metrics:        observability.NewMetrics(),
		TracerProvider: tp,
		TUI:            &DefaultTUI{},
		Stdin:          os.Stdin,
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		Interactive:    isStdoutTTY(),
		shutdown:       shutdown,
	}, nil
}

// Close flushes logs and exported spans.
func (d *Dependencies) Close(ctx context.Context) {
	if d.shutdown != nil {
		if err := d.shutdown(ctx); err != nil {
			d.logger().Warn("failed to flush traces", zap.Error(err))
		}
	}
	_ = d.logger().Sync()
}

func (d *Dependencies) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// Host returns the host context endpoints are resolved against
func (d *Dependencies) Host() api.HostContext {
	return api.NewHostContext(d.Config.Origin)
}

// NewClient creates a chat client from the configuration
func (d *Dependencies) NewClient() (*api.ChatClient, error) {
	mode, err := api.ParseResponseMode(d.Config.ResponseMode)
	if err != nil {
		return nil, err
	}

	opts := []api.ClientOption{
		api.WithTimeout(d.Config.RequestTimeout()),
		api.WithResponseMode(mode),
		api.WithLogger(d.Logger),
		api.WithTracerProvider(d.TracerProvider),
	}
	if d.HTTPClient != nil {
		opts = append(opts, api.WithHTTPClient(d.HTTPClient))
	}

	client, err := api.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// NewSession creates a session sending through transport
func (d *Dependencies) NewSession(transport session.Transport, observers ...session.Observer) *session.Session {
	opts := []session.Option{
		session.WithHost(d.Host()),
		session.WithRequestOptions(api.RequestOptions{
			Model:  d.Config.Model,
			APIKey: d.Config.APIKey,
			Stream: d.Config.Stream,
		}),
		session.WithLogger(d.Logger),
		session.WithMetrics(d.Metrics),
		session.WithTracerProvider(d.TracerProvider),
	}
	for _, o := range observers {
		opts = append(opts, session.WithObserver(o))
	}
	return session.New(transport, opts...)
}

// dependencyFactory builds the dependencies for a command run
var dependencyFactory = NewDependencies
