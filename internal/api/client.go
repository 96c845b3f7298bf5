package api

import (
	"fmt"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one submission, from request start to the last body byte
const DefaultTimeout = 120 * time.Second

const tracerName = "github.com/diogo/chatweb/internal/api"

// HTTPDoer is the subset of an HTTP client the transport needs.
// tls_client.HttpClient satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ChatClient talks to the chat backend
type ChatClient struct {
	httpClient HTTPDoer
	timeout    time.Duration
	mode       ResponseMode
	logger     *zap.Logger
	tracer     trace.Tracer
	mu         sync.RWMutex
	closed     bool
}

// ClientOption is a function that configures the client
type ClientOption func(*ChatClient)

// WithHTTPClient replaces the default TLS client, mainly for tests
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *ChatClient) {
		c.httpClient = doer
	}
}

// WithTimeout sets the per-submission timeout. Zero disables it.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ChatClient) {
		c.timeout = timeout
	}
}

// WithResponseMode forces a decoding protocol instead of detecting it
func WithResponseMode(mode ResponseMode) ClientOption {
	return func(c *ChatClient) {
		c.mode = mode
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *ChatClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracerProvider sets the provider spans are created from
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *ChatClient) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewClient creates a new ChatClient
func NewClient(opts ...ClientOption) (*ChatClient, error) {
	client := &ChatClient{
		timeout: DefaultTimeout,
		mode:    ModeAuto,
		logger:  zap.NewNop(),
		tracer:  otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(timeoutSeconds(client.timeout)),
			tls_client.WithClientProfile(profiles.Chrome_120),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// timeoutSeconds rounds a timeout up to whole seconds for the TLS client
func timeoutSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

// Timeout returns the per-submission timeout
func (c *ChatClient) Timeout() time.Duration {
	return c.timeout
}

// Mode returns the configured response mode
func (c *ChatClient) Mode() ResponseMode {
	return c.mode
}

// Close releases idle connections. The client cannot be used afterwards.
func (c *ChatClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	if idle, ok := c.httpClient.(interface{ CloseIdleConnections() }); ok {
		idle.CloseIdleConnections()
	}
}

// IsClosed returns whether the client is closed
func (c *ChatClient) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
