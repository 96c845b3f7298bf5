// Package session drives one chat session: it validates input, sends it to
// the backend and publishes every state change to its observers.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/diogo/chatweb/internal/api"
	apierrors "github.com/diogo/chatweb/internal/errors"
	"github.com/diogo/chatweb/internal/models"
	"github.com/diogo/chatweb/internal/observability"
)

// ErrBusy is returned by Submit while another submission is in flight
var ErrBusy = errors.New("a submission is already in flight")

const tracerName = "github.com/diogo/chatweb/internal/session"

// Phase is the lifecycle position of a session
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSending
	PhaseStreaming
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSending:
		return "sending"
	case PhaseStreaming:
		return "streaming"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InFlight reports whether a request is outstanding in this phase
func (p Phase) InFlight() bool {
	return p == PhaseSending || p == PhaseStreaming
}

// State is the observable session state. It is replaced wholesale on every
// transition.
type State struct {
	Phase Phase
	Text  string
}

// Observer receives every state transition, in order
type Observer func(State)

// Transport sends a chat request. *api.ChatClient implements it.
type Transport interface {
	Send(ctx context.Context, endpoint string, req *models.ChatRequest) (*api.ResponseHandle, error)
}

// Session is the state machine behind one chat view. At most one
// submission is in flight at a time.
type Session struct {
	id        string
	transport Transport
	host      api.HostContext
	opts      api.RequestOptions
	logger    *zap.Logger
	metrics   *observability.Metrics
	tracer    trace.Tracer

	mu        sync.Mutex
	state     State
	inFlight  bool
	observers []Observer
}

// Option configures a Session
type Option func(*Session)

// WithHost sets the host context used to resolve the endpoint
func WithHost(host api.HostContext) Option {
	return func(s *Session) {
		s.host = host
	}
}

// WithRequestOptions sets the optional request fields
func WithRequestOptions(opts api.RequestOptions) Option {
	return func(s *Session) {
		s.opts = opts
	}
}

// WithObserver registers an observer
func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithTracerProvider sets the provider spans are created from
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Session) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// New creates an idle session
func New(transport Transport, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		transport: transport,
		logger:    zap.NewNop(),
		tracer:    otel.Tracer(tracerName),
		state:     State{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session_id", s.id))
	return s
}

// ID returns the session id used in logs and spans
func (s *Session) ID() string {
	return s.id
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Observe registers an observer after construction
func (s *Session) Observe(o Observer) {
	if o == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Submit runs one submission to completion and returns the terminal state.
// It returns ErrBusy, leaving the state untouched, when a submission is
// already in flight. Every other failure ends in PhaseFailed and is reported
// only through the state text.
func (s *Session) Submit(ctx context.Context, fields models.MessageFields) (State, error) {
	s.mu.Lock()
	if s.inFlight {
		current := s.state
		s.mu.Unlock()
		s.metrics.IncrSubmission(observability.OutcomeBusy)
		s.logger.Debug("submission ignored while busy", zap.String("phase", current.Phase.String()))
		return current, ErrBusy
	}

	req, err := api.BuildRequest(fields, s.opts)
	if err != nil {
		s.mu.Unlock()
		s.metrics.IncrSubmission(observability.OutcomeRejected)
		s.logger.Debug("submission rejected", zap.Error(err))
		return s.transition(State{Phase: PhaseFailed, Text: apierrors.Classify(err)}), nil
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	ctx, span := s.tracer.Start(ctx, "Session.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", s.id))

	start := time.Now()
	s.transition(State{Phase: PhaseSending})

	final, mode, err := s.run(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission failed")
		s.metrics.IncrSubmission(observability.OutcomeFailed)
		s.metrics.RecordSubmissionDuration(mode, time.Since(start))
		s.logger.Warn("submission failed",
			zap.String("mode", mode),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return s.transition(State{Phase: PhaseFailed, Text: apierrors.Classify(err)}), nil
	}

	s.metrics.IncrSubmission(observability.OutcomeSucceeded)
	s.metrics.RecordSubmissionDuration(mode, time.Since(start))
	s.logger.Info("submission succeeded",
		zap.String("mode", mode),
		zap.Int("length", len(final)),
		zap.Duration("duration", time.Since(start)),
	)
	return s.transition(State{Phase: PhaseSucceeded, Text: final}), nil
}

// run sends req and consumes the reply. Streamed chunks are published as
// PhaseStreaming transitions; the returned text is the final reply.
func (s *Session) run(ctx context.Context, req *models.ChatRequest) (string, string, error) {
	mode := "none"

	endpoint, err := s.host.Absolute(api.ResolveEndpoint(s.host))
	if err != nil {
		return "", mode, err
	}

	s.logger.Debug("sending chat request", zap.String("endpoint", endpoint))
	handle, err := s.transport.Send(ctx, endpoint, req)
	if err != nil {
		return "", mode, err
	}
	defer handle.Close()
	mode = handle.Mode.String()

	var final string
	for update, err := range api.Decode(handle) {
		if err != nil {
			return "", mode, err
		}
		s.metrics.IncrUpdates()
		final = update.Text
		if handle.Mode == api.ModeStream {
			s.transition(State{Phase: PhaseStreaming, Text: update.Text})
		}
	}
	return final, mode, nil
}

// transition replaces the state and notifies observers outside the lock
func (s *Session) transition(next State) State {
	s.mu.Lock()
	s.state = next
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, o := range observers {
		o(next)
	}
	return next
}
