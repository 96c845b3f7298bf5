package observability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chatweb.log")

	logger, err := NewLogger("info", path)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Info("submission finished")
	logger.Debug("hidden at info level")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "submission finished") {
		t.Errorf("log file missing info entry: %s", data)
	}
	if strings.Contains(string(data), "hidden at info level") {
		t.Error("debug entry should be filtered at info level")
	}
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"", false},
		{"debug", false},
		{"warn", false},
		{"ERROR", false},
		{"off", false},
		{"verbose", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.log")
			logger, err := NewLogger(tt.level, path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLogger(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Error("expected a logger")
			}
		})
	}
}

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()

	m.IncrSubmission(OutcomeSucceeded)
	m.IncrSubmission(OutcomeSucceeded)
	m.IncrSubmission(OutcomeFailed)
	m.IncrSubmission(OutcomeBusy)
	m.IncrUpdates()
	m.IncrUpdates()
	m.IncrUpdates()
	m.RecordSubmissionDuration("stream", 150*time.Millisecond)

	snap := m.Snapshot()
	if snap.Succeeded != 2 {
		t.Errorf("Succeeded = %v, want 2", snap.Succeeded)
	}
	if snap.Failed != 1 {
		t.Errorf("Failed = %v, want 1", snap.Failed)
	}
	if snap.Busy != 1 {
		t.Errorf("Busy = %v, want 1", snap.Busy)
	}
	if snap.Chunks != 3 {
		t.Errorf("Chunks = %v, want 3", snap.Chunks)
	}
	if snap.Total() != 3 {
		t.Errorf("Total() = %v, want 3", snap.Total())
	}

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) != 3 {
		t.Errorf("expected 3 metric families, got %d", len(families))
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.IncrSubmission(OutcomeFailed)
	m.IncrUpdates()
	m.RecordSubmissionDuration("buffered", time.Second)

	if m.Snapshot() != (Snapshot{}) {
		t.Error("nil metrics should return an empty snapshot")
	}
}

func TestNewMetrics_Repeatable(t *testing.T) {
	_ = NewMetrics()
	_ = NewMetrics()
}

func TestInitTracer_Disabled(t *testing.T) {
	tp, shutdown, err := InitTracer(context.Background(), "", "chatweb")
	if err != nil {
		t.Fatalf("InitTracer() error = %v", err)
	}
	if tp == nil {
		t.Fatal("expected a provider")
	}

	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestParseOTLPEndpoint(t *testing.T) {
	tests := []struct {
		in           string
		wantHost     string
		wantInsecure bool
	}{
		{"http://localhost:4317", "localhost:4317", true},
		{"https://otel.example.com:4317/", "otel.example.com:4317", false},
		{"collector:4317", "collector:4317", true},
	}

	for _, tt := range tests {
		host, insecure := parseOTLPEndpoint(tt.in)
		if host != tt.wantHost || insecure != tt.wantInsecure {
			t.Errorf("parseOTLPEndpoint(%q) = %q, %v; want %q, %v", tt.in, host, insecure, tt.wantHost, tt.wantInsecure)
		}
	}
}
