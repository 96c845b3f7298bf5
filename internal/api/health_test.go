package api

import (
	"context"
	"errors"
	"testing"

	http "github.com/bogdanfinn/fhttp"

	apierrors "github.com/diogo/chatweb/internal/errors"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		mock     *MockHttpClient
		wantOK   bool
		wantErr  bool
		errCheck func(error) bool
	}{
		{
			name:   "healthy",
			mock:   &MockHttpClient{Response: NewJSONResponse(200, `{"status":"ok"}`)},
			wantOK: true,
		},
		{
			name:   "degraded",
			mock:   &MockHttpClient{Response: NewJSONResponse(200, `{"status":"degraded"}`)},
			wantOK: false,
		},
		{
			name:     "server error",
			mock:     &MockHttpClient{Response: NewJSONResponse(503, `{"detail":"starting"}`)},
			wantErr:  true,
			errCheck: apierrors.IsHTTPError,
		},
		{
			name:     "unreachable",
			mock:     &MockHttpClient{Err: errors.New("connection refused")},
			wantErr:  true,
			errCheck: apierrors.IsNetworkError,
		},
		{
			name:     "not json",
			mock:     &MockHttpClient{Response: NewTextResponse(200, "ok")},
			wantErr:  true,
			errCheck: apierrors.IsDecodeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.mock)
			status, err := client.Health(context.Background(), "http://localhost:8000/api/health")

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if tt.errCheck != nil && !tt.errCheck(err) {
					t.Errorf("unexpected error type %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Health() error = %v", err)
			}
			if status.OK() != tt.wantOK {
				t.Errorf("OK() = %v, want %v", status.OK(), tt.wantOK)
			}

			req := tt.mock.Requests()[0]
			if req.Method != http.MethodGet {
				t.Errorf("Method = %s, want GET", req.Method)
			}
		})
	}
}
