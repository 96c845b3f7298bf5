package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	http "github.com/bogdanfinn/fhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apierrors "github.com/diogo/chatweb/internal/errors"
	"github.com/diogo/chatweb/internal/models"
)

func newTestClient(t *testing.T, mock *MockHttpClient, opts ...ClientOption) *ChatClient {
	t.Helper()
	client, err := NewClient(append([]ClientOption{WithHTTPClient(mock)}, opts...)...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestSend_RequestShape(t *testing.T) {
	mock := &MockHttpClient{Response: NewStreamResponse("hi")}
	client := newTestClient(t, mock)

	handle, err := client.Send(context.Background(), "http://localhost:8000/api/chat", &models.ChatRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	defer handle.Close()

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	req := reqs[0]

	if req.Method != http.MethodPost {
		t.Errorf("Method = %s, want POST", req.Method)
	}
	if req.URL != "http://localhost:8000/api/chat" {
		t.Errorf("URL = %s", req.URL)
	}
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if string(req.Body) != `{"message":"hello"}` {
		t.Errorf("Body = %s", req.Body)
	}
}

func TestSend_OptionalFields(t *testing.T) {
	mock := &MockHttpClient{Response: NewJSONResponse(200, `{"reply":"ok"}`)}
	client := newTestClient(t, mock)

	req := &models.ChatRequest{Message: "hello", Model: "gpt-4.1-mini", APIKey: "sk-test", Stream: true}
	handle, err := client.Send(context.Background(), "http://example.com/api/chat", req)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	defer handle.Close()

	var sent map[string]any
	if err := json.Unmarshal(mock.Requests()[0].Body, &sent); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if sent["model"] != "gpt-4.1-mini" || sent["api_key"] != "sk-test" || sent["stream"] != true {
		t.Errorf("unexpected body: %v", sent)
	}
}

func TestSend_NilRequest(t *testing.T) {
	mock := &MockHttpClient{}
	client := newTestClient(t, mock)

	_, err := client.Send(context.Background(), "http://localhost:8000/api/chat", nil)
	if !apierrors.IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Errorf("expected no requests, got %d", mock.CallCount())
	}
}

func TestSend_ClosedClient(t *testing.T) {
	mock := &MockHttpClient{Response: NewStreamResponse("x")}
	client := newTestClient(t, mock)
	client.Close()

	if _, err := client.Send(context.Background(), "http://localhost/api/chat", &models.ChatRequest{Message: "hi"}); err == nil {
		t.Error("expected error from closed client")
	}
	if mock.CallCount() != 0 {
		t.Errorf("expected no requests, got %d", mock.CallCount())
	}
}

func TestSend_HTTPErrors(t *testing.T) {
	tests := []struct {
		name       string
		response   *http.Response
		wantStatus int
		wantText   string
		wantDetail string
	}{
		{
			name:       "json detail",
			response:   NewJSONResponse(500, `{"detail":"OPENAI_API_KEY not configured"}`),
			wantStatus: 500,
			wantText:   "Internal Server Error",
			wantDetail: "OPENAI_API_KEY not configured",
		},
		{
			name:       "raw text detail",
			response:   NewTextResponse(502, "upstream unavailable\n"),
			wantStatus: 502,
			wantText:   "Bad Gateway",
			wantDetail: "upstream unavailable",
		},
		{
			name:       "json without detail keeps raw body",
			response:   NewJSONResponse(400, `{"error":"bad"}`),
			wantStatus: 400,
			wantText:   "Bad Request",
			wantDetail: `{"error":"bad"}`,
		},
		{
			name:       "empty body",
			response:   NewTextResponse(404, ""),
			wantStatus: 404,
			wantText:   "Not Found",
			wantDetail: "",
		},
		{
			name: "custom reason phrase",
			response: &http.Response{
				StatusCode: 503,
				Status:     "503 Warming Up",
				Header:     make(http.Header),
				Body:       NewMockResponseBody(nil),
			},
			wantStatus: 503,
			wantText:   "Warming Up",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.response.Body.(*MockResponseBody)
			client := newTestClient(t, &MockHttpClient{Response: tt.response})

			_, err := client.Send(context.Background(), "/api/chat", &models.ChatRequest{Message: "hello"})
			var httpErr *apierrors.HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected HTTPError, got %T: %v", err, err)
			}
			if httpErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", httpErr.StatusCode, tt.wantStatus)
			}
			if httpErr.StatusText != tt.wantText {
				t.Errorf("StatusText = %q, want %q", httpErr.StatusText, tt.wantText)
			}
			if httpErr.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", httpErr.Detail, tt.wantDetail)
			}
			if !body.Closed() {
				t.Error("error body should be closed")
			}
		})
	}
}

func TestSend_NetworkError(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")
	client := newTestClient(t, &MockHttpClient{Err: cause})

	_, err := client.Send(context.Background(), "http://localhost:8000/api/chat", &models.ChatRequest{Message: "hello"})
	if !apierrors.IsNetworkError(err) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
	if !errors.Is(err, cause) {
		t.Error("NetworkError should wrap the transport cause")
	}
	if apierrors.GetEndpoint(err) != "http://localhost:8000/api/chat" {
		t.Errorf("endpoint = %q", apierrors.GetEndpoint(err))
	}
}

func TestSend_Timeout(t *testing.T) {
	mock := &MockHttpClient{
		Respond: func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		},
	}
	client := newTestClient(t, mock, WithTimeout(20*time.Millisecond))

	_, err := client.Send(context.Background(), "/api/chat", &models.ChatRequest{Message: "hello"})
	if !apierrors.IsTimeoutError(err) {
		t.Fatalf("expected TimeoutError, got %T: %v", err, err)
	}
}

func TestSend_ModeDetection(t *testing.T) {
	chunked := NewStreamResponse("a")
	chunked.ContentLength = 0
	chunked.TransferEncoding = []string{"chunked"}

	jsonStream := NewJSONResponse(200, `{"reply":"x"}`)
	jsonStream.ContentLength = -1

	tests := []struct {
		name     string
		response *http.Response
		forced   ResponseMode
		want     ResponseMode
	}{
		{name: "unknown length text", response: NewStreamResponse("a"), want: ModeStream},
		{name: "chunked framing", response: chunked, want: ModeStream},
		{name: "json content type", response: NewJSONResponse(200, `{"reply":"x"}`), want: ModeBuffered},
		{name: "json without length", response: jsonStream, want: ModeBuffered},
		{name: "known length text", response: NewTextResponse(200, "plain"), want: ModeBuffered},
		{name: "forced stream", response: NewJSONResponse(200, `{}`), forced: ModeStream, want: ModeStream},
		{name: "forced buffered", response: NewStreamResponse("a"), forced: ModeBuffered, want: ModeBuffered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, &MockHttpClient{Response: tt.response}, WithResponseMode(tt.forced))
			handle, err := client.Send(context.Background(), "/api/chat", &models.ChatRequest{Message: "hello"})
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			defer handle.Close()

			if handle.Mode != tt.want {
				t.Errorf("Mode = %v, want %v", handle.Mode, tt.want)
			}
		})
	}
}

func TestSend_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	client := newTestClient(t, &MockHttpClient{Response: NewJSONResponse(500, `{"detail":"boom"}`)}, WithTracerProvider(tp))
	_, _ = client.Send(context.Background(), "/api/chat", &models.ChatRequest{Message: "hello"})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "ChatClient.Send" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	if spans[0].Status().Description != "Internal Server Error" {
		t.Errorf("span status = %q", spans[0].Status().Description)
	}
}

func TestParseResponseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ResponseMode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"auto", ModeAuto, false},
		{"Stream", ModeStream, false},
		{"buffered", ModeBuffered, false},
		{"json", ModeBuffered, false},
		{"sse", ModeAuto, true},
	}

	for _, tt := range tests {
		got, err := ParseResponseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseResponseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseResponseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReadErrorDetail_Truncates(t *testing.T) {
	long := strings.Repeat("x", maxErrorBody*2)
	if got := readErrorDetail(strings.NewReader(long)); len(got) != maxErrorBody {
		t.Errorf("detail length = %d, want %d", len(got), maxErrorBody)
	}
	if got := readErrorDetail(nil); got != "" {
		t.Errorf("nil body detail = %q", got)
	}
}
