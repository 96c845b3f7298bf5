package api

import (
	"io"
	"strconv"
	"sync"

	http "github.com/bogdanfinn/fhttp"
)

// MockResponseBody is a ReadCloser that hands out one chunk per Read, the
// way a streamed body arrives off the wire. A chunk larger than the caller's
// buffer is split across reads.
type MockResponseBody struct {
	chunks [][]byte
	err    error
	closed bool
	mu     sync.Mutex
}

// NewMockResponseBody creates a body that yields data as a single chunk
func NewMockResponseBody(data []byte) *MockResponseBody {
	return NewChunkedResponseBody(string(data))
}

// NewChunkedResponseBody creates a body that yields each chunk on its own Read
func NewChunkedResponseBody(chunks ...string) *MockResponseBody {
	body := &MockResponseBody{}
	for _, c := range chunks {
		body.chunks = append(body.chunks, []byte(c))
	}
	return body
}

// FailAfter makes the body return err once its chunks are exhausted
func (m *MockResponseBody) FailAfter(err error) *MockResponseBody {
	m.err = err
	return m
}

// Read implements the io.Reader interface
func (m *MockResponseBody) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.chunks) > 0 && len(m.chunks[0]) == 0 {
		m.chunks = m.chunks[1:]
	}
	if len(m.chunks) == 0 {
		if m.err != nil {
			return 0, m.err
		}
		return 0, io.EOF
	}

	n := copy(p, m.chunks[0])
	m.chunks[0] = m.chunks[0][n:]
	return n, nil
}

// Close implements the io.Closer interface
func (m *MockResponseBody) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called
func (m *MockResponseBody) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// RecordedRequest is a request captured by MockHttpClient
type RecordedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// MockHttpClient is an HTTPDoer that returns a canned response and records
// every request it receives
type MockHttpClient struct {
	Response *http.Response
	Err      error

	// Respond, when set, takes precedence over Response and Err
	Respond func(req *http.Request) (*http.Response, error)

	mu       sync.Mutex
	requests []RecordedRequest
}

// Ensure MockHttpClient implements HTTPDoer
var _ HTTPDoer = (*MockHttpClient)(nil)

// Do implements the HTTPDoer interface
func (m *MockHttpClient) Do(req *http.Request) (*http.Response, error) {
	rec := RecordedRequest{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
	}
	if req.Body != nil {
		rec.Body, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
	}

	m.mu.Lock()
	m.requests = append(m.requests, rec)
	m.mu.Unlock()

	if m.Respond != nil {
		return m.Respond(req)
	}
	return m.Response, m.Err
}

// Requests returns the requests received so far
func (m *MockHttpClient) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns how many requests were received
func (m *MockHttpClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// NewStreamResponse builds a 200 response with unknown length whose body
// arrives in the given chunks
func NewStreamResponse(chunks ...string) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "text/plain; charset=utf-8")
	return &http.Response{
		StatusCode:    http.StatusOK,
		Status:        "200 OK",
		Header:        header,
		ContentLength: -1,
		Body:          NewChunkedResponseBody(chunks...),
	}
}

// NewJSONResponse builds a response with a JSON body of known length
func NewJSONResponse(status int, body string) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode:    status,
		Status:        statusLine(status),
		Header:        header,
		ContentLength: int64(len(body)),
		Body:          NewMockResponseBody([]byte(body)),
	}
}

// NewTextResponse builds a response with a plain text body of known length
func NewTextResponse(status int, body string) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "text/plain; charset=utf-8")
	return &http.Response{
		StatusCode:    status,
		Status:        statusLine(status),
		Header:        header,
		ContentLength: int64(len(body)),
		Body:          NewMockResponseBody([]byte(body)),
	}
}

func statusLine(status int) string {
	code := strconv.Itoa(status)
	if text := http.StatusText(status); text != "" {
		return code + " " + text
	}
	return code
}
