package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"strconv"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	apierrors "github.com/diogo/chatweb/internal/errors"
	"github.com/diogo/chatweb/internal/models"
)

// maxErrorBody limits how much of a failed response is read for diagnostics
const maxErrorBody = 4096

// ResponseMode selects how a successful response body is consumed
type ResponseMode int

const (
	// ModeAuto detects the mode from the response framing
	ModeAuto ResponseMode = iota
	// ModeStream consumes the body incrementally as raw text
	ModeStream
	// ModeBuffered reads the body once and parses it as JSON
	ModeBuffered
)

func (m ResponseMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeBuffered:
		return "buffered"
	default:
		return "auto"
	}
}

// ParseResponseMode parses "auto", "stream" or "buffered"
func ParseResponseMode(s string) (ResponseMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "stream", "streaming":
		return ModeStream, nil
	case "buffered", "json":
		return ModeBuffered, nil
	default:
		return ModeAuto, fmt.Errorf("unknown response mode %q (use auto, stream or buffered)", s)
	}
}

// ResponseHandle owns the body of a successful response.
// Mode is never ModeAuto.
type ResponseHandle struct {
	Mode       ResponseMode
	StatusCode int
	Endpoint   string

	body     io.ReadCloser
	ctx      context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	consumed bool
}

// NewResponseHandle wraps an arbitrary body, e.g. a recorded response
func NewResponseHandle(mode ResponseMode, body io.ReadCloser) *ResponseHandle {
	if mode == ModeAuto {
		mode = ModeBuffered
	}
	return &ResponseHandle{
		Mode:       mode,
		StatusCode: http.StatusOK,
		body:       body,
		ctx:        context.Background(),
	}
}

// Read reads from the body, reporting an expired deadline as a TimeoutError
func (h *ResponseHandle) Read(p []byte) (int, error) {
	n, err := h.body.Read(p)
	if err != nil && err != io.EOF && isTimeout(h.ctx, err) {
		return n, apierrors.NewTimeoutError(h.Endpoint, h.timeout)
	}
	return n, err
}

// Close closes the body and releases the submission deadline
func (h *ResponseHandle) Close() error {
	err := h.body.Close()
	if h.cancel != nil {
		h.cancel()
	}
	return err
}

// Send posts req to endpoint and returns a handle over the successful body.
// Non-2xx statuses become an HTTPError carrying best-effort detail text;
// connectivity failures become a NetworkError or TimeoutError.
func (c *ChatClient) Send(ctx context.Context, endpoint string, req *models.ChatRequest) (*ResponseHandle, error) {
	if req == nil {
		return nil, apierrors.NewValidationError("message", "must not be empty")
	}
	if c.IsClosed() {
		return nil, fmt.Errorf("client is closed")
	}

	ctx, span := c.tracer.Start(ctx, "ChatClient.Send")
	defer span.End()
	span.SetAttributes(
		attribute.String("chat.endpoint", endpoint),
		attribute.Bool("chat.stream_requested", req.Stream),
	)

	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	release := func() {
		if cancel != nil {
			cancel()
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		release()
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		release()
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		return nil, apierrors.NewNetworkError("send chat", endpoint, err)
	}
	for key, value := range models.DefaultHeaders() {
		httpReq.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		release()
		transportErr := c.transportError(ctx, endpoint, err)
		span.RecordError(transportErr)
		span.SetStatus(codes.Error, "transport failure")
		c.logger.Warn("chat request failed",
			zap.String("endpoint", endpoint),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return nil, transportErr
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readErrorDetail(resp.Body)
		_ = resp.Body.Close()
		release()

		httpErr := apierrors.NewHTTPError(resp.StatusCode, statusText(resp), endpoint, detail)
		span.SetStatus(codes.Error, httpErr.StatusText)
		c.logger.Warn("chat request rejected",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail),
		)
		return nil, httpErr
	}

	mode := c.detectMode(resp)
	span.SetAttributes(attribute.String("chat.response_mode", mode.String()))
	c.logger.Debug("chat response received",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.String("mode", mode.String()),
		zap.Int64("content_length", resp.ContentLength),
		zap.Duration("latency", time.Since(start)),
	)

	return &ResponseHandle{
		Mode:       mode,
		StatusCode: resp.StatusCode,
		Endpoint:   endpoint,
		body:       resp.Body,
		ctx:        ctx,
		cancel:     cancel,
		timeout:    c.timeout,
	}, nil
}

// detectMode picks the decoding protocol from the response itself. A JSON
// media type or a known length selects buffered mode; an unknown length or
// chunked framing selects streaming.
func (c *ChatClient) detectMode(resp *http.Response) ResponseMode {
	if c.mode != ModeAuto {
		return c.mode
	}

	if mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		if mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") {
			return ModeBuffered
		}
	}

	for _, te := range resp.TransferEncoding {
		if strings.EqualFold(te, "chunked") {
			return ModeStream
		}
	}
	if resp.ContentLength < 0 {
		return ModeStream
	}
	return ModeBuffered
}

// transportError maps a failed round trip onto the error taxonomy
func (c *ChatClient) transportError(ctx context.Context, endpoint string, err error) error {
	if isTimeout(ctx, err) {
		return apierrors.NewTimeoutError(endpoint, c.timeout)
	}
	return apierrors.NewNetworkError("send chat", endpoint, err)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// statusText returns the reason phrase of resp, e.g. "Internal Server Error"
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// readErrorDetail extracts a human-readable detail from a failed response.
// A JSON "detail" field wins; otherwise the raw text is used. Read errors
// are ignored and yield whatever was read.
func readErrorDetail(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	text := strings.TrimSpace(string(data))
	if text == "" {
		return ""
	}

	if gjson.Valid(text) {
		if detail := gjson.Get(text, "detail"); detail.Exists() && detail.Type != gjson.Null {
			return detail.String()
		}
	}
	return text
}
