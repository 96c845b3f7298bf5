package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	http "github.com/bogdanfinn/fhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	apierrors "github.com/diogo/chatweb/internal/errors"
	"github.com/diogo/chatweb/internal/models"
)

// Health queries the backend health endpoint
func (c *ChatClient) Health(ctx context.Context, endpoint string) (*models.HealthStatus, error) {
	if c.IsClosed() {
		return nil, fmt.Errorf("client is closed")
	}

	ctx, span := c.tracer.Start(ctx, "ChatClient.Health")
	defer span.End()
	span.SetAttributes(attribute.String("chat.endpoint", endpoint))

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apierrors.NewNetworkError("health check", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		if isTimeout(ctx, err) {
			return nil, apierrors.NewTimeoutError(endpoint, c.timeout)
		}
		return nil, apierrors.NewNetworkError("health check", endpoint, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, statusText(resp))
		return nil, apierrors.NewHTTPError(resp.StatusCode, statusText(resp), endpoint, readErrorDetail(resp.Body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, apierrors.NewDecodeError("health", err)
	}

	var status models.HealthStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, apierrors.NewDecodeError("health", err)
	}

	c.logger.Debug("health check", zap.String("endpoint", endpoint), zap.String("status", status.Status))
	return &status, nil
}
