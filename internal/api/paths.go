// Package api provides the chat backend client implementation.
package api

import (
	"net/url"
	"strings"

	apierrors "github.com/diogo/chatweb/internal/errors"
	"github.com/diogo/chatweb/internal/models"
)

// HostContext describes where the client is running from. Origin is the
// scheme://host[:port] the client is served from or pointed at; an empty
// Origin means no host is available to inspect.
type HostContext struct {
	Origin string
}

// NewHostContext builds a HostContext, accepting a bare host name as well as a full origin
func NewHostContext(origin string) HostContext {
	origin = strings.TrimSpace(origin)
	if origin != "" && !strings.Contains(origin, "://") {
		origin = "http://" + origin
	}
	return HostContext{Origin: strings.TrimRight(origin, "/")}
}

// Hostname returns the host name of the origin without port, or "" when unavailable
func (h HostContext) Hostname() string {
	if h.Origin == "" {
		return ""
	}
	u, err := url.Parse(h.Origin)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// ResolveEndpoint maps the host context to the chat endpoint. Local
// development hosts talk to the backend on its fixed port; every other host,
// including an unavailable one, uses the same-origin relative path.
func ResolveEndpoint(h HostContext) string {
	return resolvePath(h, models.PathChat)
}

// ResolveHealthEndpoint maps the host context to the health endpoint
func ResolveHealthEndpoint(h HostContext) string {
	return resolvePath(h, models.PathHealth)
}

func resolvePath(h HostContext, path string) string {
	if models.IsLocalHost(h.Hostname()) {
		return models.LocalBackendOrigin + path
	}
	return path
}

// Absolute resolves endpoint against the context origin. Absolute endpoints
// are returned unchanged.
func (h HostContext) Absolute(endpoint string) (string, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", apierrors.NewNetworkError("resolve endpoint", endpoint, err)
	}
	if ref.IsAbs() {
		return endpoint, nil
	}
	if h.Origin == "" {
		return "", apierrors.NewNetworkError("resolve endpoint", endpoint, apierrors.ErrNoOrigin)
	}
	base, err := url.Parse(h.Origin)
	if err != nil {
		return "", apierrors.NewNetworkError("resolve endpoint", endpoint, err)
	}
	return base.ResolveReference(ref).String(), nil
}
