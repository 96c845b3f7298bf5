// Package models contains data types and constants for the chat backend API.
package models

// Backend paths
const (
	PathChat   = "/api/chat"
	PathHealth = "/api/health"
)

// LocalBackendOrigin is where the backend listens during local development.
const LocalBackendOrigin = "http://localhost:8000"

// LocalHostAliases are host names treated as a local development host.
var LocalHostAliases = []string{"localhost", "127.0.0.1"}

// DefaultModel is the model the compatible backend falls back to.
const DefaultModel = "gpt-4.1-mini"

// DefaultHeaders returns the headers sent with every chat request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "text/plain, application/json",
	}
}

// IsLocalHost reports whether host is a local development alias
func IsLocalHost(host string) bool {
	for _, alias := range LocalHostAliases {
		if host == alias {
			return true
		}
	}
	return false
}
