// Package redact masks sensitive values in strings before they are
// logged. Provider errors can echo the request URL, which carries the
// API key as a query parameter, and database errors can include the
// full connection string with embedded credentials.
package redact

import "regexp"

// Placeholders substituted for matched sensitive values.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	ConnPlaceholder       = "[REDACTED_CONN]"
)

var (
	// key=... query parameters and api_key/token style assignments.
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|key|token|secret)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	// user:password@host segments of connection URLs.
	connRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@`)
)

// String returns s with API keys and connection credentials replaced
// by placeholders.
func String(s string) string {
	s = connRegex.ReplaceAllString(s, ConnPlaceholder+"@")
	s = apiKeyRegex.ReplaceAllString(s, "${1}${2}"+CredentialPlaceholder)
	return s
}

// Error is a convenience wrapper for redacting error messages. It
// returns the empty string for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
