package splunk

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound is returned when the saved search does not exist.
	ErrNotFound = errors.New("saved search not found")
	// ErrUnauthorized is returned when splunkd rejects the credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned when creating a name that already exists.
	ErrConflict = errors.New("saved search already exists")
	// ErrNoCredentials is returned when neither a token nor a session key is configured.
	ErrNoCredentials = errors.New("no splunkd credentials configured")
)

// Message is one entry of splunkd's "messages" error body.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// APIError is a non-2xx response from splunkd.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Messages   []Message
}

func (e *APIError) Error() string {
	texts := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		texts = append(texts, m.Text)
	}
	msg := strings.Join(texts, "; ")
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("splunkd %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// Unwrap maps well-known status codes onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	default:
		return nil
	}
}
