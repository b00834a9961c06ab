package riot

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/phturb/lolstats-backend-go/proxy"
)

// maxBodyExcerpt bounds how much of an upstream error body ends up in a user visible message.
const maxBodyExcerpt = 160

// ErrTimeout is returned when an upstream call exceeds its deadline.
var ErrTimeout = proxy.ErrUpstreamTimeout

// APIError is a non 2xx upstream reply.
type APIError struct {
	Status     int
	StatusText string
	Message    string
	Body       string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d %s | %s | %s", e.Status, e.StatusText, e.Message, e.Body)
}

func newAPIError(res *proxy.Response) *APIError {
	e := &APIError{
		Status:     res.StatusCode,
		StatusText: http.StatusText(res.StatusCode),
		Message:    statusMessage(res.StatusCode),
		Body:       excerpt(res.Body),
	}
	var envelope struct {
		Status struct {
			Message string `json:"message"`
		} `json:"status"`
	}
	if json.Unmarshal(res.Body, &envelope) == nil && envelope.Status.Message != "" {
		e.Message = envelope.Status.Message
	}
	if s, err := strconv.Atoi(res.Header.Get("Retry-After")); err == nil && s > 0 {
		e.RetryAfter = time.Duration(s) * time.Second
	}
	return e
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Bad request - Invalid parameters"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "Unauthorized - Invalid API Key"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusTooManyRequests:
		return "Rate limit exceeded - Please wait a moment before trying again"
	case http.StatusInternalServerError:
		return "Server error - Riot API is having issues"
	case http.StatusServiceUnavailable:
		return "Service unavailable - Riot API maintenance"
	}
	return fmt.Sprintf("Error %d", status)
}

func excerpt(body []byte) string {
	if len(body) <= maxBodyExcerpt {
		return string(body)
	}
	b := body[:maxBodyExcerpt]
	for len(b) > 0 && !utf8.Valid(b) {
		b = b[:len(b)-1]
	}
	return string(b)
}

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
