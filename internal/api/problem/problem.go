// Package problem writes RFC 7807 error documents.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

const (
	TypeValidation       = "https://gather.events/problems/validation-error"
	TypeUnauthorized     = "https://gather.events/problems/unauthorized"
	TypeForbidden        = "https://gather.events/problems/forbidden"
	TypeNotFound         = "https://gather.events/problems/not-found"
	TypeMethodNotAllowed = "https://gather.events/problems/method-not-allowed"
	TypeTooManyRequests  = "https://gather.events/problems/rate-limited"
	TypeRequestTooLarge  = "https://gather.events/problems/request-too-large"
	TypeServerError      = "https://gather.events/problems/server-error"
)

// Details is the response body. Detail carries the human readable message
// clients match on; Errors holds per-field validation messages.
type Details struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Errors   map[string]any `json:"errors,omitempty"`
}

type Option func(*Details)

func WithDetail(detail string) Option {
	return func(d *Details) { d.Detail = detail }
}

func WithErrors(errs map[string]any) Option {
	return func(d *Details) { d.Errors = errs }
}

// Write logs err against the request logger and renders the document. When
// no detail option is given, err's text is shown only in development and test.
func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string, opts ...Option) {
	body := Details{Type: typ, Title: title, Status: status}
	for _, opt := range opts {
		opt(&body)
	}
	if r != nil {
		body.Instance = r.URL.Path
	}

	if err != nil {
		if body.Detail == "" {
			body.Detail = http.StatusText(status)
			if env == "development" || env == "test" {
				body.Detail = err.Error()
			}
		}
		if r != nil {
			logEvent(zerolog.Ctx(r.Context()), status).
				Err(err).
				Int("status", status).
				Str("type", typ).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg(title)
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func logEvent(logger *zerolog.Logger, status int) *zerolog.Event {
	if status >= http.StatusInternalServerError {
		return logger.Error()
	}
	return logger.Warn()
}
