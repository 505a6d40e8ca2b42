package audit

import (
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Actions recorded by the API.
const (
	ActionEventCreate   = "event.create"
	ActionEventUpdate   = "event.update"
	ActionEventDelete   = "event.delete"
	ActionRegister      = "registration.create"
	ActionUnregister    = "registration.delete"
	ActionUserRegister  = "user.register"
	ActionUserLogin     = "user.login"
	StatusSuccess       = "success"
	StatusFailure       = "failure"
	resourceTypeEvent   = "event"
	resourceTypeAccount = "user"
)

// Entry is one audit record.
type Entry struct {
	Timestamp    time.Time
	Action       string
	Actor        string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Status       string
	Details      map[string]string
}

// Logger writes audit entries as structured zerolog events under the "audit" key.
type Logger struct {
	out zerolog.Logger
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{out: logger.With().Str("log_type", "audit").Logger()}
}

// Log writes entry at info level (warn for failures).
func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	event := l.out.Info()
	if entry.Status == StatusFailure {
		event = l.out.Warn()
	}

	dict := zerolog.Dict().
		Time("timestamp", entry.Timestamp).
		Str("action", entry.Action).
		Str("actor", entry.Actor).
		Str("status", entry.Status)
	if entry.ResourceType != "" {
		dict = dict.Str("resource_type", entry.ResourceType)
	}
	if entry.ResourceID != "" {
		dict = dict.Str("resource_id", entry.ResourceID)
	}
	if entry.IPAddress != "" {
		dict = dict.Str("ip_address", entry.IPAddress)
	}
	if len(entry.Details) > 0 {
		details := zerolog.Dict()
		for k, v := range entry.Details {
			details = details.Str(k, v)
		}
		dict = dict.Dict("details", details)
	}

	event.Dict("audit", dict).Msg(entry.Action)
}

// Event records an action on an event by actor, taking the client address from r.
func (l *Logger) Event(r *http.Request, action, actor, eventID, status string, details map[string]string) {
	l.Log(Entry{
		Action:       action,
		Actor:        actor,
		ResourceType: resourceTypeEvent,
		ResourceID:   eventID,
		IPAddress:    remoteIP(r),
		Status:       status,
		Details:      details,
	})
}

// Account records a sign-up or login attempt for username.
func (l *Logger) Account(r *http.Request, action, username, status string) {
	l.Log(Entry{
		Action:       action,
		Actor:        username,
		ResourceType: resourceTypeAccount,
		IPAddress:    remoteIP(r),
		Status:       status,
	})
}

// remoteIP is the direct peer address. Forwarded headers are not trusted here.
func remoteIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
