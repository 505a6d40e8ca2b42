package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"
)

const pingTimeout = 2 * time.Second

// HealthCheck is the /health response body.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// Pinger is satisfied by storage.Repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	db        Pinger
	version   string
	gitCommit string
}

func NewHealthChecker(db Pinger, version, gitCommit string) *HealthChecker {
	return &HealthChecker{db: db, version: version, gitCommit: gitCommit}
}

// Health runs every dependency check and answers 503 if any fails.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := HealthCheck{
			Status:    "healthy",
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    map[string]CheckResult{"database": databaseCheck(r.Context(), h.db)},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		code := http.StatusOK
		for _, check := range body.Checks {
			if check.Status != "pass" {
				body.Status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		writeJSON(w, code, body)
	}
}

func databaseCheck(ctx context.Context, db Pinger) CheckResult {
	start := time.Now()
	err := ping(ctx, db)
	result := CheckResult{Status: "pass", Message: "PostgreSQL connection successful", LatencyMs: time.Since(start).Milliseconds()}
	switch {
	case errors.Is(err, errNoDatabase):
		result.Status, result.Message = "fail", "Database not configured"
	case errors.Is(err, context.DeadlineExceeded):
		result.Status, result.Message = "fail", "Database query timed out"
	case err != nil:
		result.Status, result.Message = "fail", "Database query failed"
	}
	return result
}

var errNoDatabase = errors.New("no database configured")

func ping(ctx context.Context, db Pinger) error {
	if db == nil {
		return errNoDatabase
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.Ping(ctx)
}

// Healthz is the liveness probe and never touches dependencies.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Readyz is the readiness probe.
func Readyz(db Pinger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := ping(r.Context(), db); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
}
