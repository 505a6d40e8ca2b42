package cmd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPerformHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantStatus string
		wantErr    bool
		invalid    bool
	}{
		{name: "healthy", statusCode: http.StatusOK, body: `{"status":"healthy","checks":{"database":{"status":"pass"}}}`, wantStatus: "healthy"},
		{name: "unhealthy 503", statusCode: http.StatusServiceUnavailable, body: `{"status":"unhealthy"}`, wantStatus: "unhealthy", wantErr: true},
		{name: "unexpected status", statusCode: http.StatusOK, body: `{"status":"degraded"}`, wantStatus: "degraded", wantErr: true},
		{name: "invalid json", statusCode: http.StatusOK, body: `not json`, wantErr: true, invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/health", r.URL.Path)
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			status, err := performHealthCheck(context.Background(), server.Client(), server.URL+"/health")
			require.Equal(t, tt.wantStatus, status)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Equal(t, tt.invalid, errors.Is(err, errInvalidResponse))
		})
	}
}

func TestPerformHealthCheckTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := performHealthCheck(ctx, server.Client(), server.URL)
	require.Error(t, err)
}

func TestDefaultHealthURL(t *testing.T) {
	t.Setenv("SERVER_PORT", "9191")
	require.Equal(t, "http://localhost:9191/health", defaultHealthURL())
	t.Setenv("SERVER_PORT", "")
	require.Equal(t, "http://localhost:8080/health", defaultHealthURL())
}
