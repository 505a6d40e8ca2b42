package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionHandler(t *testing.T) {
	tests := []struct {
		name                              string
		version, commit, date             string
		wantVersion, wantCommit, wantDate string
	}{
		{"all values", "0.1.0", "abc123", "2026-01-28T12:00:00Z", "0.1.0", "abc123", "2026-01-28T12:00:00Z"},
		{"defaults", "", "", "", "dev", "unknown", "unknown"},
		{"partial", "1.0.0", "", "2026-01-28T12:00:00Z", "1.0.0", "unknown", "2026-01-28T12:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			VersionHandler(tt.version, tt.commit, tt.date).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))

			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp versionResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Equal(t, tt.wantVersion, resp.Version)
			require.Equal(t, tt.wantCommit, resp.GitCommit)
			require.Equal(t, tt.wantDate, resp.BuildDate)
			require.Equal(t, runtime.Version(), resp.GoVersion)
		})
	}
}

func TestVersionHandlerMethodNotAllowed(t *testing.T) {
	handler := VersionHandler("0.1.0", "abc123", "")
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(method, "/version", nil))
		require.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		require.Equal(t, "GET", w.Header().Get("Allow"))
	}
}
