package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func testRoutes() *http.ServeMux {
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	mux := http.NewServeMux()
	mux.Handle("/api/v1/events", noop)
	mux.Handle("/api/v1/events/{id}", noop)
	mux.Handle("/api/v1/events/{id}/unregister", noop)
	return mux
}

func TestRouteLabel(t *testing.T) {
	routes := testRoutes()
	tests := []struct{ path, want string }{
		{"/api/v1/events", "/api/v1/events"},
		{"/api/v1/events/01J00000000000000000000FTR", "/api/v1/events/{id}"},
		{"/api/v1/events/abc", "/api/v1/events/{id}"},
		{"/api/v1/events/01J00000000000000000000FTR/unregister", "/api/v1/events/{id}/unregister"},
		{"/wp-login.php", "other"},
		{"/api/v1/events/x/y/z", "other"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, routeLabel(routes, httptest.NewRequest(http.MethodGet, tt.path, nil)), tt.path)
	}
	require.Equal(t, "other", routeLabel(nil, httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestHTTPMiddlewareCountsByRouteAndStatus(t *testing.T) {
	handler := HTTPMiddleware(testRoutes())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	counter := HTTPRequestsTotal.WithLabelValues(http.MethodDelete, "/api/v1/events/{id}/unregister", "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"01J00000000000000000000FTR", "01J00000000000000000000ABC"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/events/"+id+"/unregister", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	require.Equal(t, before+2, testutil.ToFloat64(counter))
	require.Zero(t, testutil.ToFloat64(HTTPRequestsInFlight))
}

func TestHTTPMiddlewareBoundsUnknownPaths(t *testing.T) {
	handler := HTTPMiddleware(testRoutes())(http.NotFoundHandler())

	other := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "other", "404")
	before := testutil.ToFloat64(other)
	for _, path := range []string{"/.env", "/admin/config.php", "/api/v2/anything"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	require.Equal(t, before+3, testutil.ToFloat64(other))
}

func TestStatusRecorderDefaultsToOK(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	require.Equal(t, http.StatusOK, rec.code())

	_, err := rec.Write([]byte("hello"))
	require.NoError(t, err)
	rec.WriteHeader(http.StatusInternalServerError)
	require.Equal(t, http.StatusOK, rec.code(), "first status wins")
	require.Equal(t, 5, rec.size)
}
