package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Togather-Foundation/gather/internal/api/handlers"
	"github.com/Togather-Foundation/gather/internal/api/middleware"
	"github.com/Togather-Foundation/gather/internal/api/problem"
	"github.com/Togather-Foundation/gather/internal/audit"
	"github.com/Togather-Foundation/gather/internal/auth"
	"github.com/Togather-Foundation/gather/internal/config"
	"github.com/Togather-Foundation/gather/internal/domain/events"
	"github.com/Togather-Foundation/gather/internal/domain/users"
	"github.com/Togather-Foundation/gather/internal/metrics"
	"github.com/Togather-Foundation/gather/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// BuildInfo is reported by /version and /health.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

// Router is the assembled HTTP handler. Close releases the rate limiter.
type Router struct {
	http.Handler
	limiter *middleware.RateLimiter
}

func (r *Router) Close() {
	r.limiter.Stop()
}

// NewRouter wires services over repo and returns the full middleware chain.
// An optional JWT manager overrides the one built from cfg.Auth.
func NewRouter(cfg config.Config, logger zerolog.Logger, repo storage.Repository, build BuildInfo, tokens *auth.JWTManager) *Router {
	if tokens == nil {
		tokens = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)
	}
	env := cfg.Environment

	var userOpts []users.Option
	if cfg.Auth.BcryptCost > 0 {
		userOpts = append(userOpts, users.WithBcryptCost(cfg.Auth.BcryptCost))
	}
	userService := users.NewService(repo.Users(), logger, userOpts...)
	eventService := events.NewService(repo.Events(), repo.Registrations(),
		events.WithLogger(logger.With().Str("component", "events").Logger()))
	auditLogger := audit.NewLogger(logger)

	usersHandler := handlers.NewUsersHandler(userService, tokens, auditLogger, env)
	eventsHandler := handlers.NewEventsHandler(eventService, auditLogger, env)
	registrationsHandler := handlers.NewRegistrationsHandler(eventService, auditLogger, env)
	health := handlers.NewHealthChecker(repo, build.Version, build.GitCommit)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, env)
	requireUser := middleware.RequireUser(tokens, userService, env)
	public := limiter.Limit(middleware.TierPublic)
	login := limiter.Limit(middleware.TierLogin)
	authenticated := func(h http.HandlerFunc) http.Handler {
		return requireUser(limiter.Limit(middleware.TierAuthenticated)(h))
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(repo))
	mux.Handle("/health", health.Health())
	mux.Handle("/version", VersionHandler(build.Version, build.GitCommit, build.BuildDate))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/v1/users/register", methodMux(map[string]http.Handler{
		http.MethodPost: public(http.HandlerFunc(usersHandler.Register)),
	}))
	mux.Handle("/api/v1/users/login", methodMux(map[string]http.Handler{
		http.MethodPost: login(http.HandlerFunc(usersHandler.Login)),
	}))
	mux.Handle("/api/v1/users/me", methodMux(map[string]http.Handler{
		http.MethodGet: authenticated(usersHandler.Me),
	}))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet:  authenticated(eventsHandler.List),
		http.MethodPost: authenticated(eventsHandler.Create),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    authenticated(eventsHandler.Get),
		http.MethodPut:    authenticated(eventsHandler.Replace),
		http.MethodPatch:  authenticated(eventsHandler.Patch),
		http.MethodDelete: authenticated(eventsHandler.Delete),
	}))
	mux.Handle("/api/v1/events/{id}/register", methodMux(map[string]http.Handler{
		http.MethodPost: authenticated(registrationsHandler.Register),
	}))
	mux.Handle("/api/v1/events/{id}/unregister", methodMux(map[string]http.Handler{
		http.MethodDelete: authenticated(registrationsHandler.Unregister),
	}))
	mux.Handle("/api/v1/events/{id}/participants", methodMux(map[string]http.Handler{
		http.MethodGet: authenticated(registrationsHandler.Participants),
	}))

	maxBody := cfg.Server.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = middleware.DefaultMaxBodySize
	}

	// Outermost first.
	var handler http.Handler = mux
	handler = middleware.RequestSize(maxBody)(handler)
	handler = middleware.CORS(corsConfig(cfg), logger)(handler)
	handler = middleware.SecurityHeaders(env == "production")(handler)
	handler = metrics.HTTPMiddleware(mux)(handler)
	handler = middleware.RequestLogging(handler)
	handler = middleware.CorrelationID(logger)(handler)
	handler = middleware.Tracing(handler)

	return &Router{Handler: handler, limiter: limiter}
}

// corsConfig allows every origin outside production.
func corsConfig(cfg config.Config) config.CORSConfig {
	cors := cfg.CORS
	if cfg.Environment != "production" {
		cors.AllowAllOrigins = true
	}
	return cors
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		problem.Write(w, r, http.StatusMethodNotAllowed, problem.TypeMethodNotAllowed, "Method not allowed", nil, "",
			problem.WithDetail(fmt.Sprintf("Method %q not allowed.", r.Method)))
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
