package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Togather-Foundation/gather/internal/api/middleware"
	"github.com/Togather-Foundation/gather/internal/api/problem"
	"github.com/Togather-Foundation/gather/internal/domain/events"
	"github.com/Togather-Foundation/gather/internal/validation"
)

// Messages returned in the problem detail member.
const (
	detailNotFound            = "Not found."
	detailForbidden           = "You do not have permission to perform this action."
	detailNotAuthenticated    = "Authentication credentials were not provided."
	detailOrganizerRegistered = "Organizer cannot register for their own event."
	detailPastEvent           = "Cannot register for past events."
	detailAlreadyRegistered   = "You are already registered for this event."
	detailNotRegistered       = "You were not registered for this event."
	detailRegistered          = "Successfully registered for the event."
	detailInvalidCredentials  = "Unable to log in with provided credentials."
	detailBodyTooLarge        = "Request body too large."
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads a single JSON document from the request body. Errors are
// either a *validation.Error or *http.MaxBytesError.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return err
		case errors.Is(err, io.EOF):
			return &validation.Error{Message: "Request body is empty."}
		default:
			return &validation.Error{Message: fmt.Sprintf("JSON parse error: %v", err)}
		}
	}
	return nil
}

// actorFrom builds the explicit caller identity from the authenticated user.
func actorFrom(r *http.Request) events.Actor {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: user.ID, Username: user.Username}
}

// writeError maps domain errors to problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var vErr *validation.Error
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &vErr):
		opts := []problem.Option{problem.WithErrors(vErr.ErrorsMap())}
		if len(vErr.Fields) == 0 && vErr.Message != "" {
			opts = append(opts, problem.WithDetail(vErr.Message))
		} else {
			opts = append(opts, problem.WithDetail("Invalid input."))
		}
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env, opts...)
	case errors.As(err, &maxErr):
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeRequestTooLarge, "Request too large", err, env,
			problem.WithDetail(detailBodyTooLarge))
	case errors.Is(err, events.ErrUnauthenticated):
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, env,
			problem.WithDetail(detailNotAuthenticated))
	case errors.Is(err, events.ErrForbidden):
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", err, env,
			problem.WithDetail(detailForbidden))
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, env,
			problem.WithDetail(detailNotFound))
	case errors.Is(err, events.ErrOrganizerRegistration):
		writeBadRequest(w, r, err, detailOrganizerRegistered, env)
	case errors.Is(err, events.ErrPastEvent):
		writeBadRequest(w, r, err, detailPastEvent, env)
	case errors.Is(err, events.ErrAlreadyRegistered):
		writeBadRequest(w, r, err, detailAlreadyRegistered, env)
	case errors.Is(err, events.ErrNotRegistered):
		writeBadRequest(w, r, err, detailNotRegistered, env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, env)
	}
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, err error, detail, env string) {
	problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Bad request", err, env, problem.WithDetail(detail))
}
