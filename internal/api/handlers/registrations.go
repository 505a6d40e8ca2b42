package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Togather-Foundation/gather/internal/audit"
	"github.com/Togather-Foundation/gather/internal/domain/events"
	"github.com/Togather-Foundation/gather/internal/metrics"
)

type RegistrationsHandler struct {
	Service *events.Service
	Audit   *audit.Logger
	Env     string
}

func NewRegistrationsHandler(service *events.Service, auditLogger *audit.Logger, env string) *RegistrationsHandler {
	return &RegistrationsHandler{Service: service, Audit: auditLogger, Env: env}
}

type detailResponse struct {
	Detail string `json:"detail"`
}

type participantResponse struct {
	Username     string    `json:"username"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Register handles POST /api/v1/events/{id}/register.
func (h *RegistrationsHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	id := r.PathValue("id")

	if _, err := h.Service.Register(r.Context(), actor, id); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("register", registrationOutcome(err)).Inc()
		h.Audit.Event(r, audit.ActionRegister, actor.Username, id, audit.StatusFailure, map[string]string{"reason": registrationOutcome(err)})
		writeError(w, r, err, h.Env)
		return
	}

	metrics.RegistrationsTotal.WithLabelValues("register", "success").Inc()
	h.Audit.Event(r, audit.ActionRegister, actor.Username, id, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusCreated, detailResponse{Detail: detailRegistered})
}

// Unregister handles DELETE /api/v1/events/{id}/unregister.
func (h *RegistrationsHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	id := r.PathValue("id")

	if err := h.Service.Unregister(r.Context(), actor, id); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("unregister", registrationOutcome(err)).Inc()
		writeError(w, r, err, h.Env)
		return
	}

	metrics.RegistrationsTotal.WithLabelValues("unregister", "success").Inc()
	h.Audit.Event(r, audit.ActionUnregister, actor.Username, id, audit.StatusSuccess, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Participants handles GET /api/v1/events/{id}/participants.
func (h *RegistrationsHandler) Participants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.Service.Participants(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	out := make([]participantResponse, 0, len(participants))
	for _, p := range participants {
		out = append(out, participantResponse{Username: p.Username, RegisteredAt: p.RegisteredAt.UTC()})
	}
	writeJSON(w, http.StatusOK, out)
}

func registrationOutcome(err error) string {
	switch {
	case errors.Is(err, events.ErrOrganizerRegistration):
		return "organizer"
	case errors.Is(err, events.ErrPastEvent):
		return "past_event"
	case errors.Is(err, events.ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, events.ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, events.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
