package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Togather-Foundation/gather/internal/audit"
	"github.com/Togather-Foundation/gather/internal/domain/events"
	"github.com/Togather-Foundation/gather/internal/metrics"
	"github.com/Togather-Foundation/gather/internal/validation"
)

type EventsHandler struct {
	Service *events.Service
	Audit   *audit.Logger
	Env     string
}

func NewEventsHandler(service *events.Service, auditLogger *audit.Logger, env string) *EventsHandler {
	return &EventsHandler{Service: service, Audit: auditLogger, Env: env}
}

type eventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Organizer   string    `json:"organizer"`
}

func newEventResponse(e *events.Event) eventResponse {
	return eventResponse{
		ID:          e.ULID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date.UTC(),
		Location:    e.Location,
		Organizer:   e.OrganizerUsername,
	}
}

// eventRequest accepts the writable fields only; id and organizer in the body
// are ignored.
type eventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Location    *string `json:"location"`
}

// input converts a full (POST/PUT) body. Missing fields become empty values
// and are reported by validation.
func (req eventRequest) input() (events.EventInput, error) {
	var in events.EventInput
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Location != nil {
		in.Location = *req.Location
	}
	if req.Date != nil {
		date, err := events.ParseDateTime("date", *req.Date)
		if err != nil {
			return in, err
		}
		if date != nil {
			in.Date = *date
		}
	}
	return in, nil
}

// patch converts a partial (PATCH) body.
func (req eventRequest) patch() (events.EventPatch, error) {
	patch := events.EventPatch{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
	}
	if req.Date != nil {
		date, err := events.ParseDateTime("date", *req.Date)
		if err != nil {
			return patch, err
		}
		if date == nil {
			return patch, validation.NewFieldError("date", "This field may not be blank.")
		}
		patch.Date = date
	}
	return patch, nil
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := events.ParseFilters(r.URL.Query())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	items, err := h.Service.List(r.Context(), actorFrom(r), filters)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	out := make([]eventResponse, 0, len(items))
	for i := range items {
		out = append(out, newEventResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	input, err := req.input()
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	actor := actorFrom(r)
	event, err := h.Service.Create(r.Context(), actor, input)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	metrics.EventsTotal.WithLabelValues("create").Inc()
	h.Audit.Event(r, audit.ActionEventCreate, actor.Username, event.ULID, audit.StatusSuccess, map[string]string{"title": event.Title})
	writeJSON(w, http.StatusCreated, newEventResponse(event))
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.Service.Get(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, newEventResponse(event))
}

// Replace handles PUT: every writable field must be supplied.
func (h *EventsHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	input, err := req.input()
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.update(w, r, input.Patch())
}

// Patch handles PATCH: only supplied fields change.
func (h *EventsHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	patch, err := req.patch()
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	h.update(w, r, patch)
}

func (h *EventsHandler) update(w http.ResponseWriter, r *http.Request, patch events.EventPatch) {
	actor := actorFrom(r)
	id := r.PathValue("id")

	event, err := h.Service.Update(r.Context(), actor, id, patch)
	if err != nil {
		h.auditFailure(r, audit.ActionEventUpdate, actor, id, err)
		writeError(w, r, err, h.Env)
		return
	}

	metrics.EventsTotal.WithLabelValues("update").Inc()
	h.Audit.Event(r, audit.ActionEventUpdate, actor.Username, event.ULID, audit.StatusSuccess, nil)
	writeJSON(w, http.StatusOK, newEventResponse(event))
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	id := r.PathValue("id")

	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		h.auditFailure(r, audit.ActionEventDelete, actor, id, err)
		writeError(w, r, err, h.Env)
		return
	}

	metrics.EventsTotal.WithLabelValues("delete").Inc()
	h.Audit.Event(r, audit.ActionEventDelete, actor.Username, id, audit.StatusSuccess, nil)
	w.WriteHeader(http.StatusNoContent)
}

// auditFailure records rejected writes by non-organizers; other failures are
// already logged by problem.Write.
func (h *EventsHandler) auditFailure(r *http.Request, action string, actor events.Actor, id string, err error) {
	if !errors.Is(err, events.ErrForbidden) {
		return
	}
	h.Audit.Event(r, action, actor.Username, id, audit.StatusFailure, map[string]string{"reason": "not organizer"})
}
