// Package api exposes the event application engine over HTTP with chi.
package api

import (
	"net/http"
	"strconv"

	"bookclub/models"
	"bookclub/service"

	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Handler holds the HTTP handlers for the club API
type Handler struct {
	applications service.ApplicationService
	approvals    service.ApprovalService
	events       service.EventService
	users        service.UserService
}

// NewHandler constructs a Handler
func NewHandler(applications service.ApplicationService, approvals service.ApprovalService, events service.EventService, users service.UserService) *Handler {
	return &Handler{
		applications: applications,
		approvals:    approvals,
		events:       events,
		users:        users,
	}
}

type applyRequest struct {
	UseCoins bool `json:"useCoins"`
}

type confirmPaymentRequest struct {
	UserID *uuid.UUID `json:"userId"`
}

type approveRequest struct {
	ApplicationIDs []uuid.UUID `json:"applicationIds"`
}

// eventIDOrBadRequest writes 400 when the {id} path segment is not a UUID
func eventIDOrBadRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := parseID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
	}
	return id, ok
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListEvents handles GET /events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []*models.EventSummary{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDOrBadRequest(w, r)
	if !ok {
		return
	}

	event, err := h.events.Get(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// CheckEligibility handles GET /events/{id}/eligibility
func (h *Handler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDOrBadRequest(w, r)
	if !ok {
		return
	}
	caller, _ := IdentityFrom(r.Context())

	eligibility, err := h.applications.CheckEligibility(r.Context(), caller.UserID, eventID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eligibility)
}

// Apply handles POST /events/{id}/apply
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var req applyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	caller, _ := IdentityFrom(r.Context())

	result, err := h.applications.Apply(r.Context(), caller.UserID, eventID, req.UseCoins)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ConfirmPayment handles POST /events/{id}/confirm-payment.
// A userId in the body takes precedence over the bearer subject.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var req confirmPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var userID uuid.UUID
	switch caller, authenticated := IdentityFrom(r.Context()); {
	case req.UserID != nil:
		userID = *req.UserID
	case authenticated:
		userID = caller.UserID
	default:
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	result, err := h.applications.ConfirmPayment(r.Context(), userID, eventID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Cancel handles DELETE /events/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDOrBadRequest(w, r)
	if !ok {
		return
	}
	caller, _ := IdentityFrom(r.Context())

	result, err := h.applications.Cancel(r.Context(), caller.UserID, eventID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListApplications handles GET /events/{id}/applications
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDOrBadRequest(w, r)
	if !ok {
		return
	}

	views, err := h.applications.ListApplications(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if views == nil {
		views = []*service.ApplicationView{}
	}
	writeJSON(w, http.StatusOK, views)
}

// Approve handles POST /events/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var req approveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.approvals.Approve(r.Context(), eventID, req.ApplicationIDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Me handles GET /me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())

	user, err := h.users.GetByID(r.Context(), caller.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// CoinHistory handles GET /me/coins/history?limit=n
func (h *Handler) CoinHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}
	caller, _ := IdentityFrom(r.Context())

	history, err := h.users.CoinHistory(r.Context(), caller.UserID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if history == nil {
		history = []*models.CoinHistory{}
	}
	writeJSON(w, http.StatusOK, history)
}

// CreateEvent handles POST /admin/events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var input service.EventInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// UpdateEvent handles PATCH /admin/events/{id}
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var patch service.EventPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.Update(r.Context(), eventID, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /admin/events/{id}
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDOrBadRequest(w, r)
	if !ok {
		return
	}

	if err := h.events.Delete(r.Context(), eventID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
