package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Zyndrax/syncify-discord-bot/internal/application"
)

type flowService interface {
	StartRequest(ctx context.Context, principal application.Principal, title string, duration time.Duration) (application.SchedulingRequest, error)
	SetParticipants(ctx context.Context, principal application.Principal, requestID string, participantIDs []string) (application.SchedulingRequest, error)
	SetDateRange(ctx context.Context, principal application.Principal, requestID string, from, to time.Time) (application.SchedulingRequest, error)
	SelectSlot(ctx context.Context, principal application.Principal, requestID string, index int) (application.SchedulingRequest, error)
	Confirm(ctx context.Context, principal application.Principal, requestID string) (application.SchedulingRequest, application.Meeting, error)
	Cancel(ctx context.Context, principal application.Principal, requestID string) (application.SchedulingRequest, error)
	GetRequest(ctx context.Context, principal application.Principal, requestID string) (application.SchedulingRequest, error)
}

// FlowHandler exposes the step-by-step scheduling conversation over HTTP. A
// front-end drives one request forward with one call per collected answer.
type FlowHandler struct {
	service   flowService
	responder responder
	logger    *slog.Logger
}

func NewFlowHandler(service flowService, logger *slog.Logger) *FlowHandler {
	base := defaultLogger(logger)
	return &FlowHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *FlowHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "FlowHandler", operation, attrs...)
}

func (h *FlowHandler) Start(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req startRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Start", "principal_id", principal.UserID)

	request, err := h.service.StartRequest(r.Context(), principal, strings.TrimSpace(req.Title), time.Duration(req.DurationMinutes)*time.Minute)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to start scheduling request", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("request_id", request.ID).InfoContext(r.Context(), "scheduling request started")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, flowResponse{Request: toFlowDTO(request)})
}

func (h *FlowHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "Get", func(ctx context.Context, principal application.Principal, requestID string) (application.SchedulingRequest, error) {
		return h.service.GetRequest(ctx, principal, requestID)
	})
}

func (h *FlowHandler) SetParticipants(w http.ResponseWriter, r *http.Request) {
	var req participantsBody
	if !h.decodeBody(w, r, &req) {
		return
	}
	h.step(w, r, "SetParticipants", func(ctx context.Context, principal application.Principal, requestID string) (application.SchedulingRequest, error) {
		return h.service.SetParticipants(ctx, principal, requestID, req.Participants)
	})
}

func (h *FlowHandler) SetDateRange(w http.ResponseWriter, r *http.Request) {
	var req dateRangeBody
	if !h.decodeBody(w, r, &req) {
		return
	}
	from, to, err := parseDateRange(req.From, req.To)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.step(w, r, "SetDateRange", func(ctx context.Context, principal application.Principal, requestID string) (application.SchedulingRequest, error) {
		return h.service.SetDateRange(ctx, principal, requestID, from, to)
	})
}

func (h *FlowHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	var req selectSlotBody
	if !h.decodeBody(w, r, &req) {
		return
	}
	h.step(w, r, "SelectSlot", func(ctx context.Context, principal application.Principal, requestID string) (application.SchedulingRequest, error) {
		return h.service.SelectSlot(ctx, principal, requestID, req.Index)
	})
}

func (h *FlowHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := RequestIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRequestID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Confirm", "principal_id", principal.UserID, "request_id", requestID)

	request, meeting, err := h.service.Confirm(r.Context(), principal, requestID)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to confirm scheduling request", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("meeting_id", meeting.ID).InfoContext(r.Context(), "scheduling request confirmed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, confirmResponse{
		Request: toFlowDTO(request),
		Meeting: toMeetingDTO(meeting),
	})
}

func (h *FlowHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "Cancel", func(ctx context.Context, principal application.Principal, requestID string) (application.SchedulingRequest, error) {
		return h.service.Cancel(ctx, principal, requestID)
	})
}

func (h *FlowHandler) decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return false
	}
	return true
}

func (h *FlowHandler) step(w http.ResponseWriter, r *http.Request, operation string, fn func(context.Context, application.Principal, string) (application.SchedulingRequest, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	requestID, ok := RequestIDFromContext(r.Context())
	if !ok || strings.TrimSpace(requestID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRequestID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID, "request_id", requestID)

	request, err := fn(r.Context(), principal, requestID)
	if err != nil {
		logger.ErrorContext(r.Context(), "scheduling request step failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("state", string(request.State)).InfoContext(r.Context(), "scheduling request advanced")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, flowResponse{Request: toFlowDTO(request)})
}

type startRequestBody struct {
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
}

type participantsBody struct {
	Participants []string `json:"participants"`
}

type dateRangeBody struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type selectSlotBody struct {
	Index int `json:"index"`
}

type flowResponse struct {
	Request flowDTO `json:"request"`
}

type confirmResponse struct {
	Request flowDTO    `json:"request"`
	Meeting meetingDTO `json:"meeting"`
}

type flowDTO struct {
	ID           string    `json:"id"`
	OrganizerID  string    `json:"organizer_id"`
	Title        string    `json:"title"`
	DurationMins int       `json:"duration_minutes"`
	Participants []string  `json:"participants,omitempty"`
	From         string    `json:"from,omitempty"`
	To           string    `json:"to,omitempty"`
	Slots        []slotDTO `json:"slots,omitempty"`
	SelectedSlot *slotDTO  `json:"selected_slot,omitempty"`
	State        string    `json:"state"`
	CreatedAt    string    `json:"created_at"`
	UpdatedAt    string    `json:"updated_at"`
}

func toFlowDTO(request application.SchedulingRequest) flowDTO {
	dto := flowDTO{
		ID:           request.ID,
		OrganizerID:  request.OrganizerID,
		Title:        request.Title,
		DurationMins: int(request.Duration / time.Minute),
		Participants: request.ParticipantIDs,
		State:        string(request.State),
		CreatedAt:    request.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    request.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if !request.From.IsZero() {
		dto.From = request.From.UTC().Format(time.RFC3339Nano)
	}
	if !request.To.IsZero() {
		dto.To = request.To.UTC().Format(time.RFC3339Nano)
	}
	if len(request.Slots) > 0 {
		dto.Slots = make([]slotDTO, 0, len(request.Slots))
		for _, slot := range request.Slots {
			dto.Slots = append(dto.Slots, slotDTO{
				Start: slot.Start.UTC().Format(time.RFC3339Nano),
				End:   slot.End.UTC().Format(time.RFC3339Nano),
			})
		}
	}
	if request.SelectedSlot != nil {
		dto.SelectedSlot = &slotDTO{
			Start: request.SelectedSlot.Start.UTC().Format(time.RFC3339Nano),
			End:   request.SelectedSlot.End.UTC().Format(time.RFC3339Nano),
		}
	}
	return dto
}
