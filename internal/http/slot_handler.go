package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Zyndrax/syncify-discord-bot/internal/application"
)

type slotService interface {
	FindSlots(ctx context.Context, query application.SlotQuery) ([]application.Slot, error)
}

// SlotHandler serves group availability searches.
type SlotHandler struct {
	service   slotService
	responder responder
	logger    *slog.Logger
}

func NewSlotHandler(service slotService, logger *slog.Logger) *SlotHandler {
	base := defaultLogger(logger)
	return &SlotHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SlotHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SlotHandler", operation, attrs...)
}

// Search runs one availability intersection across the requested group. An
// empty result is a successful response with an empty slot list.
func (h *SlotHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req slotSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Search", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode slot search", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Search", "principal_id", principal.UserID, "participants", len(req.Participants))

	from, to, err := parseDateRange(req.From, req.To)
	if err != nil {
		logger.ErrorContext(r.Context(), "slot search rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	slots, err := h.service.FindSlots(r.Context(), application.SlotQuery{
		ParticipantIDs: req.Participants,
		From:           from,
		To:             to,
		Duration:       time.Duration(req.DurationMinutes) * time.Minute,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "slot search failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(slots)).InfoContext(r.Context(), "slot search completed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, slotSearchResponse{Slots: toSlotDTOs(slots)})
}

// parseDateRange parses the required from/to bounds of a search request,
// reporting a field error for every missing or unparseable value.
func parseDateRange(fromValue, toValue string) (time.Time, time.Time, error) {
	fieldErrors := make(map[string]string)
	from := parseTime(fromValue)
	if from.IsZero() {
		fieldErrors["from"] = "from must be an RFC 3339 timestamp"
	}
	to := parseTime(toValue)
	if to.IsZero() {
		fieldErrors["to"] = "to must be an RFC 3339 timestamp"
	}
	if len(fieldErrors) > 0 {
		return time.Time{}, time.Time{}, &application.ValidationError{FieldErrors: fieldErrors}
	}
	return from, to, nil
}

type slotSearchRequest struct {
	Participants    []string `json:"participants"`
	From            string   `json:"from"`
	To              string   `json:"to"`
	DurationMinutes int      `json:"duration_minutes"`
}

type slotSearchResponse struct {
	Slots []slotDTO `json:"slots"`
}

type slotDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func toSlotDTOs(slots []application.Slot) []slotDTO {
	out := make([]slotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slotDTO{
			Start: slot.Start.UTC().Format(time.RFC3339Nano),
			End:   slot.End.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}
