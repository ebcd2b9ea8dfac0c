package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// FlowState names one stage of an in-progress scheduling request. The
// front-end drives the request forward one answer at a time; every state can
// transition to Cancelled, and expiry forces that transition.
type FlowState string

const (
	// FlowStateCollectingParticipants waits for the participant list.
	FlowStateCollectingParticipants FlowState = "collecting_participants"
	// FlowStateCollectingDateRange waits for the search date range.
	FlowStateCollectingDateRange FlowState = "collecting_date_range"
	// FlowStateSelectingSlot waits for the organizer to pick a candidate slot.
	FlowStateSelectingSlot FlowState = "selecting_slot"
	// FlowStateConfirming waits for the final confirmation.
	FlowStateConfirming FlowState = "confirming"
	// FlowStateConfirmed is terminal: a confirmed meeting was created.
	FlowStateConfirmed FlowState = "confirmed"
	// FlowStateCancelled is terminal: abandoned, expired, or declined.
	FlowStateCancelled FlowState = "cancelled"
)

// SchedulingRequest is the request-scoped state carried between interaction
// steps, keyed by its identifier in a short-lived store. It replaces any
// process-wide mutable session map.
type SchedulingRequest struct {
	ID             string
	OrganizerID    string
	Title          string
	Duration       time.Duration
	ParticipantIDs []string
	From           time.Time
	To             time.Time
	Slots          []Slot
	SelectedSlot   *Slot
	State          FlowState
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FlowService advances scheduling requests through their state machine,
// delegating slot searches to the slot service and meeting creation to the
// meeting service on final confirmation.
type FlowService struct {
	store       *requestStore
	slots       *SlotService
	meetings    *MeetingService
	users       UserDirectory
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewFlowService wires dependencies for interactive scheduling requests.
func NewFlowService(slots *SlotService, meetings *MeetingService, users UserDirectory, ttl time.Duration, idGenerator func() string, now func() time.Time, logger *slog.Logger) *FlowService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &FlowService{
		store:       newRequestStore(ttl, 0, now),
		slots:       slots,
		meetings:    meetings,
		users:       users,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// StartRequest opens a new scheduling request for the organizer.
func (s *FlowService) StartRequest(ctx context.Context, principal Principal, title string, duration time.Duration) (SchedulingRequest, error) {
	if s == nil {
		return SchedulingRequest{}, fmt.Errorf("FlowService is nil")
	}

	vErr := &ValidationError{}
	if title == "" {
		vErr.add("title", "title is required")
	}
	if duration <= 0 {
		vErr.add("duration", "duration must be positive")
	}
	if vErr.HasErrors() {
		return SchedulingRequest{}, vErr
	}

	now := s.now()
	request := SchedulingRequest{
		ID:          s.idGenerator(),
		OrganizerID: principal.UserID,
		Title:       title,
		Duration:    duration,
		State:       FlowStateCollectingParticipants,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.store.Put(request)

	serviceLogger(ctx, s.logger, "FlowService", "StartRequest").
		InfoContext(ctx, "scheduling request started", "request_id", request.ID)
	return request, nil
}

// SetParticipants records the participant list and advances to date-range collection.
func (s *FlowService) SetParticipants(ctx context.Context, principal Principal, requestID string, participantIDs []string) (SchedulingRequest, error) {
	request, err := s.loadFor(principal, requestID, FlowStateCollectingParticipants)
	if err != nil {
		return SchedulingRequest{}, err
	}

	ids := uniqueStrings(participantIDs)
	if len(ids) == 0 {
		vErr := &ValidationError{}
		vErr.add("participants", "at least one participant is required")
		return SchedulingRequest{}, vErr
	}
	if s.users != nil {
		missing, err := s.users.MissingUserIDs(ctx, ids)
		if err != nil {
			return SchedulingRequest{}, err
		}
		if len(missing) > 0 {
			vErr := &ValidationError{}
			vErr.add("participants", fmt.Sprintf("unknown user ids: %v", missing))
			return SchedulingRequest{}, vErr
		}
	}

	request.ParticipantIDs = sortStrings(ids)
	request.State = FlowStateCollectingDateRange
	request.UpdatedAt = s.now()
	s.store.Put(request)
	return request, nil
}

// SetDateRange records the search range, runs the availability search, and
// advances to slot selection when any candidate survives. With no surviving
// candidates the request stays in date-range collection so the front-end can
// ask for a different range.
func (s *FlowService) SetDateRange(ctx context.Context, principal Principal, requestID string, from, to time.Time) (SchedulingRequest, error) {
	request, err := s.loadFor(principal, requestID, FlowStateCollectingDateRange)
	if err != nil {
		return SchedulingRequest{}, err
	}
	if s.slots == nil {
		return SchedulingRequest{}, fmt.Errorf("slot service not configured")
	}

	slots, err := s.slots.FindSlots(ctx, SlotQuery{
		ParticipantIDs: request.ParticipantIDs,
		From:           from,
		To:             to,
		Duration:       request.Duration,
	})
	if err != nil {
		return SchedulingRequest{}, err
	}

	request.From = from
	request.To = to
	request.Slots = slots
	request.UpdatedAt = s.now()
	if len(slots) > 0 {
		request.State = FlowStateSelectingSlot
	}
	s.store.Put(request)
	return request, nil
}

// SelectSlot picks one of the proposed candidates and advances to confirmation.
func (s *FlowService) SelectSlot(ctx context.Context, principal Principal, requestID string, index int) (SchedulingRequest, error) {
	request, err := s.loadFor(principal, requestID, FlowStateSelectingSlot)
	if err != nil {
		return SchedulingRequest{}, err
	}

	if index < 0 || index >= len(request.Slots) {
		vErr := &ValidationError{}
		vErr.add("slot", "selected slot is out of range")
		return SchedulingRequest{}, vErr
	}

	selected := request.Slots[index]
	request.SelectedSlot = &selected
	request.State = FlowStateConfirming
	request.UpdatedAt = s.now()
	s.store.Put(request)
	return request, nil
}

// Confirm creates the confirmed meeting for the selected slot and closes the request.
func (s *FlowService) Confirm(ctx context.Context, principal Principal, requestID string) (SchedulingRequest, Meeting, error) {
	request, err := s.loadFor(principal, requestID, FlowStateConfirming)
	if err != nil {
		return SchedulingRequest{}, Meeting{}, err
	}
	if s.meetings == nil {
		return SchedulingRequest{}, Meeting{}, fmt.Errorf("meeting service not configured")
	}
	if request.SelectedSlot == nil {
		return SchedulingRequest{}, Meeting{}, ErrInvalidTransition
	}

	meeting, err := s.meetings.CreateMeeting(ctx, CreateMeetingParams{
		Principal: principal,
		Input: MeetingInput{
			OrganizerID:    request.OrganizerID,
			Title:          request.Title,
			Start:          request.SelectedSlot.Start,
			End:            request.SelectedSlot.End,
			Status:         MeetingStatusConfirmed,
			ParticipantIDs: request.ParticipantIDs,
		},
	})
	if err != nil {
		return SchedulingRequest{}, Meeting{}, err
	}

	request.State = FlowStateConfirmed
	request.UpdatedAt = s.now()
	s.store.Remove(request.ID)

	serviceLogger(ctx, s.logger, "FlowService", "Confirm").
		InfoContext(ctx, "scheduling request confirmed", "request_id", request.ID, "meeting_id", meeting.ID)
	return request, meeting, nil
}

// Cancel abandons the request from any live state.
func (s *FlowService) Cancel(ctx context.Context, principal Principal, requestID string) (SchedulingRequest, error) {
	if s == nil {
		return SchedulingRequest{}, fmt.Errorf("FlowService is nil")
	}

	request, ok, _ := s.store.Get(requestID)
	if !ok {
		return SchedulingRequest{}, ErrNotFound
	}
	if request.OrganizerID != principal.UserID && !principal.IsAdmin {
		return SchedulingRequest{}, ErrUnauthorized
	}

	request.State = FlowStateCancelled
	request.UpdatedAt = s.now()
	s.store.Remove(request.ID)
	return request, nil
}

// GetRequest returns the current state of a scheduling request.
func (s *FlowService) GetRequest(ctx context.Context, principal Principal, requestID string) (SchedulingRequest, error) {
	if s == nil {
		return SchedulingRequest{}, fmt.Errorf("FlowService is nil")
	}

	request, ok, expired := s.store.Get(requestID)
	if !ok {
		return SchedulingRequest{}, ErrNotFound
	}
	if request.OrganizerID != principal.UserID && !principal.IsAdmin {
		return SchedulingRequest{}, ErrUnauthorized
	}
	if expired {
		request.State = FlowStateCancelled
		s.store.Remove(request.ID)
		return request, ErrRequestExpired
	}
	return request, nil
}

// loadFor fetches a live request owned by the principal in the expected state.
// Expired requests surface ErrRequestExpired and transition to Cancelled.
func (s *FlowService) loadFor(principal Principal, requestID string, expected FlowState) (SchedulingRequest, error) {
	if s == nil {
		return SchedulingRequest{}, fmt.Errorf("FlowService is nil")
	}

	request, ok, expired := s.store.Get(requestID)
	if !ok {
		return SchedulingRequest{}, ErrNotFound
	}
	if request.OrganizerID != principal.UserID && !principal.IsAdmin {
		return SchedulingRequest{}, ErrUnauthorized
	}
	if expired {
		request.State = FlowStateCancelled
		s.store.Remove(request.ID)
		return SchedulingRequest{}, ErrRequestExpired
	}
	if request.State != expected {
		return SchedulingRequest{}, fmt.Errorf("%w: %s expected, request is %s", ErrInvalidTransition, expected, request.State)
	}
	return request, nil
}
