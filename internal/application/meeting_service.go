package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// MeetingRepository captures the persistence interactions needed by the meeting service.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting Meeting) (Meeting, error)
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	UpdateMeeting(ctx context.Context, meeting Meeting) (Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error)
}

// MeetingFilter narrows queries issued to the meeting repository.
type MeetingFilter struct {
	ParticipantIDs []string
	Status         MeetingStatus
	StartsAfter    *time.Time
	EndsBefore     *time.Time
}

// UserDirectory exposes user lookup operations.
type UserDirectory interface {
	MissingUserIDs(ctx context.Context, ids []string) ([]string, error)
}

// MeetingService orchestrates validation and persistence for meeting records.
// Status drives slot blocking downstream: only confirmed meetings ever block
// a candidate slot.
type MeetingService struct {
	meetings    MeetingRepository
	users       UserDirectory
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewMeetingService wires dependencies for meeting operations.
func NewMeetingService(meetings MeetingRepository, users UserDirectory, idGenerator func() string, now func() time.Time) *MeetingService {
	return NewMeetingServiceWithLogger(meetings, users, idGenerator, now, nil)
}

// NewMeetingServiceWithLogger constructs a MeetingService with a specified logger.
func NewMeetingServiceWithLogger(meetings MeetingRepository, users UserDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *MeetingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MeetingService{
		meetings:    meetings,
		users:       users,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateMeeting validates the request before delegating to persistence.
func (s *MeetingService) CreateMeeting(ctx context.Context, params CreateMeetingParams) (Meeting, error) {
	if s == nil {
		return Meeting{}, fmt.Errorf("MeetingService is nil")
	}

	input := params.Input
	principal := params.Principal

	if input.OrganizerID == "" {
		input.OrganizerID = principal.UserID
	}
	if input.OrganizerID != principal.UserID && !principal.IsAdmin {
		return Meeting{}, ErrUnauthorized
	}
	if input.Status == "" {
		input.Status = MeetingStatusTentative
	}

	vErr := &ValidationError{}
	validateMeetingCore(input, vErr)
	if vErr.HasErrors() {
		return Meeting{}, vErr
	}

	if err := s.ensureParticipantsExist(ctx, append(uniqueStrings(input.ParticipantIDs), input.OrganizerID)); err != nil {
		return Meeting{}, err
	}

	createdAt := s.now()
	meeting := Meeting{
		ID:             s.idGenerator(),
		OrganizerID:    input.OrganizerID,
		Title:          strings.TrimSpace(input.Title),
		Start:          input.Start,
		End:            input.End,
		Status:         input.Status,
		ParticipantIDs: sortStrings(uniqueStrings(input.ParticipantIDs)),
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}

	if s.meetings == nil {
		return meeting, nil
	}

	persisted, err := s.meetings.CreateMeeting(ctx, meeting)
	if err != nil {
		serviceLogger(ctx, s.logger, "MeetingService", "CreateMeeting").
			ErrorContext(ctx, "failed to create meeting", "error", err, "error_kind", ErrorKind(err))
		return Meeting{}, mapRepositoryError(err)
	}
	return persisted, nil
}

// UpdateMeeting applies validation and authorization before updating state.
func (s *MeetingService) UpdateMeeting(ctx context.Context, params UpdateMeetingParams) (Meeting, error) {
	if s == nil {
		return Meeting{}, fmt.Errorf("MeetingService is nil")
	}
	if s.meetings == nil {
		return Meeting{}, fmt.Errorf("meeting repository not configured")
	}

	existing, err := s.meetings.GetMeeting(ctx, params.MeetingID)
	if err != nil {
		return Meeting{}, mapRepositoryError(err)
	}

	principal := params.Principal
	input := params.Input

	if existing.OrganizerID != principal.UserID && !principal.IsAdmin {
		return Meeting{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if input.OrganizerID != "" && input.OrganizerID != existing.OrganizerID {
		vErr.add("organizer_id", "organizer cannot be changed")
	}
	if input.Status == "" {
		input.Status = existing.Status
	}
	validateMeetingCore(input, vErr)
	validateStatusTransition(existing.Status, input.Status, vErr)
	if vErr.HasErrors() {
		return Meeting{}, vErr
	}

	if err := s.ensureParticipantsExist(ctx, append(uniqueStrings(input.ParticipantIDs), existing.OrganizerID)); err != nil {
		return Meeting{}, err
	}

	updated := existing
	updated.Title = strings.TrimSpace(input.Title)
	updated.Start = input.Start
	updated.End = input.End
	updated.Status = input.Status
	updated.ParticipantIDs = sortStrings(uniqueStrings(input.ParticipantIDs))
	updated.UpdatedAt = s.now()

	persisted, err := s.meetings.UpdateMeeting(ctx, updated)
	if err != nil {
		return Meeting{}, mapRepositoryError(err)
	}
	return persisted, nil
}

// CancelMeeting marks a meeting cancelled; cancelled meetings stop blocking
// participant slots immediately.
func (s *MeetingService) CancelMeeting(ctx context.Context, principal Principal, meetingID string) (Meeting, error) {
	if s == nil || s.meetings == nil {
		return Meeting{}, fmt.Errorf("meeting repository not configured")
	}

	existing, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return Meeting{}, mapRepositoryError(err)
	}
	if existing.OrganizerID != principal.UserID && !principal.IsAdmin {
		return Meeting{}, ErrUnauthorized
	}
	if existing.Status == MeetingStatusCancelled {
		return existing, nil
	}

	existing.Status = MeetingStatusCancelled
	existing.UpdatedAt = s.now()

	persisted, err := s.meetings.UpdateMeeting(ctx, existing)
	if err != nil {
		return Meeting{}, mapRepositoryError(err)
	}
	return persisted, nil
}

// GetMeeting retrieves one meeting record.
func (s *MeetingService) GetMeeting(ctx context.Context, id string) (Meeting, error) {
	if s == nil || s.meetings == nil {
		return Meeting{}, fmt.Errorf("meeting repository not configured")
	}
	meeting, err := s.meetings.GetMeeting(ctx, id)
	if err != nil {
		return Meeting{}, mapRepositoryError(err)
	}
	return meeting, nil
}

// ListMeetings enumerates meetings matching the filter, ordered by start time.
func (s *MeetingService) ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error) {
	if s == nil || s.meetings == nil {
		return nil, fmt.Errorf("meeting repository not configured")
	}

	meetings, err := s.meetings.ListMeetings(ctx, filter)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, mapRepositoryError(err)
	}

	ordered := make([]Meeting, len(meetings))
	copy(ordered, meetings)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Start.Equal(ordered[j].Start) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].Start.Before(ordered[j].Start)
	})
	return ordered, nil
}

func (s *MeetingService) ensureParticipantsExist(ctx context.Context, ids []string) error {
	if s.users == nil {
		return nil
	}
	missing, err := s.users.MissingUserIDs(ctx, uniqueStrings(ids))
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}
	vErr := &ValidationError{}
	vErr.add("participants", fmt.Sprintf("unknown user ids: %s", strings.Join(missing, ", ")))
	return vErr
}

func validateMeetingCore(input MeetingInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("time", "start must be before end")
	}
	if len(input.ParticipantIDs) == 0 {
		vErr.add("participants", "at least one participant is required")
	}
	switch input.Status {
	case MeetingStatusConfirmed, MeetingStatusTentative, MeetingStatusCancelled:
	default:
		vErr.add("status", "status must be confirmed, tentative, or cancelled")
	}
}

// validateStatusTransition enforces that cancellation is terminal.
func validateStatusTransition(from, to MeetingStatus, vErr *ValidationError) {
	if from == MeetingStatusCancelled && to != MeetingStatusCancelled {
		vErr.add("status", "cancelled meetings cannot be reopened")
	}
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func sortStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}
