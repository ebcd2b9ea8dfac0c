package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Zyndrax/syncify-discord-bot/internal/availability"
)

// SnapshotSource loads the read-only data a slot search needs: participant
// records and their confirmed bookings inside the search range. Snapshots are
// read fresh for every search; bookings can change between requests.
type SnapshotSource interface {
	GetUsers(ctx context.Context, ids []string) ([]User, error)
	ListConfirmedMeetingsBetween(ctx context.Context, participantID string, from, to time.Time) ([]Meeting, error)
}

// SlotService runs the group availability search: it snapshots every
// participant's timezone, pattern, and confirmed bookings, then intersects
// generated candidate slots across the whole group.
type SlotService struct {
	source SnapshotSource
	engine *availability.Engine
	logger *slog.Logger
}

// NewSlotService wires dependencies for slot searches. A nil engine gets the
// default UTC generation context and work bound.
func NewSlotService(source SnapshotSource, engine *availability.Engine) *SlotService {
	return NewSlotServiceWithLogger(source, engine, nil)
}

// NewSlotServiceWithLogger constructs a SlotService with a specified logger.
func NewSlotServiceWithLogger(source SnapshotSource, engine *availability.Engine, logger *slog.Logger) *SlotService {
	if engine == nil {
		engine = availability.NewEngine(nil, 0)
	}
	return &SlotService{source: source, engine: engine, logger: defaultLogger(logger)}
}

// FindSlots returns every candidate range of the requested duration where all
// named participants are simultaneously free. An empty participant list
// yields an empty result; a malformed date range fails the whole request.
func (s *SlotService) FindSlots(ctx context.Context, query SlotQuery) ([]Slot, error) {
	if s == nil {
		return nil, fmt.Errorf("SlotService is nil")
	}

	logger := serviceLogger(ctx, s.logger, "SlotService", "FindSlots",
		"participants", len(query.ParticipantIDs),
		"duration", query.Duration,
	)

	vErr := &ValidationError{}
	if query.From.IsZero() {
		vErr.add("from", "from is required")
	}
	if query.To.IsZero() {
		vErr.add("to", "to is required")
	}
	if query.Duration <= 0 {
		vErr.add("duration", "duration must be positive")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	if query.To.Before(query.From) {
		return nil, ErrInvalidDateRange
	}

	participantIDs := uniqueStrings(query.ParticipantIDs)
	if len(participantIDs) == 0 {
		return nil, nil
	}
	if s.source == nil {
		return nil, fmt.Errorf("snapshot source not configured")
	}

	owners, err := s.loadOwners(ctx, participantIDs, query.From, query.To)
	if err != nil {
		return nil, err
	}

	ranges, err := s.engine.FindSlots(owners, query.From, query.To, query.Duration)
	if err != nil {
		if errors.Is(err, availability.ErrInvalidDateRange) {
			return nil, ErrInvalidDateRange
		}
		logger.ErrorContext(ctx, "slot search failed", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	slots := make([]Slot, 0, len(ranges))
	for _, r := range ranges {
		slots = append(slots, Slot{Start: r.Start, End: r.End})
	}

	logger.InfoContext(ctx, "slot search completed", "slots", len(slots))
	return slots, nil
}

// loadOwners assembles one availability snapshot per participant.
func (s *SlotService) loadOwners(ctx context.Context, ids []string, from, to time.Time) ([]availability.Owner, error) {
	users, err := s.source.GetUsers(ctx, ids)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	byID := make(map[string]User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}

	missing := make([]string, 0)
	owners := make([]availability.Owner, 0, len(ids))
	for _, id := range ids {
		user, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}

		booked, err := s.loadBookedRanges(ctx, id, from, to)
		if err != nil {
			return nil, err
		}

		owners = append(owners, availability.Owner{
			ID:       user.ID,
			Timezone: user.Timezone,
			Pattern:  user.Availability,
			Booked:   booked,
		})
	}

	if len(missing) > 0 {
		vErr := &ValidationError{}
		vErr.add("participants", fmt.Sprintf("unknown user ids: %s", strings.Join(missing, ", ")))
		return nil, vErr
	}
	return owners, nil
}

// loadBookedRanges collects the confirmed meetings that block slots for one
// participant. The repository pre-filters on status; tentative and cancelled
// meetings never reach the engine.
func (s *SlotService) loadBookedRanges(ctx context.Context, participantID string, from, to time.Time) ([]availability.Range, error) {
	// Widen the fetch window by a day on both sides so bookings straddling
	// the range edges still count against edge slots.
	meetings, err := s.source.ListConfirmedMeetingsBetween(ctx, participantID, from.AddDate(0, 0, -1), to.AddDate(0, 0, 1))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, mapRepositoryError(err)
	}

	booked := make([]availability.Range, 0, len(meetings))
	for _, meeting := range meetings {
		if meeting.Status != MeetingStatusConfirmed {
			continue
		}
		booked = append(booked, availability.Range{Start: meeting.Start, End: meeting.End})
	}
	return booked, nil
}
