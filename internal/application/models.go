package application

import (
	"time"

	"github.com/Zyndrax/syncify-discord-bot/internal/availability"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email        string
	DisplayName  string
	Timezone     string
	IsAdmin      bool
	Availability availability.Pattern
}

// User represents a participant account exposed by the application services.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Timezone     string
	IsAdmin      bool
	Availability availability.Pattern
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
	Password  string
}

// UpdateUserParams wraps the data required to update an existing user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// MeetingStatus enumerates the lifecycle states of a meeting record.
type MeetingStatus string

const (
	// MeetingStatusConfirmed marks a meeting that blocks participant slots.
	MeetingStatusConfirmed MeetingStatus = "confirmed"
	// MeetingStatusTentative marks a proposed meeting that never blocks slots.
	MeetingStatusTentative MeetingStatus = "tentative"
	// MeetingStatusCancelled marks a terminally cancelled meeting.
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// MeetingInput captures caller provided meeting fields.
type MeetingInput struct {
	OrganizerID    string
	Title          string
	Start          time.Time
	End            time.Time
	Status         MeetingStatus
	ParticipantIDs []string
}

// Meeting represents a persisted meeting.
type Meeting struct {
	ID             string
	OrganizerID    string
	Title          string
	Start          time.Time
	End            time.Time
	Status         MeetingStatus
	ParticipantIDs []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateMeetingParams wraps the data required to create a meeting.
type CreateMeetingParams struct {
	Principal Principal
	Input     MeetingInput
}

// UpdateMeetingParams wraps the data required to update an existing meeting.
type UpdateMeetingParams struct {
	Principal Principal
	MeetingID string
	Input     MeetingInput
}

// SlotQuery describes one availability search across a participant group.
type SlotQuery struct {
	ParticipantIDs []string
	From           time.Time
	To             time.Time
	Duration       time.Duration
}

// Slot is one candidate meeting range every participant can attend.
type Slot struct {
	Start time.Time
	End   time.Time
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
	Disabled     bool
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}
