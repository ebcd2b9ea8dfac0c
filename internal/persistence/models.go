package persistence

import "time"

// AvailabilityWindow stores one declared wall-clock window for a day class.
// Times keep their "h:mm AM/PM" form; interpretation happens at evaluation
// time in the owner's timezone.
type AvailabilityWindow struct {
	Available bool
	StartTime string
	EndTime   string
}

// User represents a participant account stored in persistence.
type User struct {
	ID             string
	Email          string
	DisplayName    string
	Timezone       string
	IsAdmin        bool
	Disabled       bool
	PasswordHash   string
	WeekdayWindow  *AvailabilityWindow
	WeekendWindow  *AvailabilityWindow
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Meeting represents a meeting record and its participant set.
type Meeting struct {
	ID           string
	OrganizerID  string
	Title        string
	Start        time.Time
	End          time.Time
	Status       string
	Participants []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
