package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Zyndrax/syncify-discord-bot/internal/application"
	"github.com/Zyndrax/syncify-discord-bot/internal/availability"
	"github.com/Zyndrax/syncify-discord-bot/internal/persistence"
)

var (
	userCounter    uint64
	meetingCounter uint64
	sessionCounter uint64
)

// referenceTime is a Monday so weekday availability patterns apply to it.
var referenceTime = time.Date(2025, time.June, 9, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// BusinessHoursWindow returns the default nine-to-five wall-clock window.
func BusinessHoursWindow() *availability.Window {
	return &availability.Window{Available: true, Start: "9:00 AM", End: "5:00 PM"}
}

// WeekdayBusinessHours returns a pattern available on weekdays only.
func WeekdayBusinessHours() availability.Pattern {
	return availability.Pattern{Weekdays: BusinessHoursWindow()}
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic participant account that can be
// materialised for application or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	Timezone     string
	IsAdmin      bool
	Disabled     bool
	PasswordHash string
	Availability availability.Pattern
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
// The default account lives in UTC and is available on weekdays from nine to
// five.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		Timezone:     "UTC",
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Availability: WeekdayBusinessHours(),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserTimezone overrides the account timezone.
func WithUserTimezone(timezone string) UserOption {
	return func(f *UserFixture) {
		f.Timezone = timezone
	}
}

// WithUserAvailability overrides the declared availability pattern.
func WithUserAvailability(pattern availability.Pattern) UserOption {
	return func(f *UserFixture) {
		f.Availability = pattern
	}
}

// WithUserAdmin sets the admin flag on the generated fixture.
func WithUserAdmin(isAdmin bool) UserOption {
	return func(f *UserFixture) {
		f.IsAdmin = isAdmin
	}
}

// WithUserDisabled marks the account as disabled for login.
func WithUserDisabled(disabled bool) UserOption {
	return func(f *UserFixture) {
		f.Disabled = disabled
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserTimestamps sets both created and updated timestamps on the fixture.
func WithUserTimestamps(created, updated time.Time) UserOption {
	return func(f *UserFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		Timezone:     f.Timezone,
		IsAdmin:      f.IsAdmin,
		Availability: f.Availability,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{
		User:         f.Application(),
		PasswordHash: f.PasswordHash,
		Disabled:     f.Disabled,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, IsAdmin: f.IsAdmin}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:            f.ID,
		Email:         f.Email,
		DisplayName:   f.DisplayName,
		Timezone:      f.Timezone,
		IsAdmin:       f.IsAdmin,
		Disabled:      f.Disabled,
		PasswordHash:  f.PasswordHash,
		WeekdayWindow: toPersistenceWindow(f.Availability.Weekdays),
		WeekendWindow: toPersistenceWindow(f.Availability.Weekends),
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Input returns the fixture as an application.UserInput.
func (f UserFixture) Input() application.UserInput {
	return application.UserInput{
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		Timezone:     f.Timezone,
		IsAdmin:      f.IsAdmin,
		Availability: f.Availability,
	}
}

func toPersistenceWindow(window *availability.Window) *persistence.AvailabilityWindow {
	if window == nil {
		return nil
	}
	return &persistence.AvailabilityWindow{
		Available: window.Available,
		StartTime: window.Start,
		EndTime:   window.End,
	}
}

// ---------------------------- Meeting fixtures ----------------------------

// MeetingFixture represents a deterministic meeting record.
type MeetingFixture struct {
	ID           string
	OrganizerID  string
	Title        string
	Start        time.Time
	End          time.Time
	Status       application.MeetingStatus
	Participants []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MeetingOption configures the generated meeting fixture.
type MeetingOption func(*MeetingFixture)

// NewMeetingFixture returns a deterministic hour-long confirmed meeting.
// Consecutive fixtures are staggered by a day so they never conflict with
// each other by accident.
func NewMeetingFixture(opts ...MeetingOption) MeetingFixture {
	idx := atomic.AddUint64(&meetingCounter, 1)
	id := fmt.Sprintf("meeting-%03d", idx)
	start := referenceTime.AddDate(0, 0, int(idx-1)).Add(time.Hour)
	fixture := MeetingFixture{
		ID:           id,
		OrganizerID:  "user-001",
		Title:        fmt.Sprintf("Meeting %03d", idx),
		Start:        start,
		End:          start.Add(time.Hour),
		Status:       application.MeetingStatusConfirmed,
		Participants: []string{"user-001"},
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMeetingID overrides the generated meeting ID.
func WithMeetingID(id string) MeetingOption {
	return func(f *MeetingFixture) {
		f.ID = id
	}
}

// WithMeetingOrganizer sets the organizer and ensures they participate.
func WithMeetingOrganizer(userID string) MeetingOption {
	return func(f *MeetingFixture) {
		f.OrganizerID = userID
		for _, participant := range f.Participants {
			if participant == userID {
				return
			}
		}
		f.Participants = append(f.Participants, userID)
	}
}

// WithMeetingTitle overrides the generated title.
func WithMeetingTitle(title string) MeetingOption {
	return func(f *MeetingFixture) {
		f.Title = title
	}
}

// WithMeetingTimes sets the start and end instants.
func WithMeetingTimes(start, end time.Time) MeetingOption {
	return func(f *MeetingFixture) {
		f.Start = start
		f.End = end
	}
}

// WithMeetingStatus overrides the meeting status.
func WithMeetingStatus(status application.MeetingStatus) MeetingOption {
	return func(f *MeetingFixture) {
		f.Status = status
	}
}

// WithMeetingParticipants replaces the participant list.
func WithMeetingParticipants(ids ...string) MeetingOption {
	return func(f *MeetingFixture) {
		f.Participants = append([]string(nil), ids...)
	}
}

// Application returns the fixture as an application.Meeting value.
func (f MeetingFixture) Application() application.Meeting {
	return application.Meeting{
		ID:             f.ID,
		OrganizerID:    f.OrganizerID,
		Title:          f.Title,
		Start:          f.Start,
		End:            f.End,
		Status:         f.Status,
		ParticipantIDs: append([]string(nil), f.Participants...),
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Meeting value.
func (f MeetingFixture) Persistence() persistence.Meeting {
	return persistence.Meeting{
		ID:           f.ID,
		OrganizerID:  f.OrganizerID,
		Title:        f.Title,
		Start:        f.Start,
		End:          f.End,
		Status:       string(f.Status),
		Participants: append([]string(nil), f.Participants...),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Input returns the fixture as an application.MeetingInput.
func (f MeetingFixture) Input() application.MeetingInput {
	return application.MeetingInput{
		OrganizerID:    f.OrganizerID,
		Title:          f.Title,
		Start:          f.Start,
		End:            f.End,
		Status:         f.Status,
		ParticipantIDs: append([]string(nil), f.Participants...),
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic authentication session.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic live session fixture.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    "user-001",
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: referenceTime.Add(24 * time.Hour),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUser sets the owning user.
func WithSessionUser(userID string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = userID
	}
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiry sets the expiry instant.
func WithSessionExpiry(expiresAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = expiresAt
	}
}

// WithSessionRevoked marks the session as revoked at the given instant.
func WithSessionRevoked(revokedAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.RevokedAt = &revokedAt
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: cloneTime(f.RevokedAt),
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: cloneTime(f.RevokedAt),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
