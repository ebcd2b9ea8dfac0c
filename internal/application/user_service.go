package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Zyndrax/syncify-discord-bot/internal/availability"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)
}

// UserService orchestrates validation, authorization, and persistence for
// participant accounts, including their timezone and availability pattern.
type UserService struct {
	users       UserRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, idGenerator, now, nil)
}

// NewUserServiceWithLogger constructs a UserService with a specified logger.
func NewUserServiceWithLogger(users UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// CreateUser validates input and persists a new user for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if !params.Principal.IsAdmin {
		return User{}, ErrUnauthorized
	}

	logger := serviceLogger(ctx, s.logger, "UserService", "CreateUser")

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized)
	if strings.TrimSpace(params.Password) == "" {
		vErr.add("password", "password is required")
	}
	if vErr.HasErrors() {
		return User{}, vErr
	}

	passwordHash, err := HashPassword(params.Password)
	if err != nil {
		return User{}, err
	}

	createdAt := s.now()
	user := User{
		ID:           s.idGenerator(),
		Email:        normalized.Email,
		DisplayName:  normalized.DisplayName,
		Timezone:     normalized.Timezone,
		IsAdmin:      normalized.IsAdmin,
		Availability: normalized.Availability,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	if s.users == nil {
		return user, nil
	}

	persisted, err := s.users.CreateUser(ctx, user, passwordHash)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
		return User{}, err
	}

	logger.InfoContext(ctx, "user created", "user_id", persisted.ID)
	return persisted, nil
}

// UpdateUser validates input and updates an existing user. Users may update
// their own record; administrators may update anyone.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	if params.UserID != params.Principal.UserID && !params.Principal.IsAdmin {
		return User{}, ErrUnauthorized
	}

	existing, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return User{}, mapRepositoryError(err)
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized)
	if normalized.IsAdmin != existing.IsAdmin && !params.Principal.IsAdmin {
		vErr.add("is_admin", "only administrators can change the admin flag")
	}
	if vErr.HasErrors() {
		return User{}, vErr
	}

	updated := existing
	updated.Email = normalized.Email
	updated.DisplayName = normalized.DisplayName
	updated.Timezone = normalized.Timezone
	updated.IsAdmin = normalized.IsAdmin
	updated.Availability = normalized.Availability
	updated.UpdatedAt = s.now()

	persisted, err := s.users.UpdateUser(ctx, updated)
	if err != nil {
		return User{}, mapRepositoryError(err)
	}
	return persisted, nil
}

// GetUser retrieves one user record.
func (s *UserService) GetUser(ctx context.Context, id string) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return User{}, mapRepositoryError(err)
	}
	return user, nil
}

// DeleteUser removes a user when requested by an administrator.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil || s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

// ListUsers enumerates every participant account.
func (s *UserService) ListUsers(ctx context.Context) ([]User, error) {
	if s == nil || s.users == nil {
		return nil, fmt.Errorf("user repository not configured")
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return users, nil
}

func normalizeUserInput(input UserInput) UserInput {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.Timezone = strings.TrimSpace(input.Timezone)
	return input
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "must be a valid email address")
	}

	if input.DisplayName == "" {
		vErr.add("display_name", "display name is required")
	}

	loc := validateTimezone(input.Timezone, vErr)
	if loc != nil {
		validateWindow("availability.weekdays", input.Availability.Weekdays, loc, vErr)
		validateWindow("availability.weekends", input.Availability.Weekends, loc, vErr)
	}

	return vErr
}

func validateTimezone(name string, vErr *ValidationError) *time.Location {
	if name == "" {
		vErr.add("timezone", "timezone is required")
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		vErr.add("timezone", "must be a recognized IANA timezone identifier")
		return nil
	}
	return loc
}

// validateWindow checks that a declared window parses and opens strictly
// before it closes within the same local day. Overnight windows are rejected.
func validateWindow(field string, window *availability.Window, loc *time.Location, vErr *ValidationError) {
	if window == nil || !window.Available {
		return
	}
	if window.Start == "" || window.End == "" {
		vErr.add(field, "available windows need both start and end times")
		return
	}

	reference := time.Date(2000, time.January, 3, 0, 0, 0, 0, loc)
	open, err := availability.InstantRangeOn(reference, window.Start, window.End, loc)
	if err != nil {
		if errors.Is(err, availability.ErrInvalidTimeFormat) {
			vErr.add(field, "times must use the h:mm AM/PM form")
			return
		}
		vErr.add(field, "window could not be interpreted")
		return
	}
	if !open.Start.Before(open.End) {
		vErr.add(field, "start must be before end within the same day")
	}
}
