package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zyndrax/syncify-discord-bot/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const userColumns = `id, email, display_name, timezone, password_hash, is_admin, disabled,
	weekday_available, weekday_start, weekday_end,
	weekend_available, weekend_start, weekend_end,
	created_at, updated_at`

// CreateUser inserts a new user into the database.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	weekday := windowColumns(user.WeekdayWindow)
	weekend := windowColumns(user.WeekendWindow)

	_, err := r.helper.Exec(ctx, query,
		user.ID,
		normalizeEmail(user.Email),
		user.DisplayName,
		user.Timezone,
		user.PasswordHash,
		user.IsAdmin,
		user.Disabled,
		weekday.available, weekday.start, weekday.end,
		weekend.available, weekend.start, weekend.end,
		user.CreatedAt.UTC().Format(time.RFC3339),
		user.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateUser updates an existing user in the database.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE users
		SET email = ?, display_name = ?, timezone = ?, is_admin = ?, disabled = ?,
			weekday_available = ?, weekday_start = ?, weekday_end = ?,
			weekend_available = ?, weekend_start = ?, weekend_end = ?,
			updated_at = ?
		WHERE id = ?
	`

	weekday := windowColumns(user.WeekdayWindow)
	weekend := windowColumns(user.WeekendWindow)

	result, err := r.helper.Exec(ctx, query,
		normalizeEmail(user.Email),
		user.DisplayName,
		user.Timezone,
		user.IsAdmin,
		user.Disabled,
		weekday.available, weekday.start, weekday.end,
		weekend.available, weekend.start, weekend.end,
		user.UpdatedAt.UTC().Format(time.RFC3339),
		user.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetUser retrieves a user by ID from the database.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return r.scanUser(row)
}

// GetUserByEmail retrieves a user by normalized email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalized)
	return r.scanUser(row)
}

// ListUsers returns every user ordered by display name.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY display_name, id`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// MissingUserIDs returns the subset of ids without a matching user record.
func (r *UserRepository) MissingUserIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.helper.Query(ctx, `SELECT id FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	found := make(map[string]struct{}, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// DeleteUser removes a user by ID.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row scannable) (persistence.User, error) {
	var user persistence.User
	var createdAt, updatedAt string
	var weekday, weekend windowScan

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.Timezone,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.Disabled,
		&weekday.available, &weekday.start, &weekday.end,
		&weekend.available, &weekend.start, &weekend.end,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, r.mapper.MapError(err)
	}

	user.WeekdayWindow = weekday.window()
	user.WeekendWindow = weekend.window()

	if user.CreatedAt, err = parseStoredTime(createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseStoredTime(updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

type windowScan struct {
	available bool
	start     sql.NullString
	end       sql.NullString
}

func (w windowScan) window() *persistence.AvailabilityWindow {
	if !w.available && !w.start.Valid && !w.end.Valid {
		return nil
	}
	return &persistence.AvailabilityWindow{
		Available: w.available,
		StartTime: w.start.String,
		EndTime:   w.end.String,
	}
}

type windowValues struct {
	available bool
	start     sql.NullString
	end       sql.NullString
}

func windowColumns(window *persistence.AvailabilityWindow) windowValues {
	if window == nil {
		return windowValues{}
	}
	values := windowValues{available: window.Available}
	if window.StartTime != "" {
		values.start = sql.NullString{String: window.StartTime, Valid: true}
	}
	if window.EndTime != "" {
		values.end = sql.NullString{String: window.EndTime, Valid: true}
	}
	return values
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func parseStoredTime(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored timestamp %q: %w", value, err)
	}
	return parsed, nil
}
