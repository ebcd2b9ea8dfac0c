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

// MeetingRepository implements persistence.MeetingRepository using SQLite.
// Participant rows live in meeting_participants and are written in the same
// transaction as the meeting itself.
type MeetingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewMeetingRepository creates a new SQLite meeting repository.
func NewMeetingRepository(pool *ConnectionPool) *MeetingRepository {
	return &MeetingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const meetingColumns = `id, organizer_id, title, start_time, end_time, status, created_at, updated_at`

// CreateMeeting inserts a meeting and its participant rows.
func (r *MeetingRepository) CreateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	if meeting.ID == "" {
		return persistence.ErrConstraintViolation
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO meetings (` + meetingColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := r.helper.ExecTx(tx, query,
			meeting.ID,
			meeting.OrganizerID,
			meeting.Title,
			meeting.Start.UTC().Format(time.RFC3339),
			meeting.End.UTC().Format(time.RFC3339),
			meeting.Status,
			meeting.CreatedAt.UTC().Format(time.RFC3339),
			meeting.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return err
		}
		return r.insertParticipants(tx, meeting.ID, meeting.Participants)
	})
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateMeeting rewrites a meeting record and replaces its participant set.
func (r *MeetingRepository) UpdateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	if meeting.ID == "" {
		return persistence.ErrNotFound
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE meetings
			SET organizer_id = ?, title = ?, start_time = ?, end_time = ?, status = ?, updated_at = ?
			WHERE id = ?
		`
		result, err := r.helper.ExecTx(tx, query,
			meeting.OrganizerID,
			meeting.Title,
			meeting.Start.UTC().Format(time.RFC3339),
			meeting.End.UTC().Format(time.RFC3339),
			meeting.Status,
			meeting.UpdatedAt.UTC().Format(time.RFC3339),
			meeting.ID,
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		if _, err := r.helper.ExecTx(tx, `DELETE FROM meeting_participants WHERE meeting_id = ?`, meeting.ID); err != nil {
			return err
		}
		return r.insertParticipants(tx, meeting.ID, meeting.Participants)
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.ErrNotFound
		}
		return r.mapper.MapError(err)
	}
	return nil
}

// GetMeeting retrieves a meeting by ID including its participants.
func (r *MeetingRepository) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	if id == "" {
		return persistence.Meeting{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id)
	meeting, err := r.scanMeeting(row)
	if err != nil {
		return persistence.Meeting{}, err
	}

	participants, err := r.loadParticipants(ctx, []string{meeting.ID})
	if err != nil {
		return persistence.Meeting{}, err
	}
	meeting.Participants = participants[meeting.ID]
	return meeting, nil
}

// ListMeetings returns meetings matching the filter ordered by start time.
func (r *MeetingRepository) ListMeetings(ctx context.Context, filter persistence.MeetingFilter) ([]persistence.Meeting, error) {
	query := `SELECT DISTINCT m.id, m.organizer_id, m.title, m.start_time, m.end_time, m.status, m.created_at, m.updated_at FROM meetings m`
	var conditions []string
	var args []any

	if len(filter.ParticipantIDs) > 0 {
		placeholders := strings.Repeat("?, ", len(filter.ParticipantIDs)-1) + "?"
		query += ` JOIN meeting_participants mp ON mp.meeting_id = m.id`
		conditions = append(conditions, `mp.user_id IN (`+placeholders+`)`)
		for _, id := range filter.ParticipantIDs {
			args = append(args, id)
		}
	}
	if filter.Status != "" {
		conditions = append(conditions, `m.status = ?`)
		args = append(args, filter.Status)
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, `m.start_time >= ?`)
		args = append(args, filter.StartsAfter.UTC().Format(time.RFC3339))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, `m.end_time <= ?`)
		args = append(args, filter.EndsBefore.UTC().Format(time.RFC3339))
	}
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}
	query += ` ORDER BY m.start_time, m.id`

	return r.queryMeetings(ctx, query, args...)
}

// ListConfirmedBetween returns confirmed meetings a participant belongs to
// that intersect the [from, to] window.
func (r *MeetingRepository) ListConfirmedBetween(ctx context.Context, participantID string, from, to time.Time) ([]persistence.Meeting, error) {
	query := `
		SELECT DISTINCT m.id, m.organizer_id, m.title, m.start_time, m.end_time, m.status, m.created_at, m.updated_at
		FROM meetings m
		JOIN meeting_participants mp ON mp.meeting_id = m.id
		WHERE mp.user_id = ?
			AND m.status = 'confirmed'
			AND m.start_time <= ?
			AND m.end_time >= ?
		ORDER BY m.start_time, m.id
	`
	return r.queryMeetings(ctx, query,
		participantID,
		to.UTC().Format(time.RFC3339),
		from.UTC().Format(time.RFC3339),
	)
}

// DeleteMeeting removes a meeting; participant rows cascade.
func (r *MeetingRepository) DeleteMeeting(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM meetings WHERE id = ?`, id)
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

func (r *MeetingRepository) insertParticipants(tx *sql.Tx, meetingID string, participants []string) error {
	for _, userID := range participants {
		_, err := r.helper.ExecTx(tx,
			`INSERT INTO meeting_participants (meeting_id, user_id) VALUES (?, ?)`,
			meetingID, userID,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *MeetingRepository) queryMeetings(ctx context.Context, query string, args ...any) ([]persistence.Meeting, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var meetings []persistence.Meeting
	var ids []string
	for rows.Next() {
		meeting, err := r.scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
		ids = append(ids, meeting.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(meetings) == 0 {
		return nil, nil
	}

	participants, err := r.loadParticipants(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range meetings {
		meetings[i].Participants = participants[meetings[i].ID]
	}
	return meetings, nil
}

func (r *MeetingRepository) loadParticipants(ctx context.Context, meetingIDs []string) (map[string][]string, error) {
	if len(meetingIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(meetingIDs)-1) + "?"
	args := make([]any, len(meetingIDs))
	for i, id := range meetingIDs {
		args[i] = id
	}

	rows, err := r.helper.Query(ctx,
		`SELECT meeting_id, user_id FROM meeting_participants WHERE meeting_id IN (`+placeholders+`) ORDER BY user_id`,
		args...,
	)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	participants := make(map[string][]string, len(meetingIDs))
	for rows.Next() {
		var meetingID, userID string
		if err := rows.Scan(&meetingID, &userID); err != nil {
			return nil, err
		}
		participants[meetingID] = append(participants[meetingID], userID)
	}
	return participants, rows.Err()
}

func (r *MeetingRepository) scanMeeting(row scannable) (persistence.Meeting, error) {
	var meeting persistence.Meeting
	var start, end, createdAt, updatedAt string

	err := row.Scan(
		&meeting.ID,
		&meeting.OrganizerID,
		&meeting.Title,
		&start,
		&end,
		&meeting.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Meeting{}, persistence.ErrNotFound
		}
		return persistence.Meeting{}, r.mapper.MapError(err)
	}

	if meeting.Start, err = parseStoredTime(start); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.End, err = parseStoredTime(end); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.CreatedAt, err = parseStoredTime(createdAt); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.UpdatedAt, err = parseStoredTime(updatedAt); err != nil {
		return persistence.Meeting{}, err
	}
	return meeting, nil
}
