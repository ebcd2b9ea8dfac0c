package application

import (
	"context"
	"fmt"
	"time"
)

// Shared in-memory stubs for service tests. Each stub records enough state to
// assert persistence interactions without a real database.

type userRepositoryStub struct {
	users      map[string]User
	hashes     map[string]string
	createErr  error
	updateErr  error
	listResult []User
}

func newUserRepositoryStub() *userRepositoryStub {
	return &userRepositoryStub{
		users:  make(map[string]User),
		hashes: make(map[string]string),
	}
}

func (s *userRepositoryStub) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if s.createErr != nil {
		return User{}, s.createErr
	}
	s.users[user.ID] = user
	s.hashes[user.ID] = passwordHash
	return user, nil
}

func (s *userRepositoryStub) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *userRepositoryStub) UpdateUser(ctx context.Context, user User) (User, error) {
	if s.updateErr != nil {
		return User{}, s.updateErr
	}
	if _, ok := s.users[user.ID]; !ok {
		return User{}, ErrNotFound
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *userRepositoryStub) DeleteUser(ctx context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *userRepositoryStub) ListUsers(ctx context.Context) ([]User, error) {
	if s.listResult != nil {
		return s.listResult, nil
	}
	out := make([]User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

type userDirectoryStub struct {
	known map[string]struct{}
	err   error
}

func newUserDirectoryStub(ids ...string) *userDirectoryStub {
	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	return &userDirectoryStub{known: known}
}

func (s *userDirectoryStub) MissingUserIDs(ctx context.Context, ids []string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	var missing []string
	for _, id := range ids {
		if _, ok := s.known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type meetingRepositoryStub struct {
	meetings  map[string]Meeting
	createErr error
	updateErr error
}

func newMeetingRepositoryStub() *meetingRepositoryStub {
	return &meetingRepositoryStub{meetings: make(map[string]Meeting)}
}

func (s *meetingRepositoryStub) CreateMeeting(ctx context.Context, meeting Meeting) (Meeting, error) {
	if s.createErr != nil {
		return Meeting{}, s.createErr
	}
	s.meetings[meeting.ID] = meeting
	return meeting, nil
}

func (s *meetingRepositoryStub) GetMeeting(ctx context.Context, id string) (Meeting, error) {
	meeting, ok := s.meetings[id]
	if !ok {
		return Meeting{}, ErrNotFound
	}
	return meeting, nil
}

func (s *meetingRepositoryStub) UpdateMeeting(ctx context.Context, meeting Meeting) (Meeting, error) {
	if s.updateErr != nil {
		return Meeting{}, s.updateErr
	}
	if _, ok := s.meetings[meeting.ID]; !ok {
		return Meeting{}, ErrNotFound
	}
	s.meetings[meeting.ID] = meeting
	return meeting, nil
}

func (s *meetingRepositoryStub) DeleteMeeting(ctx context.Context, id string) error {
	if _, ok := s.meetings[id]; !ok {
		return ErrNotFound
	}
	delete(s.meetings, id)
	return nil
}

func (s *meetingRepositoryStub) ListMeetings(ctx context.Context, filter MeetingFilter) ([]Meeting, error) {
	out := make([]Meeting, 0, len(s.meetings))
	for _, meeting := range s.meetings {
		out = append(out, meeting)
	}
	return out, nil
}

type snapshotSourceStub struct {
	users    []User
	meetings map[string][]Meeting
	usersErr error
}

func (s *snapshotSourceStub) GetUsers(ctx context.Context, ids []string) ([]User, error) {
	if s.usersErr != nil {
		return nil, s.usersErr
	}
	byID := make(map[string]User, len(s.users))
	for _, user := range s.users {
		byID[user.ID] = user
	}
	var out []User
	for _, id := range ids {
		if user, ok := byID[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (s *snapshotSourceStub) ListConfirmedMeetingsBetween(ctx context.Context, participantID string, from, to time.Time) ([]Meeting, error) {
	return s.meetings[participantID], nil
}

type credentialStoreStub struct {
	credentials UserCredentials
	lookupErr   error
}

func (s *credentialStoreStub) GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error) {
	if s.lookupErr != nil {
		return UserCredentials{}, s.lookupErr
	}
	return s.credentials, nil
}

func (s *credentialStoreStub) GetUser(ctx context.Context, id string) (User, error) {
	if s.credentials.User.ID != id {
		return User{}, ErrNotFound
	}
	return s.credentials.User, nil
}

type sessionRepositoryStub struct {
	sessions    map[string]Session
	deleteCalls []time.Time
	createErr   error
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{sessions: make(map[string]Session)}
}

func (s *sessionRepositoryStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionRepositoryStub) GetSession(ctx context.Context, token string) (Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (s *sessionRepositoryStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return session, nil
}

func (s *sessionRepositoryStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.deleteCalls = append(s.deleteCalls, reference)
	for token, session := range s.sessions {
		if session.ExpiresAt.Before(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

func sequentialIDs(prefix string) func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("%s-%d", prefix, next)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
