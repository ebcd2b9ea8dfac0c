package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Zyndrax/syncify-discord-bot/internal/application"
	"github.com/Zyndrax/syncify-discord-bot/internal/availability"
)

type authServiceStub struct {
	authenticateResult application.AuthenticateResult
	authenticateErr    error
	revokeErr          error
	revokedTokens      []string
}

func (s *authServiceStub) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	if s.authenticateErr != nil {
		return application.AuthenticateResult{}, s.authenticateErr
	}
	return s.authenticateResult, nil
}

func (s *authServiceStub) RevokeSession(ctx context.Context, token string) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.revokedTokens = append(s.revokedTokens, token)
	return nil
}

type userServiceStub struct {
	createFunc func(ctx context.Context, params application.CreateUserParams) (application.User, error)
	updateFunc func(ctx context.Context, params application.UpdateUserParams) (application.User, error)
	getFunc    func(ctx context.Context, id string) (application.User, error)
	deleteFunc func(ctx context.Context, principal application.Principal, userID string) error
	listFunc   func(ctx context.Context) ([]application.User, error)
}

func (s *userServiceStub) CreateUser(ctx context.Context, params application.CreateUserParams) (application.User, error) {
	return s.createFunc(ctx, params)
}

func (s *userServiceStub) UpdateUser(ctx context.Context, params application.UpdateUserParams) (application.User, error) {
	return s.updateFunc(ctx, params)
}

func (s *userServiceStub) GetUser(ctx context.Context, id string) (application.User, error) {
	return s.getFunc(ctx, id)
}

func (s *userServiceStub) DeleteUser(ctx context.Context, principal application.Principal, userID string) error {
	return s.deleteFunc(ctx, principal, userID)
}

func (s *userServiceStub) ListUsers(ctx context.Context) ([]application.User, error) {
	return s.listFunc(ctx)
}

type meetingServiceStub struct {
	createFunc func(ctx context.Context, params application.CreateMeetingParams) (application.Meeting, error)
	updateFunc func(ctx context.Context, params application.UpdateMeetingParams) (application.Meeting, error)
	cancelFunc func(ctx context.Context, principal application.Principal, meetingID string) (application.Meeting, error)
	getFunc    func(ctx context.Context, id string) (application.Meeting, error)
	listFunc   func(ctx context.Context, filter application.MeetingFilter) ([]application.Meeting, error)
}

func (s *meetingServiceStub) CreateMeeting(ctx context.Context, params application.CreateMeetingParams) (application.Meeting, error) {
	return s.createFunc(ctx, params)
}

func (s *meetingServiceStub) UpdateMeeting(ctx context.Context, params application.UpdateMeetingParams) (application.Meeting, error) {
	return s.updateFunc(ctx, params)
}

func (s *meetingServiceStub) CancelMeeting(ctx context.Context, principal application.Principal, meetingID string) (application.Meeting, error) {
	return s.cancelFunc(ctx, principal, meetingID)
}

func (s *meetingServiceStub) GetMeeting(ctx context.Context, id string) (application.Meeting, error) {
	return s.getFunc(ctx, id)
}

func (s *meetingServiceStub) ListMeetings(ctx context.Context, filter application.MeetingFilter) ([]application.Meeting, error) {
	return s.listFunc(ctx, filter)
}

type slotServiceStub struct {
	lastQuery application.SlotQuery
	slots     []application.Slot
	err       error
}

func (s *slotServiceStub) FindSlots(ctx context.Context, query application.SlotQuery) ([]application.Slot, error) {
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return s.slots, nil
}

type flowServiceStub struct {
	request application.SchedulingRequest
	meeting application.Meeting
	err     error

	lastRequestID    string
	lastParticipants []string
	lastFrom, lastTo time.Time
	lastIndex        int
}

func (s *flowServiceStub) StartRequest(ctx context.Context, principal application.Principal, title string, duration time.Duration) (application.SchedulingRequest, error) {
	if s.err != nil {
		return application.SchedulingRequest{}, s.err
	}
	request := s.request
	request.Title = title
	request.Duration = duration
	request.OrganizerID = principal.UserID
	return request, nil
}

func (s *flowServiceStub) SetParticipants(ctx context.Context, principal application.Principal, requestID string, participantIDs []string) (application.SchedulingRequest, error) {
	s.lastRequestID = requestID
	s.lastParticipants = participantIDs
	if s.err != nil {
		return application.SchedulingRequest{}, s.err
	}
	return s.request, nil
}

func (s *flowServiceStub) SetDateRange(ctx context.Context, principal application.Principal, requestID string, from, to time.Time) (application.SchedulingRequest, error) {
	s.lastRequestID = requestID
	s.lastFrom, s.lastTo = from, to
	if s.err != nil {
		return application.SchedulingRequest{}, s.err
	}
	return s.request, nil
}

func (s *flowServiceStub) SelectSlot(ctx context.Context, principal application.Principal, requestID string, index int) (application.SchedulingRequest, error) {
	s.lastRequestID = requestID
	s.lastIndex = index
	if s.err != nil {
		return application.SchedulingRequest{}, s.err
	}
	return s.request, nil
}

func (s *flowServiceStub) Confirm(ctx context.Context, principal application.Principal, requestID string) (application.SchedulingRequest, application.Meeting, error) {
	s.lastRequestID = requestID
	if s.err != nil {
		return application.SchedulingRequest{}, application.Meeting{}, s.err
	}
	return s.request, s.meeting, nil
}

func (s *flowServiceStub) Cancel(ctx context.Context, principal application.Principal, requestID string) (application.SchedulingRequest, error) {
	s.lastRequestID = requestID
	if s.err != nil {
		return application.SchedulingRequest{}, s.err
	}
	return s.request, nil
}

func (s *flowServiceStub) GetRequest(ctx context.Context, principal application.Principal, requestID string) (application.SchedulingRequest, error) {
	s.lastRequestID = requestID
	if s.err != nil {
		return application.SchedulingRequest{}, s.err
	}
	return s.request, nil
}

// withPrincipal attaches a fixed principal the way the session middleware
// would after validating a token.
func withPrincipal(principal application.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(recorder.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response body %q: %v", recorder.Body.String(), err)
	}
}

func TestAuthHandler(t *testing.T) {
	t.Parallel()

	expires := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)

	t.Run("login issues session token via cookie and header", func(t *testing.T) {
		t.Parallel()

		service := &authServiceStub{authenticateResult: application.AuthenticateResult{
			User:    application.User{ID: "user-1", Email: "alice@example.com"},
			Session: application.Session{Token: "token-1", ExpiresAt: expires},
		}}
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

		recorder := doJSON(t, router, http.MethodPost, "/sessions", map[string]string{
			"email":    "Alice@Example.com",
			"password": "correct horse",
		})

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if got := recorder.Header().Get("X-Session-Token"); got != "token-1" {
			t.Errorf("expected session token header, got %q", got)
		}

		var sessionCookie *http.Cookie
		for _, cookie := range recorder.Result().Cookies() {
			if cookie.Name == "session_token" {
				sessionCookie = cookie
			}
		}
		if sessionCookie == nil || sessionCookie.Value != "token-1" {
			t.Fatalf("expected session_token cookie, got %v", sessionCookie)
		}
		if !sessionCookie.HttpOnly {
			t.Error("expected session cookie to be http-only")
		}

		var payload loginResponse
		decodeResponse(t, recorder, &payload)
		if payload.Token != "token-1" {
			t.Errorf("expected token in body, got %q", payload.Token)
		}
		if payload.ExpiresAt != expires.Format(time.RFC3339Nano) {
			t.Errorf("expected expiry %q, got %q", expires.Format(time.RFC3339Nano), payload.ExpiresAt)
		}
	})

	t.Run("login rejects invalid credentials", func(t *testing.T) {
		t.Parallel()

		service := &authServiceStub{authenticateErr: application.ErrInvalidCredentials}
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

		recorder := doJSON(t, router, http.MethodPost, "/sessions", map[string]string{
			"email":    "alice@example.com",
			"password": "wrong",
		})

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", recorder.Code)
		}
		var payload errorResponse
		decodeResponse(t, recorder, &payload)
		if payload.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
			t.Errorf("expected AUTH_INVALID_CREDENTIALS, got %q", payload.ErrorCode)
		}
	})

	t.Run("login rejects malformed body", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Auth: NewAuthHandler(&authServiceStub{}, nil)})

		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader("{not json"))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", recorder.Code)
		}
	})

	t.Run("logout revokes the current session", func(t *testing.T) {
		t.Parallel()

		service := &authServiceStub{}
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

		req := httptest.NewRequest(http.MethodDelete, "/sessions/current", nil)
		req.Header.Set("Authorization", "Bearer token-9")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if len(service.revokedTokens) != 1 || service.revokedTokens[0] != "token-9" {
			t.Errorf("expected token-9 to be revoked, got %v", service.revokedTokens)
		}
	})

	t.Run("logout without a token returns 401", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Auth: NewAuthHandler(&authServiceStub{}, nil)})

		recorder := doJSON(t, router, http.MethodDelete, "/sessions/current", nil)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", recorder.Code)
		}
	})

	t.Run("administrators revoke arbitrary sessions", func(t *testing.T) {
		t.Parallel()

		service := &authServiceStub{}
		router := NewRouter(RouterConfig{
			Auth:       NewAuthHandler(service, nil),
			Middleware: []func(http.Handler) http.Handler{withPrincipal(application.Principal{UserID: "admin-1", IsAdmin: true})},
		})

		recorder := doJSON(t, router, http.MethodDelete, "/sessions/token-7", nil)
		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if len(service.revokedTokens) != 1 || service.revokedTokens[0] != "token-7" {
			t.Errorf("expected token-7 to be revoked, got %v", service.revokedTokens)
		}
	})

	t.Run("non-administrators cannot revoke arbitrary sessions", func(t *testing.T) {
		t.Parallel()

		service := &authServiceStub{}
		router := NewRouter(RouterConfig{
			Auth:       NewAuthHandler(service, nil),
			Middleware: []func(http.Handler) http.Handler{withPrincipal(application.Principal{UserID: "user-1"})},
		})

		recorder := doJSON(t, router, http.MethodDelete, "/sessions/token-7", nil)
		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", recorder.Code)
		}
		if len(service.revokedTokens) != 0 {
			t.Errorf("expected no revocation, got %v", service.revokedTokens)
		}
	})
}

func TestUserHandler(t *testing.T) {
	t.Parallel()

	admin := application.Principal{UserID: "admin-1", IsAdmin: true}
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	sampleUser := application.User{
		ID:          "user-1",
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Timezone:    "America/New_York",
		Availability: availability.Pattern{
			Weekdays: &availability.Window{Available: true, Start: "9:00 AM", End: "5:00 PM"},
		},
		CreatedAt: created,
		UpdatedAt: created,
	}

	newRouter := func(service userService, principal application.Principal) http.Handler {
		return NewRouter(RouterConfig{
			Users:      NewUserHandler(service, nil),
			Middleware: []func(http.Handler) http.Handler{withPrincipal(principal)},
		})
	}

	t.Run("create returns the persisted user", func(t *testing.T) {
		t.Parallel()

		var captured application.CreateUserParams
		service := &userServiceStub{createFunc: func(ctx context.Context, params application.CreateUserParams) (application.User, error) {
			captured = params
			return sampleUser, nil
		}}
		router := newRouter(service, admin)

		recorder := doJSON(t, router, http.MethodPost, "/users", map[string]any{
			"email":        "alice@example.com",
			"display_name": "Alice",
			"timezone":     "America/New_York",
			"password":     "hunter2 hunter2",
			"weekdays":     map[string]any{"available": true, "start": "9:00 AM", "end": "5:00 PM"},
		})

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if captured.Principal != admin {
			t.Errorf("expected admin principal, got %+v", captured.Principal)
		}
		if captured.Input.Email != "alice@example.com" || captured.Password != "hunter2 hunter2" {
			t.Errorf("unexpected params %+v", captured)
		}
		if captured.Input.Availability.Weekdays == nil || captured.Input.Availability.Weekdays.Start != "9:00 AM" {
			t.Errorf("expected weekday window to reach the service, got %+v", captured.Input.Availability)
		}

		var payload userResponse
		decodeResponse(t, recorder, &payload)
		if payload.User.ID != "user-1" || payload.User.Timezone != "America/New_York" {
			t.Errorf("unexpected user payload %+v", payload.User)
		}
		if payload.User.Weekdays == nil || payload.User.Weekdays.End != "5:00 PM" {
			t.Errorf("expected weekday window in payload, got %+v", payload.User.Weekdays)
		}
	})

	t.Run("create maps validation failures to 422", func(t *testing.T) {
		t.Parallel()

		service := &userServiceStub{createFunc: func(ctx context.Context, params application.CreateUserParams) (application.User, error) {
			return application.User{}, &application.ValidationError{FieldErrors: map[string]string{"timezone": "unknown timezone"}}
		}}
		router := newRouter(service, admin)

		recorder := doJSON(t, router, http.MethodPost, "/users", map[string]any{"email": "x@example.com"})
		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d", recorder.Code)
		}
		var payload errorResponse
		decodeResponse(t, recorder, &payload)
		if payload.Errors["timezone"] != "unknown timezone" {
			t.Errorf("expected field error, got %v", payload.Errors)
		}
	})

	t.Run("create by a non-administrator returns 403", func(t *testing.T) {
		t.Parallel()

		service := &userServiceStub{createFunc: func(ctx context.Context, params application.CreateUserParams) (application.User, error) {
			return application.User{}, application.ErrUnauthorized
		}}
		router := newRouter(service, application.Principal{UserID: "user-2"})

		recorder := doJSON(t, router, http.MethodPost, "/users", map[string]any{"email": "x@example.com"})
		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", recorder.Code)
		}
		var payload errorResponse
		decodeResponse(t, recorder, &payload)
		if payload.ErrorCode != "AUTH_FORBIDDEN" {
			t.Errorf("expected AUTH_FORBIDDEN, got %q", payload.ErrorCode)
		}
	})

	t.Run("get returns 404 for unknown users", func(t *testing.T) {
		t.Parallel()

		service := &userServiceStub{getFunc: func(ctx context.Context, id string) (application.User, error) {
			return application.User{}, application.ErrNotFound
		}}
		router := newRouter(service, admin)

		recorder := doJSON(t, router, http.MethodGet, "/users/ghost", nil)
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", recorder.Code)
		}
	})

	t.Run("update passes the path identifier to the service", func(t *testing.T) {
		t.Parallel()

		var captured application.UpdateUserParams
		service := &userServiceStub{updateFunc: func(ctx context.Context, params application.UpdateUserParams) (application.User, error) {
			captured = params
			return sampleUser, nil
		}}
		router := newRouter(service, admin)

		recorder := doJSON(t, router, http.MethodPut, "/users/user-1", map[string]any{
			"email":        "alice@example.com",
			"display_name": "Alice B",
			"timezone":     "America/New_York",
		})

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if captured.UserID != "user-1" || captured.Input.DisplayName != "Alice B" {
			t.Errorf("unexpected params %+v", captured)
		}
	})

	t.Run("delete responds with 204", func(t *testing.T) {
		t.Parallel()

		var deletedID string
		service := &userServiceStub{deleteFunc: func(ctx context.Context, principal application.Principal, userID string) error {
			deletedID = userID
			return nil
		}}
		router := newRouter(service, admin)

		recorder := doJSON(t, router, http.MethodDelete, "/users/user-1", nil)
		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", recorder.Code)
		}
		if deletedID != "user-1" {
			t.Errorf("expected user-1 to be deleted, got %q", deletedID)
		}
	})

	t.Run("list returns all users", func(t *testing.T) {
		t.Parallel()

		service := &userServiceStub{listFunc: func(ctx context.Context) ([]application.User, error) {
			return []application.User{sampleUser}, nil
		}}
		router := newRouter(service, application.Principal{UserID: "user-2"})

		recorder := doJSON(t, router, http.MethodGet, "/users", nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		var payload listUsersResponse
		decodeResponse(t, recorder, &payload)
		if len(payload.Users) != 1 || payload.Users[0].Email != "alice@example.com" {
			t.Errorf("unexpected payload %+v", payload.Users)
		}
	})

	t.Run("unsupported methods return 405 with an Allow header", func(t *testing.T) {
		t.Parallel()

		router := newRouter(&userServiceStub{}, admin)

		recorder := doJSON(t, router, http.MethodPatch, "/users", nil)
		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", recorder.Code)
		}
		if allow := recorder.Header().Get("Allow"); !strings.Contains(allow, http.MethodPost) {
			t.Errorf("expected Allow header to list POST, got %q", allow)
		}
	})
}

func TestMeetingHandler(t *testing.T) {
	t.Parallel()

	organizer := application.Principal{UserID: "user-1"}
	start := time.Date(2025, 6, 9, 13, 0, 0, 0, time.UTC)

	sampleMeeting := application.Meeting{
		ID:             "meeting-1",
		OrganizerID:    "user-1",
		Title:          "Design review",
		Start:          start,
		End:            start.Add(time.Hour),
		Status:         application.MeetingStatusConfirmed,
		ParticipantIDs: []string{"user-1", "user-2"},
		CreatedAt:      start,
		UpdatedAt:      start,
	}

	newRouter := func(service meetingService) http.Handler {
		return NewRouter(RouterConfig{
			Meetings:   NewMeetingHandler(service, nil),
			Middleware: []func(http.Handler) http.Handler{withPrincipal(organizer)},
		})
	}

	t.Run("create returns the persisted meeting", func(t *testing.T) {
		t.Parallel()

		var captured application.CreateMeetingParams
		service := &meetingServiceStub{createFunc: func(ctx context.Context, params application.CreateMeetingParams) (application.Meeting, error) {
			captured = params
			return sampleMeeting, nil
		}}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodPost, "/meetings", map[string]any{
			"title":        "Design review",
			"start":        start.Format(time.RFC3339),
			"end":          start.Add(time.Hour).Format(time.RFC3339),
			"participants": []string{"user-2"},
		})

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if !captured.Input.Start.Equal(start) {
			t.Errorf("expected start %v, got %v", start, captured.Input.Start)
		}
		if captured.Principal != organizer {
			t.Errorf("expected organizer principal, got %+v", captured.Principal)
		}

		var payload meetingResponse
		decodeResponse(t, recorder, &payload)
		if payload.Meeting.ID != "meeting-1" || payload.Meeting.Status != "confirmed" {
			t.Errorf("unexpected meeting payload %+v", payload.Meeting)
		}
	})

	t.Run("delete marks the meeting cancelled", func(t *testing.T) {
		t.Parallel()

		cancelled := sampleMeeting
		cancelled.Status = application.MeetingStatusCancelled
		var cancelledID string
		service := &meetingServiceStub{cancelFunc: func(ctx context.Context, principal application.Principal, meetingID string) (application.Meeting, error) {
			cancelledID = meetingID
			return cancelled, nil
		}}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodDelete, "/meetings/meeting-1", nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if cancelledID != "meeting-1" {
			t.Errorf("expected meeting-1 to be cancelled, got %q", cancelledID)
		}
		var payload meetingResponse
		decodeResponse(t, recorder, &payload)
		if payload.Meeting.Status != "cancelled" {
			t.Errorf("expected cancelled status in payload, got %q", payload.Meeting.Status)
		}
	})

	t.Run("update conflicts map to 409", func(t *testing.T) {
		t.Parallel()

		service := &meetingServiceStub{updateFunc: func(ctx context.Context, params application.UpdateMeetingParams) (application.Meeting, error) {
			return application.Meeting{}, application.ErrInvalidTransition
		}}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodPut, "/meetings/meeting-1", map[string]any{"title": "x"})
		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", recorder.Code)
		}
	})

	t.Run("list converts query parameters into a filter", func(t *testing.T) {
		t.Parallel()

		var captured application.MeetingFilter
		service := &meetingServiceStub{listFunc: func(ctx context.Context, filter application.MeetingFilter) ([]application.Meeting, error) {
			captured = filter
			return []application.Meeting{sampleMeeting}, nil
		}}
		router := newRouter(service)

		path := "/meetings?participant=user-1&participant=user-2&status=confirmed&starts_after=2025-06-09T00:00:00Z"
		recorder := doJSON(t, router, http.MethodGet, path, nil)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		if len(captured.ParticipantIDs) != 2 {
			t.Errorf("expected two participant filters, got %v", captured.ParticipantIDs)
		}
		if captured.Status != application.MeetingStatusConfirmed {
			t.Errorf("expected confirmed status filter, got %q", captured.Status)
		}
		if captured.StartsAfter == nil || !captured.StartsAfter.Equal(time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected starts_after filter, got %v", captured.StartsAfter)
		}
		if captured.EndsBefore != nil {
			t.Errorf("expected no ends_before filter, got %v", captured.EndsBefore)
		}
	})

	t.Run("get returns 404 for unknown meetings", func(t *testing.T) {
		t.Parallel()

		service := &meetingServiceStub{getFunc: func(ctx context.Context, id string) (application.Meeting, error) {
			return application.Meeting{}, application.ErrNotFound
		}}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodGet, "/meetings/ghost", nil)
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", recorder.Code)
		}
	})
}

func TestSlotHandler(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	newRouter := func(service *slotServiceStub) http.Handler {
		return NewRouter(RouterConfig{
			Slots:      NewSlotHandler(service, nil),
			Middleware: []func(http.Handler) http.Handler{withPrincipal(application.Principal{UserID: "user-1"})},
		})
	}

	t.Run("search forwards the query to the service", func(t *testing.T) {
		t.Parallel()

		service := &slotServiceStub{slots: []application.Slot{
			{Start: from.Add(13 * time.Hour), End: from.Add(13*time.Hour + 30*time.Minute)},
		}}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodPost, "/slots/search", map[string]any{
			"participants":     []string{"user-1", "user-2"},
			"from":             from.Format(time.RFC3339),
			"to":               to.Format(time.RFC3339),
			"duration_minutes": 30,
		})

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if service.lastQuery.Duration != 30*time.Minute {
			t.Errorf("expected 30m duration, got %v", service.lastQuery.Duration)
		}
		if !service.lastQuery.From.Equal(from) || !service.lastQuery.To.Equal(to) {
			t.Errorf("unexpected range %v..%v", service.lastQuery.From, service.lastQuery.To)
		}

		var payload slotSearchResponse
		decodeResponse(t, recorder, &payload)
		if len(payload.Slots) != 1 || payload.Slots[0].Start != "2025-06-09T13:00:00Z" {
			t.Errorf("unexpected slots payload %+v", payload.Slots)
		}
	})

	t.Run("an empty result is a successful response", func(t *testing.T) {
		t.Parallel()

		service := &slotServiceStub{}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodPost, "/slots/search", map[string]any{
			"participants":     []string{"user-1"},
			"from":             from.Format(time.RFC3339),
			"to":               to.Format(time.RFC3339),
			"duration_minutes": 60,
		})

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		var payload slotSearchResponse
		decodeResponse(t, recorder, &payload)
		if len(payload.Slots) != 0 {
			t.Errorf("expected no slots, got %+v", payload.Slots)
		}
	})

	t.Run("unparseable date bounds map to 422 field errors", func(t *testing.T) {
		t.Parallel()

		service := &slotServiceStub{slots: []application.Slot{
			{Start: from.Add(13 * time.Hour), End: from.Add(13*time.Hour + 30*time.Minute)},
		}}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodPost, "/slots/search", map[string]any{
			"participants":     []string{"user-1"},
			"from":             "not-a-date",
			"duration_minutes": 30,
		})

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d: %s", recorder.Code, recorder.Body.String())
		}
		var payload errorResponse
		decodeResponse(t, recorder, &payload)
		if payload.Errors["from"] == "" || payload.Errors["to"] == "" {
			t.Errorf("expected from and to field errors, got %v", payload.Errors)
		}
		if !service.lastQuery.From.IsZero() || service.lastQuery.Duration != 0 {
			t.Errorf("expected the search to be rejected before reaching the service, got %+v", service.lastQuery)
		}
	})

	t.Run("oversized searches map to 422", func(t *testing.T) {
		t.Parallel()

		service := &slotServiceStub{err: availability.ErrSearchTooLarge}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodPost, "/slots/search", map[string]any{
			"participants":     []string{"user-1"},
			"from":             from.Format(time.RFC3339),
			"to":               from.AddDate(10, 0, 0).Format(time.RFC3339),
			"duration_minutes": 30,
		})

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d", recorder.Code)
		}
		var payload errorResponse
		decodeResponse(t, recorder, &payload)
		if payload.Errors["date_range"] == "" {
			t.Errorf("expected date_range hint, got %v", payload.Errors)
		}
	})

	t.Run("inverted ranges map to 422", func(t *testing.T) {
		t.Parallel()

		service := &slotServiceStub{err: application.ErrInvalidDateRange}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodPost, "/slots/search", map[string]any{
			"participants":     []string{"user-1"},
			"from":             to.Format(time.RFC3339),
			"to":               from.Format(time.RFC3339),
			"duration_minutes": 30,
		})

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d", recorder.Code)
		}
	})
}

func TestFlowHandler(t *testing.T) {
	t.Parallel()

	organizer := application.Principal{UserID: "user-1"}
	now := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)

	sampleRequest := application.SchedulingRequest{
		ID:          "request-1",
		OrganizerID: "user-1",
		Title:       "Sprint planning",
		Duration:    30 * time.Minute,
		State:       application.FlowStateCollectingParticipants,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	newRouter := func(service flowService) http.Handler {
		return NewRouter(RouterConfig{
			Flow:       NewFlowHandler(service, nil),
			Middleware: []func(http.Handler) http.Handler{withPrincipal(organizer)},
		})
	}

	t.Run("start creates a scheduling request", func(t *testing.T) {
		t.Parallel()

		service := &flowServiceStub{request: sampleRequest}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodPost, "/requests", map[string]any{
			"title":            "Sprint planning",
			"duration_minutes": 30,
		})

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		var payload flowResponse
		decodeResponse(t, recorder, &payload)
		if payload.Request.ID != "request-1" {
			t.Errorf("expected request id in payload, got %q", payload.Request.ID)
		}
		if payload.Request.State != string(application.FlowStateCollectingParticipants) {
			t.Errorf("unexpected state %q", payload.Request.State)
		}
		if payload.Request.DurationMins != 30 {
			t.Errorf("expected 30 minute duration, got %d", payload.Request.DurationMins)
		}
	})

	t.Run("participants step forwards the list", func(t *testing.T) {
		t.Parallel()

		advanced := sampleRequest
		advanced.State = application.FlowStateCollectingDateRange
		advanced.ParticipantIDs = []string{"user-1", "user-2"}
		service := &flowServiceStub{request: advanced}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodPost, "/requests/request-1/participants", map[string]any{
			"participants": []string{"user-2"},
		})

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if service.lastRequestID != "request-1" {
			t.Errorf("expected request-1, got %q", service.lastRequestID)
		}
		if len(service.lastParticipants) != 1 || service.lastParticipants[0] != "user-2" {
			t.Errorf("unexpected participants %v", service.lastParticipants)
		}
		var payload flowResponse
		decodeResponse(t, recorder, &payload)
		if payload.Request.State != string(application.FlowStateCollectingDateRange) {
			t.Errorf("unexpected state %q", payload.Request.State)
		}
	})

	t.Run("range step parses both bounds", func(t *testing.T) {
		t.Parallel()

		advanced := sampleRequest
		advanced.State = application.FlowStateSelectingSlot
		advanced.Slots = []application.Slot{{Start: now.Add(time.Hour), End: now.Add(90 * time.Minute)}}
		service := &flowServiceStub{request: advanced}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodPost, "/requests/request-1/range", map[string]any{
			"from": "2025-06-09T00:00:00Z",
			"to":   "2025-06-13T00:00:00Z",
		})

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if !service.lastFrom.Equal(time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected from %v", service.lastFrom)
		}
		if !service.lastTo.Equal(time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected to %v", service.lastTo)
		}
		var payload flowResponse
		decodeResponse(t, recorder, &payload)
		if len(payload.Request.Slots) != 1 {
			t.Errorf("expected one candidate slot, got %+v", payload.Request.Slots)
		}
	})

	t.Run("range step rejects unparseable bounds", func(t *testing.T) {
		t.Parallel()

		service := &flowServiceStub{request: sampleRequest}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodPost, "/requests/request-1/range", map[string]any{
			"from": "2025-06-09T00:00:00Z",
			"to":   "next friday",
		})

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d: %s", recorder.Code, recorder.Body.String())
		}
		var payload errorResponse
		decodeResponse(t, recorder, &payload)
		if payload.Errors["to"] == "" {
			t.Errorf("expected to field error, got %v", payload.Errors)
		}
		if service.lastRequestID != "" {
			t.Errorf("expected the step to be rejected before reaching the service, got request %q", service.lastRequestID)
		}
	})

	t.Run("slot step forwards the selected index", func(t *testing.T) {
		t.Parallel()

		service := &flowServiceStub{request: sampleRequest}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodPost, "/requests/request-1/slot", map[string]any{"index": 2})
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", recorder.Code)
		}
		if service.lastIndex != 2 {
			t.Errorf("expected index 2, got %d", service.lastIndex)
		}
	})

	t.Run("confirm returns both request and meeting", func(t *testing.T) {
		t.Parallel()

		confirmed := sampleRequest
		confirmed.State = application.FlowStateConfirmed
		service := &flowServiceStub{
			request: confirmed,
			meeting: application.Meeting{ID: "meeting-1", Status: application.MeetingStatusConfirmed},
		}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodPost, "/requests/request-1/confirm", nil)
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		var payload confirmResponse
		decodeResponse(t, recorder, &payload)
		if payload.Request.State != string(application.FlowStateConfirmed) {
			t.Errorf("unexpected state %q", payload.Request.State)
		}
		if payload.Meeting.ID != "meeting-1" {
			t.Errorf("expected meeting in payload, got %+v", payload.Meeting)
		}
	})

	t.Run("expired requests map to 410", func(t *testing.T) {
		t.Parallel()

		service := &flowServiceStub{err: application.ErrRequestExpired}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodPost, "/requests/request-1/confirm", nil)
		if recorder.Code != http.StatusGone {
			t.Fatalf("expected status 410, got %d", recorder.Code)
		}
	})

	t.Run("out-of-order steps map to 409", func(t *testing.T) {
		t.Parallel()

		service := &flowServiceStub{err: application.ErrInvalidTransition}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodPost, "/requests/request-1/slot", map[string]any{"index": 0})
		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", recorder.Code)
		}
	})

	t.Run("unknown requests map to 404", func(t *testing.T) {
		t.Parallel()

		service := &flowServiceStub{err: application.ErrNotFound}
		router := newRouter(service)

		recorder := doJSON(t, router, http.MethodGet, "/requests/ghost", nil)
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", recorder.Code)
		}
	})

	t.Run("unknown actions map to 404", func(t *testing.T) {
		t.Parallel()

		router := newRouter(&flowServiceStub{request: sampleRequest})

		recorder := doJSON(t, router, http.MethodPost, "/requests/request-1/teleport", nil)
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", recorder.Code)
		}
	})
}
