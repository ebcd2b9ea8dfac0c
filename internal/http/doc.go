// Package http provides the HTTP handlers and middleware for the group
// scheduling API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the caller's own session token.
//   - DELETE /sessions/{token}: administrator controlled revocation of any
//     session token.
//   - GET /users, POST /users, GET /users/{id}, PUT /users/{id},
//     DELETE /users/{id}: participant account management exchanging the
//     `userDTO` payload defined in user_handler.go, including timezone and
//     weekday/weekend availability windows.
//   - GET /meetings, POST /meetings, GET /meetings/{id}, PUT /meetings/{id},
//     DELETE /meetings/{id}: meeting management exchanging the `meetingDTO`
//     payload defined in meeting_handler.go. DELETE cancels the meeting
//     rather than removing the record.
//   - POST /slots/search: runs one group availability search. Body names the
//     participants, the date range, and the slot duration in minutes; the
//     response lists every candidate slot the whole group can attend.
//   - POST /requests plus POST /requests/{id}/{participants,range,slot,
//     confirm,cancel} and GET /requests/{id}: the step-by-step scheduling
//     conversation defined in flow_handler.go.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
