package application

import (
	"sync"
	"time"
)

// requestStore holds in-progress scheduling requests keyed by identifier.
// Entries live for a fixed TTL measured from their last update; an expired
// entry is reported as such once, then removed by the caller or cleanup.
type requestStore struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]requestEntry
}

type requestEntry struct {
	request   SchedulingRequest
	expiresAt time.Time
}

func newRequestStore(ttl time.Duration, maxEntries int, now func() time.Time) *requestStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	if now == nil {
		now = time.Now
	}
	return &requestStore{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]requestEntry),
	}
}

// Get returns the stored request, whether it exists, and whether its TTL has
// lapsed. Expired entries stay readable so callers can report expiry rather
// than a generic miss.
func (s *requestStore) Get(id string) (SchedulingRequest, bool, bool) {
	if s == nil {
		return SchedulingRequest{}, false, false
	}
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return SchedulingRequest{}, false, false
	}
	return cloneRequest(entry.request), true, s.now().After(entry.expiresAt)
}

// Put stores or refreshes a request, restarting its TTL.
func (s *requestStore) Put(request SchedulingRequest) {
	if s == nil || request.ID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked()
	if _, exists := s.entries[request.ID]; !exists && len(s.entries) >= s.maxEntries {
		s.evictOneLocked()
	}
	s.entries[request.ID] = requestEntry{
		request:   cloneRequest(request),
		expiresAt: s.now().Add(s.ttl),
	}
}

// Remove drops a request immediately.
func (s *requestStore) Remove(id string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

func (s *requestStore) cleanupLocked() {
	now := s.now()
	for id, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, id)
		}
	}
}

func (s *requestStore) evictOneLocked() {
	oldest := ""
	var oldestExpiry time.Time
	for id, entry := range s.entries {
		if oldest == "" || entry.expiresAt.Before(oldestExpiry) {
			oldest = id
			oldestExpiry = entry.expiresAt
		}
	}
	if oldest != "" {
		delete(s.entries, oldest)
	}
}

func cloneRequest(request SchedulingRequest) SchedulingRequest {
	out := request
	if len(request.ParticipantIDs) > 0 {
		out.ParticipantIDs = make([]string, len(request.ParticipantIDs))
		copy(out.ParticipantIDs, request.ParticipantIDs)
	}
	if len(request.Slots) > 0 {
		out.Slots = make([]Slot, len(request.Slots))
		copy(out.Slots, request.Slots)
	}
	if request.SelectedSlot != nil {
		selected := *request.SelectedSlot
		out.SelectedSlot = &selected
	}
	return out
}
