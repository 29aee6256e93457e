package services

import (
	"log"
	"sort"
	"sync"
	"time"

	"voicematch/app/models"
)

// QueueEntry represents a user waiting for a partner
type QueueEntry struct {
	UserID     string
	Identity   models.Identity
	Filter     models.PartnerFilter
	EnqueuedAt time.Time
	Transport  Transport
}

// QueueService holds users waiting to be paired. All queue mutations run
// under one exclusive lock so no pairing attempt can observe a half-claimed
// entry.
type QueueService struct {
	mu       sync.Mutex
	entries  map[string]*QueueEntry
	sessions *SessionService
}

// NewQueueService creates a new matchmaking queue instance
func NewQueueService(sessions *SessionService) *QueueService {
	return &QueueService{
		entries:  make(map[string]*QueueEntry),
		sessions: sessions,
	}
}

// Join inserts a queue entry for the user. A user may hold at most one entry
// system-wide and may not queue while in an active session.
func (q *QueueService) Join(userID string, identity models.Identity, filter models.PartnerFilter, transport Transport) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Checked under the queue lock: pairing binds users to their session
	// while holding this same lock, so the check cannot race a TryPair.
	if q.sessions != nil && q.sessions.HasActiveSession(userID) {
		return models.ErrAlreadyInSession
	}
	if _, ok := q.entries[userID]; ok {
		return models.ErrAlreadyQueued
	}
	q.entries[userID] = &QueueEntry{
		UserID:     userID,
		Identity:   identity,
		Filter:     filter,
		EnqueuedAt: time.Now(),
		Transport:  transport,
	}
	log.Printf("🎯 User %s joined the queue (looking for %s)", userID, filter.Gender)
	return nil
}

// Leave removes the user's entry if present. Absent entries are a no-op,
// not an error.
func (q *QueueService) Leave(userID string) {
	q.mu.Lock()
	if _, ok := q.entries[userID]; ok {
		delete(q.entries, userID)
		log.Printf("👋 User %s left the queue", userID)
	}
	q.mu.Unlock()
}

// TryPair scans the waiting entries for mutually compatible pairs and hands
// each pair to the session manager. Among multiple compatible candidates the
// earliest-enqueued wins, bounding worst-case wait. The queue lock is held
// from the scan through the session binding, so a concurrent Join can never
// observe a claimed user as neither queued nor in a session.
func (q *QueueService) TryPair() []*CallSession {
	q.mu.Lock()
	waiting := q.sortedLocked()

	var created []*CallSession
	claimed := make(map[string]bool)
	for i, candidate := range waiting {
		if claimed[candidate.UserID] {
			continue
		}
		for _, partner := range waiting[i+1:] {
			if claimed[partner.UserID] {
				continue
			}
			// Identity check before filter check: a degenerate filter can
			// never pair a user with themself.
			if candidate.UserID == partner.UserID {
				continue
			}
			if !mutualMatch(candidate, partner) {
				continue
			}
			claimed[candidate.UserID] = true
			claimed[partner.UserID] = true
			delete(q.entries, candidate.UserID)
			delete(q.entries, partner.UserID)
			created = append(created, q.sessions.beginSession(candidate, partner))
			break
		}
	}
	q.mu.Unlock()

	// Peer notifications run outside the queue lock
	for _, session := range created {
		q.sessions.announceSession(session)
	}
	return created
}

// mutualMatch reports whether both filters accept the other's attributes
func mutualMatch(a, b *QueueEntry) bool {
	return a.Filter.Accepts(b.Identity) && b.Filter.Accepts(a.Identity)
}

// Status returns the queue-status snapshot for a waiting user
func (q *QueueService) Status(userID string) (position, waiting int, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, exists := q.entries[userID]
	if !exists {
		return 0, len(q.entries), false
	}
	position = 1
	for _, other := range q.entries {
		if other.EnqueuedAt.Before(entry.EnqueuedAt) {
			position++
		}
	}
	return position, len(q.entries), true
}

// Depth returns the number of waiting entries
func (q *QueueService) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// ExpireStale removes entries older than maxWait and returns them so the
// monitor can notify the affected clients. Called from the monitor tick.
func (q *QueueService) ExpireStale(maxWait time.Duration) []*QueueEntry {
	cutoff := time.Now().Add(-maxWait)

	q.mu.Lock()
	var expired []*QueueEntry
	for userID, entry := range q.entries {
		if entry.EnqueuedAt.Before(cutoff) {
			delete(q.entries, userID)
			expired = append(expired, entry)
		}
	}
	q.mu.Unlock()

	for _, entry := range expired {
		log.Printf("⏰ Queue entry expired for %s after %v", entry.UserID, maxWait)
	}
	return expired
}

// RemoveFor drops the entry of a disconnected user; wired into the
// connection registry's disconnect hooks.
func (q *QueueService) RemoveFor(userID string) {
	q.Leave(userID)
}

// sortedLocked returns the entries ordered by enqueue time. Caller holds the
// queue lock.
func (q *QueueService) sortedLocked() []*QueueEntry {
	waiting := make([]*QueueEntry, 0, len(q.entries))
	for _, entry := range q.entries {
		waiting = append(waiting, entry)
	}
	sort.Slice(waiting, func(i, j int) bool {
		return waiting[i].EnqueuedAt.Before(waiting[j].EnqueuedAt)
	})
	return waiting
}
