package services

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"voicematch/app/models"
)

// SessionState is the lifecycle phase of a call session
type SessionState string

// Session lifecycle states. ABORTED is reachable from any non-terminal state.
const (
	StateMatched   SessionState = "MATCHED"
	StateSignaling SessionState = "SIGNALING"
	StateConnected SessionState = "CONNECTED"
	StateRating    SessionState = "RATING"
	StateEnded     SessionState = "ENDED"
	StateAborted   SessionState = "ABORTED"
)

// SessionTimeouts carries the phase deadlines enforced by the monitor tick
type SessionTimeouts struct {
	Handshake       time.Duration
	Signaling       time.Duration
	MaxCallDuration time.Duration
	RatingWindow    time.Duration
	IceGraceWindow  time.Duration
	EndedRetention  time.Duration
}

// HistorySink consumes the read-once summary of every finished session.
// The core never persists call history itself.
type HistorySink interface {
	RecordCall(summary models.SessionSummary)
}

// Participant is one side of a call session
type Participant struct {
	UserID             string
	Identity           models.Identity
	Transport          Transport
	TransportConnected bool
	Rating             int
	RatingSubmitted    bool
}

// CallSession is one matched pair's call lifecycle record. All state
// transitions for a session run under its mutex, so no two transitions for
// the same session ever execute concurrently.
type CallSession struct {
	mu sync.Mutex

	ID    string
	A     *Participant
	B     *Participant
	State SessionState

	CreatedAt       time.Time
	LastActivityAt  time.Time
	SignalingAt     time.Time
	ConnectedAt     time.Time
	RatingAt        time.Time
	EndedAt         time.Time
	RelayedMessages int

	EndReason        string
	ReportedDuration int
	summaryTaken     bool
}

// participant returns the session side belonging to userID
func (s *CallSession) participant(userID string) *Participant {
	if s.A.UserID == userID {
		return s.A
	}
	if s.B.UserID == userID {
		return s.B
	}
	return nil
}

// peerOf returns the other side of the session
func (s *CallSession) peerOf(userID string) *Participant {
	if s.A.UserID == userID {
		return s.B
	}
	return s.A
}

// terminal reports whether the session reached ENDED or ABORTED
func (s *CallSession) terminal() bool {
	return s.State == StateEnded || s.State == StateAborted
}

// durationSeconds resolves the call duration for the summary. A client
// reported duration wins; otherwise it is derived from the connected phase.
func (s *CallSession) durationSeconds(endedAt time.Time) int {
	if s.ReportedDuration > 0 {
		return s.ReportedDuration
	}
	if !s.ConnectedAt.IsZero() {
		return int(endedAt.Sub(s.ConnectedAt).Seconds())
	}
	return 0
}

// SessionService owns every active call session and its state machine
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*CallSession
	byUser   map[string]string

	registry *ConnectionService
	history  HistorySink
	timeouts SessionTimeouts
}

// NewSessionService creates a new session manager instance. history may be
// nil when no history collaborator is attached.
func NewSessionService(registry *ConnectionService, history HistorySink, timeouts SessionTimeouts) *SessionService {
	return &SessionService{
		sessions: make(map[string]*CallSession),
		byUser:   make(map[string]string),
		registry: registry,
		history:  history,
		timeouts: timeouts,
	}
}

// CreateSession turns a matched pair of queue entries into a live session in
// MATCHED state and notifies both peers. The earlier-enqueued side becomes
// the WebRTC initiator.
func (s *SessionService) CreateSession(first, second *QueueEntry) (*CallSession, error) {
	session := s.beginSession(first, second)
	s.announceSession(session)
	return session, nil
}

// beginSession builds the MATCHED session and binds both users to it. The
// queue calls this while still holding its pairing lock, so no join can slip
// in between claiming the entries and binding the users.
func (s *SessionService) beginSession(first, second *QueueEntry) *CallSession {
	now := time.Now()
	session := &CallSession{
		ID:             uuid.NewString(),
		A:              &Participant{UserID: first.UserID, Identity: first.Identity, Transport: first.Transport},
		B:              &Participant{UserID: second.UserID, Identity: second.Identity, Transport: second.Transport},
		State:          StateMatched,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.byUser[first.UserID] = session.ID
	s.byUser[second.UserID] = session.ID
	s.mu.Unlock()
	return session
}

// announceSession verifies both sides are still online and pushes match:found
func (s *SessionService) announceSession(session *CallSession) {
	// Both participants must resolve to an online connection at creation
	// time; anything else is an invariant violation, not a user error.
	if s.registry != nil && (!s.registry.IsOnline(session.A.UserID) || !s.registry.IsOnline(session.B.UserID)) {
		log.Printf("❌ Session %s references an offline participant, force-aborting", session.ID)
		session.mu.Lock()
		summary := s.abortLocked(session, models.ReasonInternal, time.Now())
		session.mu.Unlock()
		s.deliverSummary(summary)
		return
	}

	log.Printf("🤝 Session created: %s (%s ↔ %s)", session.ID, session.A.UserID, session.B.UserID)

	shared := sharedInterests(session.A.Identity, session.B.Identity)
	notifyMatch(session.A, session.ID, session.B.Identity, shared, true)
	notifyMatch(session.B, session.ID, session.A.Identity, shared, false)
}

// notifyMatch pushes match:found to one participant, fire-and-forget
func notifyMatch(p *Participant, sessionID string, partner models.Identity, shared []string, initiator bool) {
	if p.Transport == nil {
		return
	}
	p.Transport.Emit("match:found", models.MatchFoundEvent{
		SessionID: sessionID,
		Partner: models.PartnerSummary{
			UserID:          partner.UserID,
			Gender:          partner.Gender,
			Age:             partner.Age,
			SharedInterests: shared,
		},
		Initiator: initiator,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Event:     "match:found",
	})
}

// sharedInterests returns the interests both identities have in common
func sharedInterests(a, b models.Identity) []string {
	if len(a.Interests) == 0 || len(b.Interests) == 0 {
		return nil
	}
	have := make(map[string]bool, len(a.Interests))
	for _, interest := range a.Interests {
		have[interest] = true
	}
	var shared []string
	for _, interest := range b.Interests {
		if have[interest] {
			shared = append(shared, interest)
		}
	}
	return shared
}

// Get returns the session with the given id
func (s *SessionService) Get(sessionID string) (*CallSession, bool) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	return session, ok
}

// SessionForUser returns the active session the user participates in
func (s *SessionService) SessionForUser(userID string) (*CallSession, bool) {
	s.mu.RLock()
	sessionID, ok := s.byUser[userID]
	var session *CallSession
	if ok {
		session = s.sessions[sessionID]
	}
	s.mu.RUnlock()
	if session == nil {
		return nil, false
	}
	return session, true
}

// HasActiveSession reports whether the user is bound to a non-terminal session
func (s *SessionService) HasActiveSession(userID string) bool {
	_, ok := s.SessionForUser(userID)
	return ok
}

// ActiveCount returns the number of sessions that have not reached a
// terminal state, including RATING sessions whose users are already free.
func (s *SessionService) ActiveCount() int {
	s.mu.RLock()
	snapshot := make([]*CallSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		snapshot = append(snapshot, session)
	}
	s.mu.RUnlock()

	count := 0
	for _, session := range snapshot {
		session.mu.Lock()
		if !session.terminal() {
			count++
		}
		session.mu.Unlock()
	}
	return count
}

// HandleTransportConnected records one peer's successful media transport.
// When both peers have reported, the session moves to CONNECTED.
func (s *SessionService) HandleTransportConnected(sessionID, userID string) error {
	session, ok := s.Get(sessionID)
	if !ok {
		return models.ErrUnknownSession
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	participant := session.participant(userID)
	if participant == nil {
		return models.ErrNotAParticipant
	}
	if session.State != StateMatched && session.State != StateSignaling {
		return models.ErrWrongPhase
	}

	participant.TransportConnected = true
	session.LastActivityAt = time.Now()

	if session.A.TransportConnected && session.B.TransportConnected {
		session.State = StateConnected
		session.ConnectedAt = time.Now()
		log.Printf("📞 Session %s is live", session.ID)
	}
	return nil
}

// EndCall drives the session out of the live phase. From CONNECTED it moves
// to RATING; from MATCHED/SIGNALING it aborts. Idempotent: calling it on a
// session already in RATING or a terminal state is a no-op.
func (s *SessionService) EndCall(sessionID, userID string, reportedDuration int, reason string) error {
	session, ok := s.Get(sessionID)
	if !ok {
		return models.ErrUnknownSession
	}

	session.mu.Lock()
	if session.participant(userID) == nil {
		session.mu.Unlock()
		return models.ErrNotAParticipant
	}
	if session.terminal() || session.State == StateRating {
		session.mu.Unlock()
		return nil
	}

	if reason == "" {
		reason = models.ReasonUserEnded
	}
	session.ReportedDuration = reportedDuration

	var summary *models.SessionSummary
	if session.State == StateConnected {
		s.toRatingLocked(session, reason, time.Now())
	} else {
		summary = s.abortLocked(session, reason, time.Now())
	}
	session.mu.Unlock()

	s.deliverSummary(summary)
	return nil
}

// SubmitFeedback records one side's rating during the RATING phase. Once
// both sides have submitted, the session is finalized.
func (s *SessionService) SubmitFeedback(sessionID, userID string, rating int) error {
	session, ok := s.Get(sessionID)
	if !ok {
		return models.ErrUnknownSession
	}

	session.mu.Lock()
	participant := session.participant(userID)
	if participant == nil {
		session.mu.Unlock()
		return models.ErrNotAParticipant
	}
	if session.terminal() {
		session.mu.Unlock()
		return nil
	}
	if session.State != StateRating {
		session.mu.Unlock()
		return models.ErrWrongPhase
	}

	participant.Rating = rating
	participant.RatingSubmitted = true

	var summary *models.SessionSummary
	if session.A.RatingSubmitted && session.B.RatingSubmitted {
		summary = s.finishLocked(session, time.Now())
	}
	session.mu.Unlock()

	s.deliverSummary(summary)
	return nil
}

// Abort force-terminates a non-terminal session with the given reason
func (s *SessionService) Abort(sessionID, reason string) {
	session, ok := s.Get(sessionID)
	if !ok {
		return
	}
	session.mu.Lock()
	var summary *models.SessionSummary
	if !session.terminal() {
		summary = s.abortLocked(session, reason, time.Now())
	}
	session.mu.Unlock()

	s.deliverSummary(summary)
}

// HandleDisconnect reacts to a participant's connection loss. A live call
// moves to RATING so the surviving peer can still rate it; earlier phases
// abort outright.
func (s *SessionService) HandleDisconnect(userID string) {
	session, ok := s.SessionForUser(userID)
	if !ok {
		return
	}

	session.mu.Lock()
	var summary *models.SessionSummary
	switch session.State {
	case StateConnected:
		s.toRatingLocked(session, models.ReasonPeerDisconnected, time.Now())
	case StateMatched, StateSignaling:
		summary = s.abortLocked(session, models.ReasonPeerDisconnected, time.Now())
	}
	session.mu.Unlock()

	s.deliverSummary(summary)
}

// SweepDeadlines enforces every phase deadline. It is the only place
// deadlines are checked, so a slow tick delays expiry but never corrupts
// state: each transition re-checks the phase under the session lock.
func (s *SessionService) SweepDeadlines(now time.Time) {
	s.mu.RLock()
	snapshot := make([]*CallSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		snapshot = append(snapshot, session)
	}
	s.mu.RUnlock()

	var purge []string
	var summaries []*models.SessionSummary
	for _, session := range snapshot {
		session.mu.Lock()
		switch session.State {
		case StateMatched:
			if now.Sub(session.CreatedAt) > s.timeouts.Handshake {
				summaries = append(summaries, s.abortLocked(session, models.ReasonHandshakeTimeout, now))
			}
		case StateSignaling:
			if now.Sub(session.SignalingAt) > s.timeouts.Signaling {
				summaries = append(summaries, s.abortLocked(session, models.ReasonSignalingTimeout, now))
			}
		case StateConnected:
			if now.Sub(session.ConnectedAt) > s.timeouts.MaxCallDuration {
				s.toRatingLocked(session, models.ReasonTimeLimit, now)
			}
		case StateRating:
			if now.Sub(session.RatingAt) > s.timeouts.RatingWindow {
				summaries = append(summaries, s.finishLocked(session, now))
			}
		default:
			if now.Sub(session.EndedAt) > s.timeouts.EndedRetention {
				purge = append(purge, session.ID)
			}
		}
		session.mu.Unlock()
	}

	if len(purge) > 0 {
		s.mu.Lock()
		for _, sessionID := range purge {
			delete(s.sessions, sessionID)
		}
		s.mu.Unlock()
	}

	// History writes happen after every session lock is dropped so a slow
	// store cannot stall the tick
	for _, summary := range summaries {
		s.deliverSummary(summary)
	}
}

// toRatingLocked moves a live session to RATING, frees both participants and
// notifies them. Caller holds the session lock.
func (s *SessionService) toRatingLocked(session *CallSession, reason string, now time.Time) {
	session.State = StateRating
	session.EndReason = reason
	session.RatingAt = now
	session.LastActivityAt = now

	log.Printf("⭐ Session %s → RATING (reason: %s)", session.ID, reason)
	s.releaseUsers(session)
	notifyEnded(session, reason, session.durationSeconds(now))
}

// finishLocked closes out the RATING phase. Caller holds the session lock
// and must deliver the returned summary after releasing it.
func (s *SessionService) finishLocked(session *CallSession, now time.Time) *models.SessionSummary {
	session.State = StateEnded
	session.EndedAt = now
	session.LastActivityAt = now
	log.Printf("✅ Session %s ended", session.ID)
	return s.takeSummaryLocked(session)
}

// abortLocked force-terminates the session from any non-terminal state.
// Caller holds the session lock and must deliver the returned summary after
// releasing it.
func (s *SessionService) abortLocked(session *CallSession, reason string, now time.Time) *models.SessionSummary {
	session.State = StateAborted
	session.EndReason = reason
	session.EndedAt = now
	session.LastActivityAt = now

	log.Printf("🛑 Session %s aborted (reason: %s)", session.ID, reason)
	s.releaseUsers(session)
	notifyEnded(session, reason, session.durationSeconds(now))
	return s.takeSummaryLocked(session)
}

// releaseUsers frees both participants so they may re-join the queue
func (s *SessionService) releaseUsers(session *CallSession) {
	s.mu.Lock()
	if s.byUser[session.A.UserID] == session.ID {
		delete(s.byUser, session.A.UserID)
	}
	if s.byUser[session.B.UserID] == session.ID {
		delete(s.byUser, session.B.UserID)
	}
	s.mu.Unlock()
}

// notifyEnded pushes call:ended to both peers, fire-and-forget
func notifyEnded(session *CallSession, reason string, duration int) {
	event := models.CallEndedEvent{
		SessionID:       session.ID,
		Reason:          reason,
		DurationSeconds: duration,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Event:           "call:ended",
	}
	if session.A.Transport != nil {
		session.A.Transport.Emit("call:ended", event)
	}
	if session.B.Transport != nil {
		session.B.Transport.Emit("call:ended", event)
	}
}

// takeSummaryLocked builds the session summary exactly once. Caller holds
// the session lock; the actual history write happens outside it.
func (s *SessionService) takeSummaryLocked(session *CallSession) *models.SessionSummary {
	if s.history == nil || session.summaryTaken {
		return nil
	}
	session.summaryTaken = true

	endedAt := session.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	return &models.SessionSummary{
		SessionID:       session.ID,
		ParticipantA:    session.A.UserID,
		ParticipantB:    session.B.UserID,
		DurationSeconds: session.durationSeconds(endedAt),
		FinalReason:     session.EndReason,
		RatingA:         session.A.Rating,
		RatingB:         session.B.Rating,
		CreatedAt:       session.CreatedAt,
		EndedAt:         endedAt,
	}
}

// deliverSummary hands a finished session's summary to the history sink.
// Never called with a lock held: the store may be slow or down and must not
// stall transitions or the monitor tick.
func (s *SessionService) deliverSummary(summary *models.SessionSummary) {
	if summary == nil || s.history == nil {
		return
	}
	s.history.RecordCall(*summary)
}
