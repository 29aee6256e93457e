package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicematch/app/models"
)

type sessionFixture struct {
	registry *ConnectionService
	sessions *SessionService
	queue    *QueueService
	history  *fakeHistory

	session *CallSession
	aliceTr *fakeTransport
	bobTr   *fakeTransport
}

// newSessionFixture pairs alice and bob and returns the fresh MATCHED session
func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	registry, sessions, queue, history := newQueueStack()

	aliceTr := enqueue(t, registry, queue,
		models.Identity{UserID: "alice", Gender: models.GenderFemale, Age: 25, Interests: []string{"music", "hiking"}},
		models.PartnerFilter{Gender: models.GenderMale})
	backdate(queue, "alice", time.Second)
	bobTr := enqueue(t, registry, queue,
		models.Identity{UserID: "bob", Gender: models.GenderMale, Age: 28, Interests: []string{"music", "chess"}},
		models.PartnerFilter{Gender: models.GenderFemale})

	created := queue.TryPair()
	require.Len(t, created, 1)

	return &sessionFixture{
		registry: registry,
		sessions: sessions,
		queue:    queue,
		history:  history,
		session:  created[0],
		aliceTr:  aliceTr,
		bobTr:    bobTr,
	}
}

// connect drives the session to CONNECTED through both peers' reports
func (f *sessionFixture) connect(t *testing.T) {
	t.Helper()
	require.NoError(t, f.sessions.HandleTransportConnected(f.session.ID, "alice"))
	require.NoError(t, f.sessions.HandleTransportConnected(f.session.ID, "bob"))
	require.Equal(t, StateConnected, f.session.State)
}

func TestCreateSessionNotifiesBothPeers(t *testing.T) {
	f := newSessionFixture(t)

	aliceEvents := f.aliceTr.eventsNamed("match:found")
	bobEvents := f.bobTr.eventsNamed("match:found")
	require.Len(t, aliceEvents, 1)
	require.Len(t, bobEvents, 1)

	aliceView, ok := aliceEvents[0].data.(models.MatchFoundEvent)
	require.True(t, ok)
	bobView, ok := bobEvents[0].data.(models.MatchFoundEvent)
	require.True(t, ok)

	assert.Equal(t, f.session.ID, aliceView.SessionID)
	assert.Equal(t, "bob", aliceView.Partner.UserID)
	assert.Equal(t, "alice", bobView.Partner.UserID)
	assert.Equal(t, []string{"music"}, aliceView.Partner.SharedInterests)

	// The earlier-enqueued side drives the WebRTC handshake
	assert.True(t, aliceView.Initiator)
	assert.False(t, bobView.Initiator)
}

func TestCreateSessionAbortsWhenParticipantOffline(t *testing.T) {
	registry, sessions, _, history := newQueueStack()
	registry.Register("alice", newFakeTransport("sock-alice"))

	session, err := sessions.CreateSession(
		&QueueEntry{UserID: "alice", Transport: newFakeTransport("sock-alice")},
		&QueueEntry{UserID: "ghost", Transport: nil},
	)
	require.NoError(t, err)

	assert.Equal(t, StateAborted, session.State)
	assert.Equal(t, models.ReasonInternal, session.EndReason)
	assert.False(t, sessions.HasActiveSession("alice"))

	summaries := history.recorded()
	require.Len(t, summaries, 1)
	assert.Equal(t, models.ReasonInternal, summaries[0].FinalReason)
}

func TestTransportConnectedNeedsBothPeers(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.sessions.HandleTransportConnected(f.session.ID, "alice"))
	assert.Equal(t, StateMatched, f.session.State)

	require.NoError(t, f.sessions.HandleTransportConnected(f.session.ID, "bob"))
	assert.Equal(t, StateConnected, f.session.State)
	assert.False(t, f.session.ConnectedAt.IsZero())
}

func TestTransportConnectedRejectsOutsiders(t *testing.T) {
	f := newSessionFixture(t)

	err := f.sessions.HandleTransportConnected(f.session.ID, "mallory")
	assert.ErrorIs(t, err, models.ErrNotAParticipant)

	err = f.sessions.HandleTransportConnected("no-such-session", "alice")
	assert.ErrorIs(t, err, models.ErrUnknownSession)
}

func TestEndCallFromConnectedMovesToRating(t *testing.T) {
	f := newSessionFixture(t)
	f.connect(t)

	require.NoError(t, f.sessions.EndCall(f.session.ID, "alice", 300, ""))

	assert.Equal(t, StateRating, f.session.State)
	assert.Equal(t, models.ReasonUserEnded, f.session.EndReason)

	// Both users are free again even though the session still awaits ratings
	assert.False(t, f.sessions.HasActiveSession("alice"))
	assert.False(t, f.sessions.HasActiveSession("bob"))

	for _, tr := range []*fakeTransport{f.aliceTr, f.bobTr} {
		events := tr.eventsNamed("call:ended")
		require.Len(t, events, 1)
		ended, ok := events[0].data.(models.CallEndedEvent)
		require.True(t, ok)
		assert.Equal(t, models.ReasonUserEnded, ended.Reason)
		assert.Equal(t, 300, ended.DurationSeconds)
	}
}

func TestEndCallIsIdempotent(t *testing.T) {
	f := newSessionFixture(t)
	f.connect(t)

	require.NoError(t, f.sessions.EndCall(f.session.ID, "alice", 120, ""))
	require.NoError(t, f.sessions.EndCall(f.session.ID, "bob", 121, models.ReasonUserEnded))
	require.NoError(t, f.sessions.EndCall(f.session.ID, "alice", 122, ""))

	assert.Equal(t, StateRating, f.session.State)
	assert.Equal(t, 120, f.session.ReportedDuration)
	assert.Len(t, f.aliceTr.eventsNamed("call:ended"), 1)
	assert.Len(t, f.bobTr.eventsNamed("call:ended"), 1)
}

func TestEndCallBeforeConnectedAborts(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.sessions.EndCall(f.session.ID, "bob", 0, ""))

	assert.Equal(t, StateAborted, f.session.State)
	assert.Equal(t, models.ReasonUserEnded, f.session.EndReason)

	summaries := f.history.recorded()
	require.Len(t, summaries, 1)
	assert.Equal(t, 0, summaries[0].DurationSeconds)
}

func TestSubmitFeedbackFinalizesAfterBothRatings(t *testing.T) {
	f := newSessionFixture(t)
	f.connect(t)
	require.NoError(t, f.sessions.EndCall(f.session.ID, "alice", 200, ""))

	require.NoError(t, f.sessions.SubmitFeedback(f.session.ID, "alice", 5))
	assert.Equal(t, StateRating, f.session.State)

	require.NoError(t, f.sessions.SubmitFeedback(f.session.ID, "bob", 4))
	assert.Equal(t, StateEnded, f.session.State)

	summaries := f.history.recorded()
	require.Len(t, summaries, 1)
	assert.Equal(t, 5, summaries[0].RatingA)
	assert.Equal(t, 4, summaries[0].RatingB)
	assert.Equal(t, 200, summaries[0].DurationSeconds)
	assert.Equal(t, models.ReasonUserEnded, summaries[0].FinalReason)
}

func TestSubmitFeedbackOutsideRatingPhase(t *testing.T) {
	f := newSessionFixture(t)
	f.connect(t)

	err := f.sessions.SubmitFeedback(f.session.ID, "alice", 5)
	assert.ErrorIs(t, err, models.ErrWrongPhase)
}

func TestHandshakeTimeoutAbortsExactlyOnce(t *testing.T) {
	f := newSessionFixture(t)

	deadline := time.Now().Add(f.sessions.timeouts.Handshake + time.Second)
	f.sessions.SweepDeadlines(deadline)
	f.sessions.SweepDeadlines(deadline.Add(time.Second))

	assert.Equal(t, StateAborted, f.session.State)
	assert.Equal(t, models.ReasonHandshakeTimeout, f.session.EndReason)

	summaries := f.history.recorded()
	require.Len(t, summaries, 1)
	assert.Equal(t, models.ReasonHandshakeTimeout, summaries[0].FinalReason)

	assert.Len(t, f.aliceTr.eventsNamed("call:ended"), 1)
	assert.Len(t, f.bobTr.eventsNamed("call:ended"), 1)
}

func TestTimeLimitMovesLongCallToRating(t *testing.T) {
	f := newSessionFixture(t)
	f.connect(t)

	f.sessions.SweepDeadlines(time.Now().Add(f.sessions.timeouts.MaxCallDuration + time.Second))

	assert.Equal(t, StateRating, f.session.State)
	assert.Equal(t, models.ReasonTimeLimit, f.session.EndReason)
}

func TestRatingWindowExpiryFinalizesWithPartialRatings(t *testing.T) {
	f := newSessionFixture(t)
	f.connect(t)
	require.NoError(t, f.sessions.EndCall(f.session.ID, "alice", 90, ""))
	require.NoError(t, f.sessions.SubmitFeedback(f.session.ID, "bob", 3))

	f.sessions.SweepDeadlines(time.Now().Add(f.sessions.timeouts.RatingWindow + time.Second))

	assert.Equal(t, StateEnded, f.session.State)
	summaries := f.history.recorded()
	require.Len(t, summaries, 1)
	assert.Equal(t, 0, summaries[0].RatingA)
	assert.Equal(t, 3, summaries[0].RatingB)
}

func TestSweepPurgesRetiredSessions(t *testing.T) {
	f := newSessionFixture(t)
	require.NoError(t, f.sessions.EndCall(f.session.ID, "alice", 0, ""))

	f.sessions.SweepDeadlines(time.Now().Add(f.sessions.timeouts.EndedRetention + time.Second))

	_, ok := f.sessions.Get(f.session.ID)
	assert.False(t, ok)
}

func TestDisconnectDuringLiveCall(t *testing.T) {
	f := newSessionFixture(t)
	f.registry.OnDisconnect(f.queue.RemoveFor)
	f.registry.OnDisconnect(f.sessions.HandleDisconnect)
	f.connect(t)

	f.registry.Unregister("bob")

	assert.Equal(t, StateRating, f.session.State)
	assert.Equal(t, models.ReasonPeerDisconnected, f.session.EndReason)
	assert.False(t, f.sessions.HasActiveSession("alice"))
	assert.False(t, f.sessions.HasActiveSession("bob"))

	// The surviving peer can queue again right away
	err := f.queue.Join("alice", models.Identity{UserID: "alice"}, models.PartnerFilter{}, f.aliceTr)
	assert.NoError(t, err)
}

// inspectingSink looks the finished session back up the way an operator
// endpoint would, which requires the session lock to be free when it runs
type inspectingSink struct {
	mu        sync.Mutex
	sessions  *SessionService
	summaries []models.SessionSummary
}

func (r *inspectingSink) RecordCall(summary models.SessionSummary) {
	if session, ok := r.sessions.Get(summary.SessionID); ok {
		session.mu.Lock()
		_ = session.State
		session.mu.Unlock()
	}
	r.mu.Lock()
	r.summaries = append(r.summaries, summary)
	r.mu.Unlock()
}

func TestHistorySinkRunsOutsideSessionLock(t *testing.T) {
	registry := NewConnectionService(nil)
	sink := &inspectingSink{}
	sessions := NewSessionService(registry, sink, testTimeouts())
	sink.sessions = sessions
	queue := NewQueueService(sessions)

	enqueue(t, registry, queue, models.Identity{UserID: "alice", Gender: models.GenderFemale, Age: 25}, models.PartnerFilter{})
	enqueue(t, registry, queue, models.Identity{UserID: "bob", Gender: models.GenderMale, Age: 28}, models.PartnerFilter{})
	created := queue.TryPair()
	require.Len(t, created, 1)

	// A sweep-driven abort must complete even though the sink re-inspects
	// the session it was handed
	done := make(chan struct{})
	go func() {
		sessions.SweepDeadlines(time.Now().Add(testTimeouts().Handshake + time.Second))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("deadline sweep blocked while the history sink ran")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.summaries, 1)
	assert.Equal(t, models.ReasonHandshakeTimeout, sink.summaries[0].FinalReason)
}

func TestActiveCountTracksNonTerminalSessions(t *testing.T) {
	f := newSessionFixture(t)
	assert.Equal(t, 1, f.sessions.ActiveCount())

	f.connect(t)
	require.NoError(t, f.sessions.EndCall(f.session.ID, "alice", 60, ""))
	// RATING still counts even though both users are already free
	assert.Equal(t, 1, f.sessions.ActiveCount())

	require.NoError(t, f.sessions.SubmitFeedback(f.session.ID, "alice", 5))
	require.NoError(t, f.sessions.SubmitFeedback(f.session.ID, "bob", 4))
	assert.Equal(t, 0, f.sessions.ActiveCount())
}

func TestDisconnectBeforeConnectedAborts(t *testing.T) {
	f := newSessionFixture(t)
	f.registry.OnDisconnect(f.sessions.HandleDisconnect)

	f.registry.Unregister("alice")

	assert.Equal(t, StateAborted, f.session.State)
	assert.Equal(t, models.ReasonPeerDisconnected, f.session.EndReason)
}
