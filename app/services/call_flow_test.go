package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicematch/app/models"
)

// TestFullCallLifecycle walks one pair through the entire happy path: queue,
// match, WebRTC handshake, live call, user hang-up, ratings, history record.
func TestFullCallLifecycle(t *testing.T) {
	registry := NewConnectionService(nil)
	history := &fakeHistory{}
	sessions := NewSessionService(registry, history, testTimeouts())
	queue := NewQueueService(sessions)
	relay := NewRelayService(sessions)
	registry.OnDisconnect(queue.RemoveFor)
	registry.OnDisconnect(sessions.HandleDisconnect)
	monitor := NewMonitorService(queue, sessions, registry, 2*time.Minute, 45*time.Second)

	aliceTr := enqueue(t, registry, queue,
		models.Identity{UserID: "alice", Gender: models.GenderFemale, Age: 25, Interests: []string{"music", "travel"}},
		models.PartnerFilter{Gender: models.GenderMale, MinAge: 20, MaxAge: 35})
	backdate(queue, "alice", time.Second)
	bobTr := enqueue(t, registry, queue,
		models.Identity{UserID: "bob", Gender: models.GenderMale, Age: 28, Interests: []string{"travel", "chess"}},
		models.PartnerFilter{})

	// Match
	monitor.RunTick(time.Now())
	require.Equal(t, 0, queue.Depth())

	aliceMatches := aliceTr.eventsNamed("match:found")
	bobMatches := bobTr.eventsNamed("match:found")
	require.Len(t, aliceMatches, 1)
	require.Len(t, bobMatches, 1)

	aliceView := aliceMatches[0].data.(models.MatchFoundEvent)
	bobView := bobMatches[0].data.(models.MatchFoundEvent)
	sessionID := aliceView.SessionID
	require.Equal(t, sessionID, bobView.SessionID)
	assert.True(t, aliceView.Initiator)
	assert.False(t, bobView.Initiator)
	assert.Equal(t, []string{"travel"}, aliceView.Partner.SharedInterests)

	// WebRTC handshake: offer, answer, trickled candidates
	require.NoError(t, relay.Relay(sessionID, "alice", MessageOffer, json.RawMessage(`{"sdp":"offer"}`)))
	require.NoError(t, relay.Relay(sessionID, "bob", MessageAnswer, json.RawMessage(`{"sdp":"answer"}`)))
	require.NoError(t, relay.Relay(sessionID, "alice", MessageIceCandidate, json.RawMessage(`{"candidate":"a"}`)))
	require.NoError(t, relay.Relay(sessionID, "bob", MessageIceCandidate, json.RawMessage(`{"candidate":"b"}`)))

	require.Len(t, bobTr.eventsNamed("call:offer"), 1)
	require.Len(t, aliceTr.eventsNamed("call:answer"), 1)

	// Both transports report up
	require.NoError(t, sessions.HandleTransportConnected(sessionID, "alice"))
	require.NoError(t, sessions.HandleTransportConnected(sessionID, "bob"))

	session, ok := sessions.Get(sessionID)
	require.True(t, ok)
	require.Equal(t, StateConnected, session.State)

	// Alice hangs up after five minutes of talking
	require.NoError(t, sessions.EndCall(sessionID, "alice", 300, ""))
	require.Equal(t, StateRating, session.State)

	for _, tr := range []*fakeTransport{aliceTr, bobTr} {
		events := tr.eventsNamed("call:ended")
		require.Len(t, events, 1)
		ended := events[0].data.(models.CallEndedEvent)
		assert.Equal(t, models.ReasonUserEnded, ended.Reason)
		assert.Equal(t, 300, ended.DurationSeconds)
	}

	// Both rate, session finalizes
	require.NoError(t, sessions.SubmitFeedback(sessionID, "alice", 5))
	require.NoError(t, sessions.SubmitFeedback(sessionID, "bob", 4))
	require.Equal(t, StateEnded, session.State)

	summaries := history.recorded()
	require.Len(t, summaries, 1)
	summary := summaries[0]
	assert.Equal(t, sessionID, summary.SessionID)
	assert.Equal(t, "alice", summary.ParticipantA)
	assert.Equal(t, "bob", summary.ParticipantB)
	assert.Equal(t, 300, summary.DurationSeconds)
	assert.Equal(t, models.ReasonUserEnded, summary.FinalReason)
	assert.Equal(t, 5, summary.RatingA)
	assert.Equal(t, 4, summary.RatingB)

	// Both users are free to queue again
	assert.NoError(t, queue.Join("alice", models.Identity{UserID: "alice"}, models.PartnerFilter{}, aliceTr))
	assert.NoError(t, queue.Join("bob", models.Identity{UserID: "bob"}, models.PartnerFilter{}, bobTr))
}
