package services

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicematch/app/models"
)

func TestRelayUnknownSession(t *testing.T) {
	f := newSessionFixture(t)
	relay := NewRelayService(f.sessions)

	err := relay.Relay("no-such-session", "alice", MessageOffer, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, models.ErrUnknownSession)

	// Nothing was delivered and the real session did not move
	assert.Empty(t, f.bobTr.eventsNamed("call:offer"))
	assert.Equal(t, StateMatched, f.session.State)
}

func TestRelayRejectsOutsiders(t *testing.T) {
	f := newSessionFixture(t)
	relay := NewRelayService(f.sessions)

	err := relay.Relay(f.session.ID, "mallory", MessageOffer, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, models.ErrNotAParticipant)
	assert.Equal(t, 0, f.session.RelayedMessages)
}

func TestRelayFirstMessageStartsSignaling(t *testing.T) {
	f := newSessionFixture(t)
	relay := NewRelayService(f.sessions)

	payload := json.RawMessage(`{"sdp":"v=0"}`)
	require.NoError(t, relay.Relay(f.session.ID, "alice", MessageOffer, payload))

	assert.Equal(t, StateSignaling, f.session.State)
	assert.False(t, f.session.SignalingAt.IsZero())

	events := f.bobTr.eventsNamed("call:offer")
	require.Len(t, events, 1)
	signal, ok := events[0].data.(models.SignalEvent)
	require.True(t, ok)
	assert.Equal(t, f.session.ID, signal.SessionID)
	assert.Equal(t, "alice", signal.From)
	assert.Equal(t, MessageOffer, signal.Type)
	assert.JSONEq(t, string(payload), string(signal.Payload))

	// The sender hears nothing back
	assert.Empty(t, f.aliceTr.eventsNamed("call:offer"))
}

func TestRelayPreservesSenderOrder(t *testing.T) {
	f := newSessionFixture(t)
	relay := NewRelayService(f.sessions)

	for i := 0; i < 5; i++ {
		payload := json.RawMessage(fmt.Sprintf(`{"seq":%d}`, i))
		require.NoError(t, relay.Relay(f.session.ID, "alice", MessageIceCandidate, payload))
	}

	events := f.bobTr.eventsNamed("call:ice")
	require.Len(t, events, 5)
	for i, event := range events {
		signal := event.data.(models.SignalEvent)
		assert.JSONEq(t, fmt.Sprintf(`{"seq":%d}`, i), string(signal.Payload))
	}
	assert.Equal(t, 5, f.session.RelayedMessages)
}

func TestRelayAnswerDeliveredToInitiator(t *testing.T) {
	f := newSessionFixture(t)
	relay := NewRelayService(f.sessions)

	require.NoError(t, relay.Relay(f.session.ID, "alice", MessageOffer, json.RawMessage(`{}`)))
	require.NoError(t, relay.Relay(f.session.ID, "bob", MessageAnswer, json.RawMessage(`{}`)))

	require.Len(t, f.aliceTr.eventsNamed("call:answer"), 1)
}

func TestRelayOfferRejectedAfterConnected(t *testing.T) {
	f := newSessionFixture(t)
	relay := NewRelayService(f.sessions)
	f.connect(t)

	err := relay.Relay(f.session.ID, "alice", MessageOffer, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, models.ErrWrongPhase)
}

func TestRelayIceGraceWindow(t *testing.T) {
	f := newSessionFixture(t)
	relay := NewRelayService(f.sessions)
	f.connect(t)

	// Right after connecting, trickled candidates still pass
	require.NoError(t, relay.Relay(f.session.ID, "bob", MessageIceCandidate, json.RawMessage(`{}`)))
	require.Len(t, f.aliceTr.eventsNamed("call:ice"), 1)

	// Past the grace window they are rejected
	f.session.ConnectedAt = time.Now().Add(-f.sessions.timeouts.IceGraceWindow - time.Second)
	err := relay.Relay(f.session.ID, "bob", MessageIceCandidate, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, models.ErrWrongPhase)
}

func TestRelayUnknownMessageType(t *testing.T) {
	f := newSessionFixture(t)
	relay := NewRelayService(f.sessions)

	err := relay.Relay(f.session.ID, "alice", "renegotiate", json.RawMessage(`{}`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrWrongPhase)
}

func TestRelayDropsWhenPeerTransportGone(t *testing.T) {
	f := newSessionFixture(t)
	relay := NewRelayService(f.sessions)

	f.session.B.Transport = nil
	err := relay.Relay(f.session.ID, "alice", MessageOffer, json.RawMessage(`{}`))
	assert.NoError(t, err)
	assert.Equal(t, 1, f.session.RelayedMessages)
}
