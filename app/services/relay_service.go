package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"voicematch/app/models"
)

// WebRTC handshake message types accepted by the relay
const (
	MessageOffer        = "offer"
	MessageAnswer       = "answer"
	MessageIceCandidate = "ice-candidate"
)

// RelayService forwards WebRTC handshake messages between the two peers of a
// session. Forwarding is fire-and-forget: signaling is not guaranteed
// delivery, the browser layer retries at a higher level.
type RelayService struct {
	sessions *SessionService
}

// NewRelayService creates a new signaling relay instance
func NewRelayService(sessions *SessionService) *RelayService {
	return &RelayService{sessions: sessions}
}

// Relay validates sender, session membership and phase, then forwards the
// payload verbatim to the other participant. Messages from the same sender
// for the same session are delivered in arrival order: forwarding happens
// under the session lock.
func (r *RelayService) Relay(sessionID, fromUserID, messageType string, payload json.RawMessage) error {
	session, ok := r.sessions.Get(sessionID)
	if !ok {
		return models.ErrUnknownSession
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.participant(fromUserID) == nil {
		return models.ErrNotAParticipant
	}

	now := time.Now()
	switch messageType {
	case MessageOffer, MessageAnswer:
		if session.State != StateMatched && session.State != StateSignaling {
			return models.ErrWrongPhase
		}
	case MessageIceCandidate:
		// Late candidates are still useful shortly after the transports
		// report connected.
		inGrace := session.State == StateConnected &&
			now.Sub(session.ConnectedAt) <= r.sessions.timeouts.IceGraceWindow
		if session.State != StateMatched && session.State != StateSignaling && !inGrace {
			return models.ErrWrongPhase
		}
	default:
		return fmt.Errorf("unknown signaling message type: %s", messageType)
	}

	// First handshake message moves the session out of MATCHED
	if session.State == StateMatched {
		session.State = StateSignaling
		session.SignalingAt = now
	}

	session.RelayedMessages++
	session.LastActivityAt = now

	peer := session.peerOf(fromUserID)
	if peer.Transport == nil {
		log.Printf("📭 Dropping %s for session %s: peer transport unavailable", messageType, sessionID)
		return nil
	}

	event := eventForMessage(messageType)
	if err := peer.Transport.Emit(event, models.SignalEvent{
		SessionID: sessionID,
		From:      fromUserID,
		Type:      messageType,
		Payload:   payload,
	}); err != nil {
		// Dropped relay messages are not errors; WebRTC renegotiates above us
		log.Printf("📭 Dropping %s for session %s: %v", messageType, sessionID, err)
	}
	return nil
}

// eventForMessage maps a handshake message type to its outbound socket event
func eventForMessage(messageType string) string {
	switch messageType {
	case MessageOffer:
		return "call:offer"
	case MessageAnswer:
		return "call:answer"
	default:
		return "call:ice"
	}
}
