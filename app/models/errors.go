package models

import "errors"

// Recoverable matchmaking/call errors returned synchronously to the
// requesting client. None of these crash the process.
var (
	ErrAlreadyQueued    = errors.New("user already has a queue entry")
	ErrAlreadyInSession = errors.New("user is already in an active call session")
	ErrUnknownSession   = errors.New("session not found")
	ErrNotAParticipant  = errors.New("user is not a participant of this session")
	ErrWrongPhase       = errors.New("operation not valid in the session's current phase")
	ErrUnknownUser      = errors.New("no profile found for user")
	ErrNotRegistered    = errors.New("socket has no registered user")
)

// Terminal reasons recorded on a session when it ends or aborts
const (
	ReasonUserEnded        = "user-ended"
	ReasonPeerDisconnected = "peer-disconnected"
	ReasonHandshakeTimeout = "handshake-timeout"
	ReasonSignalingTimeout = "signaling-timeout"
	ReasonTimeLimit        = "time-limit"
	ReasonInternal         = "internal-inconsistency"
)
