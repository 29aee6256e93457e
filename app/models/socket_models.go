package models

import "encoding/json"

// RegisterRequest binds an authenticated user to the current socket
type RegisterRequest struct {
	Token string `json:"token"`
}

// RegisterResponse acknowledges a successful socket registration and tells
// the client how to behave when the connection drops.
type RegisterResponse struct {
	Status               string `json:"status"`
	Message              string `json:"message"`
	UserID               string `json:"user_id"`
	MaxReconnectAttempts int    `json:"max_reconnect_attempts"`
	ReconnectBaseDelayMs int    `json:"reconnect_base_delay_ms"`
	Timestamp            string `json:"timestamp"`
	SocketID             string `json:"socket_id"`
	Event                string `json:"event"`
}

// QueueJoinRequest represents a join-queue request from client
type QueueJoinRequest struct {
	LookingFor string   `json:"looking_for"`
	MinAge     int      `json:"min_age,omitempty"`
	MaxAge     int      `json:"max_age,omitempty"`
	Interests  []string `json:"interests,omitempty"`
}

// QueueJoinResponse acknowledges a queue entry
type QueueJoinResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	Position  int    `json:"position"`
	Timestamp string `json:"timestamp"`
	SocketID  string `json:"socket_id"`
	Event     string `json:"event"`
}

// QueueStatusResponse is the queue-status snapshot for a waiting user
type QueueStatusResponse struct {
	Status        string `json:"status"`
	UserID        string `json:"user_id"`
	Position      int    `json:"position"`
	Waiting       int    `json:"waiting"`
	EstimatedWait int    `json:"estimated_wait_seconds"`
	Timestamp     string `json:"timestamp"`
	SocketID      string `json:"socket_id"`
	Event         string `json:"event"`
}

// MatchFoundEvent is pushed to both peers the moment a session is created.
// Initiator tells the client whether it should create the WebRTC offer.
type MatchFoundEvent struct {
	SessionID string         `json:"session_id"`
	Partner   PartnerSummary `json:"partner"`
	Initiator bool           `json:"initiator"`
	Timestamp string         `json:"timestamp"`
	Event     string         `json:"event"`
}

// SignalRequest carries one WebRTC handshake message (offer/answer/ICE)
type SignalRequest struct {
	SessionID string          `json:"session_id"`
	Payload   json.RawMessage `json:"payload"`
}

// SignalEvent is the relayed handshake message delivered to the peer
type SignalEvent struct {
	SessionID string          `json:"session_id"`
	From      string          `json:"from"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

// CallConnectedRequest reports that this peer's media transport came up
type CallConnectedRequest struct {
	SessionID string `json:"session_id"`
}

// CallEndRequest represents an end-call request from either peer
type CallEndRequest struct {
	SessionID string `json:"session_id"`
	Duration  int    `json:"duration,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// CallEndedEvent is pushed to both peers when a session reaches RATING or aborts
type CallEndedEvent struct {
	SessionID       string `json:"session_id"`
	Reason          string `json:"reason"`
	DurationSeconds int    `json:"duration_seconds"`
	Timestamp       string `json:"timestamp"`
	Event           string `json:"event"`
}

// CallRateRequest submits post-call feedback for the rating phase
type CallRateRequest struct {
	SessionID string `json:"session_id"`
	Rating    int    `json:"rating"`
}

// QueueTimeoutEvent tells a waiting client its entry expired without a match
type QueueTimeoutEvent struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	WaitedSeconds int    `json:"waited_seconds"`
	Timestamp     string `json:"timestamp"`
	Event         string `json:"event"`
}

// HeartbeatResponse represents heartbeat acknowledgment
type HeartbeatResponse struct {
	Success   bool   `json:"success"`
	Timestamp string `json:"timestamp"`
}

// ConnectionError represents a structured rejection pushed back to the
// originating client when a request cannot be honored
type ConnectionError struct {
	Status    string                 `json:"status"`
	ErrorCode string                 `json:"error_code"`
	ErrorType string                 `json:"error_type"`
	Field     string                 `json:"field,omitempty"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
	SocketID  string                 `json:"socket_id"`
	Event     string                 `json:"event"`
}

// Error codes for socket-level rejections
const (
	ErrorCodeMissingField     = "MISSING_FIELD"
	ErrorCodeInvalidFormat    = "INVALID_FORMAT"
	ErrorCodeInvalidToken     = "INVALID_TOKEN"
	ErrorCodeNotRegistered    = "NOT_REGISTERED"
	ErrorCodeAlreadyQueued    = "ALREADY_QUEUED"
	ErrorCodeAlreadyInSession = "ALREADY_IN_SESSION"
	ErrorCodeUnknownSession   = "UNKNOWN_SESSION"
	ErrorCodeNotAParticipant  = "NOT_A_PARTICIPANT"
	ErrorCodeWrongPhase       = "WRONG_PHASE"
	ErrorCodeUnknownUser      = "UNKNOWN_USER"
	ErrorCodeInternal         = "INTERNAL_ERROR"
)

// Error types for socket-level rejections
const (
	ErrorTypeField          = "FIELD_ERROR"
	ErrorTypeFormat         = "FORMAT_ERROR"
	ErrorTypeAuthentication = "AUTHENTICATION_ERROR"
	ErrorTypeQueue          = "QUEUE_ERROR"
	ErrorTypeSession        = "SESSION_ERROR"
	ErrorTypeSystem         = "SYSTEM_ERROR"
)
