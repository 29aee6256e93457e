package config

import (
	"context"
	"errors"
	"time"

	socketio "github.com/doquangtan/socket.io/v4"

	"voicematch/app/models"
	"voicematch/app/services"
)

// setupQueueHandlers configures the matchmaking queue events for one socket
func (h *SocketIoHandler) setupQueueHandlers(socket *socketio.Socket) {
	// Join queue handler
	socket.On("queue:join", func(event *socketio.EventPayload) {
		userID, ok := h.requireUser(socket)
		if !ok {
			return
		}

		var req models.QueueJoinRequest
		if !h.decodeEvent(socket, event, "queue_join_data", &req) {
			return
		}

		identity, err := h.profiles.GetIdentity(context.Background(), userID)
		if err != nil {
			code, errType := mapServiceError(err)
			h.emitError(socket, code, errType, "profile", err.Error())
			return
		}

		filter := models.PartnerFilter{
			Gender:    req.LookingFor,
			MinAge:    req.MinAge,
			MaxAge:    req.MaxAge,
			Interests: req.Interests,
			MinShared: MinSharedInterests,
		}

		if err := h.queue.Join(userID, *identity, filter, &socketTransport{socket: socket}); err != nil {
			code, errType := mapServiceError(err)
			h.emitError(socket, code, errType, "queue", err.Error())
			return
		}

		// Pair fresh entries without waiting for the next tick
		h.monitor.RequestPairingRun()

		position, _, _ := h.queue.Status(userID)
		socket.Emit("queue:joined", models.QueueJoinResponse{
			Status:    "success",
			Message:   "Looking for a partner...",
			UserID:    userID,
			Position:  position,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			SocketID:  socket.Id,
			Event:     "queue:joined",
		})
	})

	// Leave queue handler
	socket.On("queue:leave", func(event *socketio.EventPayload) {
		userID, ok := h.requireUser(socket)
		if !ok {
			return
		}

		h.queue.Leave(userID)
		socket.Emit("queue:left", map[string]interface{}{
			"status":    "success",
			"user_id":   userID,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"event":     "queue:left",
		})
	})

	// Queue status handler
	socket.On("queue:status", func(event *socketio.EventPayload) {
		userID, ok := h.requireUser(socket)
		if !ok {
			return
		}

		position, waiting, queued := h.queue.Status(userID)
		status := "waiting"
		if !queued {
			status = "not-queued"
		}
		socket.Emit("queue:status", models.QueueStatusResponse{
			Status:        status,
			UserID:        userID,
			Position:      position,
			Waiting:       waiting,
			EstimatedWait: position * int(EstimatedWaitPerPosition.Seconds()),
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			SocketID:      socket.Id,
			Event:         "queue:status",
		})
	})
}

// setupCallHandlers configures the signaling and call lifecycle events for one socket
func (h *SocketIoHandler) setupCallHandlers(socket *socketio.Socket) {
	// WebRTC handshake relays
	h.setupSignalHandler(socket, "call:offer", services.MessageOffer)
	h.setupSignalHandler(socket, "call:answer", services.MessageAnswer)
	h.setupSignalHandler(socket, "call:ice", services.MessageIceCandidate)

	// Transport connected handler: one peer's media link came up
	socket.On("call:connected", func(event *socketio.EventPayload) {
		userID, ok := h.requireUser(socket)
		if !ok {
			return
		}

		var req models.CallConnectedRequest
		if !h.decodeEvent(socket, event, "call_connected_data", &req) {
			return
		}

		if err := h.sessions.HandleTransportConnected(req.SessionID, userID); err != nil {
			code, errType := mapServiceError(err)
			h.emitError(socket, code, errType, "session", err.Error())
		}
	})

	// End call handler
	socket.On("call:end", func(event *socketio.EventPayload) {
		userID, ok := h.requireUser(socket)
		if !ok {
			return
		}

		var req models.CallEndRequest
		if !h.decodeEvent(socket, event, "call_end_data", &req) {
			return
		}

		if err := h.sessions.EndCall(req.SessionID, userID, req.Duration, req.Reason); err != nil {
			code, errType := mapServiceError(err)
			h.emitError(socket, code, errType, "session", err.Error())
		}
	})

	// Rating handler
	socket.On("call:rate", func(event *socketio.EventPayload) {
		userID, ok := h.requireUser(socket)
		if !ok {
			return
		}

		var req models.CallRateRequest
		if !h.decodeEvent(socket, event, "call_rate_data", &req) {
			return
		}

		if err := h.sessions.SubmitFeedback(req.SessionID, userID, req.Rating); err != nil {
			code, errType := mapServiceError(err)
			h.emitError(socket, code, errType, "session", err.Error())
			return
		}
		socket.Emit("call:rated", map[string]interface{}{
			"status":     "success",
			"session_id": req.SessionID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"event":      "call:rated",
		})
	})
}

// setupSignalHandler wires one signaling event to the relay
func (h *SocketIoHandler) setupSignalHandler(socket *socketio.Socket, eventName, messageType string) {
	socket.On(eventName, func(event *socketio.EventPayload) {
		userID, ok := h.requireUser(socket)
		if !ok {
			return
		}

		var req models.SignalRequest
		if !h.decodeEvent(socket, event, "signal_data", &req) {
			return
		}

		if err := h.relay.Relay(req.SessionID, userID, messageType, req.Payload); err != nil {
			code, errType := mapServiceError(err)
			h.emitError(socket, code, errType, "signal", err.Error())
		}
	})
}

// mapServiceError translates core errors into socket rejection codes
func mapServiceError(err error) (code, errType string) {
	switch {
	case errors.Is(err, models.ErrAlreadyQueued):
		return models.ErrorCodeAlreadyQueued, models.ErrorTypeQueue
	case errors.Is(err, models.ErrAlreadyInSession):
		return models.ErrorCodeAlreadyInSession, models.ErrorTypeQueue
	case errors.Is(err, models.ErrUnknownSession):
		return models.ErrorCodeUnknownSession, models.ErrorTypeSession
	case errors.Is(err, models.ErrNotAParticipant):
		return models.ErrorCodeNotAParticipant, models.ErrorTypeSession
	case errors.Is(err, models.ErrWrongPhase):
		return models.ErrorCodeWrongPhase, models.ErrorTypeSession
	case errors.Is(err, models.ErrUnknownUser):
		return models.ErrorCodeUnknownUser, models.ErrorTypeAuthentication
	case errors.Is(err, models.ErrNotRegistered):
		return models.ErrorCodeNotRegistered, models.ErrorTypeAuthentication
	default:
		return models.ErrorCodeInternal, models.ErrorTypeSystem
	}
}
