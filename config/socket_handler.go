package config

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	socketio "github.com/doquangtan/socket.io/v4"
	"github.com/gofiber/fiber/v2"

	"voicematch/app/models"
	"voicematch/app/services"
	"voicematch/app/utils"
)

// socketTransport adapts a socket.io socket to the core's Transport boundary
type socketTransport struct {
	socket *socketio.Socket
}

func (t *socketTransport) ID() string {
	return t.socket.Id
}

func (t *socketTransport) Emit(event string, data interface{}) error {
	t.socket.Emit(event, data)
	return nil
}

// SocketIoHandler handles all Socket.IO related functionality
type SocketIoHandler struct {
	io          *socketio.Io
	connections *services.ConnectionService
	queue       *services.QueueService
	sessions    *services.SessionService
	relay       *services.RelayService
	profiles    *services.ProfileService
	monitor     *services.MonitorService
}

// NewSocketHandler creates a new Socket.IO handler instance
func NewSocketHandler(connections *services.ConnectionService, queue *services.QueueService,
	sessions *services.SessionService, relay *services.RelayService,
	profiles *services.ProfileService, monitor *services.MonitorService) *SocketIoHandler {
	io := socketio.New()

	handler := &SocketIoHandler{
		io:          io,
		connections: connections,
		queue:       queue,
		sessions:    sessions,
		relay:       relay,
		profiles:    profiles,
		monitor:     monitor,
	}

	handler.setupSocketHandlers()
	return handler
}

// setupSocketHandlers configures all Socket.IO event handlers
func (h *SocketIoHandler) setupSocketHandlers() {
	// Authorization handler. A token passed in the handshake is verified
	// here; binding the socket to a user happens on the register event.
	h.io.OnAuthorization(func(params map[string]string) bool {
		if token, ok := params["token"]; ok && token != "" {
			if _, err := utils.ValidateUserToken(token); err != nil {
				log.Printf("❌ Handshake token rejected: %v", err)
				return false
			}
		}
		return true
	})

	// Main connection handler
	h.io.OnConnection(func(socket *socketio.Socket) {
		log.Printf("✅ Socket connected: %s (namespace: %s)", socket.Id, socket.Nps)

		socket.Emit("connect_response", map[string]interface{}{
			"success":     true,
			"status":      "connected",
			"message":     "Welcome to the voicematch server!",
			"server_time": time.Now().UTC().Format(time.RFC3339),
		})

		// Register handler: binds the authenticated user to this socket
		socket.On("register", func(event *socketio.EventPayload) {
			var req models.RegisterRequest
			if !h.decodeEvent(socket, event, "register_data", &req) {
				return
			}

			if req.Token == "" {
				h.emitError(socket, models.ErrorCodeMissingField, models.ErrorTypeField,
					"token", "Auth token is required")
				return
			}

			claims, err := utils.ValidateUserToken(req.Token)
			if err != nil {
				h.emitError(socket, models.ErrorCodeInvalidToken, models.ErrorTypeAuthentication,
					"token", err.Error())
				return
			}

			h.connections.Register(claims.UserID, &socketTransport{socket: socket})

			socket.Emit("register:ack", models.RegisterResponse{
				Status:               "success",
				Message:              "Socket registered",
				UserID:               claims.UserID,
				MaxReconnectAttempts: MaxReconnectAttempts,
				ReconnectBaseDelayMs: int(ReconnectBaseDelay.Milliseconds()),
				Timestamp:            time.Now().UTC().Format(time.RFC3339),
				SocketID:             socket.Id,
				Event:                "register:ack",
			})
		})

		// Queue and call handlers
		h.setupQueueHandlers(socket)
		h.setupCallHandlers(socket)

		// Heartbeat handler
		socket.On("heartbeat", func(event *socketio.EventPayload) {
			userID, ok := h.requireUser(socket)
			if !ok {
				return
			}
			if err := h.connections.Heartbeat(userID); err != nil {
				h.emitError(socket, models.ErrorCodeNotRegistered, models.ErrorTypeAuthentication,
					"heartbeat", err.Error())
				return
			}
			socket.Emit("heartbeat", models.HeartbeatResponse{
				Success:   true,
				Timestamp: time.Now().Format(time.RFC3339),
			})
		})

		// Disconnect handlers
		socket.On("disconnecting", func(event *socketio.EventPayload) {
			log.Printf("🔌 Socket disconnecting: %s (namespace: %s)", socket.Id, socket.Nps)
		})

		socket.On("disconnect", func(event *socketio.EventPayload) {
			log.Printf("🔌 Socket disconnected: %s (namespace: %s)", socket.Id, socket.Nps)
			h.connections.UnregisterSocket(socket.Id)
		})
	})
}

// requireUser resolves the registered user for a socket, rejecting the
// request when the socket never registered
func (h *SocketIoHandler) requireUser(socket *socketio.Socket) (string, bool) {
	userID, ok := h.connections.UserBySocket(socket.Id)
	if !ok {
		h.emitError(socket, models.ErrorCodeNotRegistered, models.ErrorTypeAuthentication,
			"register", "Socket is not registered, send register first")
		return "", false
	}
	return userID, true
}

// decodeEvent parses the first event payload element into dest, rejecting
// missing or malformed payloads
func (h *SocketIoHandler) decodeEvent(socket *socketio.Socket, event *socketio.EventPayload, field string, dest interface{}) bool {
	if len(event.Data) == 0 {
		h.emitError(socket, models.ErrorCodeMissingField, models.ErrorTypeField,
			field, fmt.Sprintf("No %s provided", field))
		return false
	}

	raw, err := json.Marshal(event.Data[0])
	if err != nil {
		h.emitError(socket, models.ErrorCodeInvalidFormat, models.ErrorTypeFormat,
			field, fmt.Sprintf("Invalid %s format", field))
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		h.emitError(socket, models.ErrorCodeInvalidFormat, models.ErrorTypeFormat,
			field, fmt.Sprintf("Failed to parse %s", field))
		return false
	}
	return true
}

// emitError pushes a structured rejection back to the originating client
func (h *SocketIoHandler) emitError(socket *socketio.Socket, code, errType, field, message string) {
	socket.Emit("connection_error", models.ConnectionError{
		Status:    "error",
		ErrorCode: code,
		ErrorType: errType,
		Field:     field,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		SocketID:  socket.Id,
		Event:     "connection_error",
	})
}

// GetIo returns the Socket.IO instance
func (h *SocketIoHandler) GetIo() *socketio.Io {
	return h.io
}

// SetupSocketRoutes configures Socket.IO routes for the Fiber app
func (h *SocketIoHandler) SetupSocketRoutes(app *fiber.App) {
	app.Use("/", h.io.Middleware)
	app.Route("/socket.io", h.io.FiberRoute)
}
