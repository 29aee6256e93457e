package services

import (
	"log"
	"sync"
	"time"

	"voicematch/app/models"
	"voicematch/redis"
)

// Connection status values
const (
	ConnectionOnline  = "online"
	ConnectionOffline = "offline"
)

// Connection maps an authenticated user to its live transport
type Connection struct {
	UserID      string
	Transport   Transport
	Status      string
	ConnectedAt time.Time
	LastSeenAt  time.Time
}

// ConnectionService is the process-wide connection registry. It owns the
// userID→transport mapping and online/offline status; socket lifetime stays
// with the socket.io layer.
type ConnectionService struct {
	mu              sync.RWMutex
	connections     map[string]*Connection
	bySocket        map[string]string
	redisService    *redis.Service
	disconnectHooks []func(userID string)
}

// NewConnectionService creates a new connection registry instance.
// redisService may be nil; presence mirroring is then skipped.
func NewConnectionService(redisService *redis.Service) *ConnectionService {
	return &ConnectionService{
		connections:  make(map[string]*Connection),
		bySocket:     make(map[string]string),
		redisService: redisService,
	}
}

// OnDisconnect registers a hook fired after a user's connection is removed.
// Hooks run outside the registry lock.
func (c *ConnectionService) OnDisconnect(hook func(userID string)) {
	c.mu.Lock()
	c.disconnectHooks = append(c.disconnectHooks, hook)
	c.mu.Unlock()
}

// Register binds a user to a live transport. Registering again for the same
// user replaces the previous transport (reconnect).
func (c *ConnectionService) Register(userID string, transport Transport) {
	now := time.Now()

	c.mu.Lock()
	if existing, ok := c.connections[userID]; ok && existing.Transport != nil {
		delete(c.bySocket, existing.Transport.ID())
	}
	conn := &Connection{
		UserID:      userID,
		Transport:   transport,
		Status:      ConnectionOnline,
		ConnectedAt: now,
		LastSeenAt:  now,
	}
	c.connections[userID] = conn
	c.bySocket[transport.ID()] = userID
	c.mu.Unlock()

	log.Printf("✅ Connection registered: user=%s socket=%s", userID, transport.ID())
	c.mirrorPresence(userID, transport.ID(), ConnectionOnline, now)
}

// Unregister removes a user's connection and fires the disconnect hooks so
// the queue and session manager can react (entry removal / peer-disconnected).
// Idempotent: unknown users are a no-op.
func (c *ConnectionService) Unregister(userID string) {
	c.mu.Lock()
	conn, ok := c.connections[userID]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.connections, userID)
	if conn.Transport != nil {
		delete(c.bySocket, conn.Transport.ID())
	}
	hooks := make([]func(string), len(c.disconnectHooks))
	copy(hooks, c.disconnectHooks)
	c.mu.Unlock()

	log.Printf("🔌 Connection unregistered: user=%s", userID)
	for _, hook := range hooks {
		hook(userID)
	}

	if c.redisService != nil {
		if err := c.redisService.DeletePresence(userID); err != nil {
			log.Printf("⚠️ Failed to drop presence for %s: %v", userID, err)
		}
	}
}

// UnregisterSocket resolves the socket id to a user and unregisters it.
// Sockets that never registered a user are ignored.
func (c *ConnectionService) UnregisterSocket(socketID string) {
	c.mu.RLock()
	userID, ok := c.bySocket[socketID]
	c.mu.RUnlock()
	if !ok {
		return
	}
	c.Unregister(userID)
}

// Heartbeat bumps a user's liveness timestamp
func (c *ConnectionService) Heartbeat(userID string) error {
	now := time.Now()

	c.mu.Lock()
	conn, ok := c.connections[userID]
	if !ok {
		c.mu.Unlock()
		return models.ErrNotRegistered
	}
	conn.LastSeenAt = now
	socketID := ""
	if conn.Transport != nil {
		socketID = conn.Transport.ID()
	}
	c.mu.Unlock()

	c.mirrorPresence(userID, socketID, ConnectionOnline, now)
	return nil
}

// IsOnline reports whether the user has a live registered connection
func (c *ConnectionService) IsOnline(userID string) bool {
	c.mu.RLock()
	conn, ok := c.connections[userID]
	c.mu.RUnlock()
	return ok && conn.Status == ConnectionOnline
}

// TransportFor returns the user's live transport if one is registered
func (c *ConnectionService) TransportFor(userID string) (Transport, bool) {
	c.mu.RLock()
	conn, ok := c.connections[userID]
	c.mu.RUnlock()
	if !ok || conn.Transport == nil {
		return nil, false
	}
	return conn.Transport, true
}

// UserBySocket resolves a socket id to the registered user id
func (c *ConnectionService) UserBySocket(socketID string) (string, bool) {
	c.mu.RLock()
	userID, ok := c.bySocket[socketID]
	c.mu.RUnlock()
	return userID, ok
}

// Count returns the number of live connections
func (c *ConnectionService) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.connections)
}

// SweepStale unregisters every connection whose last heartbeat is older than
// maxIdle and returns the affected user ids. Called from the monitor tick.
func (c *ConnectionService) SweepStale(maxIdle time.Duration) []string {
	cutoff := time.Now().Add(-maxIdle)

	c.mu.RLock()
	var stale []string
	for userID, conn := range c.connections {
		if conn.LastSeenAt.Before(cutoff) {
			stale = append(stale, userID)
		}
	}
	c.mu.RUnlock()

	for _, userID := range stale {
		log.Printf("🧹 Dropping stale connection: user=%s", userID)
		c.Unregister(userID)
	}
	return stale
}

// mirrorPresence writes the presence record to Redis, best effort
func (c *ConnectionService) mirrorPresence(userID, socketID, status string, seenAt time.Time) {
	if c.redisService == nil {
		return
	}
	presence := redis.PresenceData{
		UserID:   userID,
		SocketID: socketID,
		Status:   status,
		LastSeen: seenAt,
	}
	if err := c.redisService.CachePresence(presence, 24*time.Hour); err != nil {
		log.Printf("⚠️ Failed to cache presence for %s: %v", userID, err)
	}
}
