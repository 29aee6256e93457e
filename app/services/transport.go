package services

// Transport is a non-owning reference to a client's live socket. The socket
// layer owns the connection lifetime; the core only pushes events through it.
// Emits are assumed non-blocking or asynchronous at this boundary.
type Transport interface {
	// ID returns the underlying socket id
	ID() string
	// Emit pushes one named event to the client
	Emit(event string, data interface{}) error
}
