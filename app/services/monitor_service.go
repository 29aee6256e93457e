package services

import (
	"log"
	"sync"
	"time"

	"voicematch/app/models"
)

// MonitorService drives the periodic tick: pairing runs, queue-entry expiry,
// session phase deadlines and stale-connection sweeps. It is the only place
// deadlines are enforced.
type MonitorService struct {
	queue       *QueueService
	sessions    *SessionService
	connections *ConnectionService

	queueWaitLimit      time.Duration
	connectionIdleLimit time.Duration

	stopChan     chan bool
	isRunning    bool
	pendingRun   bool
	pendingRunMu sync.Mutex
}

// NewMonitorService creates a new monitor instance
func NewMonitorService(queue *QueueService, sessions *SessionService, connections *ConnectionService, queueWaitLimit, connectionIdleLimit time.Duration) *MonitorService {
	return &MonitorService{
		queue:               queue,
		sessions:            sessions,
		connections:         connections,
		queueWaitLimit:      queueWaitLimit,
		connectionIdleLimit: connectionIdleLimit,
		stopChan:            make(chan bool),
	}
}

// Start launches the monitor loop on the given tick interval
func (m *MonitorService) Start(interval time.Duration) {
	if m.isRunning {
		log.Println("⚠️ Monitor is already running")
		return
	}

	m.isRunning = true
	log.Printf("🚀 Starting matchmaking monitor (tick: %v)", interval)

	go func() {
		for {
			// 1. Run one tick
			m.RunTick(time.Now())

			// 2. Check if another run was requested during the last tick
			m.pendingRunMu.Lock()
			rerun := m.pendingRun
			m.pendingRun = false
			m.pendingRunMu.Unlock()

			if rerun {
				// Run again immediately (do-while style)
				continue
			}

			// 3. Otherwise, wait for the interval
			select {
			case <-m.stopChan:
				log.Println("🛑 Stopping matchmaking monitor")
				return
			case <-time.After(interval):
				// Loop continues
			}
		}
	}()
}

// Stop halts the monitor loop
func (m *MonitorService) Stop() {
	if !m.isRunning {
		log.Println("⚠️ Monitor is not running")
		return
	}

	m.isRunning = false
	m.stopChan <- true
	log.Println("🛑 Matchmaking monitor stopped")
}

// IsRunning returns whether the monitor loop is currently running
func (m *MonitorService) IsRunning() bool {
	return m.isRunning
}

// RequestPairingRun asks the loop to run again immediately after the current
// tick; called after every queue join so fresh entries pair without waiting
// a full interval.
func (m *MonitorService) RequestPairingRun() {
	m.pendingRunMu.Lock()
	m.pendingRun = true
	m.pendingRunMu.Unlock()
}

// RunTick executes one monitor pass. Exported so tests can tick manually.
func (m *MonitorService) RunTick(now time.Time) {
	// Pair whoever is compatible
	m.queue.TryPair()

	// Expire entries that waited past the ceiling and tell their clients
	for _, entry := range m.queue.ExpireStale(m.queueWaitLimit) {
		if entry.Transport == nil {
			continue
		}
		entry.Transport.Emit("queue:timeout", models.QueueTimeoutEvent{
			Status:        "timeout",
			Message:       "No match found, please try again",
			WaitedSeconds: int(now.Sub(entry.EnqueuedAt).Seconds()),
			Timestamp:     now.UTC().Format(time.RFC3339),
			Event:         "queue:timeout",
		})
	}

	// Enforce session phase deadlines
	m.sessions.SweepDeadlines(now)

	// Drop connections that stopped heartbeating
	if m.connections != nil {
		m.connections.SweepStale(m.connectionIdleLimit)
	}
}
