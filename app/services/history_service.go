package services

import (
	"log"
	"time"

	"github.com/gocql/gocql"

	"voicematch/app/models"
	"voicematch/redis"
)

// HistoryService is the persistence collaborator for finished calls. It
// consumes each session summary exactly once and writes a call_history row.
// Persistence failures are logged, never fatal to the core.
type HistoryService struct {
	cassandraSession *gocql.Session
	redisService     *redis.Service
}

// NewHistoryService creates a new call-history service instance. Both
// dependencies may be nil, in which case summaries are only logged.
func NewHistoryService(cassandraSession *gocql.Session, redisService *redis.Service) *HistoryService {
	return &HistoryService{
		cassandraSession: cassandraSession,
		redisService:     redisService,
	}
}

// RecordCall persists one finished call
func (h *HistoryService) RecordCall(summary models.SessionSummary) {
	log.Printf("📼 Recording call %s: %s ↔ %s (%ds, %s)",
		summary.SessionID, summary.ParticipantA, summary.ParticipantB,
		summary.DurationSeconds, summary.FinalReason)

	if h.cassandraSession != nil {
		err := h.cassandraSession.Query(`
			INSERT INTO call_history (id, user1_id, user2_id, duration_seconds, final_reason, user1_rating, user2_rating, created_at, ended_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, gocql.TimeUUID(), summary.ParticipantA, summary.ParticipantB, summary.DurationSeconds,
			summary.FinalReason, summary.RatingA, summary.RatingB, summary.CreatedAt, summary.EndedAt).Exec()
		if err != nil {
			log.Printf("⚠️ Failed to persist call %s: %v", summary.SessionID, err)
		}
	}

	if h.redisService != nil {
		if _, err := h.redisService.IncrementCompletedCalls(); err != nil {
			log.Printf("⚠️ Failed to bump completed-calls counter: %v", err)
		}
	}
}

// RecentCalls returns the latest persisted calls for the stats endpoint
func (h *HistoryService) RecentCalls(limit int) ([]models.CallRecord, error) {
	if h.cassandraSession == nil {
		return nil, nil
	}

	iter := h.cassandraSession.Query(`
		SELECT id, user1_id, user2_id, duration_seconds, final_reason, user1_rating, user2_rating, created_at, ended_at
		FROM call_history LIMIT ?
	`, limit).Iter()

	var records []models.CallRecord
	var record models.CallRecord
	for iter.Scan(&record.ID, &record.User1ID, &record.User2ID, &record.DurationSeconds,
		&record.FinalReason, &record.User1Rating, &record.User2Rating, &record.CreatedAt, &record.EndedAt) {
		records = append(records, record)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return records, nil
}

// TotalCalls returns the lifetime completed-call counter from Redis
func (h *HistoryService) TotalCalls() int64 {
	if h.redisService == nil {
		return 0
	}
	total, err := h.redisService.GetCompletedCalls()
	if err != nil {
		return 0
	}
	return total
}

// CacheStats mirrors the current gauges to Redis for operational tooling
func (h *HistoryService) CacheStats(queueDepth, activeSessions, connections int) {
	if h.redisService == nil {
		return
	}
	stats := map[string]interface{}{
		"queue_depth":     queueDepth,
		"active_sessions": activeSessions,
		"connections":     connections,
		"updated_at":      time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.redisService.CacheMatchStats(stats, 5*time.Minute); err != nil {
		log.Printf("⚠️ Failed to cache match stats: %v", err)
	}
}
