package models

import (
	"time"

	"github.com/gocql/gocql"
)

// SessionSummary is the read-once record handed to the history collaborator
// when a session reaches a terminal state.
type SessionSummary struct {
	SessionID       string    `json:"session_id"`
	ParticipantA    string    `json:"participant_a"`
	ParticipantB    string    `json:"participant_b"`
	DurationSeconds int       `json:"duration_seconds"`
	FinalReason     string    `json:"final_reason"`
	RatingA         int       `json:"rating_a,omitempty"`
	RatingB         int       `json:"rating_b,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	EndedAt         time.Time `json:"ended_at"`
}

// CallRecord represents one completed call persisted to Cassandra
type CallRecord struct {
	ID              gocql.UUID `json:"id" cql:"id"`
	User1ID         string     `json:"user1_id" cql:"user1_id"`
	User2ID         string     `json:"user2_id" cql:"user2_id"`
	DurationSeconds int        `json:"duration_seconds" cql:"duration_seconds"`
	FinalReason     string     `json:"final_reason" cql:"final_reason"`
	User1Rating     int        `json:"user1_rating" cql:"user1_rating"`
	User2Rating     int        `json:"user2_rating" cql:"user2_rating"`
	CreatedAt       time.Time  `json:"created_at" cql:"created_at"`
	EndedAt         time.Time  `json:"ended_at" cql:"ended_at"`
}
