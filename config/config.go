// config/config.go
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"voicematch/app/utils"
)

// Configuration constants for the application
var (
	// Cassandra configuration (call history store)
	CassandraHost     string
	CassandraUsername string
	CassandraPassword string
	CassandraKeyspace string
	CassandraPort     int

	// MongoDB configuration (profile directory)
	MongoURI      string
	MongoDatabase string

	// Redis configuration (presence / stats cache)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// ServerPort is the port on which the server will run
	ServerPort int

	// JWTSecret signs and verifies socket auth tokens
	JWTSecret string

	// Matchmaking / call lifecycle tunables. All deadlines are enforced by
	// the monitor tick, never by per-operation blocking waits.
	MonitorTickInterval time.Duration
	QueueWaitLimit      time.Duration
	HandshakeTimeout    time.Duration
	SignalingTimeout    time.Duration
	MaxCallDuration     time.Duration
	RatingWindow        time.Duration
	IceGraceWindow      time.Duration
	ConnectionIdleLimit time.Duration
	EndedRetention      time.Duration

	// MinSharedInterests is the default interest-overlap requirement applied
	// when a filter lists interests
	MinSharedInterests int

	// EstimatedWaitPerPosition scales the wait estimate in queue:status
	EstimatedWaitPerPosition time.Duration

	// Client reconnect policy surfaced in the register ack
	MaxReconnectAttempts int
	ReconnectBaseDelay   time.Duration

	// Application configuration
	AppName    = "VOICEMATCH"
	AppVersion = "1.0.0"
)

func init() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
	}

	// Cassandra configuration
	CassandraHost = getEnv("CASSANDRA_HOST", "localhost")
	CassandraUsername = getEnv("CASSANDRA_USERNAME", "cassandra")
	CassandraPassword = getEnv("CASSANDRA_PASSWORD", "cassandra")
	CassandraKeyspace = getEnv("CASSANDRA_KEYSPACE", "voicematch")
	CassandraPort = getEnvInt("CASSANDRA_PORT", 9042)

	// MongoDB configuration
	MongoURI = getEnv("MONGO_URI", "mongodb://localhost:27017")
	MongoDatabase = getEnv("MONGO_DATABASE", "voicematch")

	// Redis configuration
	RedisURL = getEnv("REDIS_URL", "localhost:6379")
	RedisPassword = getEnv("REDIS_PASSWORD", "")
	RedisDB = getEnvInt("REDIS_DB", 0)

	// Server configuration
	ServerPort = getEnvInt("SERVER_PORT", 8088)
	JWTSecret = getEnv("JWT_SECRET", "voicematch-dev-secret-change-me")
	// Push token settings into app/utils, which cannot import this package
	utils.JWTSecret = JWTSecret
	utils.TokenIssuer = AppName

	// Lifecycle tunables
	MonitorTickInterval = getEnvDuration("MONITOR_TICK_INTERVAL", 1*time.Second)
	QueueWaitLimit = getEnvDuration("QUEUE_WAIT_LIMIT", 2*time.Minute)
	HandshakeTimeout = getEnvDuration("HANDSHAKE_TIMEOUT", 15*time.Second)
	SignalingTimeout = getEnvDuration("SIGNALING_TIMEOUT", 30*time.Second)
	MaxCallDuration = getEnvDuration("MAX_CALL_DURATION", 10*time.Minute)
	RatingWindow = getEnvDuration("RATING_WINDOW", 1*time.Minute)
	IceGraceWindow = getEnvDuration("ICE_GRACE_WINDOW", 5*time.Second)
	ConnectionIdleLimit = getEnvDuration("CONNECTION_IDLE_LIMIT", 45*time.Second)
	EndedRetention = getEnvDuration("ENDED_RETENTION", 1*time.Minute)

	MinSharedInterests = getEnvInt("MIN_SHARED_INTERESTS", 1)
	EstimatedWaitPerPosition = getEnvDuration("ESTIMATED_WAIT_PER_POSITION", 5*time.Second)

	MaxReconnectAttempts = getEnvInt("MAX_RECONNECT_ATTEMPTS", 5)
	ReconnectBaseDelay = getEnvDuration("RECONNECT_BASE_DELAY", 500*time.Millisecond)
}

// getEnv gets environment variable with fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with fallback default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with fallback default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
