package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"voicematch/config"
)

var (
	// Cassandra session instance (call history store)
	CassandraSession *gocql.Session

	// Mongo client and the profile directory collection
	MongoClient     *mongo.Client
	UsersCollection *mongo.Collection
)

// InitDB initializes Cassandra and MongoDB connections
func InitDB() error {
	if err := InitCassandra(); err != nil {
		return fmt.Errorf("failed to initialize Cassandra: %v", err)
	}
	if err := InitMongo(); err != nil {
		return fmt.Errorf("failed to initialize MongoDB: %v", err)
	}
	fmt.Println("✅ Database services initialized successfully")
	return nil
}

// InitCassandra initializes the Cassandra session
func InitCassandra() error {
	// Create cluster configuration
	cluster := gocql.NewCluster(config.CassandraHost)
	cluster.Port = config.CassandraPort
	cluster.Keyspace = config.CassandraKeyspace
	cluster.Authenticator = gocql.PasswordAuthenticator{
		Username: config.CassandraUsername,
		Password: config.CassandraPassword,
	}

	// Set consistency and timeout
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second

	// Enable retry policy
	cluster.RetryPolicy = &gocql.SimpleRetryPolicy{
		NumRetries: 3,
	}

	// Enable connection pooling
	cluster.NumConns = 10
	cluster.MaxWaitSchemaAgreement = 2 * time.Minute

	log.Printf("🔌 Connecting to Cassandra at %s:%d...", config.CassandraHost, config.CassandraPort)

	session, err := cluster.CreateSession()
	if err != nil {
		return fmt.Errorf("failed to connect to Cassandra: %v", err)
	}

	// Test the connection
	if err := session.Query("SELECT release_version FROM system.local").Exec(); err != nil {
		return fmt.Errorf("failed to test Cassandra connection: %v", err)
	}

	CassandraSession = session
	log.Printf("✅ Cassandra session initialized successfully")
	log.Printf("📊 Connected to keyspace: %s", config.CassandraKeyspace)

	return nil
}

// InitMongo initializes the MongoDB client and the users collection
func InitMongo() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("🔌 Connecting to MongoDB at %s...", config.MongoURI)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	MongoClient = client
	UsersCollection = client.Database(config.MongoDatabase).Collection("users")
	log.Printf("✅ MongoDB connected, database: %s", config.MongoDatabase)

	return nil
}

// CloseAllConnections closes Cassandra and MongoDB connections
func CloseAllConnections() {
	if CassandraSession != nil {
		CassandraSession.Close()
		log.Println("✅ Cassandra connection closed")
	}
	if MongoClient != nil {
		if err := MongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("⚠️ Failed to disconnect MongoDB: %v", err)
		} else {
			log.Println("✅ MongoDB connection closed")
		}
	}
}

// GetSession returns the current Cassandra session
func GetSession() *gocql.Session {
	return CassandraSession
}

// HealthCheck performs a health check on the databases
func HealthCheck() error {
	if CassandraSession == nil {
		return fmt.Errorf("Cassandra session is not initialized")
	}

	// Simple health check query
	if err := CassandraSession.Query("SELECT release_version FROM system.local").Exec(); err != nil {
		return err
	}

	if MongoClient == nil {
		return fmt.Errorf("MongoDB client is not initialized")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return MongoClient.Ping(ctx, readpref.Primary())
}
