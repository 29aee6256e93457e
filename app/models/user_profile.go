package models

import "time"

// UserProfile is the Mongo document backing the profile directory. Writes
// belong to the onboarding/profile surfaces; this core only reads it.
type UserProfile struct {
	ID        string    `bson:"_id" json:"user_id"`
	FullName  string    `bson:"full_name" json:"full_name"`
	Gender    string    `bson:"gender" json:"gender"`
	Age       int       `bson:"age" json:"age"`
	Interests []string  `bson:"interests" json:"interests"`
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
