package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"voicematch/app/models"
)

// ProfileService reads matchable identity attributes from the profile
// directory. Profile writes belong to the onboarding surfaces; this core
// only looks users up at join-queue time.
type ProfileService struct {
	usersCollection *mongo.Collection
}

// NewProfileService creates a new profile directory reader
func NewProfileService(usersCollection *mongo.Collection) *ProfileService {
	return &ProfileService{usersCollection: usersCollection}
}

// GetIdentity loads the matchable attributes for a user
func (p *ProfileService) GetIdentity(ctx context.Context, userID string) (*models.Identity, error) {
	if p.usersCollection == nil {
		return nil, fmt.Errorf("profile directory not available")
	}

	var profile models.UserProfile
	err := p.usersCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for %s: %v", userID, err)
	}

	return &models.Identity{
		UserID:    profile.ID,
		Gender:    profile.Gender,
		Age:       profile.Age,
		Interests: profile.Interests,
	}, nil
}
