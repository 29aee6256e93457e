package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartnerFilterAccepts(t *testing.T) {
	candidate := Identity{
		UserID:    "bob",
		Gender:    GenderMale,
		Age:       28,
		Interests: []string{"music", "travel", "chess"},
	}

	tests := []struct {
		name   string
		filter PartnerFilter
		want   bool
	}{
		{"empty filter accepts anyone", PartnerFilter{}, true},
		{"gender any accepts anyone", PartnerFilter{Gender: GenderAny}, true},
		{"gender match", PartnerFilter{Gender: GenderMale}, true},
		{"gender mismatch", PartnerFilter{Gender: GenderFemale}, false},
		{"inside age range", PartnerFilter{MinAge: 25, MaxAge: 30}, true},
		{"below min age", PartnerFilter{MinAge: 30}, false},
		{"above max age", PartnerFilter{MaxAge: 25}, false},
		{"min age zero is unbounded", PartnerFilter{MaxAge: 30}, true},
		{"enough shared interests", PartnerFilter{Interests: []string{"music", "hiking"}, MinShared: 1}, true},
		{"too few shared interests", PartnerFilter{Interests: []string{"music", "travel"}, MinShared: 3}, false},
		{"interests without threshold are ignored", PartnerFilter{Interests: []string{"skydiving"}}, true},
		{"all constraints together", PartnerFilter{Gender: GenderMale, MinAge: 20, MaxAge: 35, Interests: []string{"chess"}, MinShared: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Accepts(candidate))
		})
	}
}

func TestSharedInterestsCount(t *testing.T) {
	filter := PartnerFilter{Interests: []string{"music", "travel", "cooking"}}

	assert.Equal(t, 2, filter.SharedInterests(Identity{Interests: []string{"travel", "music", "chess"}}))
	assert.Equal(t, 0, filter.SharedInterests(Identity{Interests: []string{"chess"}}))
	assert.Equal(t, 0, filter.SharedInterests(Identity{}))
	assert.Equal(t, 0, PartnerFilter{}.SharedInterests(Identity{Interests: []string{"music"}}))
}
