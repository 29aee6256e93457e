package models

// Gender preference values accepted in a partner filter
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderAny    = "any"
)

// Identity represents the matchable attributes of a user. It is loaded from
// the profile directory when the user joins the queue and stays immutable for
// the lifetime of the queue entry / call session.
type Identity struct {
	UserID    string   `json:"user_id"`
	Gender    string   `json:"gender"`
	Age       int      `json:"age"`
	Interests []string `json:"interests,omitempty"`
}

// PartnerFilter describes what kind of partner a queued user is looking for
type PartnerFilter struct {
	Gender    string   `json:"looking_for"`
	MinAge    int      `json:"min_age,omitempty"`
	MaxAge    int      `json:"max_age,omitempty"`
	Interests []string `json:"interests,omitempty"`
	MinShared int      `json:"min_shared,omitempty"`
}

// Accepts reports whether a candidate's attributes satisfy this filter.
// Zero values relax the corresponding constraint (MinAge/MaxAge of 0 means
// unbounded, empty gender means any).
func (f PartnerFilter) Accepts(candidate Identity) bool {
	if f.Gender != "" && f.Gender != GenderAny && f.Gender != candidate.Gender {
		return false
	}
	if f.MinAge > 0 && candidate.Age < f.MinAge {
		return false
	}
	if f.MaxAge > 0 && candidate.Age > f.MaxAge {
		return false
	}
	if len(f.Interests) > 0 && f.MinShared > 0 {
		if f.SharedInterests(candidate) < f.MinShared {
			return false
		}
	}
	return true
}

// SharedInterests counts how many of the filter's interests the candidate has
func (f PartnerFilter) SharedInterests(candidate Identity) int {
	if len(f.Interests) == 0 || len(candidate.Interests) == 0 {
		return 0
	}
	wanted := make(map[string]bool, len(f.Interests))
	for _, interest := range f.Interests {
		wanted[interest] = true
	}
	shared := 0
	for _, interest := range candidate.Interests {
		if wanted[interest] {
			shared++
		}
	}
	return shared
}

// PartnerSummary is the partner view pushed to each peer in match:found.
// It deliberately omits the interest list beyond the shared ones.
type PartnerSummary struct {
	UserID          string   `json:"user_id"`
	Gender          string   `json:"gender"`
	Age             int      `json:"age"`
	SharedInterests []string `json:"shared_interests,omitempty"`
}
