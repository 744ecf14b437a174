package models

import (
	"time"

	"github.com/google/uuid"
)

// VoteType classifies a community vote on a location.
type VoteType string

const (
	// VoteIgniter marks a location as legitimate/trustworthy.
	VoteIgniter VoteType = "igniter"
	// VoteImposter marks a location as suspicious.
	VoteImposter VoteType = "imposter"
)

// IsValid reports whether the vote type is one of the recognized kinds.
func (v VoteType) IsValid() bool {
	return v == VoteIgniter || v == VoteImposter
}

// Vote is a single user's verdict on a location. At most one vote exists per
// (user, location) pair; casting again flips the type in place.
type Vote struct {
	ID         uuid.UUID `json:"id" db:"id"`
	LocationID uuid.UUID `json:"locationId" db:"location_id"`
	UserID     uuid.UUID `json:"userId" db:"user_id"`
	VoteType   VoteType  `json:"voteType" db:"vote_type"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// TrustAggregate is the derived vote summary embedded in a location. It is a
// pure function of the location's vote set and is never patched partially.
type TrustAggregate struct {
	IgniterVotes  int `json:"igniterVotes" db:"igniter_votes"`
	ImposterVotes int `json:"imposterVotes" db:"imposter_votes"`
	TotalVotes    int `json:"totalVotes" db:"total_votes"`
	TrustScore    int `json:"trustScore" db:"trust_score"`
}
