package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a community-submitted point of interest. The TrustAggregate
// fields are owned by the vote engine; everything else is owned by whoever
// created the location.
type Location struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Description  string    `json:"description" db:"description"`
	Address      string    `json:"address" db:"address"`
	Latitude     float64   `json:"latitude" db:"latitude"`
	Longitude    float64   `json:"longitude" db:"longitude"`
	ContactPhone string    `json:"contactPhone,omitempty" db:"contact_phone"`
	ContactEmail string    `json:"contactEmail,omitempty" db:"contact_email"`
	CreatorID    uuid.UUID `json:"creatorId" db:"created_by"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
	IsVerified   bool      `json:"isVerified" db:"is_verified"`

	TrustAggregate

	AverageRating float64 `json:"averageRating" db:"average_rating"`
	ReviewCount   int     `json:"reviewCount" db:"review_count"`
}

// NewLocationAggregate returns the aggregate a freshly created location
// carries: no votes yet, fully trusted.
func NewLocationAggregate() TrustAggregate {
	return TrustAggregate{
		IgniterVotes:  0,
		ImposterVotes: 0,
		TotalVotes:    0,
		TrustScore:    100,
	}
}
