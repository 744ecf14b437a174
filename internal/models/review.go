package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a rated comment on a location. Ratings are 1 through 5.
type Review struct {
	ID          uuid.UUID `json:"id" db:"id"`
	LocationID  uuid.UUID `json:"locationId" db:"location_id"`
	UserID      uuid.UUID `json:"userId" db:"user_id"`
	Rating      int       `json:"rating" db:"rating"`
	Comment     string    `json:"comment" db:"comment"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	IsModerated bool      `json:"isModerated" db:"is_moderated"`
}

// Visit records that a user opened a location's details.
type Visit struct {
	ID         uuid.UUID `json:"id" db:"id"`
	LocationID uuid.UUID `json:"locationId" db:"location_id"`
	UserID     uuid.UUID `json:"userId" db:"user_id"`
	VisitedAt  time.Time `json:"visitedAt" db:"visited_at"`
}
