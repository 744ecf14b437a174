// internal/database/review_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"green-map/internal/models"
	"green-map/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReviewDocument represents the MongoDB schema for a review.
type ReviewDocument struct {
	ID          string    `bson:"_id"`
	LocationID  string    `bson:"locationid"`
	UserID      string    `bson:"userid"`
	Rating      int       `bson:"rating"`
	Comment     string    `bson:"comment"`
	CreatedAt   time.Time `bson:"createdat"`
	IsModerated bool      `bson:"ismoderated"`
}

// VisitDocument represents the MongoDB schema for a visit.
type VisitDocument struct {
	ID         string    `bson:"_id"`
	LocationID string    `bson:"locationid"`
	UserID     string    `bson:"userid"`
	VisitedAt  time.Time `bson:"visitedat"`
}

func reviewDocumentToModel(doc *ReviewDocument) (*models.Review, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid review ID: %v", err)
	}

	locationID, err := uuid.Parse(doc.LocationID)
	if err != nil {
		return nil, fmt.Errorf("invalid location ID: %v", err)
	}

	userID, err := uuid.Parse(doc.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %v", err)
	}

	return &models.Review{
		ID:          id,
		LocationID:  locationID,
		UserID:      userID,
		Rating:      doc.Rating,
		Comment:     doc.Comment,
		CreatedAt:   doc.CreatedAt,
		IsModerated: doc.IsModerated,
	}, nil
}

// SaveReview inserts a review.
func (m *MongoDB) SaveReview(ctx context.Context, review *models.Review) error {
	doc := ReviewDocument{
		ID:          review.ID.String(),
		LocationID:  review.LocationID.String(),
		UserID:      review.UserID.String(),
		Rating:      review.Rating,
		Comment:     review.Comment,
		CreatedAt:   review.CreatedAt,
		IsModerated: review.IsModerated,
	}

	if _, err := m.Reviews.InsertOne(ctx, doc); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save review", err)
	}
	return nil
}

// GetLocationReviews returns a location's reviews, newest first.
func (m *MongoDB) GetLocationReviews(ctx context.Context, locationID uuid.UUID) ([]*models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdat", Value: -1}})
	cursor, err := m.Reviews.Find(ctx, bson.M{"locationid": locationID.String()}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to list reviews", err)
	}
	defer cursor.Close(ctx)

	var reviews []*models.Review
	for cursor.Next(ctx) {
		var doc ReviewDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode review", err)
		}

		review, err := reviewDocumentToModel(&doc)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "corrupt review document", err)
		}
		reviews = append(reviews, review)
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "review cursor iteration failed", err)
	}
	return reviews, nil
}

// SaveVisit records a location visit.
func (m *MongoDB) SaveVisit(ctx context.Context, visit *models.Visit) error {
	doc := VisitDocument{
		ID:         visit.ID.String(),
		LocationID: visit.LocationID.String(),
		UserID:     visit.UserID.String(),
		VisitedAt:  visit.VisitedAt,
	}

	if _, err := m.Visits.InsertOne(ctx, doc); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save visit", err)
	}
	return nil
}
