// internal/database/location_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"green-map/internal/models"
	"green-map/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LocationDocument represents the MongoDB schema for a location.
type LocationDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Description  string    `bson:"description"`
	Address      string    `bson:"address"`
	Latitude     float64   `bson:"latitude"`
	Longitude    float64   `bson:"longitude"`
	ContactPhone string    `bson:"contactphone,omitempty"`
	ContactEmail string    `bson:"contactemail,omitempty"`
	CreatorID    string    `bson:"createdby"`
	CreatedAt    time.Time `bson:"createdat"`
	UpdatedAt    time.Time `bson:"updatedat"`
	IsVerified   bool      `bson:"isverified"`

	IgniterVotes  int `bson:"ignitervotes"`
	ImposterVotes int `bson:"impostervotes"`
	TotalVotes    int `bson:"totalvotes"`
	TrustScore    int `bson:"trustscore"`

	AverageRating float64 `bson:"averagerating"`
	ReviewCount   int     `bson:"reviewcount"`
}

func locationModelToDocument(location *models.Location) *LocationDocument {
	return &LocationDocument{
		ID:            location.ID.String(),
		Name:          location.Name,
		Description:   location.Description,
		Address:       location.Address,
		Latitude:      location.Latitude,
		Longitude:     location.Longitude,
		ContactPhone:  location.ContactPhone,
		ContactEmail:  location.ContactEmail,
		CreatorID:     location.CreatorID.String(),
		CreatedAt:     location.CreatedAt,
		UpdatedAt:     location.UpdatedAt,
		IsVerified:    location.IsVerified,
		IgniterVotes:  location.IgniterVotes,
		ImposterVotes: location.ImposterVotes,
		TotalVotes:    location.TotalVotes,
		TrustScore:    location.TrustScore,
		AverageRating: location.AverageRating,
		ReviewCount:   location.ReviewCount,
	}
}

func locationDocumentToModel(doc *LocationDocument) (*models.Location, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid location ID: %v", err)
	}

	creatorID, err := uuid.Parse(doc.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("invalid creator ID: %v", err)
	}

	return &models.Location{
		ID:           id,
		Name:         doc.Name,
		Description:  doc.Description,
		Address:      doc.Address,
		Latitude:     doc.Latitude,
		Longitude:    doc.Longitude,
		ContactPhone: doc.ContactPhone,
		ContactEmail: doc.ContactEmail,
		CreatorID:    creatorID,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
		IsVerified:   doc.IsVerified,
		TrustAggregate: models.TrustAggregate{
			IgniterVotes:  doc.IgniterVotes,
			ImposterVotes: doc.ImposterVotes,
			TotalVotes:    doc.TotalVotes,
			TrustScore:    doc.TrustScore,
		},
		AverageRating: doc.AverageRating,
		ReviewCount:   doc.ReviewCount,
	}, nil
}

// SaveLocation creates or updates a location in MongoDB.
func (m *MongoDB) SaveLocation(ctx context.Context, location *models.Location) error {
	doc := locationModelToDocument(location)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": location.ID.String()}
	update := bson.M{"$set": doc}

	if _, err := m.Locations.UpdateOne(ctx, filter, update, opts); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save location", err)
	}
	return nil
}

// GetLocation retrieves a location by its ID.
func (m *MongoDB) GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var doc LocationDocument

	err := m.Locations.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewLocationNotFoundError(id.String())
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get location", err)
	}

	return locationDocumentToModel(&doc)
}

// ListLocations returns every location, newest first.
func (m *MongoDB) ListLocations(ctx context.Context) ([]*models.Location, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdat", Value: -1}})
	cursor, err := m.Locations.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to list locations", err)
	}
	defer cursor.Close(ctx)

	var locations []*models.Location
	for cursor.Next(ctx) {
		var doc LocationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode location", err)
		}

		location, err := locationDocumentToModel(&doc)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "corrupt location document", err)
		}
		locations = append(locations, location)
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "location cursor iteration failed", err)
	}
	return locations, nil
}

// UpdateTrustAggregate writes a recomputed aggregate onto a location,
// touching only the four aggregate fields.
func (m *MongoDB) UpdateTrustAggregate(ctx context.Context, locationID uuid.UUID, agg models.TrustAggregate) error {
	filter := bson.M{"_id": locationID.String()}
	update := bson.M{
		"$set": bson.M{
			"ignitervotes":  agg.IgniterVotes,
			"impostervotes": agg.ImposterVotes,
			"totalvotes":    agg.TotalVotes,
			"trustscore":    agg.TrustScore,
			"updatedat":     time.Now(),
		},
	}

	result, err := m.Locations.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update trust aggregate", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewLocationNotFoundError(locationID.String())
	}
	return nil
}

// UpdateReviewStats writes the recomputed review average and count.
func (m *MongoDB) UpdateReviewStats(ctx context.Context, locationID uuid.UUID, averageRating float64, reviewCount int) error {
	filter := bson.M{"_id": locationID.String()}
	update := bson.M{
		"$set": bson.M{
			"averagerating": averageRating,
			"reviewcount":   reviewCount,
			"updatedat":     time.Now(),
		},
	}

	result, err := m.Locations.UpdateOne(ctx, filter, update)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update review stats", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewLocationNotFoundError(locationID.String())
	}
	return nil
}

// CountLocations returns the number of locations on the map.
func (m *MongoDB) CountLocations(ctx context.Context) (int, error) {
	count, err := m.Locations.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to count locations", err)
	}
	return int(count), nil
}
