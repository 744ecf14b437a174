// internal/database/vote_repository.go
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

// VoteDocument represents the MongoDB schema for a vote.
type VoteDocument struct {
	ID         string    `bson:"_id"`
	LocationID string    `bson:"locationid"`
	UserID     string    `bson:"userid"`
	VoteType   string    `bson:"votetype"`
	CreatedAt  time.Time `bson:"createdat"`
	UpdatedAt  time.Time `bson:"updatedat"`
}

func voteDocumentToModel(doc *VoteDocument) (*models.Vote, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid vote ID: %v", err)
	}

	locationID, err := uuid.Parse(doc.LocationID)
	if err != nil {
		return nil, fmt.Errorf("invalid location ID: %v", err)
	}

	userID, err := uuid.Parse(doc.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %v", err)
	}

	return &models.Vote{
		ID:         id,
		LocationID: locationID,
		UserID:     userID,
		VoteType:   models.VoteType(doc.VoteType),
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}

// FindVote looks up a user's vote on a location. Absence is reported as
// (nil, nil), not as an error.
func (m *MongoDB) FindVote(ctx context.Context, userID, locationID uuid.UUID) (*models.Vote, error) {
	var doc VoteDocument

	filter := bson.M{"userid": userID.String(), "locationid": locationID.String()}
	err := m.Votes.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to look up vote", err)
	}

	return voteDocumentToModel(&doc)
}

// UpsertVote inserts a vote or flips an existing one in place. The upsert is
// filtered on the (user, location) pair, so concurrent first-time votes from
// the same user resolve to a single document.
func (m *MongoDB) UpsertVote(ctx context.Context, userID, locationID uuid.UUID, voteType models.VoteType) (*models.Vote, error) {
	now := time.Now()
	filter := bson.M{"userid": userID.String(), "locationid": locationID.String()}
	update := bson.M{
		"$set": bson.M{
			"votetype":  string(voteType),
			"updatedat": now,
		},
		"$setOnInsert": bson.M{
			"_id":       uuid.New().String(),
			"createdat": now,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc VoteDocument
	if err := m.Votes.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to upsert vote", err)
	}

	return voteDocumentToModel(&doc)
}

// ListVotesForLocation returns all votes for a location, unordered.
func (m *MongoDB) ListVotesForLocation(ctx context.Context, locationID uuid.UUID) ([]*models.Vote, error) {
	cursor, err := m.Votes.Find(ctx, bson.M{"locationid": locationID.String()})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to list votes", err)
	}
	defer cursor.Close(ctx)

	var votes []*models.Vote
	for cursor.Next(ctx) {
		var doc VoteDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode vote", err)
		}

		vote, err := voteDocumentToModel(&doc)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "corrupt vote document", err)
		}
		votes = append(votes, vote)
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "vote cursor iteration failed", err)
	}
	return votes, nil
}
