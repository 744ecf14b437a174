// internal/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"green-map/internal/models"
	"green-map/internal/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store defines the common interface for persistence operations. PostgreSQL
// is the primary backend; MongoDB and an in-memory store implement the same
// contract.
type Store interface {
	// Connection
	Close(ctx context.Context) error
	Ping(ctx context.Context) error

	// Vote methods. FindVote returns (nil, nil) when the user has not voted
	// on the location: absence is a result, never an error to string-match.
	FindVote(ctx context.Context, userID, locationID uuid.UUID) (*models.Vote, error)
	UpsertVote(ctx context.Context, userID, locationID uuid.UUID, voteType models.VoteType) (*models.Vote, error)
	ListVotesForLocation(ctx context.Context, locationID uuid.UUID) ([]*models.Vote, error)

	// Location methods. UpdateTrustAggregate patches exactly the four
	// aggregate fields; it never touches any other location column.
	SaveLocation(ctx context.Context, location *models.Location) error
	GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error)
	ListLocations(ctx context.Context) ([]*models.Location, error)
	UpdateTrustAggregate(ctx context.Context, locationID uuid.UUID, agg models.TrustAggregate) error
	UpdateReviewStats(ctx context.Context, locationID uuid.UUID, averageRating float64, reviewCount int) error
	CountLocations(ctx context.Context) (int, error)

	// Review and visit methods
	SaveReview(ctx context.Context, review *models.Review) error
	GetLocationReviews(ctx context.Context, locationID uuid.UUID) ([]*models.Review, error)
	SaveVisit(ctx context.Context, visit *models.Visit) error

	// User methods
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// PostgresDB represents a PostgreSQL database connection
type PostgresDB struct {
	DB *sqlx.DB
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL!")

	return &PostgresDB{
		DB: db,
	}, nil
}

// Close closes the database connection
func (p *PostgresDB) Close(ctx context.Context) error {
	log.Println("Closing PostgreSQL connection...")
	return p.DB.Close()
}

// Ping verifies the connection is alive
func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.DB.PingContext(ctx)
}

// InitializeTables creates all necessary tables if they don't exist
func (p *PostgresDB) InitializeTables(ctx context.Context) error {
	// Users table
	_, err := p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			email VARCHAR(100) UNIQUE NOT NULL,
			password_hash VARCHAR(100) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			last_active TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %v", err)
	}

	// Locations table. The four trust aggregate columns are derived state
	// owned by the vote engine; trust_score defaults to 100 for unvoted rows.
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS locations (
			id UUID PRIMARY KEY,
			name VARCHAR(200) NOT NULL,
			description TEXT,
			address TEXT,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			contact_phone VARCHAR(50),
			contact_email VARCHAR(100),
			created_by UUID REFERENCES users(id),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			is_verified BOOLEAN DEFAULT FALSE NOT NULL,
			igniter_votes INTEGER DEFAULT 0 NOT NULL,
			imposter_votes INTEGER DEFAULT 0 NOT NULL,
			total_votes INTEGER DEFAULT 0 NOT NULL,
			trust_score INTEGER DEFAULT 100 NOT NULL,
			average_rating DOUBLE PRECISION DEFAULT 0 NOT NULL,
			review_count INTEGER DEFAULT 0 NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create locations table: %v", err)
	}

	// Votes table. The composite unique key is what makes UpsertVote safe
	// under concurrent first-time voters.
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS votes (
			id UUID PRIMARY KEY,
			location_id UUID NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			vote_type VARCHAR(10) NOT NULL CHECK (vote_type IN ('igniter', 'imposter')),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			UNIQUE (user_id, location_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create votes table: %v", err)
	}

	// Reviews table
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reviews (
			id UUID PRIMARY KEY,
			location_id UUID NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			rating INTEGER NOT NULL CHECK (rating >= 1 AND rating <= 5),
			comment TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			is_moderated BOOLEAN DEFAULT FALSE NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create reviews table: %v", err)
	}

	// Visits table
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS visits (
			id UUID PRIMARY KEY,
			location_id UUID NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			visited_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create visits table: %v", err)
	}

	return nil
}

// FindVote looks up the caller's existing vote on a location, if any.
func (p *PostgresDB) FindVote(ctx context.Context, userID, locationID uuid.UUID) (*models.Vote, error) {
	var vote models.Vote
	query := `SELECT id, location_id, user_id, vote_type, created_at, updated_at
		FROM votes WHERE user_id = $1 AND location_id = $2`

	err := p.DB.GetContext(ctx, &vote, query, userID, locationID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to look up vote", err)
	}
	return &vote, nil
}

// UpsertVote inserts a vote or flips an existing one in place. The ON
// CONFLICT clause keyed on (user_id, location_id) keeps the operation atomic:
// two concurrent first-time voters can never create duplicate rows.
func (p *PostgresDB) UpsertVote(ctx context.Context, userID, locationID uuid.UUID, voteType models.VoteType) (*models.Vote, error) {
	var vote models.Vote
	query := `
		INSERT INTO votes (id, location_id, user_id, vote_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id, location_id) DO UPDATE SET
			vote_type = EXCLUDED.vote_type,
			updated_at = NOW()
		RETURNING id, location_id, user_id, vote_type, created_at, updated_at
	`

	err := p.DB.GetContext(ctx, &vote, query, uuid.New(), locationID, userID, voteType)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to upsert vote", err)
	}
	return &vote, nil
}

// ListVotesForLocation returns all votes for a location, unordered.
func (p *PostgresDB) ListVotesForLocation(ctx context.Context, locationID uuid.UUID) ([]*models.Vote, error) {
	votes := []*models.Vote{}
	query := `SELECT id, location_id, user_id, vote_type, created_at, updated_at
		FROM votes WHERE location_id = $1`

	if err := p.DB.SelectContext(ctx, &votes, query, locationID); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to list votes", err)
	}
	return votes, nil
}

// SaveLocation creates or updates a location's descriptive fields.
func (p *PostgresDB) SaveLocation(ctx context.Context, location *models.Location) error {
	query := `
		INSERT INTO locations (
			id, name, description, address, latitude, longitude,
			contact_phone, contact_email, created_by, created_at, updated_at, is_verified,
			igniter_votes, imposter_votes, total_votes, trust_score,
			average_rating, review_count
		) VALUES (
			:id, :name, :description, :address, :latitude, :longitude,
			:contact_phone, :contact_email, :created_by, :created_at, :updated_at, :is_verified,
			:igniter_votes, :imposter_votes, :total_votes, :trust_score,
			:average_rating, :review_count
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			address = EXCLUDED.address,
			contact_phone = EXCLUDED.contact_phone,
			contact_email = EXCLUDED.contact_email,
			is_verified = EXCLUDED.is_verified,
			updated_at = NOW()
	`

	if _, err := p.DB.NamedExecContext(ctx, query, location); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save location", err)
	}
	return nil
}

// GetLocation retrieves a location by its ID.
func (p *PostgresDB) GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	query := `SELECT * FROM locations WHERE id = $1`

	err := p.DB.GetContext(ctx, &location, query, id)
	if err == sql.ErrNoRows {
		return nil, utils.NewLocationNotFoundError(id.String())
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get location", err)
	}
	return &location, nil
}

// ListLocations returns every location, newest first. The map view reads all
// markers in one go.
func (p *PostgresDB) ListLocations(ctx context.Context) ([]*models.Location, error) {
	locations := []*models.Location{}
	query := `SELECT * FROM locations ORDER BY created_at DESC`

	if err := p.DB.SelectContext(ctx, &locations, query); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to list locations", err)
	}
	return locations, nil
}

// UpdateTrustAggregate writes a freshly computed aggregate onto a location.
// Only the four aggregate columns are touched.
func (p *PostgresDB) UpdateTrustAggregate(ctx context.Context, locationID uuid.UUID, agg models.TrustAggregate) error {
	query := `
		UPDATE locations SET
			igniter_votes = $1,
			imposter_votes = $2,
			total_votes = $3,
			trust_score = $4,
			updated_at = NOW()
		WHERE id = $5
	`

	result, err := p.DB.ExecContext(ctx, query,
		agg.IgniterVotes, agg.ImposterVotes, agg.TotalVotes, agg.TrustScore, locationID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update trust aggregate", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to read update result", err)
	}
	if rows == 0 {
		return utils.NewLocationNotFoundError(locationID.String())
	}
	return nil
}

// UpdateReviewStats writes the recomputed review average and count.
func (p *PostgresDB) UpdateReviewStats(ctx context.Context, locationID uuid.UUID, averageRating float64, reviewCount int) error {
	query := `
		UPDATE locations SET
			average_rating = $1,
			review_count = $2,
			updated_at = NOW()
		WHERE id = $3
	`

	result, err := p.DB.ExecContext(ctx, query, averageRating, reviewCount, locationID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update review stats", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to read update result", err)
	}
	if rows == 0 {
		return utils.NewLocationNotFoundError(locationID.String())
	}
	return nil
}

// CountLocations returns the number of locations on the map.
func (p *PostgresDB) CountLocations(ctx context.Context) (int, error) {
	var count int
	if err := p.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM locations`); err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to count locations", err)
	}
	return count, nil
}

// SaveReview inserts a review.
func (p *PostgresDB) SaveReview(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (id, location_id, user_id, rating, comment, created_at, is_moderated)
		VALUES (:id, :location_id, :user_id, :rating, :comment, :created_at, :is_moderated)
	`

	if _, err := p.DB.NamedExecContext(ctx, query, review); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save review", err)
	}
	return nil
}

// GetLocationReviews returns a location's reviews, newest first.
func (p *PostgresDB) GetLocationReviews(ctx context.Context, locationID uuid.UUID) ([]*models.Review, error) {
	reviews := []*models.Review{}
	query := `SELECT id, location_id, user_id, rating, comment, created_at, is_moderated
		FROM reviews WHERE location_id = $1 ORDER BY created_at DESC`

	if err := p.DB.SelectContext(ctx, &reviews, query, locationID); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to list reviews", err)
	}
	return reviews, nil
}

// SaveVisit records a location visit.
func (p *PostgresDB) SaveVisit(ctx context.Context, visit *models.Visit) error {
	query := `
		INSERT INTO visits (id, location_id, user_id, visited_at)
		VALUES (:id, :location_id, :user_id, :visited_at)
	`

	if _, err := p.DB.NamedExecContext(ctx, query, visit); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save visit", err)
	}
	return nil
}

// SaveUser creates or updates a user.
func (p *PostgresDB) SaveUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at, last_active)
		VALUES (:id, :username, :email, :password_hash, :created_at, :updated_at, :last_active)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			last_active = EXCLUDED.last_active,
			updated_at = NOW()
	`

	if _, err := p.DB.NamedExecContext(ctx, query, user); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save user", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (p *PostgresDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `SELECT id, username, email, password_hash, created_at, updated_at, last_active
		FROM users WHERE id = $1`

	err := p.DB.GetContext(ctx, &user, query, id)
	if err == sql.ErrNoRows {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found: "+id.String(), nil)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get user", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email.
func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT id, username, email, password_hash, created_at, updated_at, last_active
		FROM users WHERE email = $1`

	err := p.DB.GetContext(ctx, &user, query, email)
	if err == sql.ErrNoRows {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found: "+email, nil)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get user", err)
	}
	return &user, nil
}
