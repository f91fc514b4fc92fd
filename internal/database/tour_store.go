package database

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	"github.com/tmoran/ridelink/internal/domain"
)

// TourStore encapsulates database operations for tours and memberships.
// Its IsMember method is what the chat session protocol uses as the
// membership gate.
type TourStore struct {
	db *surrealdb.DB
}

var _ domain.TourRepository = (*TourStore)(nil)

// NewTourStore creates a new TourStore.
func NewTourStore(db *surrealdb.DB) *TourStore {
	return &TourStore{db: db}
}

// GetTours lists all tours, newest first, with creator and member count
// denormalized.
func (s *TourStore) GetTours(ctx context.Context) ([]domain.TourSummary, error) {
	query := `SELECT *,
		(SELECT * FROM user WHERE id = $parent.createdBy)[0] AS creator,
		count((SELECT id FROM tour_membership WHERE tourId = $parent.id)) AS memberCount
	FROM tour ORDER BY createdAt DESC`

	tours, err := Query[domain.TourSummary](ctx, s.db, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tours: %w", err)
	}
	return tours, nil
}

// GetTour fetches a single tour with its creator and member list.
// Returns nil, nil when the tour does not exist.
func (s *TourStore) GetTour(ctx context.Context, id string) (*domain.TourDetail, error) {
	query := `SELECT *,
		(SELECT * FROM user WHERE id = $parent.createdBy)[0] AS creator
	FROM tour WHERE id = $id`
	tour, err := QueryOne[domain.TourDetail](ctx, s.db, query, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tour: %w", err)
	}
	if tour == nil {
		return nil, nil
	}

	membersQuery := `SELECT *,
		(SELECT * FROM user WHERE id = $parent.userId)[0] AS user
	FROM tour_membership WHERE tourId = $id`
	members, err := Query[domain.TourMember](ctx, s.db, membersQuery, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tour members: %w", err)
	}
	tour.Members = members
	if tour.Members == nil {
		tour.Members = []domain.TourMember{}
	}
	return tour, nil
}

// CreateTour inserts a new tour and adds its creator as the first member.
func (s *TourStore) CreateTour(ctx context.Context, tour *domain.Tour, creatorID string) (*domain.Tour, error) {
	query := `CREATE tour SET
		title = $title,
		description = $description,
		startLocation = $startLocation,
		endLocation = $endLocation,
		startDate = $startDate,
		endDate = $endDate,
		duration = $duration,
		distance = $distance,
		difficulty = $difficulty,
		bikeType = $bikeType,
		maxParticipants = $maxParticipants,
		currentParticipants = 1,
		status = 'open',
		route = $route,
		heroImage = $heroImage,
		createdBy = $createdBy,
		createdAt = time::now()
	RETURN AFTER`
	params := map[string]any{
		"title":           tour.Title,
		"description":     tour.Description,
		"startLocation":   tour.StartLocation,
		"endLocation":     tour.EndLocation,
		"startDate":       tour.StartDate,
		"endDate":         tour.EndDate,
		"duration":        tour.Duration,
		"distance":        tour.Distance,
		"difficulty":      tour.Difficulty,
		"bikeType":        tour.BikeType,
		"maxParticipants": tour.MaxParticipants,
		"route":           tour.Route,
		"heroImage":       tour.HeroImage,
		"createdBy":       creatorID,
	}

	created, err := QueryOne[domain.Tour](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create tour: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("tour was not created or could not be fetched")
	}

	// The creator is always a member of their own tour.
	memberQuery := `CREATE tour_membership SET
		tourId = $tourId, userId = $userId, role = 'creator', joinedAt = time::now()`
	memberParams := map[string]any{"tourId": created.ID, "userId": creatorID}
	if err := Execute(ctx, s.db, memberQuery, memberParams); err != nil {
		return nil, fmt.Errorf("failed to add creator membership: %w", err)
	}

	return created, nil
}

// JoinTour adds a membership row and bumps the tour's participant count.
func (s *TourStore) JoinTour(ctx context.Context, tourID, userID string) (*domain.TourMembership, error) {
	query := `CREATE tour_membership SET
		tourId = $tourId, userId = $userId, role = 'member', joinedAt = time::now()
	RETURN AFTER`
	params := map[string]any{"tourId": tourID, "userId": userID}

	membership, err := QueryOne[domain.TourMembership](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to join tour: %w", err)
	}
	if membership == nil {
		return nil, fmt.Errorf("membership was not created or could not be fetched")
	}

	countQuery := "UPDATE tour SET currentParticipants += 1 WHERE id = $tourId"
	if err := Execute(ctx, s.db, countQuery, map[string]any{"tourId": tourID}); err != nil {
		return nil, fmt.Errorf("failed to update participant count: %w", err)
	}
	return membership, nil
}

// LeaveTour removes a membership row and decrements the participant count.
func (s *TourStore) LeaveTour(ctx context.Context, tourID, userID string) error {
	query := "DELETE tour_membership WHERE tourId = $tourId AND userId = $userId"
	params := map[string]any{"tourId": tourID, "userId": userID}
	if err := Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to leave tour: %w", err)
	}

	countQuery := "UPDATE tour SET currentParticipants -= 1 WHERE id = $tourId"
	if err := Execute(ctx, s.db, countQuery, map[string]any{"tourId": tourID}); err != nil {
		return fmt.Errorf("failed to update participant count: %w", err)
	}
	return nil
}

// GetUserTours lists the tours a user belongs to, newest first.
func (s *TourStore) GetUserTours(ctx context.Context, userID string) ([]domain.TourSummary, error) {
	query := `SELECT *,
		(SELECT * FROM user WHERE id = $parent.createdBy)[0] AS creator,
		count((SELECT id FROM tour_membership WHERE tourId = $parent.id)) AS memberCount
	FROM tour
	WHERE id IN (SELECT VALUE tourId FROM tour_membership WHERE userId = $userId)
	ORDER BY createdAt DESC`

	tours, err := Query[domain.TourSummary](ctx, s.db, query, map[string]any{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user tours: %w", err)
	}
	return tours, nil
}

// IsMember reports whether a user belongs to a tour. Pure read; the chat
// protocol calls this once per join handshake.
func (s *TourStore) IsMember(ctx context.Context, tourID, userID string) (bool, error) {
	query := "SELECT id FROM tour_membership WHERE tourId = $tourId AND userId = $userId"
	params := map[string]any{"tourId": tourID, "userId": userID}

	membership, err := QueryOne[domain.TourMembership](ctx, s.db, query, params)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return membership != nil, nil
}
