package database

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	"github.com/tmoran/ridelink/internal/domain"
)

// UserStore encapsulates database operations for users.
type UserStore struct {
	db *surrealdb.DB
}

var _ domain.UserRepository = (*UserStore)(nil)

// NewUserStore creates a new UserStore.
func NewUserStore(db *surrealdb.DB) *UserStore {
	return &UserStore{db: db}
}

// GetUser fetches a user by its record id.
func (s *UserStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	query := "SELECT * FROM user WHERE id = $id"
	user, err := QueryOne[domain.User](ctx, s.db, query, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

// GetUserByUsername queries for a single user by their unique username.
func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := "SELECT * FROM user WHERE username = $username"
	user, err := QueryOne[domain.User](ctx, s.db, query, map[string]any{"username": username})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user by username: %w", err)
	}
	return user, nil
}

// CreateUser inserts a new user row and returns it with its assigned id.
func (s *UserStore) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `CREATE user SET
		username = $username,
		password = $password,
		firstName = $firstName,
		lastName = $lastName,
		email = $email,
		toursJoined = 0,
		milesTraveled = 0,
		photosShared = 0,
		createdAt = time::now()
	RETURN AFTER`
	params := map[string]any{
		"username":  user.Username,
		"password":  user.Password,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
		"email":     user.Email,
	}

	created, err := QueryOne[domain.User](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("user was not created or could not be fetched")
	}
	return created, nil
}

// UpdateUserStats applies the non-nil counters to a user row.
func (s *UserStore) UpdateUserStats(ctx context.Context, userID string, stats domain.UserStats) error {
	sets := ""
	params := map[string]any{"id": userID}
	if stats.ToursJoined != nil {
		sets += ", toursJoined = $toursJoined"
		params["toursJoined"] = *stats.ToursJoined
	}
	if stats.MilesTraveled != nil {
		sets += ", milesTraveled = $milesTraveled"
		params["milesTraveled"] = *stats.MilesTraveled
	}
	if stats.PhotosShared != nil {
		sets += ", photosShared = $photosShared"
		params["photosShared"] = *stats.PhotosShared
	}
	if sets == "" {
		return nil
	}

	query := "UPDATE user SET " + sets[2:] + " WHERE id = $id"
	if err := Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to update user stats: %w", err)
	}
	return nil
}
