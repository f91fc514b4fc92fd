package domain

import (
	"context"
	"time"
)

// User represents a rider account. The counters are denormalized stats that
// the stats subscriber keeps up to date.
type User struct {
	ID            string     `json:"id,omitempty"`
	Username      string     `json:"username"`
	Password      string     `json:"-"`
	FirstName     *string    `json:"firstName,omitempty"`
	LastName      *string    `json:"lastName,omitempty"`
	Email         *string    `json:"email,omitempty"`
	Avatar        *string    `json:"avatar,omitempty"`
	Location      *string    `json:"location,omitempty"`
	ToursJoined   int        `json:"toursJoined"`
	MilesTraveled int        `json:"milesTraveled"`
	PhotosShared  int        `json:"photosShared"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

// UserStats carries the optional counter updates applied to a user row.
// Nil fields are left untouched.
type UserStats struct {
	ToursJoined   *int
	MilesTraveled *int
	PhotosShared  *int
}

// UserRepository defines the contract for user data storage operations.
// It lives in the domain because it's a requirement OF the domain, not
// of the database implementation.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, user *User) (*User, error)
	UpdateUserStats(ctx context.Context, userID string, stats UserStats) error
}
