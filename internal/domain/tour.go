package domain

import (
	"context"
	"time"
)

// Tour is a planned group ride. Membership in a tour gates both joining its
// chat room and receiving its broadcasts.
type Tour struct {
	ID                  string     `json:"id,omitempty"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	StartLocation       string     `json:"startLocation"`
	EndLocation         string     `json:"endLocation"`
	StartDate           time.Time  `json:"startDate"`
	EndDate             *time.Time `json:"endDate,omitempty"`
	Duration            string     `json:"duration"`
	Distance            string     `json:"distance"`
	Difficulty          string     `json:"difficulty"`
	BikeType            string     `json:"bikeType"`
	MaxParticipants     int        `json:"maxParticipants"`
	CurrentParticipants int        `json:"currentParticipants"`
	Status              string     `json:"status"`
	Route               []any      `json:"route,omitempty"`
	HeroImage           *string    `json:"heroImage,omitempty"`
	CreatedBy           string     `json:"createdBy"`
	CreatedAt           *time.Time `json:"createdAt,omitempty"`
}

// TourMembership links a user to a tour.
type TourMembership struct {
	ID       string     `json:"id,omitempty"`
	TourID   string     `json:"tourId"`
	UserID   string     `json:"userId"`
	Role     string     `json:"role"`
	JoinedAt *time.Time `json:"joinedAt,omitempty"`
}

// TourSummary is a tour with its creator and member count denormalized,
// as returned by list endpoints.
type TourSummary struct {
	Tour
	Creator     *User `json:"creator,omitempty"`
	MemberCount int   `json:"memberCount"`
}

// TourMember is a membership row with its user denormalized.
type TourMember struct {
	TourMembership
	User *User `json:"user,omitempty"`
}

// TourDetail is a single tour with creator and full member list.
type TourDetail struct {
	Tour
	Creator *User        `json:"creator,omitempty"`
	Members []TourMember `json:"members"`
}

// TourRepository defines the contract for tour and membership storage.
// IsMember doubles as the chat membership gate.
type TourRepository interface {
	GetTours(ctx context.Context) ([]TourSummary, error)
	GetTour(ctx context.Context, id string) (*TourDetail, error)
	CreateTour(ctx context.Context, tour *Tour, creatorID string) (*Tour, error)
	JoinTour(ctx context.Context, tourID, userID string) (*TourMembership, error)
	LeaveTour(ctx context.Context, tourID, userID string) error
	GetUserTours(ctx context.Context, userID string) ([]TourSummary, error)
	IsMember(ctx context.Context, tourID, userID string) (bool, error)
}
