package domain

import (
	"context"
	"time"
)

// ChatMessage is a persisted, ordered chat record. Timestamp (with ID as a
// tiebreaker) defines the total order within a tour. The User field is the
// denormalized author, populated when the message is returned to callers.
type ChatMessage struct {
	ID        string    `json:"id,omitempty"`
	TourID    string    `json:"tourId"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	User      *User     `json:"user,omitempty"`
}

// MessageRepository is the persistence collaborator for chat messages.
// Append assigns the message its identifier and order and returns it with
// the author denormalized. History returns a tour's messages oldest first,
// in exactly the order Append assigned.
type MessageRepository interface {
	Append(ctx context.Context, tourID, userID, text string) (*ChatMessage, error)
	History(ctx context.Context, tourID string) ([]ChatMessage, error)
}
