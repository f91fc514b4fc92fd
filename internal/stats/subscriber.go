// Package stats keeps user profile counters in sync with activity events on
// the bus, so the write paths for tours and posts don't have to know about
// profile bookkeeping.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tmoran/ridelink/internal/domain"
	"github.com/tmoran/ridelink/internal/pubsub"
)

// Subscriber consumes tour-join and post-created events and bumps the
// corresponding user counters.
type Subscriber struct {
	subscriber pubsub.Subscriber
	users      domain.UserRepository
}

// NewSubscriber creates a stats subscriber.
func NewSubscriber(sub pubsub.Subscriber, users domain.UserRepository) *Subscriber {
	return &Subscriber{
		subscriber: sub,
		users:      users,
	}
}

// Start registers the subscriptions. They run in the background until the
// context is canceled.
func (s *Subscriber) Start(ctx context.Context) error {
	slog.Info("Starting stats subscriber")

	if err := s.subscriber.Subscribe(ctx, pubsub.TopicTourMemberJoined, s.handleTourJoined); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", pubsub.TopicTourMemberJoined, err)
	}
	if err := s.subscriber.Subscribe(ctx, pubsub.TopicPostCreated, s.handlePostCreated); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", pubsub.TopicPostCreated, err)
	}
	return nil
}

// handleTourJoined increments the joining user's tour counter.
func (s *Subscriber) handleTourJoined(ctx context.Context, msg pubsub.Message) error {
	var event struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("failed to decode tour joined event: %w", err)
	}

	user, err := s.users.GetUser(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user for stats update: %w", err)
	}
	if user == nil {
		slog.Warn("Tour joined event for unknown user", "userID", event.UserID)
		return nil
	}

	joined := user.ToursJoined + 1
	return s.users.UpdateUserStats(ctx, event.UserID, domain.UserStats{ToursJoined: &joined})
}

// handlePostCreated increments the author's photo counter when the post
// carried an image.
func (s *Subscriber) handlePostCreated(ctx context.Context, msg pubsub.Message) error {
	var event struct {
		UserID   string `json:"userId"`
		HasImage bool   `json:"hasImage"`
	}
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("failed to decode post created event: %w", err)
	}
	if !event.HasImage {
		return nil
	}

	user, err := s.users.GetUser(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user for stats update: %w", err)
	}
	if user == nil {
		slog.Warn("Post created event for unknown user", "userID", event.UserID)
		return nil
	}

	shared := user.PhotosShared + 1
	return s.users.UpdateUserStats(ctx, event.UserID, domain.UserStats{PhotosShared: &shared})
}
