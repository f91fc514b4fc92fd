package database

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	"github.com/tmoran/ridelink/internal/domain"
)

// MessageStore is the persistence collaborator for chat messages. The
// database assigns each message its id and timestamp; that timestamp is the
// total order the broadcaster relies on.
type MessageStore struct {
	db *surrealdb.DB
}

var _ domain.MessageRepository = (*MessageStore)(nil)

// NewMessageStore creates a new MessageStore.
func NewMessageStore(db *surrealdb.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Append persists a new chat message and returns it with the author
// denormalized. The caller must not broadcast the message before Append
// returns; the assigned order is only final once the row exists.
func (s *MessageStore) Append(ctx context.Context, tourID, userID, text string) (*domain.ChatMessage, error) {
	query := `CREATE chat_message SET
		tourId = $tourId,
		userId = $userId,
		message = $message,
		timestamp = time::now()
	RETURN AFTER`
	params := map[string]any{
		"tourId":  tourID,
		"userId":  userID,
		"message": text,
	}

	created, err := QueryOne[domain.ChatMessage](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to append chat message: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("chat message was not created or could not be fetched")
	}

	author, err := QueryOne[domain.User](ctx, s.db, "SELECT * FROM user WHERE id = $id", map[string]any{"id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message author: %w", err)
	}
	created.User = author

	return created, nil
}

// History returns every message in a tour, oldest first. Unpaginated; the
// initial room view consumes it in one call.
func (s *MessageStore) History(ctx context.Context, tourID string) ([]domain.ChatMessage, error) {
	query := `SELECT *,
		(SELECT * FROM user WHERE id = $parent.userId)[0] AS user
	FROM chat_message WHERE tourId = $tourId ORDER BY timestamp, id`

	messages, err := Query[domain.ChatMessage](ctx, s.db, query, map[string]any{"tourId": tourID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chat history: %w", err)
	}
	return messages, nil
}
