package database

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	"github.com/tmoran/ridelink/internal/domain"
)

// PostStore encapsulates database operations for community posts.
type PostStore struct {
	db *surrealdb.DB
}

var _ domain.PostRepository = (*PostStore)(nil)

// NewPostStore creates a new PostStore.
func NewPostStore(db *surrealdb.DB) *PostStore {
	return &PostStore{db: db}
}

// GetCommunityPosts lists all posts, newest first, with author and optional
// tour denormalized.
func (s *PostStore) GetCommunityPosts(ctx context.Context) ([]domain.CommunityPostView, error) {
	query := `SELECT *,
		(SELECT * FROM user WHERE id = $parent.userId)[0] AS user,
		(SELECT * FROM tour WHERE id = $parent.tourId)[0] AS tour
	FROM community_post ORDER BY createdAt DESC`

	posts, err := Query[domain.CommunityPostView](ctx, s.db, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch community posts: %w", err)
	}
	return posts, nil
}

// CreateCommunityPost inserts a new post and returns it with its assigned id.
func (s *PostStore) CreateCommunityPost(ctx context.Context, post *domain.CommunityPost) (*domain.CommunityPost, error) {
	query := `CREATE community_post SET
		userId = $userId,
		content = $content,
		imageUrl = $imageUrl,
		tourId = $tourId,
		createdAt = time::now()
	RETURN AFTER`
	params := map[string]any{
		"userId":   post.UserID,
		"content":  post.Content,
		"imageUrl": post.ImageURL,
		"tourId":   post.TourID,
	}

	created, err := QueryOne[domain.CommunityPost](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create community post: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("community post was not created or could not be fetched")
	}
	return created, nil
}
