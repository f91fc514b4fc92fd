package domain

import (
	"context"
	"time"
)

// CommunityPost is a public post on the community feed, optionally tied to a
// tour and optionally carrying an uploaded image.
type CommunityPost struct {
	ID        string     `json:"id,omitempty"`
	UserID    string     `json:"userId"`
	Content   string     `json:"content"`
	ImageURL  *string    `json:"imageUrl,omitempty"`
	TourID    *string    `json:"tourId,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// CommunityPostView is a post with its author and optional tour denormalized.
type CommunityPostView struct {
	CommunityPost
	User *User `json:"user,omitempty"`
	Tour *Tour `json:"tour,omitempty"`
}

// PostRepository defines the contract for community post storage.
type PostRepository interface {
	GetCommunityPosts(ctx context.Context) ([]CommunityPostView, error)
	CreateCommunityPost(ctx context.Context, post *CommunityPost) (*CommunityPost, error)
}
