package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tmoran/ridelink/internal/domain"
	"github.com/tmoran/ridelink/internal/middleware"
	"github.com/tmoran/ridelink/internal/pubsub"
	"github.com/tmoran/ridelink/internal/storage"
)

// PostHandler serves the community feed endpoints.
type PostHandler struct {
	posts     domain.PostRepository
	files     storage.Store
	publisher pubsub.Publisher
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts domain.PostRepository, files storage.Store, publisher pubsub.Publisher) *PostHandler {
	return &PostHandler{
		posts:     posts,
		files:     files,
		publisher: publisher,
	}
}

// ListPosts returns all community posts, newest first.
func (h *PostHandler) ListPosts(c echo.Context) error {
	posts, err := h.posts.GetCommunityPosts(c.Request().Context())
	if err != nil {
		slog.Error("Failed to list community posts", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to get community posts"})
	}
	if posts == nil {
		posts = []domain.CommunityPostView{}
	}
	return c.JSON(http.StatusOK, posts)
}

// CreatePost creates a community post. An optional base64 image payload is
// decoded and written to the file store; the post records its public URL.
func (h *PostHandler) CreatePost(c echo.Context) error {
	user := middleware.UserFromContext(c)

	var req CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid post data"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid post data"})
	}

	post := &domain.CommunityPost{
		UserID:  user.ID,
		Content: req.Content,
		TourID:  req.TourID,
	}

	if req.ImageData != nil && *req.ImageData != "" {
		url, err := h.saveImage(c.Request().Context(), *req.ImageData)
		if err != nil {
			slog.Error("Failed to store post image", "error", err)
			return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid post data"})
		}
		post.ImageURL = &url
	}

	created, err := h.posts.CreateCommunityPost(c.Request().Context(), post)
	if err != nil {
		slog.Error("Failed to create community post", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to create post"})
	}

	h.publishEvent(user.ID, created.ImageURL != nil)

	return c.JSON(http.StatusOK, created)
}

// saveImage decodes a base64 payload (optionally a data: URL) and persists
// it, returning the public path.
func (h *PostHandler) saveImage(ctx context.Context, data string) (string, error) {
	// Strip a "data:image/...;base64," prefix if the client sent one.
	if idx := strings.Index(data, ","); idx >= 0 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", err
	}

	path := "posts/" + uuid.NewString() + ".jpg"
	if _, err := h.files.Save(ctx, path, bytes.NewReader(raw)); err != nil {
		return "", err
	}
	return "/uploads/" + path, nil
}

func (h *PostHandler) publishEvent(userID string, hasImage bool) {
	payload, _ := json.Marshal(map[string]any{
		"userId":   userID,
		"hasImage": hasImage,
	})
	msg := pubsub.Message{
		Topic:   pubsub.TopicPostCreated,
		UserID:  userID,
		Payload: payload,
		Metadata: map[string]string{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := h.publisher.Publish(context.Background(), msg); err != nil {
		slog.Error("Failed to publish post created event", "error", err)
	}
}
