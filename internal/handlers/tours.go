package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tmoran/ridelink/internal/domain"
	"github.com/tmoran/ridelink/internal/middleware"
	"github.com/tmoran/ridelink/internal/pubsub"
)

// TourHandler serves the tour CRUD endpoints and the member-gated chat
// history endpoint.
type TourHandler struct {
	tours     domain.TourRepository
	messages  domain.MessageRepository
	publisher pubsub.Publisher
}

// NewTourHandler creates a new TourHandler.
func NewTourHandler(tours domain.TourRepository, messages domain.MessageRepository, publisher pubsub.Publisher) *TourHandler {
	return &TourHandler{
		tours:     tours,
		messages:  messages,
		publisher: publisher,
	}
}

// ListTours returns all tours, newest first.
func (h *TourHandler) ListTours(c echo.Context) error {
	tours, err := h.tours.GetTours(c.Request().Context())
	if err != nil {
		slog.Error("Failed to list tours", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to get tours"})
	}
	if tours == nil {
		tours = []domain.TourSummary{}
	}
	return c.JSON(http.StatusOK, tours)
}

// GetTour returns a single tour with its creator and member list.
func (h *TourHandler) GetTour(c echo.Context) error {
	tour, err := h.tours.GetTour(c.Request().Context(), c.Param("id"))
	if err != nil {
		slog.Error("Failed to get tour", "tourID", c.Param("id"), "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to get tour"})
	}
	if tour == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Tour not found"})
	}
	return c.JSON(http.StatusOK, tour)
}

// CreateTour creates a tour; the creator becomes its first member.
func (h *TourHandler) CreateTour(c echo.Context) error {
	user := middleware.UserFromContext(c)

	var req CreateTourRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid tour data"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid tour data"})
	}

	bikeType := req.BikeType
	if bikeType == "" {
		bikeType = "Any"
	}
	tour := &domain.Tour{
		Title:           req.Title,
		Description:     req.Description,
		StartLocation:   req.StartLocation,
		EndLocation:     req.EndLocation,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Duration:        req.Duration,
		Distance:        req.Distance,
		Difficulty:      req.Difficulty,
		BikeType:        bikeType,
		MaxParticipants: req.MaxParticipants,
		Route:           req.Route,
		HeroImage:       req.HeroImage,
	}

	created, err := h.tours.CreateTour(c.Request().Context(), tour, user.ID)
	if err != nil {
		slog.Error("Failed to create tour", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to create tour"})
	}
	return c.JSON(http.StatusOK, created)
}

// JoinTour adds the current user to a tour's membership.
func (h *TourHandler) JoinTour(c echo.Context) error {
	user := middleware.UserFromContext(c)
	tourID := c.Param("id")
	ctx := c.Request().Context()

	isMember, err := h.tours.IsMember(ctx, tourID, user.ID)
	if err != nil {
		slog.Error("Failed to check membership", "tourID", tourID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to join tour"})
	}
	if isMember {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Already a member of this tour"})
	}

	membership, err := h.tours.JoinTour(ctx, tourID, user.ID)
	if err != nil {
		slog.Error("Failed to join tour", "tourID", tourID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to join tour"})
	}

	h.publishEvent(pubsub.TopicTourMemberJoined, user.ID, map[string]any{
		"tourId": tourID,
		"userId": user.ID,
	})

	return c.JSON(http.StatusOK, membership)
}

// LeaveTour removes the current user from a tour's membership.
func (h *TourHandler) LeaveTour(c echo.Context) error {
	user := middleware.UserFromContext(c)
	tourID := c.Param("id")

	if err := h.tours.LeaveTour(c.Request().Context(), tourID, user.ID); err != nil {
		slog.Error("Failed to leave tour", "tourID", tourID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to leave tour"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Left tour successfully"})
}

// ListMyTours returns the tours the current user belongs to.
func (h *TourHandler) ListMyTours(c echo.Context) error {
	user := middleware.UserFromContext(c)

	tours, err := h.tours.GetUserTours(c.Request().Context(), user.ID)
	if err != nil {
		slog.Error("Failed to list user tours", "userID", user.ID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to get tours"})
	}
	if tours == nil {
		tours = []domain.TourSummary{}
	}
	return c.JSON(http.StatusOK, tours)
}

// GetMessages returns a tour's full chat history, oldest first. Members only.
func (h *TourHandler) GetMessages(c echo.Context) error {
	user := middleware.UserFromContext(c)
	tourID := c.Param("id")
	ctx := c.Request().Context()

	isMember, err := h.tours.IsMember(ctx, tourID, user.ID)
	if err != nil {
		slog.Error("Failed to check membership", "tourID", tourID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to get messages"})
	}
	if !isMember {
		return c.JSON(http.StatusForbidden, map[string]string{"message": "Not a member of this tour"})
	}

	messages, err := h.messages.History(ctx, tourID)
	if err != nil {
		slog.Error("Failed to get messages", "tourID", tourID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Failed to get messages"})
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	return c.JSON(http.StatusOK, messages)
}

// publishEvent emits an event on the bus; failures are logged, never
// surfaced to the HTTP caller.
func (h *TourHandler) publishEvent(topic, userID string, payload map[string]any) {
	data, _ := json.Marshal(payload)
	msg := pubsub.Message{
		Topic:   topic,
		UserID:  userID,
		Payload: data,
		Metadata: map[string]string{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := h.publisher.Publish(context.Background(), msg); err != nil {
		slog.Error("Failed to publish event", "topic", topic, "error", err)
	}
}
