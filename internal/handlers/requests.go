package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement
// Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// CreateTourRequest is the DTO for POST /api/tours.
type CreateTourRequest struct {
	Title           string     `json:"title" validate:"required"`
	Description     string     `json:"description" validate:"required"`
	StartLocation   string     `json:"startLocation" validate:"required"`
	EndLocation     string     `json:"endLocation" validate:"required"`
	StartDate       time.Time  `json:"startDate" validate:"required"`
	EndDate         *time.Time `json:"endDate"`
	Duration        string     `json:"duration" validate:"required"`
	Distance        string     `json:"distance" validate:"required"`
	Difficulty      string     `json:"difficulty" validate:"required,oneof=Easy Moderate Challenging"`
	BikeType        string     `json:"bikeType"`
	MaxParticipants int        `json:"maxParticipants" validate:"required,gt=0"`
	Route           []any      `json:"route"`
	HeroImage       *string    `json:"heroImage"`
}

// CreatePostRequest is the DTO for POST /api/community-posts. ImageData is
// an optional base64-encoded upload.
type CreatePostRequest struct {
	Content   string  `json:"content" validate:"required"`
	ImageData *string `json:"imageData"`
	TourID    *string `json:"tourId"`
}
