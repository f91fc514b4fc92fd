package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"
	"github.com/tmoran/ridelink/internal/chat"
	"github.com/tmoran/ridelink/internal/domain"
	"github.com/tmoran/ridelink/internal/handlers"
	"github.com/tmoran/ridelink/internal/middleware"
	"github.com/tmoran/ridelink/internal/pubsub"
	"github.com/tmoran/ridelink/internal/storage"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	users := do.MustInvoke[domain.UserRepository](s.Injector)
	tours := do.MustInvoke[domain.TourRepository](s.Injector)
	messages := do.MustInvoke[domain.MessageRepository](s.Injector)
	posts := do.MustInvoke[domain.PostRepository](s.Injector)
	files := do.MustInvoke[storage.Store](s.Injector)
	bus := do.MustInvoke[*pubsub.WatermillBridge](s.Injector)
	chatHandler := do.MustInvoke[*chat.Handler](s.Injector)

	userHandler := handlers.NewUserHandler()
	tourHandler := handlers.NewTourHandler(tours, messages, bus)
	postHandler := handlers.NewPostHandler(posts, files, bus)

	currentUser := middleware.CurrentUser(users)
	rateLimiter := middleware.RateLimiter()

	// The chat endpoint resolves identity inside the join handshake, not from
	// the HTTP request.
	s.E.GET("/ws", chatHandler.Serve)

	api := s.E.Group("/api", currentUser)
	api.GET("/user", userHandler.GetCurrentUser)

	api.GET("/tours", tourHandler.ListTours)
	api.POST("/tours", tourHandler.CreateTour, rateLimiter)
	api.GET("/tours/:id", tourHandler.GetTour)
	api.POST("/tours/:id/join", tourHandler.JoinTour, rateLimiter)
	api.DELETE("/tours/:id/leave", tourHandler.LeaveTour)
	api.GET("/tours/:id/messages", tourHandler.GetMessages)
	api.GET("/my-tours", tourHandler.ListMyTours)

	api.GET("/community-posts", postHandler.ListPosts)
	api.POST("/community-posts", postHandler.CreatePost, rateLimiter)

	// Uploaded post images.
	s.E.Static("/uploads", s.Cfg.UploadDir)

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}
