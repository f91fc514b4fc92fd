package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/samber/do/v2"
	"github.com/surrealdb/surrealdb.go"
	"github.com/tmoran/ridelink/internal/chat"
	"github.com/tmoran/ridelink/internal/config"
	"github.com/tmoran/ridelink/internal/database"
	"github.com/tmoran/ridelink/internal/domain"
	"github.com/tmoran/ridelink/internal/handlers"
	"github.com/tmoran/ridelink/internal/logging"
	"github.com/tmoran/ridelink/internal/middleware"
	"github.com/tmoran/ridelink/internal/pubsub"
	"github.com/tmoran/ridelink/internal/stats"
	"github.com/tmoran/ridelink/internal/storage"
)

// Server holds the dependencies for the HTTP server. Everything is built
// through the injector so there are no package-level singletons; lifecycle
// is owned by whoever constructed the server.
type Server struct {
	E        *echo.Echo
	DB       *surrealdb.DB
	Cfg      *config.Config
	Injector do.Injector
}

// New creates a fully wired Server instance.
func New() *Server {
	logging.New()
	cfg := config.New()

	injector := do.New()
	do.ProvideValue(injector, cfg)

	do.Provide(injector, func(i do.Injector) (*surrealdb.DB, error) {
		return database.NewDB(context.Background(), do.MustInvoke[*config.Config](i))
	})
	do.Provide(injector, func(i do.Injector) (*pubsub.WatermillBridge, error) {
		return pubsub.NewWatermillBridge(), nil
	})
	do.Provide(injector, func(i do.Injector) (domain.UserRepository, error) {
		return database.NewUserStore(do.MustInvoke[*surrealdb.DB](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (domain.TourRepository, error) {
		return database.NewTourStore(do.MustInvoke[*surrealdb.DB](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (domain.MessageRepository, error) {
		return database.NewMessageStore(do.MustInvoke[*surrealdb.DB](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (domain.PostRepository, error) {
		return database.NewPostStore(do.MustInvoke[*surrealdb.DB](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (storage.Store, error) {
		return storage.NewOsStore(do.MustInvoke[*config.Config](i).UploadDir), nil
	})
	do.Provide(injector, func(i do.Injector) (*chat.Registry, error) {
		return chat.NewRegistry(), nil
	})
	do.Provide(injector, func(i do.Injector) (*chat.Broadcaster, error) {
		return chat.NewBroadcaster(do.MustInvoke[*chat.Registry](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (*chat.Handler, error) {
		tours := do.MustInvoke[domain.TourRepository](i)
		return chat.NewHandler(
			do.MustInvoke[*chat.Registry](i),
			tours,
			do.MustInvoke[domain.MessageRepository](i),
			do.MustInvoke[*chat.Broadcaster](i),
			do.MustInvoke[*pubsub.WatermillBridge](i),
		), nil
	})

	db, err := do.Invoke[*surrealdb.DB](injector)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	users := do.MustInvoke[domain.UserRepository](injector)
	if err := ensureDefaultUser(context.Background(), users); err != nil {
		slog.Warn("Default user setup failed", "error", err)
	}

	bus := do.MustInvoke[*pubsub.WatermillBridge](injector)
	statsSub := stats.NewSubscriber(bus, users)
	if err := statsSub.Start(context.Background()); err != nil {
		slog.Error("Failed to start stats subscriber", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
	}
	e.Use(session.Middleware(store))

	return &Server{
		E:        e,
		DB:       db,
		Cfg:      cfg,
		Injector: injector,
	}
}

// ensureDefaultUser seeds the fixed identity the service resolves until a
// real authentication collaborator exists.
func ensureDefaultUser(ctx context.Context, users domain.UserRepository) error {
	existing, err := users.GetUserByUsername(ctx, middleware.DefaultUsername)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	firstName := "Alex"
	lastName := "Johnson"
	email := "alex@example.com"
	_, err = users.CreateUser(ctx, &domain.User{
		Username:  middleware.DefaultUsername,
		Password:  "password123",
		FirstName: &firstName,
		LastName:  &lastName,
		Email:     &email,
	})
	return err
}
