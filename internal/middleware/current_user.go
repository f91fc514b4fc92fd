package middleware

import (
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/tmoran/ridelink/internal/domain"
)

// UserContextKey is where the resolved user is stored on the echo context.
const UserContextKey = "user"

// DefaultUsername is the fixed identity the service resolves for every
// request. This is a stand-in for a real authentication collaborator; when
// one arrives, only this middleware changes.
const DefaultUsername = "alex_rider"

const sessionUserKey = "username"

// CurrentUser resolves the request's user and stores it in the context for
// downstream handlers. The username is read from the cookie session when
// present, falling back to the fixed default.
func CurrentUser(users domain.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			username := DefaultUsername
			if sess, err := session.Get("session", c); err == nil {
				if v, ok := sess.Values[sessionUserKey].(string); ok && v != "" {
					username = v
				}
			}

			user, err := users.GetUserByUsername(c.Request().Context(), username)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get user")
			}
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
			}

			c.Set(UserContextKey, user)
			return next(c)
		}
	}
}

// UserFromContext retrieves the user placed by CurrentUser. Returns nil when
// the middleware did not run.
func UserFromContext(c echo.Context) *domain.User {
	user, _ := c.Get(UserContextKey).(*domain.User)
	return user
}
