package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"meetapp/internal/auth"
	"meetapp/internal/config"
	"meetapp/internal/errors"
	"meetapp/internal/handler"
)

// Handlers groups every HTTP handler the router serves.
type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	File    *handler.FileHandler
	Meetup  *handler.MeetupHandler
	Booking *handler.BookingHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, jwtService *auth.JWTService, h Handlers) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	// uploads get their own, larger limit on the route
	e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Limit: sizeOr(cfg.BodyMaxSize, "1M"),
		Skipper: func(c echo.Context) bool {
			return c.Path() == uploadPath
		},
	}))

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.Static("/files", cfg.UploadDir)

	api := e.Group("/api")

	// Public routes
	limiter := NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	api.POST("/users", h.Auth.Register, RateLimit(limiter))
	api.POST("/sessions", h.Auth.Login, RateLimit(limiter))
	api.POST("/sessions/refresh", h.Auth.Refresh)
	api.DELETE("/sessions", h.Auth.Logout)
	api.GET("/meetups", h.Meetup.List)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:    jwtService.Secret(),
		TokenLookup:   "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:    auth.ContextKey,
		NewClaimsFunc: auth.NewClaims,
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: "invalid or missing token",
				Code:  "UNAUTHENTICATED",
			})
		},
	}))

	secured.PUT("/users", h.User.Update)
	secured.POST("/files", h.File.Upload, middleware.BodyLimit(sizeOr(cfg.UploadMaxSize, "5M")))

	secured.POST("/meetups", h.Meetup.Create)
	secured.PUT("/meetups/:id", h.Meetup.Update)
	secured.DELETE("/meetups/:id", h.Meetup.Delete)
	secured.GET("/organizing", h.Meetup.ListOwned)

	secured.POST("/bookings", h.Booking.Create)
	secured.GET("/bookings", h.Booking.List)
	secured.DELETE("/bookings/:id", h.Booking.Delete)
	secured.GET("/subscriptions", h.Booking.ListUpcoming)
}

const uploadPath = "/api/files"

func sizeOr(limit, def string) string {
	if limit == "" {
		return def
	}
	return limit
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
