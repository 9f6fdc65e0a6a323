package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"cims/internal/auth"
	"cims/internal/config"
	"cims/internal/errors"
	"cims/internal/handler"
	"cims/internal/metrics"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth    *handler.AuthHandler
	Member  *handler.MemberHandler
	Project *handler.ProjectHandler
	Health  *handler.HealthHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	httpMetrics *metrics.HTTP,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(httpMetrics.Middleware())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", h.Health.Live)
	e.GET("/readyz", h.Health.Ready)
	e.GET("/metrics", httpMetrics.Handler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/login", h.Auth.Login, loginLimiter(cfg.LoginRatePerMinute))
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/logout", h.Auth.Logout)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.ContextKeyClaims,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.ValidateAccessToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: "invalid or missing token",
				Code:  string(errors.KindUnauthorized),
			})
		},
	}))

	// Member routes
	secured.GET("/profile/me", h.Member.GetOwnProfile)
	secured.GET("/members/my-group", h.Member.ListGroupMembers)

	admin := secured.Group("/admin", handler.RequireAdmin())
	admin.POST("/members", h.Member.AddMember)
	admin.GET("/members/:id", h.Member.GetProfile)
	admin.PUT("/members/:id", h.Member.UpdateMember)
	admin.DELETE("/members/:id", h.Member.DeleteMember)

	// Project routes
	secured.POST("/teams/:team_id/events/:event_id/players", h.Project.RegisterPlayer)
	secured.GET("/teams/:team_id/events/:event_id/players", h.Project.ListPlayers)
	secured.DELETE("/teams/:team_id/events/:event_id/players/:member_id", h.Project.RemovePlayer)
	secured.POST("/equipment/issues", h.Project.IssueEquipment)
	secured.PUT("/equipment/issues/:log_id/return", h.Project.ReturnEquipment)
	secured.GET("/equipment/logs", h.Project.ListEquipmentLogs)
	secured.POST("/matches", h.Project.ScheduleMatch)
	secured.GET("/matches", h.Project.ListMatches)
	secured.GET("/matches/:match_id", h.Project.GetMatch)
	secured.PUT("/matches/:match_id/score", h.Project.UpdateMatchScore)
	secured.DELETE("/matches/:match_id", h.Project.DeleteMatch)
}

// loginLimiter throttles login attempts per client IP. perMinute <= 0 disables it.
func loginLimiter(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(perMinute) / 60),
			Burst:     perMinute,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, errors.ErrorResponse{
				Error: "too many login attempts",
				Code:  "TOO_MANY_REQUESTS",
			})
		},
	})
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				if v.Status >= http.StatusInternalServerError {
					level = slog.LevelError
				}
			}
			slog.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
