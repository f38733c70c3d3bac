package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	dto "task-review-system.com/task-review-system/internal/data_models"
	apperrors "task-review-system.com/task-review-system/internal/errors"
)

var ErrRateLimited = &apperrors.Exception{
	Kind:       "rate_limited",
	Message:    "rate limit exceeded",
	StatusCode: http.StatusTooManyRequests,
}

// RateLimiter allows limit requests per window for each client IP, refilling
// evenly across the window. Identity headers are caller-supplied and never
// pick the bucket.
func RateLimiter(limit int, window time.Duration) echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Every(window / time.Duration(limit)),
		Burst:     limit,
		ExpiresIn: window,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(ErrRateLimited.StatusCode, dto.ErrorResponse{Kind: ErrRateLimited.Kind, Message: ErrRateLimited.Message})
		},
	})
}
