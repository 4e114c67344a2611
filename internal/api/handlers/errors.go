package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"helix/internal/api/middleware"
	"helix/internal/lookup"
	"helix/internal/twitch"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors to an HTTP status and error code
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, code, message := classify(err)

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			"request_id", c.GetString(middleware.RequestIDKey),
			"code", code,
			"error", err,
		)
	}
	_ = c.Error(err)

	c.JSON(status, gin.H{
		"error": message,
		"code":  code,
	})
}

func classify(err error) (int, string, string) {
	var apiErr *twitch.APIResponseError
	var netErr *twitch.NetworkError

	switch {
	case errors.Is(err, lookup.ErrInvalidLogin):
		return http.StatusBadRequest, "INVALID_LOGIN", "Login must not be empty"
	case errors.Is(err, lookup.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND", "User not found"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "UPSTREAM_ERROR", "Twitch API returned an unexpected response"
	case errors.As(err, &netErr):
		return http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Twitch API is unreachable"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}
