package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// TokenAuthority exposes the app access token state of a Twitch client
type TokenAuthority interface {
	Authorize(ctx context.Context) (time.Time, error)
	IsAuthorized() bool
	Token() *oauth2.Token
}

// TokenHandler reports and refreshes the app access token
type TokenHandler struct {
	authority TokenAuthority
	logger    *slog.Logger
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(authority TokenAuthority, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{
		authority: authority,
		logger:    logger.With("component", "api.token"),
	}
}

// GetTokenStatus reports whether a usable token is held. The token itself
// is never returned.
// GET /v1/token
func (h *TokenHandler) GetTokenStatus(c *gin.Context) {
	response := gin.H{
		"authorized": h.authority.IsAuthorized(),
		"expires_at": nil,
	}
	if token := h.authority.Token(); token != nil {
		response["expires_at"] = token.Expiry
	}

	c.JSON(http.StatusOK, response)
}

// RefreshToken forces a new client-credentials exchange
// POST /v1/token/refresh
func (h *TokenHandler) RefreshToken(c *gin.Context) {
	expiresAt, err := h.authority.Authorize(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("App access token refreshed", "expires_at", expiresAt)

	c.JSON(http.StatusOK, gin.H{
		"authorized": h.authority.IsAuthorized(),
		"expires_at": expiresAt,
	})
}
