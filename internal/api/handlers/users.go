package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"helix/internal/lookup"
	"helix/internal/twitch"

	"github.com/gin-gonic/gin"
)

// UsersHandler handles user lookup requests
type UsersHandler struct {
	lookup lookup.Lookup
	logger *slog.Logger
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(l lookup.Lookup, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		lookup: l,
		logger: logger.With("component", "api.users"),
	}
}

// GetUser returns a single user by login
// GET /v1/users/:login
func (h *UsersHandler) GetUser(c *gin.Context) {
	user, err := h.lookup.User(c.Request.Context(), c.Param("login"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers returns the users for every login query parameter.
// Both ?login=a&login=b and ?login=a,b are accepted.
// GET /v1/users
func (h *UsersHandler) ListUsers(c *gin.Context) {
	var logins []string
	for _, value := range c.QueryArray("login") {
		for _, login := range strings.Split(value, ",") {
			if login = strings.TrimSpace(login); login != "" {
				logins = append(logins, login)
			}
		}
	}

	if len(logins) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "At least one login query parameter is required",
			"code":  "INVALID_REQUEST",
		})
		return
	}

	users, err := h.lookup.Users(c.Request.Context(), logins)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if users == nil {
		users = []twitch.User{}
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}
