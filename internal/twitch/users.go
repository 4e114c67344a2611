package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// User is a Helix user record
type User struct {
	ID              string    `json:"id"`
	Login           string    `json:"login"`
	DisplayName     string    `json:"display_name"`
	Type            string    `json:"type"`
	BroadcasterType string    `json:"broadcaster_type"`
	Description     string    `json:"description"`
	ProfileImageURL string    `json:"profile_image_url"`
	OfflineImageURL string    `json:"offline_image_url"`
	ViewCount       int64     `json:"view_count"`
	Email           string    `json:"email,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// GetUserByName looks up a single user by login.
// An unknown login yields (nil, nil).
func (c *Client) GetUserByName(ctx context.Context, username string) (*User, error) {
	users, err := c.fetchUsers(ctx, []string{username})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// GetUsersByName looks up users by login in one request. At most
// MaxUsersPerRequest logins are sent; the rest are discarded with a warning.
// Results keep the order the API returns them in.
func (c *Client) GetUsersByName(ctx context.Context, usernames []string) ([]User, error) {
	if len(usernames) == 0 {
		return []User{}, nil
	}

	logins := usernames
	if len(usernames) > MaxUsersPerRequest {
		c.log(LevelWarn, "", fmt.Sprintf(
			"Tried to retrieve data from Twitch API for %d usernames at once! Using the first %d usernames and discarding %d usernames",
			len(usernames), MaxUsersPerRequest, len(usernames)-MaxUsersPerRequest))

		// Copy so the caller's slice is left untouched
		logins = make([]string, MaxUsersPerRequest)
		copy(logins, usernames[:MaxUsersPerRequest])
	}

	return c.fetchUsers(ctx, logins)
}

func (c *Client) fetchUsers(ctx context.Context, logins []string) ([]User, error) {
	data, err := c.GetAPIData(ctx, usersQuery(logins))
	if err != nil {
		return nil, err
	}

	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("%w: failed to decode users: %v", ErrAPIResponse, err)
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// usersQuery builds users?login=a&login=b preserving the login order
func usersQuery(logins []string) string {
	return "users?" + url.Values{"login": logins}.Encode()
}
