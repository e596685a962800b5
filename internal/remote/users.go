package remote

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hubsync/hubsync/internal/model"
)

// GetUser fetches the remote user record for a local player identifier.
// A 404 means the user does not exist yet and is returned as
// model.ErrUserNotFound so callers can take the create path.
func (c *Client) GetUser(ctx context.Context, playerID model.PlayerID) (*model.User, error) {
	var user model.User
	path := fmt.Sprintf("/user/%s?type=%s", url.PathEscape(string(playerID)), model.PlatformType)
	if err := c.Get(ctx, path, &user); err != nil {
		if notFound(err) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", playerID, err)
	}
	return &user, nil
}

// CreateUser registers a new remote user for a local player identifier.
// username is best-effort and may be empty.
func (c *Client) CreateUser(ctx context.Context, playerID model.PlayerID, username string) (*model.User, error) {
	body := map[string]string{
		"type":       model.PlatformType,
		"identifier": string(playerID),
	}
	if username != "" {
		body["username"] = username
	}

	var user model.User
	if err := c.Post(ctx, "/user/", body, &user); err != nil {
		return nil, fmt.Errorf("create user %s: %w", playerID, err)
	}
	return &user, nil
}
