package remote

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/hubsync/hubsync/internal/model"
)

// FetchBans returns all active bans in this server's bundle, keyed by the
// target player's platform identifier
func (c *Client) FetchBans(ctx context.Context) (map[model.PlayerID][]model.Ban, error) {
	var bans map[model.PlayerID][]model.Ban
	path := fmt.Sprintf("/server/bundle/%s/ban?active=true", url.PathEscape(c.bundleID))
	if err := c.Get(ctx, path, &bans); err != nil {
		return nil, fmt.Errorf("fetch bans: %w", err)
	}
	if bans == nil {
		bans = make(map[model.PlayerID][]model.Ban)
	}
	return bans, nil
}

// CreateBan records a ban on the remote service. length is the duration in
// seconds; nil means permanent.
func (c *Client) CreateBan(ctx context.Context, userID model.UserID, reason string, length *int64, createdOn time.Time) (*model.Ban, error) {
	body := map[string]any{
		"length":          length,
		"reason":          reason,
		"serverbundle_id": c.bundleID,
		"user_id":         userID,
		"created_on":      createdOn.UTC().Format("2006-01-02T15:04:05.000Z"),
	}

	var ban model.Ban
	if err := c.Post(ctx, "/ban/", body, &ban); err != nil {
		return nil, fmt.Errorf("create ban for user %s: %w", userID, err)
	}
	return &ban, nil
}

// UnbanUser lifts the user's active ban in this server's bundle
func (c *Client) UnbanUser(ctx context.Context, userID model.UserID) (*model.Ban, error) {
	var ban model.Ban
	path := fmt.Sprintf("/user/%s/ban?serverbundle_id=%s", url.PathEscape(string(userID)), url.QueryEscape(c.bundleID))
	if err := c.Patch(ctx, path, nil, &ban); err != nil {
		return nil, fmt.Errorf("unban user %s: %w", userID, err)
	}
	return &ban, nil
}
