package remote

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hubsync/hubsync/internal/model"
)

// FetchUserWarnings returns the active warnings for a user within this
// server's bundle
func (c *Client) FetchUserWarnings(ctx context.Context, userID model.UserID) ([]model.Warning, error) {
	var warnings []model.Warning
	path := fmt.Sprintf("/warning/?active=true&user_id=%s&serverbundle_id=%s",
		url.QueryEscape(string(userID)), url.QueryEscape(c.bundleID))
	if err := c.Get(ctx, path, &warnings); err != nil {
		return nil, fmt.Errorf("fetch warnings for user %s: %w", userID, err)
	}
	return warnings, nil
}

// CreateWarning records a warning against a user
func (c *Client) CreateWarning(ctx context.Context, userID model.UserID, reason string) (*model.Warning, error) {
	body := map[string]any{
		"reason":          reason,
		"user_id":         userID,
		"serverbundle_id": c.bundleID,
	}

	var warning model.Warning
	if err := c.Post(ctx, "/warning/", body, &warning); err != nil {
		return nil, fmt.Errorf("create warning for user %s: %w", userID, err)
	}
	return &warning, nil
}
