package remote

import (
	"context"
	"fmt"

	"github.com/hubsync/hubsync/internal/model"
)

// attributeDefinition is the remote record for a user attribute definition
type attributeDefinition struct {
	ID string `json:"id"`
}

// GetPlaytimeDefinition returns the id of the playtime attribute definition.
// A 404 is returned as model.ErrDefinitionNotFound so the caller can create
// the definition instead.
func (c *Client) GetPlaytimeDefinition(ctx context.Context) (string, error) {
	var def attributeDefinition
	if err := c.Get(ctx, "/user/attribute/definition/playtime", &def); err != nil {
		if notFound(err) {
			return "", model.ErrDefinitionNotFound
		}
		return "", fmt.Errorf("get playtime definition: %w", err)
	}
	if def.ID == "" {
		return "", fmt.Errorf("get playtime definition: empty id in response")
	}
	return def.ID, nil
}

// CreatePlaytimeDefinition registers the playtime attribute definition and
// returns its id
func (c *Client) CreatePlaytimeDefinition(ctx context.Context) (string, error) {
	body := map[string]any{
		"name":                  "playtime",
		"title":                 "Play Time",
		"unit":                  "HOURS",
		"type":                  "ACCUMULATED",
		"accumulation_interval": "day",
		"unspecific":            true,
	}

	var def attributeDefinition
	if err := c.Post(ctx, "/user/attribute/definition", body, &def); err != nil {
		return "", fmt.Errorf("create playtime definition: %w", err)
	}
	if def.ID == "" {
		return "", fmt.Errorf("create playtime definition: empty id in response")
	}
	return def.ID, nil
}

// SendPlaytime submits accumulated playtime hours for a user
func (c *Client) SendPlaytime(ctx context.Context, definitionID string, userID model.UserID, hours float64) error {
	body := map[string]any{
		"definition_id":   definitionID,
		"user_id":         userID,
		"serverbundle_id": c.bundleID,
		"value":           hours,
	}

	if err := c.Post(ctx, "/user/attribute/", body, nil); err != nil {
		return fmt.Errorf("send playtime for user %s: %w", userID, err)
	}
	return nil
}
