package remote

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hubsync/hubsync/internal/model"
)

// FetchAdverts returns the active adverts for this server's bundle
func (c *Client) FetchAdverts(ctx context.Context) ([]model.Advert, error) {
	var adverts []model.Advert
	path := "/advert/?active=true&serverbundle_id=" + url.QueryEscape(c.bundleID)
	if err := c.Get(ctx, path, &adverts); err != nil {
		return nil, fmt.Errorf("fetch adverts: %w", err)
	}
	return adverts, nil
}
