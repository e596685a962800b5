package remote

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hubsync/hubsync/internal/model"
)

// GetServer fetches this server's descriptor, including its bundle id
func (c *Client) GetServer(ctx context.Context) (*model.ServerInfo, error) {
	var info model.ServerInfo
	if err := c.Get(ctx, "/server/"+url.PathEscape(c.serverID), &info); err != nil {
		return nil, fmt.Errorf("get server: %w", err)
	}
	return &info, nil
}

// PatchServer pushes the periodic heartbeat and returns the refreshed
// descriptor
func (c *Client) PatchServer(ctx context.Context, hb model.Heartbeat) (*model.ServerInfo, error) {
	var info model.ServerInfo
	if err := c.Patch(ctx, "/server/"+url.PathEscape(c.serverID), hb, &info); err != nil {
		return nil, fmt.Errorf("patch server: %w", err)
	}
	return &info, nil
}
