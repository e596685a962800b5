package remote

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hubsync/hubsync/internal/model"
)

// FetchGroups returns all group definitions on the remote service
func (c *Client) FetchGroups(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	if err := c.Get(ctx, "/group/", &groups); err != nil {
		return nil, fmt.Errorf("fetch groups: %w", err)
	}
	return groups, nil
}

// GetUserGroups returns the groups a user is a member of within this
// server's bundle
func (c *Client) GetUserGroups(ctx context.Context, userID model.UserID) ([]model.Group, error) {
	var groups []model.Group
	path := fmt.Sprintf("/user/%s/group?serverbundle_id=%s", url.PathEscape(string(userID)), url.QueryEscape(c.bundleID))
	if err := c.Get(ctx, path, &groups); err != nil {
		return nil, fmt.Errorf("get groups for user %s: %w", userID, err)
	}
	return groups, nil
}

// AddMembership adds the user to a remote group, scoped to this bundle
func (c *Client) AddMembership(ctx context.Context, userID model.UserID, groupID model.GroupID) (*model.Membership, error) {
	body := map[string]any{
		"group_id":        groupID,
		"serverbundle_id": c.bundleID,
	}

	var membership model.Membership
	path := fmt.Sprintf("/user/%s/membership", url.PathEscape(string(userID)))
	if err := c.Post(ctx, path, body, &membership); err != nil {
		return nil, fmt.Errorf("add user %s to group %s: %w", userID, groupID, err)
	}
	return &membership, nil
}

// RemoveMembershipByGroup ends the user's membership of one group within
// this bundle
func (c *Client) RemoveMembershipByGroup(ctx context.Context, userID model.UserID, groupID model.GroupID) (*model.Membership, error) {
	var membership model.Membership
	path := fmt.Sprintf("/user/%s/membership/by-group?group_id=%s&serverbundle_id=%s",
		url.PathEscape(string(userID)), url.QueryEscape(string(groupID)), url.QueryEscape(c.bundleID))
	if err := c.Delete(ctx, path, &membership); err != nil {
		return nil, fmt.Errorf("remove user %s from group %s: %w", userID, groupID, err)
	}
	return &membership, nil
}

// RemoveAllMemberships ends all of the user's memberships within this bundle
func (c *Client) RemoveAllMemberships(ctx context.Context, userID model.UserID) (*model.Membership, error) {
	var membership model.Membership
	path := fmt.Sprintf("/user/%s/membership?serverbundle_id=%s", url.PathEscape(string(userID)), url.QueryEscape(c.bundleID))
	if err := c.Delete(ctx, path, &membership); err != nil {
		return nil, fmt.Errorf("remove user %s from all groups: %w", userID, err)
	}
	return &membership, nil
}
