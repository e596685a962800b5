package remote

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hubsync/hubsync/internal/model"
)

// FetchRewards returns all open, active reward grants for the given users,
// keyed by the target player's platform identifier
func (c *Client) FetchRewards(ctx context.Context, userIDs []model.UserID) (map[model.PlayerID][]*model.AppliedReward, error) {
	if len(userIDs) == 0 {
		return map[model.PlayerID][]*model.AppliedReward{}, nil
	}

	q := c.rewardQuery()
	for _, id := range userIDs {
		q.Add("user_id", string(id))
	}
	return c.getRewards(ctx, q)
}

// GetUserRewards returns the open, active reward grants for one user
func (c *Client) GetUserRewards(ctx context.Context, userID model.UserID) (map[model.PlayerID][]*model.AppliedReward, error) {
	q := c.rewardQuery()
	q.Set("user_id", string(userID))
	return c.getRewards(ctx, q)
}

// MarkRewardExecuted reports that this server has executed the reward
func (c *Client) MarkRewardExecuted(ctx context.Context, rewardID model.RewardID) (*model.AppliedReward, error) {
	body := map[string]any{
		"executed_on": []string{c.serverID},
	}

	var reward model.AppliedReward
	path := "/packet/reward/applied/" + url.PathEscape(string(rewardID))
	if err := c.Patch(ctx, path, body, &reward); err != nil {
		return nil, fmt.Errorf("mark reward %s executed: %w", rewardID, err)
	}
	return &reward, nil
}

func (c *Client) rewardQuery() url.Values {
	return url.Values{
		"active":          []string{"true"},
		"foreign_ids":     []string{"true"},
		"status":          []string{"OPEN"},
		"serverbundle_id": []string{c.bundleID},
		"for_server_id":   []string{c.serverID},
	}
}

func (c *Client) getRewards(ctx context.Context, q url.Values) (map[model.PlayerID][]*model.AppliedReward, error) {
	var rewards map[model.PlayerID][]*model.AppliedReward
	if err := c.Get(ctx, "/packet/reward/applied/user?"+q.Encode(), &rewards); err != nil {
		return nil, fmt.Errorf("fetch rewards: %w", err)
	}
	if rewards == nil {
		rewards = make(map[model.PlayerID][]*model.AppliedReward)
	}
	return rewards, nil
}
