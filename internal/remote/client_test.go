package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/suite"

	"github.com/hubsync/hubsync/internal/model"
	"github.com/hubsync/hubsync/internal/testutil"
)

type ClientSuite struct {
	suite.Suite
	api    *testutil.FakeAPI
	client *Client
	ctx    context.Context
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.api = testutil.NewFakeAPI("bundle-1")
	s.client = NewClient(s.api.URL(), "test-token", "server-1")
	s.client.SetServerBundle("bundle-1")
	s.ctx = context.Background()
}

func (s *ClientSuite) TearDownTest() {
	s.api.Close()
}

func (s *ClientSuite) TestGetUserReturnsRecord() {
	seeded := s.api.SeedUser("7656119", "alice")

	user, err := s.client.GetUser(s.ctx, "7656119")
	s.Require().NoError(err)

	s.Equal(seeded.ID, user.ID)
	s.Equal(model.PlayerID("7656119"), user.Identifier)
	s.Equal(model.PlatformType, user.Type)
}

func (s *ClientSuite) TestGetUserNotFound() {
	_, err := s.client.GetUser(s.ctx, "unknown")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *ClientSuite) TestCreateUser() {
	user, err := s.client.CreateUser(s.ctx, "7656119", "alice")
	s.Require().NoError(err)

	s.Equal("alice", user.Username)
	s.Equal([]model.PlayerID{"7656119"}, s.api.CreatedUsers)
}

func (s *ClientSuite) TestGetServerReturnsBundle() {
	info, err := s.client.GetServer(s.ctx)
	s.Require().NoError(err)
	s.Equal("bundle-1", info.ServerBundleID)
}

func (s *ClientSuite) TestPatchServerRecordsHeartbeat() {
	_, err := s.client.PatchServer(s.ctx, model.Heartbeat{
		UsersMax:     100,
		UsersCurrent: 3,
		IsAlive:      true,
	})
	s.Require().NoError(err)

	s.Require().Len(s.api.Heartbeats, 1)
	s.Equal(3, s.api.Heartbeats[0].UsersCurrent)
	s.True(s.api.Heartbeats[0].IsAlive)
}

func (s *ClientSuite) TestFetchBansEmptyReturnsNonNilMap() {
	bans, err := s.client.FetchBans(s.ctx)
	s.Require().NoError(err)
	s.NotNil(bans)
	s.Empty(bans)
}

func (s *ClientSuite) TestCreateAndFetchBan() {
	user := s.api.SeedUser("7656119", "alice")

	length := int64(3600)
	_, err := s.client.CreateBan(s.ctx, user.ID, "cheating", &length, time.Now())
	s.Require().NoError(err)

	bans, err := s.client.FetchBans(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(bans["7656119"], 1)
	s.Equal("cheating", bans["7656119"][0].Reason)
	s.NotNil(bans["7656119"][0].EndsOn)
}

func (s *ClientSuite) TestUnbanUserDeactivatesBans() {
	user := s.api.SeedUser("7656119", "alice")
	s.api.SeedBan("7656119", "cheating", nil)

	_, err := s.client.UnbanUser(s.ctx, user.ID)
	s.Require().NoError(err)

	bans, err := s.client.FetchBans(s.ctx)
	s.Require().NoError(err)
	s.Empty(bans)
}

func (s *ClientSuite) TestGroupMembershipLifecycle() {
	user := s.api.SeedUser("7656119", "alice")
	group := s.api.SeedGroup("Supporters", "supporter", "bundle-1")

	_, err := s.client.AddMembership(s.ctx, user.ID, group.ID)
	s.Require().NoError(err)

	groups, err := s.client.GetUserGroups(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Require().Len(groups, 1)
	s.Equal(group.ID, groups[0].ID)

	_, err = s.client.RemoveMembershipByGroup(s.ctx, user.ID, group.ID)
	s.Require().NoError(err)

	groups, err = s.client.GetUserGroups(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Empty(groups)
}

func (s *ClientSuite) TestFetchRewardsKeyedByPlayer() {
	user := s.api.SeedUser("7656119", "alice")
	s.api.SeedReward("7656119", &model.AppliedReward{
		Reward: model.Reward{Kind: model.RewardCommand, OnEvent: model.EventConnect},
	})

	rewards, err := s.client.FetchRewards(s.ctx, []model.UserID{user.ID})
	s.Require().NoError(err)
	s.Len(rewards["7656119"], 1)
}

func (s *ClientSuite) TestFetchRewardsNoUsersSkipsRequest() {
	rewards, err := s.client.FetchRewards(s.ctx, nil)
	s.Require().NoError(err)
	s.NotNil(rewards)
	s.Empty(rewards)
}

func (s *ClientSuite) TestMarkRewardExecutedSendsServerID() {
	s.api.SeedUser("7656119", "alice")
	s.api.SeedReward("7656119", &model.AppliedReward{ID: "reward-1",
		Reward: model.Reward{Kind: model.RewardCommand}})

	confirmed, err := s.client.MarkRewardExecuted(s.ctx, "reward-1")
	s.Require().NoError(err)

	s.Equal(model.RewardID("reward-1"), confirmed.ID)
	s.Equal([]string{"server-1"}, confirmed.ExecutedOn)
}

func (s *ClientSuite) TestPlaytimeDefinitionNotFoundThenCreated() {
	_, err := s.client.GetPlaytimeDefinition(s.ctx)
	s.ErrorIs(err, model.ErrDefinitionNotFound)

	created, err := s.client.CreatePlaytimeDefinition(s.ctx)
	s.Require().NoError(err)
	s.NotEmpty(created)

	fetched, err := s.client.GetPlaytimeDefinition(s.ctx)
	s.Require().NoError(err)
	s.Equal(created, fetched)
}

func (s *ClientSuite) TestBearerTokenSentOnEveryRequest() {
	var got string
	r := mux.NewRouter()
	r.HandleFunc("/group/", func(w http.ResponseWriter, req *http.Request) {
		got = req.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	})
	server := httptest.NewServer(r)
	defer server.Close()

	client := NewClient(server.URL, "secret", "server-1")
	_, err := client.FetchGroups(s.ctx)
	s.Require().NoError(err)

	s.Equal("Bearer secret", got)
}

func (s *ClientSuite) TestNon2xxReturnsStatusError() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "token", "server-1")
	err := client.Get(s.ctx, "/group/", nil)

	var se *StatusError
	s.Require().True(errors.As(err, &se))
	s.Equal(http.StatusInternalServerError, se.Code)
}
