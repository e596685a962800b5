package rewards

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hubsync/hubsync/internal/host"
	"github.com/hubsync/hubsync/internal/host/fakehost"
	"github.com/hubsync/hubsync/internal/model"
	"github.com/hubsync/hubsync/internal/remote"
	"github.com/hubsync/hubsync/internal/storage/memory"
	"github.com/hubsync/hubsync/internal/testutil"
)

type DispatcherSuite struct {
	suite.Suite
	api        *testutil.FakeAPI
	client     *remote.Client
	host       *fakehost.Host
	storage    *memory.Storage
	dispatcher *Dispatcher
	ctx        context.Context
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.api = testutil.NewFakeAPI("bundle-1")
	s.client = remote.NewClient(s.api.URL(), "token", "server-1")
	s.client.SetServerBundle("bundle-1")
	s.host = fakehost.New()
	s.storage = memory.New()
	s.dispatcher = New(s.client, s.host, s.storage, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *DispatcherSuite) TearDownTest() {
	s.api.Close()
}

func commandReward(id model.RewardID, onEvent model.EventName, once bool, command string) *model.AppliedReward {
	return &model.AppliedReward{
		ID:     id,
		Active: true,
		Reward: model.Reward{
			Name:    "test reward",
			Kind:    model.RewardCommand,
			OnEvent: onEvent,
			Once:    once,
			Data:    map[string]string{"command": command},
		},
	}
}

func (s *DispatcherSuite) TestCommandRewardRunsOnMatchingEvent() {
	s.host.Connect(host.Player{ID: "player-1", Name: "alice"})
	s.dispatcher.SetPlayerRewards("player-1", []*model.AppliedReward{
		commandReward("reward-1", model.EventConnect, false, "say hello"),
	})

	s.dispatcher.Execute(s.ctx, []model.EventName{model.EventConnect}, "player-1")

	s.Equal([]string{"say hello"}, s.host.Commands)
}

func (s *DispatcherSuite) TestRewardSkippedOnOtherEvents() {
	s.host.Connect(host.Player{ID: "player-1", Name: "alice"})
	s.dispatcher.SetPlayerRewards("player-1", []*model.AppliedReward{
		commandReward("reward-1", model.EventDeath, false, "say died"),
	})

	s.dispatcher.Execute(s.ctx, []model.EventName{model.EventConnect, model.EventSpawn}, "player-1")

	s.Empty(s.host.Commands)
}

func (s *DispatcherSuite) TestOnceRewardDoesNotRepeat() {
	s.host.Connect(host.Player{ID: "player-1", Name: "alice"})
	s.dispatcher.SetPlayerRewards("player-1", []*model.AppliedReward{
		commandReward("reward-1", model.EventConnect, true, "give wood"),
	})

	s.dispatcher.Execute(s.ctx, []model.EventName{model.EventConnect}, "player-1")
	s.dispatcher.Execute(s.ctx, []model.EventName{model.EventConnect}, "player-1")

	s.Equal([]string{"give wood"}, s.host.Commands)
}

func (s *DispatcherSuite) TestRepeatableRewardRunsEveryTime() {
	s.host.Connect(host.Player{ID: "player-1", Name: "alice"})
	s.dispatcher.SetPlayerRewards("player-1", []*model.AppliedReward{
		commandReward("reward-1", model.EventSpawn, false, "give kit"),
	})

	s.dispatcher.Execute(s.ctx, []model.EventName{model.EventSpawn}, "player-1")
	s.dispatcher.Execute(s.ctx, []model.EventName{model.EventSpawn}, "player-1")

	s.Equal([]string{"give kit", "give kit"}, s.host.Commands)
}

func (s *DispatcherSuite) TestMultiLineCommandSplitsIntoSeparateCommands() {
	s.host.Connect(host.Player{ID: "player-1", Name: "alice"})
	s.dispatcher.SetPlayerRewards("player-1", []*model.AppliedReward{
		commandReward("reward-1", model.EventConnect, false, "give wood\ngive stone|give metal"),
	})

	s.dispatcher.Execute(s.ctx, []model.EventName{model.EventConnect}, "player-1")

	s.Equal([]string{"give wood", "give stone", "give metal"}, s.host.Commands)
}

func (s *DispatcherSuite) TestPlaceholderSubstitution() {
	s.host.Connect(host.Player{ID: "7656119", Name: "alice"})
	applied := commandReward("reward-1", model.EventConnect, false,
		"say %nick% %steamid64% bought %packet_title% for %purchase_amount% (%applied_packet_id%)")
	applied.AppliedPacketID = "packet-9"
	applied.AppliedPacket = &model.AppliedPacket{
		Purchase: &model.Purchase{AmountText: "4.99 EUR"},
		Packet:   model.Packet{Title: "VIP"},
	}
	s.dispatcher.SetPlayerRewards("7656119", []*model.AppliedReward{applied})

	s.dispatcher.Execute(s.ctx, []model.EventName{model.EventConnect}, "7656119")

	s.Equal([]string{"say alice 7656119 bought VIP for 4.99 EUR (packet-9)"}, s.host.Commands)
}

func (s *DispatcherSuite) TestMissingPurchaseRendersDash() {
	s.host.Connect(host.Player{ID: "player-1", Name: "alice"})
	s.dispatcher.SetPlayerRewards("player-1", []*model.AppliedReward{
		commandReward("reward-1", model.EventConnect, false, "say paid %purchase_amount%"),
	})

	s.dispatcher.Execute(s.ctx, []model.EventName{model.EventConnect}, "player-1")

	s.Equal([]string{"say paid -"}, s.host.Commands)
}

func (s *DispatcherSuite) TestUnsupportedKindLeftPending() {
	s.host.Connect(host.Player{ID: "player-1", Name: "alice"})
	applied := commandReward("reward-1", model.EventConnect, true, "")
	applied.Reward.Kind = "SHUTDOWN"
	s.dispatcher.SetPlayerRewards("player-1", []*model.AppliedReward{applied})

	s.dispatcher.Execute(s.ctx, []model.EventName{model.EventConnect}, "player-1")

	s.Empty(s.host.Commands)
}

func (s *DispatcherSuite) TestExecutedRewardReportedOnce() {
	s.host.Connect(host.Player{ID: "player-1", Name: "alice"})
	s.dispatcher.SetPlayerRewards("player-1", []*model.AppliedReward{
		commandReward("reward-1", model.EventConnect, true, "give wood"),
	})

	s.dispatcher.Execute(s.ctx, []model.EventName{model.EventConnect}, "player-1")

	s.Equal([]model.RewardID{"reward-1"}, s.api.ExecutedRewards)

	// Confirmed ids are guarded in memory; another flush sends nothing
	s.dispatcher.FlushExecuted(s.ctx)
	s.Equal([]model.RewardID{"reward-1"}, s.api.ExecutedRewards)
}

func (s *DispatcherSuite) TestExecutedListPersistsUntilConfirmed() {
	s.host.Connect(host.Player{ID: "player-1", Name: "alice"})
	s.api.Close() // remote unreachable, confirmation fails

	s.dispatcher.SetPlayerRewards("player-1", []*model.AppliedReward{
		commandReward("reward-1", model.EventConnect, true, "give wood"),
	})
	s.dispatcher.Execute(s.ctx, []model.EventName{model.EventConnect}, "player-1")

	// Executed locally and persisted, awaiting confirmation
	ids, err := s.storage.LoadExecutedRewards(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.RewardID{"reward-1"}, ids)

	// A restarted dispatcher does not re-run the reward
	restarted := New(s.client, s.host, s.storage, testutil.NopLogger())
	restarted.Load(s.ctx)
	restarted.SetPlayerRewards("player-1", []*model.AppliedReward{
		commandReward("reward-1", model.EventConnect, true, "give wood"),
	})
	restarted.Execute(s.ctx, []model.EventName{model.EventConnect}, "player-1")

	s.Equal([]string{"give wood"}, s.host.Commands)
}

func (s *DispatcherSuite) TestFetchAndRunFiresDirectRewards() {
	user := s.api.SeedUser("player-1", "alice")
	s.host.Connect(host.Player{ID: "player-1", Name: "alice"})
	s.api.SeedReward("player-1", commandReward("reward-1", model.EventDirect, true, "give bonus"))

	s.dispatcher.FetchAndRun(s.ctx, []*model.User{user})

	s.Equal([]string{"give bonus"}, s.host.Commands)
	s.Equal([]model.RewardID{"reward-1"}, s.api.ExecutedRewards)
}

func (s *DispatcherSuite) TestDirectExecuteWithoutPlayerSkipsGameEvents() {
	s.host.Connect(host.Player{ID: "player-1", Name: "alice"})
	s.dispatcher.SetPlayerRewards("player-1", []*model.AppliedReward{
		commandReward("reward-1", model.EventConnect, false, "give wood"),
	})

	// A game-trigger event with no player scope must not run anything
	s.dispatcher.Execute(s.ctx, []model.EventName{model.EventConnect}, "")

	s.Empty(s.host.Commands)
}

func (s *DispatcherSuite) TestExecuteForRunsAfterDisconnect() {
	s.host.Connect(host.Player{ID: "player-1", Name: "alice"})
	s.dispatcher.SetPlayerRewards("player-1", []*model.AppliedReward{
		commandReward("reward-1", model.EventDisconnect, false, "say %nick% left"),
	})
	player, ok := s.host.FindPlayer("player-1")
	s.Require().True(ok)
	s.host.Disconnect("player-1")

	s.dispatcher.ExecuteFor(s.ctx, []model.EventName{model.EventDisconnect}, player)

	s.Equal([]string{"say alice left"}, s.host.Commands)
}
