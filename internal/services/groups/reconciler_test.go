package groups

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hubsync/hubsync/internal/host"
	"github.com/hubsync/hubsync/internal/host/fakehost"
	"github.com/hubsync/hubsync/internal/model"
	"github.com/hubsync/hubsync/internal/remote"
	"github.com/hubsync/hubsync/internal/services/directory"
	"github.com/hubsync/hubsync/internal/testutil"
)

type ReconcilerSuite struct {
	suite.Suite
	api        *testutil.FakeAPI
	client     *remote.Client
	host       *fakehost.Host
	directory  *directory.Service
	reconciler *Reconciler
	ctx        context.Context
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerSuite))
}

func (s *ReconcilerSuite) SetupTest() {
	s.api = testutil.NewFakeAPI("bundle-1")
	s.client = remote.NewClient(s.api.URL(), "token", "server-1")
	s.client.SetServerBundle("bundle-1")
	s.host = fakehost.New()
	s.directory = directory.New(s.client, s.host, testutil.NopLogger())
	s.reconciler = New(s.client, s.host, s.directory, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ReconcilerSuite) TearDownTest() {
	s.api.Close()
}

// wireEvents routes the fake host's echoed group events into the reconciler,
// the way the engine does in production
func (s *ReconcilerSuite) wireEvents() {
	s.host.SetEvents(host.Events{
		OnGroupAdded: func(id model.PlayerID, group string) {
			s.reconciler.HandleGroupAdded(s.ctx, id, group)
		},
		OnGroupRemoved: func(id model.PlayerID, group string) {
			s.reconciler.HandleGroupRemoved(s.ctx, id, group)
		},
	})
}

func (s *ReconcilerSuite) refreshDefinitions() {
	groups, err := s.client.FetchGroups(s.ctx)
	s.Require().NoError(err)
	s.reconciler.UpdateDefinitions("bundle-1", groups)
}

func (s *ReconcilerSuite) connectUser(playerID model.PlayerID, name string) *model.User {
	s.api.SeedUser(playerID, name)
	s.host.Connect(host.Player{ID: playerID, Name: name})
	user, err := s.directory.GetOrCreate(s.ctx, playerID)
	s.Require().NoError(err)
	return user
}

func (s *ReconcilerSuite) TestSyncJoinsRemoteGroupsLocally() {
	group := s.api.SeedGroup("Supporters", "Supporter", "bundle-1")
	user := s.connectUser("player-1", "alice")
	s.api.SeedMembership(user.ID, group.ID)
	s.refreshDefinitions()

	s.reconciler.Sync(s.ctx, user)

	s.True(s.host.GroupExists("supporter"))
	s.True(s.host.PlayerInGroup("player-1", "supporter"))
}

func (s *ReconcilerSuite) TestSyncLeavesMappedGroupsNotInTarget() {
	s.api.SeedGroup("Supporters", "Supporter", "bundle-1")
	user := s.connectUser("player-1", "alice")
	s.refreshDefinitions()

	// Locally in a mapped group with no remote membership behind it
	s.Require().NoError(s.host.CreateGroup("supporter", "Supporter", 0))
	s.Require().NoError(s.host.AddPlayerToGroup("player-1", "supporter"))

	s.reconciler.Sync(s.ctx, user)

	s.False(s.host.PlayerInGroup("player-1", "supporter"))
}

func (s *ReconcilerSuite) TestSyncLeavesUnmappedGroupsAlone() {
	user := s.connectUser("player-1", "alice")
	s.refreshDefinitions()

	s.Require().NoError(s.host.CreateGroup("homegrown", "Homegrown", 0))
	s.Require().NoError(s.host.AddPlayerToGroup("player-1", "homegrown"))

	s.reconciler.Sync(s.ctx, user)

	s.True(s.host.PlayerInGroup("player-1", "homegrown"))
}

func (s *ReconcilerSuite) TestSyncSkipsMappingsForOtherBundles() {
	group := s.api.SeedGroup("Supporters", "Supporter", "bundle-2")
	user := s.connectUser("player-1", "alice")
	s.api.SeedMembership(user.ID, group.ID)
	s.refreshDefinitions()

	s.reconciler.Sync(s.ctx, user)

	// The membership's own mapping still applies the local group; only
	// the definition table filters by bundle, so removal later will not
	// touch it
	_, known := s.reconciler.lookupMapped("supporter")
	s.False(known)
}

func (s *ReconcilerSuite) TestEchoedSyncMutationsNotPushedBack() {
	group := s.api.SeedGroup("Supporters", "Supporter", "bundle-1")
	user := s.connectUser("player-1", "alice")
	s.api.SeedMembership(user.ID, group.ID)
	s.refreshDefinitions()
	s.wireEvents()

	s.reconciler.Sync(s.ctx, user)

	// The local join echoed a group-added event; the backlog entry must
	// swallow it instead of creating a second remote membership
	s.Empty(s.api.AddedGroups[user.ID])
	s.True(s.host.PlayerInGroup("player-1", "supporter"))
}

func (s *ReconcilerSuite) TestExternalGroupAddIsPushedToRemote() {
	group := s.api.SeedGroup("Supporters", "Supporter", "bundle-1")
	user := s.connectUser("player-1", "alice")
	s.refreshDefinitions()
	s.wireEvents()

	s.Require().NoError(s.host.CreateGroup("supporter", "Supporter", 0))
	s.Require().NoError(s.host.AddPlayerToGroup("player-1", "supporter"))

	s.Equal([]model.GroupID{group.ID}, s.api.AddedGroups[user.ID])
}

func (s *ReconcilerSuite) TestExternalGroupRemoveIsPushedToRemote() {
	group := s.api.SeedGroup("Supporters", "Supporter", "bundle-1")
	user := s.connectUser("player-1", "alice")
	s.api.SeedMembership(user.ID, group.ID)
	s.refreshDefinitions()
	s.wireEvents()

	s.reconciler.Sync(s.ctx, user)
	s.Require().True(s.host.PlayerInGroup("player-1", "supporter"))

	// An admin removes the group locally
	s.Require().NoError(s.host.RemovePlayerFromGroup("player-1", "supporter"))

	s.Equal([]model.GroupID{group.ID}, s.api.RemovedGroups[user.ID])
}

func (s *ReconcilerSuite) TestBacklogEntryConsumedExactlyOnce() {
	group := s.api.SeedGroup("Supporters", "Supporter", "bundle-1")
	user := s.connectUser("player-1", "alice")
	s.api.SeedMembership(user.ID, group.ID)
	s.refreshDefinitions()
	s.wireEvents()

	s.reconciler.Sync(s.ctx, user)
	s.Empty(s.api.AddedGroups[user.ID])

	// The same event arriving again has no backlog entry left and is
	// treated as external
	s.reconciler.HandleGroupAdded(s.ctx, "player-1", "supporter")
	s.Len(s.api.AddedGroups[user.ID], 1)
}

func (s *ReconcilerSuite) TestEventForUnknownPlayerIsDropped() {
	s.api.SeedGroup("Supporters", "Supporter", "bundle-1")
	s.refreshDefinitions()
	s.wireEvents()

	// No directory entry for the player; nothing to push
	s.reconciler.HandleGroupAdded(s.ctx, "stranger", "supporter")

	s.Empty(s.api.AddedGroups)
}

func (s *ReconcilerSuite) TestUnmappedGroupEventIsIgnored() {
	user := s.connectUser("player-1", "alice")
	s.refreshDefinitions()
	s.wireEvents()

	s.reconciler.HandleGroupAdded(s.ctx, "player-1", "homegrown")

	s.Empty(s.api.AddedGroups[user.ID])
}

func (s *ReconcilerSuite) TestDefinitionNameCollisionFirstWins() {
	first := s.api.SeedGroup("VIP Gold", "vip", "bundle-1")
	s.api.SeedGroup("VIP Silver", "VIP", "bundle-1")
	s.refreshDefinitions()

	def, ok := s.reconciler.lookupMapped("vip")
	s.Require().True(ok)
	s.Equal(first.ID, def.ID)
}
