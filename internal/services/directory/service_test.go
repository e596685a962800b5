package directory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hubsync/hubsync/internal/host"
	"github.com/hubsync/hubsync/internal/host/fakehost"
	"github.com/hubsync/hubsync/internal/model"
	"github.com/hubsync/hubsync/internal/remote"
	"github.com/hubsync/hubsync/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	api     *testutil.FakeAPI
	client  *remote.Client
	host    *fakehost.Host
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.api = testutil.NewFakeAPI("bundle-1")
	s.client = remote.NewClient(s.api.URL(), "token", "server-1")
	s.client.SetServerBundle("bundle-1")
	s.host = fakehost.New()
	s.service = New(s.client, s.host, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TearDownTest() {
	s.api.Close()
}

func (s *ServiceSuite) TestGetOrCreateFetchesExistingUser() {
	seeded := s.api.SeedUser("player-1", "alice")

	user, err := s.service.GetOrCreate(s.ctx, "player-1")
	s.Require().NoError(err)

	s.Equal(seeded.ID, user.ID)
	s.Empty(s.api.CreatedUsers)
}

func (s *ServiceSuite) TestGetOrCreateCreatesUnknownUser() {
	s.host.Connect(host.Player{ID: "player-1", Name: "alice"})

	user, err := s.service.GetOrCreate(s.ctx, "player-1")
	s.Require().NoError(err)

	s.Equal(model.PlayerID("player-1"), user.Identifier)
	s.Equal("alice", user.Username)
	s.Equal([]model.PlayerID{"player-1"}, s.api.CreatedUsers)
}

func (s *ServiceSuite) TestGetOrCreateCachesResult() {
	s.api.SeedUser("player-1", "alice")

	first, err := s.service.GetOrCreate(s.ctx, "player-1")
	s.Require().NoError(err)
	second, err := s.service.GetOrCreate(s.ctx, "player-1")
	s.Require().NoError(err)

	s.Same(first, second)
}

func (s *ServiceSuite) TestConcurrentGetOrCreateCreatesOneUser() {
	s.host.Connect(host.Player{ID: "player-1", Name: "alice"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.GetOrCreate(s.ctx, "player-1")
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.Equal([]model.PlayerID{"player-1"}, s.api.CreatedUsers)
}

func (s *ServiceSuite) TestForgetDropsCacheEntry() {
	s.api.SeedUser("player-1", "alice")

	first, err := s.service.GetOrCreate(s.ctx, "player-1")
	s.Require().NoError(err)

	s.service.Forget("player-1")

	_, ok := s.service.Lookup("player-1")
	s.False(ok)

	refetched, err := s.service.GetOrCreate(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(first.ID, refetched.ID)
	s.NotSame(first, refetched)
}

func (s *ServiceSuite) TestOnlineSkipsUnloadedPlayers() {
	s.api.SeedUser("player-1", "alice")
	_, err := s.service.GetOrCreate(s.ctx, "player-1")
	s.Require().NoError(err)

	online := s.service.Online([]host.Player{
		{ID: "player-1", Name: "alice"},
		{ID: "player-2", Name: "bob"},
	})

	s.Require().Len(online, 1)
	s.Equal(model.PlayerID("player-1"), online[0].Identifier)
}
