package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hubsync/hubsync/internal/model"
)

type StorageSuite struct {
	suite.Suite
	dir     string
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.dir = s.T().TempDir()

	storage, err := New(s.dir)
	s.Require().NoError(err)
	s.storage = storage
	s.ctx = context.Background()
}

func (s *StorageSuite) TestExecutedRewardsRoundTrip() {
	ids := []model.RewardID{"reward-1", "reward-2"}
	s.Require().NoError(s.storage.SaveExecutedRewards(s.ctx, ids))

	loaded, err := s.storage.LoadExecutedRewards(s.ctx)
	s.Require().NoError(err)
	s.Equal(ids, loaded)
}

func (s *StorageSuite) TestCachedBansRoundTrip() {
	ids := []model.PlayerID{"player-1", "player-2"}
	s.Require().NoError(s.storage.SaveCachedBans(s.ctx, ids))

	loaded, err := s.storage.LoadCachedBans(s.ctx)
	s.Require().NoError(err)
	s.Equal(ids, loaded)
}

func (s *StorageSuite) TestLoadMissingFilesReturnsEmpty() {
	rewards, err := s.storage.LoadExecutedRewards(s.ctx)
	s.Require().NoError(err)
	s.Empty(rewards)

	bans, err := s.storage.LoadCachedBans(s.ctx)
	s.Require().NoError(err)
	s.Empty(bans)
}

func (s *StorageSuite) TestSaveNilStoresEmptyList() {
	s.Require().NoError(s.storage.SaveExecutedRewards(s.ctx, nil))

	loaded, err := s.storage.LoadExecutedRewards(s.ctx)
	s.Require().NoError(err)
	s.NotNil(loaded)
	s.Empty(loaded)
}

func (s *StorageSuite) TestCorruptDocumentReturnsError() {
	path := filepath.Join(s.dir, "cached_bans.json")
	s.Require().NoError(os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := s.storage.LoadCachedBans(s.ctx)
	s.Error(err)
}

func (s *StorageSuite) TestDocumentsSurviveReopen() {
	s.Require().NoError(s.storage.SaveCachedBans(s.ctx, []model.PlayerID{"player-1"}))

	reopened, err := New(s.dir)
	s.Require().NoError(err)

	loaded, err := reopened.LoadCachedBans(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.PlayerID{"player-1"}, loaded)
}

func (s *StorageSuite) TestNewCreatesNestedDataDir() {
	nested := filepath.Join(s.dir, "a", "b")

	storage, err := New(nested)
	s.Require().NoError(err)
	s.Require().NoError(storage.SaveCachedBans(s.ctx, []model.PlayerID{"player-1"}))

	_, statErr := os.Stat(filepath.Join(nested, "cached_bans.json"))
	s.NoError(statErr)
}
