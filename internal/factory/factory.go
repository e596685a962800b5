// Package factory wires the application components together.
package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/hubsync/hubsync/internal/dependencies/clock"
	"github.com/hubsync/hubsync/internal/engine"
	"github.com/hubsync/hubsync/internal/host"
	"github.com/hubsync/hubsync/internal/remote"
	"github.com/hubsync/hubsync/internal/services/adverts"
	"github.com/hubsync/hubsync/internal/services/bans"
	"github.com/hubsync/hubsync/internal/services/directory"
	"github.com/hubsync/hubsync/internal/services/groups"
	"github.com/hubsync/hubsync/internal/services/playtime"
	"github.com/hubsync/hubsync/internal/services/rewards"
	"github.com/hubsync/hubsync/internal/services/warnings"
	"github.com/hubsync/hubsync/internal/storage"
	filestorage "github.com/hubsync/hubsync/internal/storage/file"
	"github.com/hubsync/hubsync/internal/storage/memory"
	redisstorage "github.com/hubsync/hubsync/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeFile   = "file"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Store

	// External dependencies
	Clock  clock.Clock
	Remote *remote.Client
	Host   host.Host

	// Services
	Directory *directory.Service
	Bans      *bans.Reconciler
	Groups    *groups.Reconciler
	Rewards   *rewards.Dispatcher
	Playtime  *playtime.Tracker
	Adverts   *adverts.Rotation
	Warnings  *warnings.Service

	Engine *engine.Engine
}

// Config holds configuration for the application factory
type Config struct {
	// APIURL is the base URL of the remote service
	APIURL string
	// APIKey is the bearer token for the remote service
	APIKey string
	// ServerID identifies this server on the remote service
	ServerID string
	// Host is the game server adapter (required)
	Host host.Host
	// AdvertPrefix is prepended to broadcast adverts
	AdvertPrefix string
	// EngineConfig holds the schedule settings (optional)
	// If zero value, defaults to engine.DefaultConfig()
	EngineConfig engine.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "file" or "redis")
	// If empty, defaults to "file"
	StorageType string
	// DataDir is the directory for the file backend
	DataDir string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	if cfg.APIURL == "" {
		return nil, errors.New("APIURL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("APIKey is required")
	}
	if cfg.ServerID == "" {
		return nil, errors.New("ServerID is required")
	}
	if cfg.Host == nil {
		return nil, errors.New("Host is required")
	}

	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeFile
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeFile:
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = "data"
		}
		fileStore, err := filestorage.New(dataDir)
		if err != nil {
			return nil, err
		}
		store = fileStore
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'file' or 'redis'")
	}

	client := remote.NewClient(cfg.APIURL, cfg.APIKey, cfg.ServerID)
	clk := clock.New()

	return newWithDependencies(client, cfg.Host, store, clk, cfg.AdvertPrefix, cfg.EngineConfig, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	client *remote.Client,
	h host.Host,
	store storage.Store,
	clk clock.Clock,
	advertPrefix string,
	engineCfg engine.Config,
	logger *slog.Logger,
) *App {
	dir := directory.New(client, h, logger)
	banRec := bans.New(client, h, store, dir, clk, logger)
	groupRec := groups.New(client, h, dir, logger)
	rewardDisp := rewards.New(client, h, store, logger)
	playtimeTracker := playtime.New(client, dir, clk, logger)
	advertRotation := adverts.New(h, advertPrefix, logger)
	warningSvc := warnings.New(client, h, dir, logger)

	eng := engine.New(
		engineCfg,
		client,
		h,
		dir,
		banRec,
		groupRec,
		rewardDisp,
		playtimeTracker,
		advertRotation,
		warningSvc,
		logger,
	)

	return &App{
		Storage:   store,
		Clock:     clk,
		Remote:    client,
		Host:      h,
		Directory: dir,
		Bans:      banRec,
		Groups:    groupRec,
		Rewards:   rewardDisp,
		Playtime:  playtimeTracker,
		Adverts:   advertRotation,
		Warnings:  warningSvc,
		Engine:    eng,
	}
}
