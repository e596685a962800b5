// Package config loads agent settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultConfigName = "config"

// Config holds the agent's runtime settings
type Config struct {
	// Remote service connection
	APIURL   string
	APIKey   string
	ServerID string

	// Schedules
	SyncInterval   time.Duration
	AdvertInterval time.Duration

	// AdvertPrefix is prepended to every broadcast advert
	AdvertPrefix string

	// Storage backend: memory, file or redis
	StorageType string
	DataDir     string
	RedisURL    string
}

// Load reads configuration from config.yaml (working directory or config/)
// and HUBSYNC_-prefixed environment variables. The file is optional;
// env-only is fine. A file that exists but fails to parse is an error.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName(defaultConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("config")

	v.SetEnvPrefix("HUBSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.url", "")
	v.SetDefault("api.key", "")
	v.SetDefault("api.server_id", "")

	v.SetDefault("sync.interval", "60s")
	v.SetDefault("advert.interval", "180s")
	v.SetDefault("advert.prefix", "[Server] ")

	v.SetDefault("storage.type", "file")
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.redis_url", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := Config{
		APIURL:         strings.TrimSpace(v.GetString("api.url")),
		APIKey:         strings.TrimSpace(v.GetString("api.key")),
		ServerID:       strings.TrimSpace(v.GetString("api.server_id")),
		SyncInterval:   v.GetDuration("sync.interval"),
		AdvertInterval: v.GetDuration("advert.interval"),
		AdvertPrefix:   v.GetString("advert.prefix"),
		StorageType:    v.GetString("storage.type"),
		DataDir:        v.GetString("storage.data_dir"),
		RedisURL:       v.GetString("storage.redis_url"),
	}

	if cfg.APIURL == "" {
		return Config{}, fmt.Errorf("api.url must not be empty")
	}
	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("api.key must not be empty")
	}
	if cfg.ServerID == "" {
		return Config{}, fmt.Errorf("api.server_id must not be empty")
	}
	if cfg.SyncInterval <= 0 {
		return Config{}, fmt.Errorf("invalid sync.interval %s", cfg.SyncInterval)
	}
	if cfg.AdvertInterval <= 0 {
		return Config{}, fmt.Errorf("invalid advert.interval %s", cfg.AdvertInterval)
	}
	if cfg.StorageType == "redis" && cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("storage.redis_url required when storage.type is redis")
	}

	return cfg, nil
}
