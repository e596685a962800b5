package redis

// Config holds Redis connection settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// KeyPrefix namespaces this server's documents so several game servers
	// can share one Redis instance
	KeyPrefix string

	// Pool settings
	PoolSize     int
	MinIdleConns int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		KeyPrefix:    "hubsync",
		PoolSize:     10,
		MinIdleConns: 2,
	}
}
