package store

import (
	"fmt"
	"strings"
)

type Config struct {
	Backend string // memory | file | redis
	Dir     string
	Format  string // file extension for the file backend
	Redis   RedisConfig
}

// Open builds the store named by cfg.Backend. An empty backend is memory.
func Open(cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		dir := cfg.Dir
		if dir == "" {
			dir = "data"
		}
		return NewFileStore(dir, cfg.Format)
	case "redis":
		if cfg.Redis.Addr == "" {
			cfg.Redis.Addr = "localhost:6379"
		}
		return NewRedisStore(cfg.Redis), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
