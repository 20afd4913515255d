package state

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendBadger   = "badger"
)

// StoreConfig selects and configures the checkpoint backend (CHECKPOINT_*).
type StoreConfig struct {
	Backend     string        `envconfig:"BACKEND" default:"memory"`
	SQLitePath  string        `envconfig:"SQLITE_PATH" split_words:"true" default:"transpectra.db"`
	PostgresDSN string        `envconfig:"POSTGRES_DSN" split_words:"true"`
	BadgerDir   string        `envconfig:"BADGER_DIR" split_words:"true"`
	TTL         time.Duration `envconfig:"TTL" default:"168h"`
	Redis       UpstashRedisConfig
}

type closer interface {
	Close() error
}

// OpenStore builds the configured backend. The returned close func is never
// nil.
func OpenStore(ctx context.Context, cfg StoreConfig) (Store, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		return NewMemoryStore(), noop, nil
	case BackendSQLite:
		s, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return s, closeFunc(s), nil
	case BackendPostgres:
		s, err := NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		return s, closeFunc(s), nil
	case BackendRedis:
		redisCfg := cfg.Redis
		if redisCfg.TTL == 0 {
			redisCfg.TTL = cfg.TTL
		}
		s, err := NewUpstashRedisStore(redisCfg)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case BackendBadger:
		s, err := NewBadgerStore(cfg.BadgerDir, cfg.TTL)
		if err != nil {
			return nil, noop, err
		}
		return s, closeFunc(s), nil
	default:
		return nil, noop, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
}

func closeFunc(c closer) func() error {
	return c.Close
}
