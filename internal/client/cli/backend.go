package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/escrowagent/internal/client/config"
	"github.com/dmitrijs2005/escrowagent/internal/client/localdb"
	"github.com/dmitrijs2005/escrowagent/internal/client/repositories/metadata"
	"github.com/redis/go-redis/v9"
)

// openSessionBackend returns the metadata repository selected by
// c.SessionBackend together with the function that releases it.
func openSessionBackend(ctx context.Context, c *config.Config) (metadata.Repository, func() error, error) {
	switch c.SessionBackend {
	case config.BackendMemory:
		return metadata.NewMemoryRepository(), func() error { return nil }, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", c.RedisAddr, err)
		}
		return metadata.NewRedisRepository(rdb, c.RedisPrefix), rdb.Close, nil

	case config.BackendSQLite:
		dsn := c.SessionDSN
		if dsn == "" {
			var err error
			if dsn, err = localdb.DefaultDSN(); err != nil {
				return nil, nil, err
			}
		}
		db, err := localdb.InitDatabase(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return metadata.NewSQLiteRepository(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", c.SessionBackend)
	}
}
