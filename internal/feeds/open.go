package feeds

import (
	"context"

	"yearcal/internal/config"
)

// Open returns the store selected by cfg.Store. The close func releases
// any connection and is never nil.
func Open(ctx context.Context, cfg *config.Config, configPath string) (Store, func() error, error) {
	if cfg.Store.Kind == config.StoreRedis {
		store, client, err := OpenRedis(ctx, cfg.Store.RedisAddr, cfg.Store.RedisKey)
		if err != nil {
			return nil, nil, err
		}
		return store, client.Close, nil
	}
	return NewConfigStore(configPath), func() error { return nil }, nil
}
