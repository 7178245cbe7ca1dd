package store

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/cyberdesk/internal/clock"
	"github.com/smallbiznis/cyberdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("store",
	fx.Provide(NewRedisClient),
	fx.Provide(ProvideCodec),
	fx.Provide(ProvideKV),
	fx.Provide(NewStateStore),
)

func ProvideCodec(cfg config.Config) Codec {
	return Codec{Compress: cfg.Store.Compress}
}

type KVParams struct {
	fx.In

	Config config.Config
	Clock  clock.Clock
	Log    *zap.Logger
	DB     *gorm.DB      `optional:"true"`
	Redis  *redis.Client `optional:"true"`
}

func ProvideKV(p KVParams) (KV, error) {
	namespace := strings.TrimSpace(p.Config.Store.Namespace)
	switch p.Config.Store.Driver {
	case config.StoreDriverRedis:
		if p.Redis == nil {
			return nil, fmt.Errorf("%w: redis client not configured", ErrUnknownStore)
		}
		p.Log.Info("desk state stored in redis", zap.String("addr", p.Config.Store.RedisAddr))
		return NewRedisKV(p.Redis, namespace), nil
	case config.StoreDriverGorm, "":
		if p.DB == nil {
			return nil, fmt.Errorf("%w: database not configured", ErrUnknownStore)
		}
		p.Log.Info("desk state stored in database", zap.String("db_type", p.Config.DBType))
		return NewGormKV(p.DB, p.Clock, namespace), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, p.Config.Store.Driver)
	}
}

// NewRedisClient returns nil unless the redis driver is selected.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	if cfg.Store.Driver != config.StoreDriverRedis {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Store.RedisAddr,
		Password: cfg.Store.RedisPassword,
		DB:       cfg.Store.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}
