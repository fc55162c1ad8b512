package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/salon-booking-web/internal/config"
	"github.com/wolfman30/salon-booking-web/internal/visitor"
	"github.com/wolfman30/salon-booking-web/pkg/logging"
)

// VisitorStore connects the Redis-backed visitor state store. Without
// REDIS_ADDR, or when the server does not answer a ping, the returned store
// persists nothing and visitors only live in memory.
func VisitorStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *visitor.Store {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		logger.Warn("redis disabled; visitor state will not survive restarts")
		return visitor.NewStore(nil, 0)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available; visitor state will not survive restarts", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return visitor.NewStore(nil, 0)
	}
	logger.Info("visitor store connected", "addr", cfg.RedisAddr, "ttl", cfg.VisitorTTL)
	return visitor.NewStore(client, cfg.VisitorTTL)
}
