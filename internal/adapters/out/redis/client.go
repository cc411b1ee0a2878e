// Package redis holds the Redis connection shared by the Redis-backed stores.
package redis

import (
	"context"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
)

// Open returns a client for the given options. A failed ping is logged and
// the client is returned anyway; go-redis reconnects on use.
func Open(ctx context.Context, opts *goredis.Options, logger *slog.Logger) *goredis.Client {
	client := goredis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis", "addr", opts.Addr, "error", err)
	} else {
		logger.Info("connected to redis", "addr", opts.Addr)
	}
	return client
}
