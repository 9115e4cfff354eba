package rate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisLimiter shares fixed-window counters between processes. Redis errors
// let the call through.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	log    logrus.FieldLogger
}

func NewRedis(client *redis.Client, prefix string, log logrus.FieldLogger) *RedisLimiter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RedisLimiter{client: client, prefix: prefix, log: log}
}

var incrWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration) {
	res, err := incrWindow.Run(ctx, l.client, []string{l.prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		l.log.WithError(err).WithField("key", key).Warn("rate limiter unavailable")
		return true, 0
	}
	retry := time.Duration(res[1]) * time.Millisecond
	if retry < 0 {
		retry = window
	}
	return res[0] <= int64(limit), retry
}
