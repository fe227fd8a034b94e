package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/classroom-backend/internal/platform/envutil"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/pkg/httpx"
)

// ErrLockHeld is returned when the wait budget runs out before the lock frees up.
var ErrLockHeld = errors.New("lock held by another writer")

// Locker serializes work on a key across processes.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Noop grants every request immediately.
type Noop struct{}

func (Noop) Acquire(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}

type Config struct {
	Addr   string
	Prefix string
	TTL    time.Duration
	Wait   time.Duration
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		Addr:   envutil.String("REDIS_ADDR", "", log),
		Prefix: envutil.String("REDIS_LOCK_PREFIX", "classroom:lock:", log),
		TTL:    envutil.Duration("PRESET_LOCK_TTL", 10*time.Second, log),
		Wait:   envutil.Duration("PRESET_LOCK_WAIT", 2*time.Second, log),
	}
}

// release only deletes the key if it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

// New connects to cfg.Addr. Callers should fall back to Noop when Addr is empty.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(log, rdb, cfg), nil
}

func NewWithClient(log *logger.Logger, rdb goredis.UniversalClient, cfg Config) *Redis {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.Wait < 0 {
		cfg.Wait = 0
	}
	return &Redis{
		log:    log.With("service", "RedisLocker"),
		rdb:    rdb,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
		wait:   cfg.Wait,
	}
}

// Acquire polls SET NX PX until it wins or the wait budget is spent.
func (l *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	full := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for attempt := 0; ; attempt++ {
		ok, err := l.rdb.SetNX(ctx, full, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", full, err)
		}
		if ok {
			return func() { l.release(full, token) }, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrLockHeld
		}
		if err := httpx.Sleep(ctx, httpx.Backoff(attempt, 25*time.Millisecond, 250*time.Millisecond)); err != nil {
			return nil, err
		}
	}
}

func (l *Redis) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
		l.log.Warn("redis lock release failed", "key", key, "error", err)
	}
}

func (l *Redis) Close() error {
	return l.rdb.Close()
}
