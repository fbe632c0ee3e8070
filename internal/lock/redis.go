package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNotAcquired = errors.New("lock not acquired")
	ErrLeaseLost   = errors.New("lock lease lost")
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lease only while the key still holds our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Redis implements a lease lock with SET NX PX. A holder renews its lease
// every ttl/3; the context returned by Lock is cancelled with ErrLeaseLost
// once the key no longer carries the holder's token.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(redisURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisWithClient(client, ttl), nil
}

func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl < time.Millisecond {
		ttl = 30 * time.Second
	}
	return &Redis{
		client: client,
		prefix: "dgcreview:lock:",
		ttl:    ttl,
		retry:  25 * time.Millisecond,
	}
}

func (r *Redis) key(name string) string {
	return r.prefix + name
}

// Lock blocks until the lease is acquired or ctx is done. The returned
// context ends when unlock is called, when ctx ends, or when the lease is
// lost.
func (r *Redis) Lock(ctx context.Context, name string) (context.Context, func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, nil, err
	}
	key := r.key(name)

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			held, unlock := r.hold(ctx, key, token)
			return held, unlock, nil
		}
		select {
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("acquire %s: %w: %w", key, ErrNotAcquired, ctx.Err())
		case <-time.After(r.retry):
		}
	}
}

func (r *Redis) hold(ctx context.Context, key, token string) (context.Context, func()) {
	held, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.ttl / 3)
		defer ticker.Stop()
		for {
			select {
			case <-held.Done():
				return
			case <-ticker.C:
				if err := r.renew(held, key, token); err != nil {
					cancel(err)
					return
				}
			}
		}
	}()

	var once sync.Once
	return held, func() {
		once.Do(func() {
			cancel(nil)
			<-done
			releaseCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = releaseScript.Run(releaseCtx, r.client, []string{key}, token).Err()
		})
	}
}

func (r *Redis) renew(ctx context.Context, key, token string) error {
	renewed, err := renewScript.Run(ctx, r.client, []string{key}, token, r.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("renew %s: %w: %w", key, ErrLeaseLost, err)
	}
	if renewed == 0 {
		return fmt.Errorf("renew %s: %w", key, ErrLeaseLost)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate lock token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
