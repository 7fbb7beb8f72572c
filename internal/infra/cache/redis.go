package cache

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"strconv"
	"time"

	"handicraft-store/internal/pkg/errs"
	"handicraft-store/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "cart:"
	genKeyPrefix = "cart-gen:"
	// Generation keys must outlive any view written against them.
	genTTL = 24 * time.Hour
)

// setIfGeneration writes the view only while the generation is still the one
// the reader saw. A missing generation key reads as 0.
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// RedisCartCache keeps rendered carts under cart:<userID> and a write
// generation under cart-gen:<userID>. Expiry is spread by a random jitter so
// carts cached together do not expire together.
type RedisCartCache struct {
	client    redis.UniversalClient
	baseTTL   time.Duration
	maxJitter time.Duration
}

func NewRedisCartCache(client redis.UniversalClient, baseTTL, maxJitter time.Duration) *RedisCartCache {
	return &RedisCartCache{
		client:    client,
		baseTTL:   baseTTL,
		maxJitter: maxJitter,
	}
}

func (r *RedisCartCache) Get(ctx context.Context, userID uuid.UUID) (*queries.CartView, error) {
	data, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, queries.ErrCacheMiss
	}
	if err != nil {
		return nil, errs.Wrap(err, "redis get failed")
	}

	var view queries.CartView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, errs.Wrap(err, "unmarshal cart failed")
	}
	return &view, nil
}

func (r *RedisCartCache) Generation(ctx context.Context, userID uuid.UUID) (int64, error) {
	gen, err := r.client.Get(ctx, genKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errs.Wrap(err, "redis get generation failed")
	}
	return gen, nil
}

// Set is a no-op when the cart was invalidated after generation was read.
func (r *RedisCartCache) Set(ctx context.Context, userID uuid.UUID, view *queries.CartView, generation int64) error {
	data, err := json.Marshal(view)
	if err != nil {
		return errs.Wrap(err, "marshal cart failed")
	}
	keys := []string{cacheKey(userID), genKey(userID)}
	args := []any{strconv.FormatInt(generation, 10), data, r.ttl().Milliseconds()}
	if err := setIfGeneration.Run(ctx, r.client, keys, args...).Err(); err != nil {
		return errs.Wrap(err, "redis set failed")
	}
	return nil
}

// Delete bumps the generation before dropping the view so an in-flight fill
// that read the old generation cannot land afterwards.
func (r *RedisCartCache) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(userID))
		pipe.Expire(ctx, genKey(userID), genTTL)
		pipe.Del(ctx, cacheKey(userID))
		return nil
	})
	if err != nil {
		return errs.Wrap(err, "redis delete failed")
	}
	return nil
}

func (r *RedisCartCache) ttl() time.Duration {
	if r.maxJitter <= 0 {
		return r.baseTTL
	}
	return r.baseTTL + rand.N(r.maxJitter)
}

func cacheKey(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

func genKey(userID uuid.UUID) string {
	return genKeyPrefix + userID.String()
}

// NoopCartCache is used when no Redis address is configured; every read misses.
type NoopCartCache struct{}

func (NoopCartCache) Get(context.Context, uuid.UUID) (*queries.CartView, error) {
	return nil, queries.ErrCacheMiss
}

func (NoopCartCache) Generation(context.Context, uuid.UUID) (int64, error)            { return 0, nil }
func (NoopCartCache) Set(context.Context, uuid.UUID, *queries.CartView, int64) error { return nil }
func (NoopCartCache) Delete(context.Context, uuid.UUID) error                        { return nil }
