package credential

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "httpengine:user:"

type Redis struct {
	rdb    *redis.Client
	prefix string
	hasher hasher
}

var _ Store = (*Redis)(nil)

// NewRedis stores each user under prefix+username.
func NewRedis(rdb *redis.Client, prefix string, cost int) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{rdb: rdb, prefix: prefix, hasher: newHasher(cost)}
}

func (r *Redis) Register(ctx context.Context, username, password string) (bool, error) {
	hash, err := r.hasher.hash(password)
	if err != nil {
		return false, err
	}

	ok, err := r.rdb.SetNX(ctx, r.prefix+username, hash, 0).Result()
	if err != nil {
		return false, errors.Wrap(err, "storing user")
	}
	return ok, nil
}

func (r *Redis) Authenticate(ctx context.Context, username, password string) (bool, error) {
	hash, err := r.rdb.Get(ctx, r.prefix+username).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, errors.Wrap(err, "looking up user")
	}

	return r.hasher.matches(hash, password), nil
}
