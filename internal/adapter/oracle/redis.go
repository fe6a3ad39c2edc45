package oracle

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"landq-backend/internal/domain/price"
)

// RedisOracle reads an administered price from a Redis key on every call.
// The key holds the numerator: reference minor units per whole collateral
// unit, e.g. USDT micro-units per BTC when scale is 1e8 satoshi.
type RedisOracle struct {
	rdb   *redis.Client
	key   string
	scale int64
	now   func() time.Time
}

func NewRedisOracle(rdb *redis.Client, key string, scale int64) *RedisOracle {
	return &RedisOracle{rdb: rdb, key: key, scale: scale, now: time.Now}
}

func (o *RedisOracle) Rate(ctx context.Context) (price.Rate, error) {
	raw, err := o.rdb.Get(ctx, o.key).Result()
	if errors.Is(err, redis.Nil) {
		return price.Rate{}, price.ErrRateNotSet
	}
	if err != nil {
		return price.Rate{}, price.ErrUnavailable.Wrap(err)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return price.Rate{}, price.ErrUnavailable.Wrap(err)
	}
	r := price.Rate{Numerator: n, Scale: o.scale, SampledAt: o.now().UTC()}
	if err := r.Validate(); err != nil {
		return price.Rate{}, price.ErrUnavailable.Wrap(err)
	}
	return r, nil
}

func (o *RedisOracle) SetRate(ctx context.Context, numerator int64) error {
	if numerator <= 0 {
		return price.ErrInvalidRate
	}
	if err := o.rdb.Set(ctx, o.key, strconv.FormatInt(numerator, 10), 0).Err(); err != nil {
		return price.ErrUnavailable.Wrap(err)
	}
	return nil
}
