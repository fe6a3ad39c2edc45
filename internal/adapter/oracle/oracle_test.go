package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landq-backend/internal/domain/price"
)

func newRedisOracle(t *testing.T) (*RedisOracle, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisOracle(rdb, "landq:oracle:rate", 100_000_000), s
}

func TestRedisOracle_ReadsFreshEveryCall(t *testing.T) {
	o, s := newRedisOracle(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return at }

	_, err := o.Rate(ctx)
	assert.ErrorIs(t, err, price.ErrRateNotSet)

	require.NoError(t, o.SetRate(ctx, 60_000_000_000))
	r, err := o.Rate(ctx)
	require.NoError(t, err)
	assert.Equal(t, price.Rate{Numerator: 60_000_000_000, Scale: 100_000_000, SampledAt: at}, r)

	// an out-of-band write is visible on the next call
	require.NoError(t, s.Set("landq:oracle:rate", "70000000000"))
	r, err = o.Rate(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 70_000_000_000, r.Numerator)
}

func TestRedisOracle_Errors(t *testing.T) {
	o, s := newRedisOracle(t)
	ctx := context.Background()

	assert.ErrorIs(t, o.SetRate(ctx, 0), price.ErrInvalidRate)

	require.NoError(t, s.Set("landq:oracle:rate", "not-a-number"))
	_, err := o.Rate(ctx)
	assert.ErrorIs(t, err, price.ErrUnavailable)

	require.NoError(t, s.Set("landq:oracle:rate", "-5"))
	_, err = o.Rate(ctx)
	assert.ErrorIs(t, err, price.ErrUnavailable)

	s.Close()
	_, err = o.Rate(ctx)
	assert.ErrorIs(t, err, price.ErrUnavailable)
}

func TestStatic(t *testing.T) {
	ctx := context.Background()
	r, err := NewStatic(3, 2).Rate(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, r.Numerator)
	assert.EqualValues(t, 2, r.Scale)

	_, err = NewStatic(0, 2).Rate(ctx)
	assert.ErrorIs(t, err, price.ErrRateNotSet)

	assert.ErrorIs(t, NewStatic(3, 2).SetRate(ctx, 4), price.ErrReadOnly)
}
