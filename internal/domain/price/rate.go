package price

import (
	"context"
	"time"

	"landq-backend/pkg/apperr"
)

var (
	ErrUnavailable = apperr.New(apperr.KindUnavailable, "oracle_unavailable", "price oracle unavailable")
	ErrRateNotSet  = apperr.New(apperr.KindUnavailable, "oracle_rate_not_set", "price oracle has no rate")
	ErrInvalidRate = apperr.New(apperr.KindValidation, "invalid_rate", "rate numerator and scale must be positive")
	ErrReadOnly    = apperr.New(apperr.KindState, "oracle_read_only", "price oracle does not accept updates")
	ErrNotAdmin    = apperr.New(apperr.KindAuthorization, "not_admin", "caller may not set the oracle rate")
)

// Rate converts collateral-currency minor units into reference minor units:
// reference = amount * Numerator / Scale.
type Rate struct {
	Numerator int64     `json:"numerator"`
	Scale     int64     `json:"scale"`
	SampledAt time.Time `json:"sampled_at"`
}

func (r Rate) Validate() error {
	if r.Numerator <= 0 || r.Scale <= 0 {
		return ErrInvalidRate
	}
	return nil
}

// Oracle is sampled once per repayment; implementations must not cache.
type Oracle interface {
	Rate(ctx context.Context) (Rate, error)
}

// Setter is implemented by oracles whose price is administered in-house.
type Setter interface {
	SetRate(ctx context.Context, numerator int64) error
}
