package oracle

import (
	"context"
	"time"

	"landq-backend/internal/domain/price"
)

// Static always returns the configured rate and refuses updates.
type Static struct {
	rate price.Rate
}

func NewStatic(numerator, scale int64) *Static {
	return &Static{rate: price.Rate{Numerator: numerator, Scale: scale}}
}

func (s *Static) Rate(context.Context) (price.Rate, error) {
	if err := s.rate.Validate(); err != nil {
		return price.Rate{}, price.ErrRateNotSet
	}
	r := s.rate
	r.SampledAt = time.Now().UTC()
	return r, nil
}

func (s *Static) SetRate(context.Context, int64) error { return price.ErrReadOnly }
