package oracle

import (
	"context"
	"time"

	"landq-backend/internal/domain/price"
	"landq-backend/internal/infrastructure/logger"
	"landq-backend/pkg/account"
)

type Deps struct {
	Oracle price.Oracle
	// Setter is nil when the configured oracle is read-only.
	Setter price.Setter
	Admins account.Set
	Log    *logger.Logger
}

type Usecase struct {
	oracle price.Oracle
	setter price.Setter
	admins account.Set
	log    *logger.Logger
}

func NewUsecase(d Deps) *Usecase {
	u := &Usecase{oracle: d.Oracle, setter: d.Setter, admins: d.Admins, log: d.Log}
	if u.log == nil {
		u.log = logger.Nop()
	}
	return u
}

type RateDTO struct {
	Numerator int64     `json:"numerator"`
	Scale     int64     `json:"scale"`
	SampledAt time.Time `json:"sampled_at"`
}

func (u *Usecase) GetRate(ctx context.Context) (*RateDTO, error) {
	if u.oracle == nil {
		return nil, price.ErrUnavailable
	}
	r, err := u.oracle.Rate(ctx)
	if err != nil {
		return nil, err
	}
	return &RateDTO{Numerator: r.Numerator, Scale: r.Scale, SampledAt: r.SampledAt}, nil
}

// SetRate stores a new collateral price. Only admins may call it.
func (u *Usecase) SetRate(ctx context.Context, caller string, numerator int64) (*RateDTO, error) {
	who, err := account.Normalize(caller)
	if err != nil || !u.admins.Contains(who) {
		return nil, price.ErrNotAdmin
	}
	if numerator <= 0 {
		return nil, price.ErrInvalidRate
	}
	if u.setter == nil {
		return nil, price.ErrReadOnly
	}
	if err := u.setter.SetRate(ctx, numerator); err != nil {
		return nil, err
	}
	u.log.Info("oracle rate updated", "numerator", numerator, "by", who)
	return u.GetRate(ctx)
}
