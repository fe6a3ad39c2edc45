package loan

import (
	"context"
	"time"
)

// SweepDefaults runs CheckDefault for up to limit active loans already past
// due plus grace. Failures on one loan are logged and the sweep moves on.
func (u *Usecase) SweepDefaults(ctx context.Context, limit int) (int, error) {
	now := u.now().UTC()
	overdue, err := u.loans.ListOverdue(ctx, now.Add(-u.policy.GracePeriod), limit)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range overdue {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		res, err := u.CheckDefault(ctx, l.ParcelID, now)
		if err != nil {
			u.log.Error("default check failed", "parcel_id", l.ParcelID, "loan_id", l.LoanID, "error", err)
			continue
		}
		if res.Transitioned {
			n++
		}
	}
	return n, nil
}

// RunSweeper calls SweepDefaults every interval until ctx ends.
func (u *Usecase) RunSweeper(ctx context.Context, interval time.Duration, batch int) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := u.SweepDefaults(ctx, batch)
			switch {
			case err != nil && ctx.Err() == nil:
				u.log.Warn("default sweep failed", "error", err)
			case n > 0:
				u.log.Info("loans defaulted", "count", n)
			}
		}
	}
}
