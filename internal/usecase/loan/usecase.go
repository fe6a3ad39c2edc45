package loan

import (
	"context"
	"errors"
	"time"

	"landq-backend/internal/domain/event"
	domain "landq-backend/internal/domain/loan"
	"landq-backend/internal/domain/parcel"
	"landq-backend/internal/domain/price"
	"landq-backend/internal/domain/uow"
	"landq-backend/internal/domain/verification"
	"landq-backend/internal/infrastructure/logger"
	"landq-backend/internal/infrastructure/metrics"
	"landq-backend/pkg/account"
	"landq-backend/pkg/id"
)

type Deps struct {
	UoW           uow.UnitOfWork
	Parcels       parcel.Repository
	Verifications verification.Repository
	Loans         domain.Repository
	Oracle        price.Oracle
	Events        event.Publisher
	Metrics       *metrics.Collector
	Log           *logger.Logger
	Policy        Policy
}

type Usecase struct {
	uow           uow.UnitOfWork
	parcels       parcel.Repository
	verifications verification.Repository
	loans         domain.Repository
	oracle        price.Oracle
	events        event.Publisher
	metrics       *metrics.Collector
	log           *logger.Logger
	policy        Policy
	now           func() time.Time
}

func NewUsecase(d Deps) *Usecase {
	u := &Usecase{
		uow:           d.UoW,
		parcels:       d.Parcels,
		verifications: d.Verifications,
		loans:         d.Loans,
		oracle:        d.Oracle,
		events:        d.Events,
		metrics:       d.Metrics,
		log:           d.Log,
		policy:        d.Policy,
		now:           time.Now,
	}
	if u.events == nil {
		u.events = event.Discard{}
	}
	if u.log == nil {
		u.log = logger.Nop()
	}
	if u.policy.GracePeriod <= 0 {
		u.policy.GracePeriod = domain.DefaultGracePeriod
	}
	if u.policy.Overpayment == "" {
		u.policy.Overpayment = OverpaymentAccept
	}
	return u
}

// WithClock returns a copy of u reading time from now.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	cp := *u
	cp.now = now
	return &cp
}

func (u *Usecase) Tiers() []domain.Tier { return u.policy.Tiers.Tiers() }

// Quote reports how much a verified parcel can borrow and what each tier costs.
func (u *Usecase) Quote(ctx context.Context, parcelID string) (*QuoteDTO, error) {
	if _, err := u.parcels.GetByParcelID(ctx, parcelID); err != nil {
		return nil, err
	}
	rec, err := u.verified(ctx, u.verifications, parcelID)
	if err != nil {
		return nil, err
	}
	max := rec.AppraisedValue / 2
	q := &QuoteDTO{ParcelID: parcelID, AppraisedValue: rec.AppraisedValue, MaxPrincipal: max}
	for _, t := range u.policy.Tiers.Tiers() {
		tq := TierQuote{PeriodSeconds: t.PeriodSeconds, InterestRateBP: t.InterestRateBP}
		if max > 0 {
			if tq.AmountOwed, err = domain.AmountOwedAt(max, t.InterestRateBP); err != nil {
				return nil, err
			}
		}
		q.Tiers = append(q.Tiers, tq)
	}
	return q, nil
}

// RequestLoan opens and activates a loan against a verified parcel. The
// parcel lock plus the unique pledge key make sure only one open loan exists.
func (u *Usecase) RequestLoan(ctx context.Context, in RequestLoanInput) (*LoanDTO, error) {
	borrower, err := account.Normalize(in.Borrower)
	if err != nil {
		return nil, domain.ErrNotParcelOwner
	}
	if in.Principal <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	tier, err := u.policy.Tiers.Lookup(in.PeriodSeconds)
	if err != nil {
		return nil, err
	}
	owed, err := domain.AmountOwedAt(in.Principal, tier.InterestRateBP)
	if err != nil {
		return nil, err
	}
	now := u.now().UTC()
	var out *domain.Loan

	err = u.uow.WithinParcelTx(ctx, in.ParcelID, func(r uow.Repos, p *parcel.Parcel) error {
		if p.Owner != borrower {
			return domain.ErrNotParcelOwner
		}
		rec, err := u.verified(ctx, r.Verifications, p.ParcelID)
		if err != nil {
			return err
		}
		if in.Principal > rec.AppraisedValue/2 {
			return domain.ErrExceedsCollateralValue
		}

		prev, err := r.Loans.GetLatestByParcelID(ctx, p.ParcelID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return err
		case prev.Open():
			return domain.ErrCollateralAlreadyPledged.WithRef(prev.LoanID)
		case prev.State == domain.StateDefaulted:
			return domain.ErrCollateralForfeited.WithRef(prev.LoanID)
		}

		key := p.ParcelID
		l := &domain.Loan{
			LoanID:         id.NewID32(),
			ParcelID:       p.ParcelID,
			PledgeKey:      &key,
			Borrower:       borrower,
			Principal:      in.Principal,
			InterestRateBP: tier.InterestRateBP,
			PeriodSeconds:  tier.PeriodSeconds,
			StartTime:      now,
			DueTime:        now.Add(time.Duration(tier.PeriodSeconds) * time.Second),
			AmountOwed:     owed,
			State:          domain.StateActive,
			StateUpdatedAt: now,
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.metrics.LoanOriginated(out.PeriodSeconds)
	u.publish(ctx, event.New(event.LoanActivated, out.ParcelID, borrower, string(out.State), now).
		With("loan_id", out.LoanID).
		With("principal", out.Principal).
		With("interest_rate_bp", out.InterestRateBP).
		With("amount_owed", out.AmountOwed).
		With("due_time", out.DueTime))
	return u.toDTO(out), nil
}

// Repay applies a payment to the parcel's active loan. Collateral-currency
// payments are converted at a rate sampled during this call only.
func (u *Usecase) Repay(ctx context.Context, in RepayInput) (*RepayResult, error) {
	payer, err := account.Normalize(in.Payer)
	if err != nil {
		return nil, domain.ErrNotBorrower
	}
	if in.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	now := u.now().UTC()
	var (
		l   *domain.Loan
		rep *domain.Repayment
	)

	err = u.uow.WithinParcelTx(ctx, in.ParcelID, func(r uow.Repos, p *parcel.Parcel) error {
		cur, err := r.Loans.GetLatestByParcelID(ctx, p.ParcelID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrLoanNotActive
		}
		if err != nil {
			return err
		}
		if cur.State != domain.StateActive {
			return domain.ErrLoanNotActive.WithRef(cur.LoanID)
		}
		if cur.Borrower != payer {
			return domain.ErrNotBorrower
		}

		rp := &domain.Repayment{
			RepaymentID: id.NewID32(),
			LoanID:      cur.LoanID,
			ParcelID:    cur.ParcelID,
			Payer:       payer,
			Currency:    domain.CurrencyReference,
			Amount:      in.Amount,
			CreatedAt:   now,
		}
		ref := in.Amount
		if in.PayInCollateral {
			rate, err := u.sampleRate(ctx)
			if err != nil {
				return err
			}
			if ref, err = domain.ToReference(in.Amount, rate); err != nil {
				return err
			}
			rp.Currency = domain.CurrencyCollateral
			rp.RateNumerator, rp.RateScale = rate.Numerator, rate.Scale
		}

		applied, excess, err := cur.ApplyRepayment(ref, u.policy.Overpayment == OverpaymentAccept, now)
		if err != nil {
			return err
		}
		rp.ReferenceAmount, rp.Applied, rp.Excess, rp.OwedAfter = ref, applied, excess, cur.AmountOwed

		if err := r.Loans.Save(ctx, cur); err != nil {
			return err
		}
		if err := r.Loans.CreateRepayment(ctx, rp); err != nil {
			return err
		}
		l, rep = cur, rp
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.metrics.Repayment(string(rep.Currency))
	u.publish(ctx, event.New(event.LoanRepayment, l.ParcelID, payer, string(l.State), now).
		With("loan_id", l.LoanID).
		With("currency", string(rep.Currency)).
		With("reference_amount", rep.ReferenceAmount).
		With("amount_owed", l.AmountOwed))
	if l.State == domain.StateRepaid {
		u.metrics.LoanClosed(string(l.State))
		u.publish(ctx, event.New(event.LoanRepaid, l.ParcelID, payer, string(l.State), now).
			With("loan_id", l.LoanID).
			With("excess_paid", l.ExcessPaid))
	}
	return &RepayResult{Repayment: repaymentDTO(rep), Loan: *u.toDTO(l)}, nil
}

// CheckDefault marks the parcel's active loan defaulted once now is past its
// due time plus the grace period and something is still owed. Repeated calls
// are harmless; only the first one transitions.
func (u *Usecase) CheckDefault(ctx context.Context, parcelID string, now time.Time) (*CheckDefaultDTO, error) {
	now = now.UTC()
	var out *CheckDefaultDTO

	err := u.uow.WithinParcelTx(ctx, parcelID, func(r uow.Repos, p *parcel.Parcel) error {
		l, err := r.Loans.GetLatestByParcelID(ctx, p.ParcelID)
		if err != nil {
			return err
		}
		out = &CheckDefaultDTO{LoanID: l.LoanID, DefaultAfter: l.DefaultAfter(u.policy.GracePeriod), CheckedAt: now}
		if l.DefaultEligible(now, u.policy.GracePeriod) {
			l.MarkDefaulted(now)
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
			out.Transitioned = true
		}
		out.State, out.AmountOwed = string(l.State), l.AmountOwed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Transitioned {
		u.metrics.LoanClosed(out.State)
		u.publish(ctx, event.New(event.LoanDefaulted, parcelID, "", out.State, now).
			With("loan_id", out.LoanID).
			With("amount_owed", out.AmountOwed))
	}
	return out, nil
}

// Get returns the parcel's latest loan with its repayments.
func (u *Usecase) Get(ctx context.Context, parcelID string) (*LoanDTO, error) {
	l, err := u.loans.GetLatestByParcelID(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	reps, err := u.loans.ListRepayments(ctx, l.LoanID)
	if err != nil {
		return nil, err
	}
	dto := u.toDTO(l)
	for i := range reps {
		dto.Repayments = append(dto.Repayments, repaymentDTO(&reps[i]))
	}
	return dto, nil
}

// ListLoans returns every loan on the parcel, newest first.
func (u *Usecase) ListLoans(ctx context.Context, parcelID string) ([]LoanDTO, error) {
	if _, err := u.parcels.GetByParcelID(ctx, parcelID); err != nil {
		return nil, err
	}
	list, err := u.loans.ListByParcelID(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	out := make([]LoanDTO, 0, len(list))
	for i := range list {
		out = append(out, *u.toDTO(&list[i]))
	}
	return out, nil
}

func (u *Usecase) verified(ctx context.Context, repo verification.Repository, parcelID string) (*verification.Record, error) {
	rec, err := repo.GetByParcelID(ctx, parcelID)
	if errors.Is(err, verification.ErrNotFound) {
		return nil, domain.ErrNotVerified
	}
	if err != nil {
		return nil, err
	}
	if rec.State != verification.StateVerified {
		return nil, domain.ErrNotVerified
	}
	return rec, nil
}

func (u *Usecase) sampleRate(ctx context.Context) (price.Rate, error) {
	if u.oracle == nil {
		return price.Rate{}, price.ErrUnavailable
	}
	rate, err := u.oracle.Rate(ctx)
	if err != nil {
		return price.Rate{}, err
	}
	if err := rate.Validate(); err != nil {
		return price.Rate{}, price.ErrUnavailable.Wrap(err)
	}
	return rate, nil
}

func (u *Usecase) publish(ctx context.Context, e event.Event) {
	if err := u.events.Publish(ctx, e); err != nil {
		u.log.Warn("event publish failed", "type", string(e.Type), "parcel_id", e.ParcelID, "error", err)
	}
}

func (u *Usecase) toDTO(l *domain.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:         l.LoanID,
		ParcelID:       l.ParcelID,
		Borrower:       l.Borrower,
		Principal:      l.Principal,
		InterestRateBP: l.InterestRateBP,
		PeriodSeconds:  l.PeriodSeconds,
		StartTime:      l.StartTime,
		DueTime:        l.DueTime,
		DefaultAfter:   l.DefaultAfter(u.policy.GracePeriod),
		AmountOwed:     l.AmountOwed,
		TotalRepaid:    l.TotalRepaid,
		ExcessPaid:     l.ExcessPaid,
		State:          string(l.State),
		ClosedAt:       l.ClosedAt,
	}
}

func repaymentDTO(r *domain.Repayment) RepaymentDTO {
	return RepaymentDTO{
		RepaymentID:     r.RepaymentID,
		Currency:        string(r.Currency),
		Amount:          r.Amount,
		ReferenceAmount: r.ReferenceAmount,
		RateNumerator:   r.RateNumerator,
		RateScale:       r.RateScale,
		Applied:         r.Applied,
		Excess:          r.Excess,
		OwedAfter:       r.OwedAfter,
		CreatedAt:       r.CreatedAt,
	}
}
