package loan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"landq-backend/internal/adapter/oracle"
	"landq-backend/internal/adapter/repository/ledger"
	"landq-backend/internal/domain/event"
	domain "landq-backend/internal/domain/loan"
	"landq-backend/internal/domain/parcel"
	"landq-backend/internal/domain/price"
	"landq-backend/internal/domain/uow"
	"landq-backend/internal/domain/verification"
	"landq-backend/internal/testutil/loanmock"
	"landq-backend/internal/testutil/testdb"
	"landq-backend/internal/testutil/uowmock"
	"landq-backend/internal/testutil/verificationmock"
)

const (
	owner    = "0x1111111111111111111111111111111111111111"
	stranger = "0x2222222222222222222222222222222222222222"
	day      = int64(86400)
)

type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Publish(_ context.Context, e event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	uc  *Usecase
	db  *gorm.DB
	rec *recorder
	clk *clock
}

func newFixture(t *testing.T, policy Policy, o price.Oracle) *fixture {
	t.Helper()
	db := testdb.Open(t)
	if len(policy.Tiers.Tiers()) == 0 {
		tiers, err := domain.NewRateTable(domain.DefaultTiers)
		require.NoError(t, err)
		policy.Tiers = tiers
	}
	rec := &recorder{}
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	uc := NewUsecase(Deps{
		UoW:           ledger.NewGormUoW(db),
		Parcels:       ledger.NewParcelRepository(db),
		Verifications: ledger.NewVerificationRepository(db),
		Loans:         ledger.NewLoanRepository(db),
		Oracle:        o,
		Events:        rec,
		Policy:        policy,
	}).WithClock(clk.now)
	return &fixture{uc: uc, db: db, rec: rec, clk: clk}
}

func (f *fixture) verifiedParcel(t *testing.T, appraised int64) *parcel.Parcel {
	t.Helper()
	p := testdb.SeedParcel(t, f.db, owner, "REGION_X")
	testdb.SeedVerified(t, f.db, p, appraised)
	return p
}

func TestRequestLoan_PrincipalCappedAtHalfAppraisal(t *testing.T) {
	f := newFixture(t, Policy{}, nil)
	ctx := context.Background()
	p := f.verifiedParcel(t, 1000)

	_, err := f.uc.RequestLoan(ctx, RequestLoanInput{ParcelID: p.ParcelID, Borrower: owner, Principal: 600, PeriodSeconds: day})
	assert.ErrorIs(t, err, domain.ErrExceedsCollateralValue)

	l, err := f.uc.RequestLoan(ctx, RequestLoanInput{ParcelID: p.ParcelID, Borrower: owner, Principal: 500, PeriodSeconds: day})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StateActive), l.State)
	assert.EqualValues(t, 750, l.AmountOwed)
	assert.Equal(t, f.clk.t.Add(24*time.Hour), l.DueTime)
	assert.Equal(t, l.DueTime.Add(domain.DefaultGracePeriod), l.DefaultAfter)
	assert.Equal(t, []event.Type{event.LoanActivated}, f.rec.types())
}

func TestRequestLoan_Preconditions(t *testing.T) {
	f := newFixture(t, Policy{}, nil)
	ctx := context.Background()
	p := f.verifiedParcel(t, 1000)
	unverified := testdb.SeedParcel(t, f.db, owner, "REGION_X")

	cases := []struct {
		name string
		in   RequestLoanInput
		want error
	}{
		{"not owner", RequestLoanInput{ParcelID: p.ParcelID, Borrower: stranger, Principal: 100, PeriodSeconds: day}, domain.ErrNotParcelOwner},
		{"bad borrower", RequestLoanInput{ParcelID: p.ParcelID, Borrower: "alice", Principal: 100, PeriodSeconds: day}, domain.ErrNotParcelOwner},
		{"zero principal", RequestLoanInput{ParcelID: p.ParcelID, Borrower: owner, Principal: 0, PeriodSeconds: day}, domain.ErrInvalidAmount},
		{"unknown tier", RequestLoanInput{ParcelID: p.ParcelID, Borrower: owner, Principal: 100, PeriodSeconds: 7200}, domain.ErrUnknownLoanTier},
		{"unverified", RequestLoanInput{ParcelID: unverified.ParcelID, Borrower: owner, Principal: 100, PeriodSeconds: day}, domain.ErrNotVerified},
		{"missing parcel", RequestLoanInput{ParcelID: "ffffffffffffffffffffffffffffffff", Borrower: owner, Principal: 100, PeriodSeconds: day}, parcel.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.RequestLoan(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, f.rec.types())
}

func TestRepay_FullRepaymentClosesAndReleasesCollateral(t *testing.T) {
	f := newFixture(t, Policy{}, nil)
	ctx := context.Background()
	p := f.verifiedParcel(t, 1000)

	l, err := f.uc.RequestLoan(ctx, RequestLoanInput{ParcelID: p.ParcelID, Borrower: owner, Principal: 100, PeriodSeconds: day})
	require.NoError(t, err)
	assert.EqualValues(t, 150, l.AmountOwed)

	_, err = f.uc.RequestLoan(ctx, RequestLoanInput{ParcelID: p.ParcelID, Borrower: owner, Principal: 100, PeriodSeconds: day})
	assert.ErrorIs(t, err, domain.ErrCollateralAlreadyPledged)

	_, err = f.uc.Repay(ctx, RepayInput{ParcelID: p.ParcelID, Payer: stranger, Amount: 150})
	assert.ErrorIs(t, err, domain.ErrNotBorrower)

	res, err := f.uc.Repay(ctx, RepayInput{ParcelID: p.ParcelID, Payer: owner, Amount: 150})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StateRepaid), res.Loan.State)
	assert.Zero(t, res.Loan.AmountOwed)
	assert.EqualValues(t, 150, res.Repayment.Applied)
	require.NotNil(t, res.Loan.ClosedAt)

	_, err = f.uc.Repay(ctx, RepayInput{ParcelID: p.ParcelID, Payer: owner, Amount: 1})
	assert.ErrorIs(t, err, domain.ErrLoanNotActive)

	// a repaid loan frees the parcel for a new one
	next, err := f.uc.RequestLoan(ctx, RequestLoanInput{ParcelID: p.ParcelID, Borrower: owner, Principal: 200, PeriodSeconds: 3600})
	require.NoError(t, err)
	assert.NotEqual(t, l.LoanID, next.LoanID)

	all, err := f.uc.ListLoans(ctx, p.ParcelID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, next.LoanID, all[0].LoanID)

	assert.Equal(t, []event.Type{
		event.LoanActivated, event.LoanRepayment, event.LoanRepaid, event.LoanActivated,
	}, f.rec.types())
}

func TestRepay_OwedNeverIncreases(t *testing.T) {
	f := newFixture(t, Policy{}, nil)
	ctx := context.Background()
	p := f.verifiedParcel(t, 100_000)

	_, err := f.uc.RequestLoan(ctx, RequestLoanInput{ParcelID: p.ParcelID, Borrower: owner, Principal: 10_000, PeriodSeconds: 21600})
	require.NoError(t, err)

	prev := int64(13_000)
	for _, amt := range []int64{1, 999, 4000, 3333, 2000} {
		res, err := f.uc.Repay(ctx, RepayInput{ParcelID: p.ParcelID, Payer: owner, Amount: amt})
		require.NoError(t, err)
		assert.Equal(t, prev-amt, res.Loan.AmountOwed)
		assert.LessOrEqual(t, res.Loan.AmountOwed, prev)
		prev = res.Loan.AmountOwed
	}

	got, err := f.uc.Get(ctx, p.ParcelID)
	require.NoError(t, err)
	assert.EqualValues(t, 2667, got.AmountOwed)
	assert.EqualValues(t, 10_333, got.TotalRepaid)
	require.Len(t, got.Repayments, 5)
	assert.EqualValues(t, 1, got.Repayments[0].Amount)
	assert.EqualValues(t, 2667, got.Repayments[4].OwedAfter)
}

func TestRepay_Overpayment(t *testing.T) {
	t.Run("accept records excess", func(t *testing.T) {
		f := newFixture(t, Policy{Overpayment: OverpaymentAccept}, nil)
		p := f.verifiedParcel(t, 1000)
		ctx := context.Background()
		_, err := f.uc.RequestLoan(ctx, RequestLoanInput{ParcelID: p.ParcelID, Borrower: owner, Principal: 100, PeriodSeconds: 3600})
		require.NoError(t, err)

		res, err := f.uc.Repay(ctx, RepayInput{ParcelID: p.ParcelID, Payer: owner, Amount: 200})
		require.NoError(t, err)
		assert.EqualValues(t, 110, res.Repayment.Applied)
		assert.EqualValues(t, 90, res.Repayment.Excess)
		assert.EqualValues(t, 90, res.Loan.ExcessPaid)
		assert.Equal(t, string(domain.StateRepaid), res.Loan.State)
	})
	t.Run("reject leaves loan untouched", func(t *testing.T) {
		f := newFixture(t, Policy{Overpayment: OverpaymentReject}, nil)
		p := f.verifiedParcel(t, 1000)
		ctx := context.Background()
		_, err := f.uc.RequestLoan(ctx, RequestLoanInput{ParcelID: p.ParcelID, Borrower: owner, Principal: 100, PeriodSeconds: 3600})
		require.NoError(t, err)

		_, err = f.uc.Repay(ctx, RepayInput{ParcelID: p.ParcelID, Payer: owner, Amount: 111})
		assert.ErrorIs(t, err, domain.ErrOverpayment)

		got, err := f.uc.Get(ctx, p.ParcelID)
		require.NoError(t, err)
		assert.EqualValues(t, 110, got.AmountOwed)
		assert.Empty(t, got.Repayments)
	})
}

func TestRepay_CollateralConvertedAtSampledRate(t *testing.T) {
	// 1 collateral unit = 0.5 reference units
	f := newFixture(t, Policy{}, oracle.NewStatic(50_000_000, 100_000_000))
	ctx := context.Background()
	p := f.verifiedParcel(t, 1000)
	_, err := f.uc.RequestLoan(ctx, RequestLoanInput{ParcelID: p.ParcelID, Borrower: owner, Principal: 100, PeriodSeconds: day})
	require.NoError(t, err)

	res, err := f.uc.Repay(ctx, RepayInput{ParcelID: p.ParcelID, Payer: owner, Amount: 101, PayInCollateral: true})
	require.NoError(t, err)
	assert.Equal(t, string(domain.CurrencyCollateral), res.Repayment.Currency)
	assert.EqualValues(t, 50, res.Repayment.ReferenceAmount)
	assert.EqualValues(t, 50_000_000, res.Repayment.RateNumerator)
	assert.EqualValues(t, 100, res.Loan.AmountOwed)
}

func TestRepay_OracleUnavailableLeavesLoanAlone(t *testing.T) {
	active := &domain.Loan{
		LoanID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", ParcelID: "pppppppppppppppppppppppppppppppp",
		Borrower: owner, AmountOwed: 150, State: domain.StateActive,
	}
	loans := &loanmock.Repo{
		GetLatestByParcelIDFn: func(context.Context, string) (*domain.Loan, error) {
			cp := *active
			return &cp, nil
		},
		SaveFn: func(context.Context, *domain.Loan) error {
			t.Fatal("Save must not be called without a rate")
			return nil
		},
	}
	repos := uow.Repos{Loans: loans, Verifications: &verificationmock.Repo{}}
	u := NewUsecase(Deps{
		UoW:    uowmock.Passthrough(repos, &parcel.Parcel{ParcelID: active.ParcelID, Owner: owner}),
		Loans:  loans,
		Oracle: failingOracle{},
	})

	_, err := u.Repay(context.Background(), RepayInput{ParcelID: active.ParcelID, Payer: owner, Amount: 10, PayInCollateral: true})
	assert.ErrorIs(t, err, price.ErrUnavailable)

	u.oracle = nil
	_, err = u.Repay(context.Background(), RepayInput{ParcelID: active.ParcelID, Payer: owner, Amount: 10, PayInCollateral: true})
	assert.ErrorIs(t, err, price.ErrUnavailable)
}

type failingOracle struct{}

func (failingOracle) Rate(context.Context) (price.Rate, error) {
	return price.Rate{}, price.ErrUnavailable.Wrap(errors.New("connection refused"))
}

func TestCheckDefault_AfterGraceOnly(t *testing.T) {
	f := newFixture(t, Policy{}, nil)
	ctx := context.Background()
	p := f.verifiedParcel(t, 1000)
	l, err := f.uc.RequestLoan(ctx, RequestLoanInput{ParcelID: p.ParcelID, Borrower: owner, Principal: 100, PeriodSeconds: day})
	require.NoError(t, err)

	res, err := f.uc.CheckDefault(ctx, p.ParcelID, l.DueTime.Add(6*24*time.Hour))
	require.NoError(t, err)
	assert.False(t, res.Transitioned)
	assert.Equal(t, string(domain.StateActive), res.State)

	at := l.DueTime.Add(8 * 24 * time.Hour)
	res, err = f.uc.CheckDefault(ctx, p.ParcelID, at)
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
	assert.Equal(t, string(domain.StateDefaulted), res.State)

	// same instant again: same outcome, no second transition or event
	same, err := f.uc.CheckDefault(ctx, p.ParcelID, at)
	require.NoError(t, err)
	assert.False(t, same.Transitioned)
	assert.Equal(t, res.State, same.State)
	assert.Equal(t, res.AmountOwed, same.AmountOwed)
	assert.Equal(t, res.DefaultAfter, same.DefaultAfter)
	assert.Equal(t, []event.Type{event.LoanActivated, event.LoanDefaulted}, f.rec.types())

	again, err := f.uc.CheckDefault(ctx, p.ParcelID, l.DueTime.Add(9*24*time.Hour))
	require.NoError(t, err)
	assert.False(t, again.Transitioned)
	assert.Equal(t, string(domain.StateDefaulted), again.State)

	_, err = f.uc.Repay(ctx, RepayInput{ParcelID: p.ParcelID, Payer: owner, Amount: 150})
	assert.ErrorIs(t, err, domain.ErrLoanNotActive)
	_, err = f.uc.RequestLoan(ctx, RequestLoanInput{ParcelID: p.ParcelID, Borrower: owner, Principal: 100, PeriodSeconds: day})
	assert.ErrorIs(t, err, domain.ErrCollateralForfeited)

	assert.Equal(t, []event.Type{event.LoanActivated, event.LoanDefaulted}, f.rec.types())
}

func TestCheckDefault_NoLoan(t *testing.T) {
	f := newFixture(t, Policy{}, nil)
	p := f.verifiedParcel(t, 1000)
	_, err := f.uc.CheckDefault(context.Background(), p.ParcelID, time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSweepDefaults(t *testing.T) {
	f := newFixture(t, Policy{GracePeriod: time.Hour}, nil)
	ctx := context.Background()
	a, b := f.verifiedParcel(t, 1000), f.verifiedParcel(t, 1000)

	_, err := f.uc.RequestLoan(ctx, RequestLoanInput{ParcelID: a.ParcelID, Borrower: owner, Principal: 100, PeriodSeconds: 3600})
	require.NoError(t, err)
	_, err = f.uc.RequestLoan(ctx, RequestLoanInput{ParcelID: b.ParcelID, Borrower: owner, Principal: 100, PeriodSeconds: day})
	require.NoError(t, err)

	f.clk.advance(3 * time.Hour)
	n, err := f.uc.SweepDefaults(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.uc.SweepDefaults(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	la, err := f.uc.Get(ctx, a.ParcelID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StateDefaulted), la.State)
	lb, err := f.uc.Get(ctx, b.ParcelID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StateActive), lb.State)
}

func TestRequestLoan_ConcurrentRequestsPledgeOnce(t *testing.T) {
	f := newFixture(t, Policy{}, nil)
	p := f.verifiedParcel(t, 10_000)

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.RequestLoan(context.Background(), RequestLoanInput{ParcelID: p.ParcelID, Borrower: owner, Principal: 1000, PeriodSeconds: day})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	for _, err := range errs {
		assert.ErrorIs(t, err, domain.ErrCollateralAlreadyPledged)
	}
}

func TestQuote(t *testing.T) {
	f := newFixture(t, Policy{}, nil)
	ctx := context.Background()
	p := f.verifiedParcel(t, 1000)

	q, err := f.uc.Quote(ctx, p.ParcelID)
	require.NoError(t, err)
	assert.EqualValues(t, 500, q.MaxPrincipal)
	require.Len(t, q.Tiers, 3)
	assert.Equal(t, TierQuote{PeriodSeconds: 3600, InterestRateBP: 1000, AmountOwed: 550}, q.Tiers[0])
	assert.Equal(t, TierQuote{PeriodSeconds: day, InterestRateBP: 5000, AmountOwed: 750}, q.Tiers[2])

	other := testdb.SeedParcel(t, f.db, owner, "REGION_X")
	_, err = f.uc.Quote(ctx, other.ParcelID)
	assert.ErrorIs(t, err, domain.ErrNotVerified)

	assert.Len(t, f.uc.Tiers(), 3)
}

func TestRequestLoan_RejectedParcelIsNotVerified(t *testing.T) {
	verifications := &verificationmock.Repo{
		GetByParcelIDFn: func(context.Context, string) (*verification.Record, error) {
			return &verification.Record{State: verification.StateRejected, AppraisedValue: 1000}, nil
		},
	}
	loans := &loanmock.Repo{
		CreateFn: func(context.Context, *domain.Loan) error {
			t.Fatal("Create must not be called")
			return nil
		},
	}
	tiers, err := domain.NewRateTable(domain.DefaultTiers)
	require.NoError(t, err)
	p := &parcel.Parcel{ParcelID: "pppppppppppppppppppppppppppppppp", Owner: owner}
	u := NewUsecase(Deps{
		UoW:    uowmock.Passthrough(uow.Repos{Loans: loans, Verifications: verifications}, p),
		Loans:  loans,
		Policy: Policy{Tiers: tiers},
	})

	_, err = u.RequestLoan(context.Background(), RequestLoanInput{ParcelID: p.ParcelID, Borrower: owner, Principal: 100, PeriodSeconds: day})
	assert.ErrorIs(t, err, domain.ErrNotVerified)
}

func TestParseOverpaymentPolicy(t *testing.T) {
	for in, want := range map[string]OverpaymentPolicy{"": OverpaymentAccept, "ACCEPT": OverpaymentAccept, " reject ": OverpaymentReject} {
		got, err := ParseOverpaymentPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseOverpaymentPolicy("refund")
	assert.Error(t, err)
}
