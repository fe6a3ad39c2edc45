package loan

import (
	"time"

	"landq-backend/pkg/apperr"
)

type State string

const (
	StateNone      State = "none"
	StateRequested State = "requested"
	StateActive    State = "active"
	StateRepaid    State = "repaid"
	StateDefaulted State = "defaulted"
)

var (
	ErrNotFound                 = apperr.New(apperr.KindNotFound, "loan_not_found", "loan not found")
	ErrNotVerified              = apperr.New(apperr.KindState, "not_verified", "parcel is not verified")
	ErrCollateralAlreadyPledged = apperr.New(apperr.KindConflict, "collateral_already_pledged", "parcel already backs an open loan")
	ErrCollateralForfeited      = apperr.New(apperr.KindConflict, "collateral_forfeited", "parcel backs a defaulted loan")
	ErrExceedsCollateralValue   = apperr.New(apperr.KindValidation, "exceeds_collateral_value", "principal exceeds half the appraised value")
	ErrUnknownLoanTier          = apperr.New(apperr.KindValidation, "unknown_loan_tier", "no loan tier for period")
	ErrInvalidAmount            = apperr.New(apperr.KindValidation, "invalid_amount", "amount must be positive")
	ErrAmountOverflow           = apperr.New(apperr.KindValidation, "amount_overflow", "amount out of range")
	ErrOverpayment              = apperr.New(apperr.KindValidation, "overpayment", "payment exceeds amount owed")
	ErrLoanNotActive            = apperr.New(apperr.KindState, "loan_not_active", "loan is not active")
	ErrNotBorrower              = apperr.New(apperr.KindAuthorization, "not_borrower", "only the borrower may repay")
	ErrNotParcelOwner           = apperr.New(apperr.KindAuthorization, "not_parcel_owner", "only the parcel owner may borrow against it")
)

// Table: loans. PledgeKey holds the parcel id while the loan keeps the parcel
// pledged (requested, active, defaulted) and is NULL once repaid; its unique
// index is what stops a parcel backing two loans at once.
type Loan struct {
	ID             uint64     `gorm:"primaryKey;column:id" json:"-"`
	LoanID         string     `gorm:"size:32;not null;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	ParcelID       string     `gorm:"size:32;not null;index:idx_loans_parcel_id" json:"parcel_id"`
	PledgeKey      *string    `gorm:"size:32;uniqueIndex:ux_loans_pledge_key" json:"-"`
	Borrower       string     `gorm:"size:42;not null;index:idx_loans_borrower" json:"borrower"`
	Principal      int64      `gorm:"not null" json:"principal"`
	InterestRateBP int64      `gorm:"not null" json:"interest_rate_bp"`
	PeriodSeconds  int64      `gorm:"not null" json:"period_seconds"`
	StartTime      time.Time  `gorm:"not null" json:"start_time"`
	DueTime        time.Time  `gorm:"not null;index:idx_loans_state_due,priority:2" json:"due_time"`
	AmountOwed     int64      `gorm:"not null" json:"amount_owed"`
	TotalRepaid    int64      `gorm:"not null;default:0" json:"total_repaid"`
	ExcessPaid     int64      `gorm:"not null;default:0" json:"excess_paid"`
	State          State      `gorm:"size:16;not null;index:idx_loans_state_due,priority:1" json:"state"`
	StateUpdatedAt time.Time  `gorm:"not null" json:"state_updated_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Open reports whether the loan still blocks new requests as a live pledge.
func (l *Loan) Open() bool { return l.State == StateRequested || l.State == StateActive }

// DefaultAfter is the instant after which an unpaid active loan may default.
func (l *Loan) DefaultAfter(grace time.Duration) time.Time { return l.DueTime.Add(grace) }

// DefaultEligible reports whether checkDefault at now must mark the loan defaulted.
func (l *Loan) DefaultEligible(now time.Time, grace time.Duration) bool {
	return l.State == StateActive && l.AmountOwed > 0 && now.After(l.DefaultAfter(grace))
}

// ApplyRepayment reduces AmountOwed by ref, floored at zero. The part of ref
// above AmountOwed is excess; it is refused when allowExcess is false. A loan
// paid down to zero becomes repaid and releases its pledge.
func (l *Loan) ApplyRepayment(ref int64, allowExcess bool, now time.Time) (applied, excess int64, err error) {
	if l.State != StateActive {
		return 0, 0, ErrLoanNotActive
	}
	if ref <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	applied = ref
	if ref > l.AmountOwed {
		if !allowExcess {
			return 0, 0, ErrOverpayment
		}
		applied, excess = l.AmountOwed, ref-l.AmountOwed
	}
	l.AmountOwed -= applied
	l.TotalRepaid += applied
	l.ExcessPaid += excess
	if l.AmountOwed == 0 {
		l.State = StateRepaid
		l.StateUpdatedAt = now
		l.ClosedAt = &now
		l.PledgeKey = nil
	}
	return applied, excess, nil
}

// MarkDefaulted moves an active loan to defaulted. The pledge is kept so the
// parcel stays blocked until the collateral is resolved out of band.
func (l *Loan) MarkDefaulted(now time.Time) {
	l.State = StateDefaulted
	l.StateUpdatedAt = now
	l.ClosedAt = &now
}

type Currency string

const (
	CurrencyReference  Currency = "reference"
	CurrencyCollateral Currency = "collateral"
)

// Table: loan_repayments. Append-only.
type Repayment struct {
	ID              uint64    `gorm:"primaryKey;column:id" json:"-"`
	RepaymentID     string    `gorm:"size:32;not null;uniqueIndex:ux_loan_repayments_repayment_id" json:"repayment_id"`
	LoanID          string    `gorm:"size:32;not null;index:idx_loan_repayments_loan_id" json:"loan_id"`
	ParcelID        string    `gorm:"size:32;not null" json:"parcel_id"`
	Payer           string    `gorm:"size:42;not null" json:"payer"`
	Currency        Currency  `gorm:"size:16;not null" json:"currency"`
	Amount          int64     `gorm:"not null" json:"amount"`
	ReferenceAmount int64     `gorm:"not null" json:"reference_amount"`
	RateNumerator   int64     `gorm:"not null;default:0" json:"rate_numerator,omitempty"`
	RateScale       int64     `gorm:"not null;default:0" json:"rate_scale,omitempty"`
	Applied         int64     `gorm:"not null" json:"applied"`
	Excess          int64     `gorm:"not null;default:0" json:"excess"`
	OwedAfter       int64     `gorm:"not null" json:"owed_after"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Repayment) TableName() string { return "loan_repayments" }
