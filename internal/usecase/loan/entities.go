package loan

import (
	"fmt"
	"strings"
	"time"

	domain "landq-backend/internal/domain/loan"
)

type OverpaymentPolicy string

const (
	// OverpaymentAccept closes the loan and records the surplus for refund.
	OverpaymentAccept OverpaymentPolicy = "accept"
	// OverpaymentReject refuses payments above the amount owed.
	OverpaymentReject OverpaymentPolicy = "reject"
)

func ParseOverpaymentPolicy(s string) (OverpaymentPolicy, error) {
	switch p := OverpaymentPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case OverpaymentAccept, OverpaymentReject:
		return p, nil
	case "":
		return OverpaymentAccept, nil
	default:
		return "", fmt.Errorf("overpayment policy %q: want accept or reject", s)
	}
}

type Policy struct {
	Tiers       domain.RateTable
	GracePeriod time.Duration
	Overpayment OverpaymentPolicy
}

type RequestLoanInput struct {
	ParcelID      string
	Borrower      string
	Principal     int64
	PeriodSeconds int64
}

type RepayInput struct {
	ParcelID string
	Payer    string
	Amount   int64
	// PayInCollateral marks Amount as collateral-currency minor units.
	PayInCollateral bool
}

type LoanDTO struct {
	LoanID         string     `json:"loan_id"`
	ParcelID       string     `json:"parcel_id"`
	Borrower       string     `json:"borrower"`
	Principal      int64      `json:"principal"`
	InterestRateBP int64      `json:"interest_rate_bp"`
	PeriodSeconds  int64      `json:"period_seconds"`
	StartTime      time.Time  `json:"start_time"`
	DueTime        time.Time  `json:"due_time"`
	DefaultAfter   time.Time  `json:"default_after"`
	AmountOwed     int64      `json:"amount_owed"`
	TotalRepaid    int64      `json:"total_repaid"`
	ExcessPaid     int64      `json:"excess_paid"`
	State          string     `json:"state"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`

	Repayments []RepaymentDTO `json:"repayments,omitempty"`
}

type RepaymentDTO struct {
	RepaymentID     string    `json:"repayment_id"`
	Currency        string    `json:"currency"`
	Amount          int64     `json:"amount"`
	ReferenceAmount int64     `json:"reference_amount"`
	RateNumerator   int64     `json:"rate_numerator,omitempty"`
	RateScale       int64     `json:"rate_scale,omitempty"`
	Applied         int64     `json:"applied"`
	Excess          int64     `json:"excess"`
	OwedAfter       int64     `json:"owed_after"`
	CreatedAt       time.Time `json:"created_at"`
}

type RepayResult struct {
	Repayment RepaymentDTO `json:"repayment"`
	Loan      LoanDTO      `json:"loan"`
}

type TierQuote struct {
	PeriodSeconds  int64 `json:"period_seconds"`
	InterestRateBP int64 `json:"interest_rate_bp"`
	// AmountOwed is what MaxPrincipal would cost at this tier.
	AmountOwed int64 `json:"amount_owed"`
}

type QuoteDTO struct {
	ParcelID       string      `json:"parcel_id"`
	AppraisedValue int64       `json:"appraised_value"`
	MaxPrincipal   int64       `json:"max_principal"`
	Tiers          []TierQuote `json:"tiers"`
}

type CheckDefaultDTO struct {
	LoanID       string    `json:"loan_id"`
	State        string    `json:"state"`
	Transitioned bool      `json:"transitioned"`
	AmountOwed   int64     `json:"amount_owed"`
	DefaultAfter time.Time `json:"default_after"`
	CheckedAt    time.Time `json:"checked_at"`
}
