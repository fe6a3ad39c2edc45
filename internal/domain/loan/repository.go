package loan

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetLatestByParcelID returns the most recently created loan on the parcel.
	GetLatestByParcelID(ctx context.Context, parcelID string) (*Loan, error)
	ListByParcelID(ctx context.Context, parcelID string) ([]Loan, error)
	// ListOverdue returns active loans whose due time is before cutoff, oldest first.
	ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]Loan, error)

	CreateRepayment(ctx context.Context, r *Repayment) error
	ListRepayments(ctx context.Context, loanID string) ([]Repayment, error)
}
