package loanmock

import (
	"context"
	"time"

	domain "landq-backend/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset finders report domain.ErrNotFound; unset writers succeed.
type Repo struct {
	CreateFn              func(ctx context.Context, l *domain.Loan) error
	SaveFn                func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn         func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetLatestByParcelIDFn func(ctx context.Context, parcelID string) (*domain.Loan, error)
	ListByParcelIDFn      func(ctx context.Context, parcelID string) ([]domain.Loan, error)
	ListOverdueFn         func(ctx context.Context, cutoff time.Time, limit int) ([]domain.Loan, error)
	CreateRepaymentFn     func(ctx context.Context, r *domain.Repayment) error
	ListRepaymentsFn      func(ctx context.Context, loanID string) ([]domain.Repayment, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}
func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}
func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, domain.ErrNotFound
}
func (m *Repo) GetLatestByParcelID(ctx context.Context, parcelID string) (*domain.Loan, error) {
	if m.GetLatestByParcelIDFn != nil {
		return m.GetLatestByParcelIDFn(ctx, parcelID)
	}
	return nil, domain.ErrNotFound
}
func (m *Repo) ListByParcelID(ctx context.Context, parcelID string) ([]domain.Loan, error) {
	if m.ListByParcelIDFn != nil {
		return m.ListByParcelIDFn(ctx, parcelID)
	}
	return nil, nil
}
func (m *Repo) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]domain.Loan, error) {
	if m.ListOverdueFn != nil {
		return m.ListOverdueFn(ctx, cutoff, limit)
	}
	return nil, nil
}
func (m *Repo) CreateRepayment(ctx context.Context, r *domain.Repayment) error {
	if m.CreateRepaymentFn != nil {
		return m.CreateRepaymentFn(ctx, r)
	}
	return nil
}
func (m *Repo) ListRepayments(ctx context.Context, loanID string) ([]domain.Repayment, error) {
	if m.ListRepaymentsFn != nil {
		return m.ListRepaymentsFn(ctx, loanID)
	}
	return nil, nil
}
