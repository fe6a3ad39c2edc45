package ledger

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"landq-backend/internal/domain/loan"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

// pledged maps a unique-index hit on the pledge key to the domain conflict.
func pledged(err error, parcelID string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return loan.ErrCollateralAlreadyPledged.WithRef(parcelID)
	}
	return translate(err, nil)
}

func (r *LoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return pledged(err, l.ParcelID)
	}
	return nil
}

func (r *LoanRepository) Save(ctx context.Context, l *loan.Loan) error {
	if err := r.db.WithContext(ctx).Save(l).Error; err != nil {
		return pledged(err, l.ParcelID)
	}
	return nil
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loan.Loan, error) {
	var out loan.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, loan.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) GetLatestByParcelID(ctx context.Context, parcelID string) (*loan.Loan, error) {
	var out loan.Loan
	res := r.db.WithContext(ctx).
		Where("parcel_id = ?", parcelID).
		Order("id DESC").
		First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, loan.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) ListByParcelID(ctx context.Context, parcelID string) ([]loan.Loan, error) {
	var out []loan.Loan
	res := r.db.WithContext(ctx).Where("parcel_id = ?", parcelID).Order("id DESC").Find(&out)
	return out, translate(res.Error, nil)
}

func (r *LoanRepository) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]loan.Loan, error) {
	var out []loan.Loan
	res := r.db.WithContext(ctx).
		Where("state = ? AND due_time < ?", loan.StateActive, cutoff).
		Order("due_time ASC, id ASC").
		Limit(limit).
		Find(&out)
	return out, translate(res.Error, nil)
}

func (r *LoanRepository) CreateRepayment(ctx context.Context, p *loan.Repayment) error {
	return translate(r.db.WithContext(ctx).Create(p).Error, nil)
}

func (r *LoanRepository) ListRepayments(ctx context.Context, loanID string) ([]loan.Repayment, error) {
	var out []loan.Repayment
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("id ASC").Find(&out)
	return out, translate(res.Error, nil)
}
