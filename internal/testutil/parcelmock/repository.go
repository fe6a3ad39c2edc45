package parcelmock

import (
	"context"

	domain "landq-backend/internal/domain/parcel"
	"landq-backend/internal/geometry"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn        func(ctx context.Context, p *domain.Parcel) error
	GetByParcelIDFn func(ctx context.Context, parcelID string) (*domain.Parcel, error)
	ListByOwnerFn   func(ctx context.Context, owner string) ([]domain.Parcel, error)
	ScanEnvelopeFn  func(ctx context.Context, b geometry.Bounds, fn func(p *domain.Parcel) error) error
}

func (m *Repo) Create(ctx context.Context, p *domain.Parcel) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}

func (m *Repo) GetByParcelID(ctx context.Context, parcelID string) (*domain.Parcel, error) {
	if m.GetByParcelIDFn != nil {
		return m.GetByParcelIDFn(ctx, parcelID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ListByOwner(ctx context.Context, owner string) ([]domain.Parcel, error) {
	if m.ListByOwnerFn != nil {
		return m.ListByOwnerFn(ctx, owner)
	}
	return nil, nil
}

func (m *Repo) ScanEnvelope(ctx context.Context, b geometry.Bounds, fn func(p *domain.Parcel) error) error {
	if m.ScanEnvelopeFn != nil {
		return m.ScanEnvelopeFn(ctx, b, fn)
	}
	return nil
}
