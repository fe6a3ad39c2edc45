package verificationmock

import (
	"context"

	domain "landq-backend/internal/domain/verification"
)

var (
	_ domain.Repository       = (*Repo)(nil)
	_ domain.RegionRepository = (*RegionRepo)(nil)
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn        func(ctx context.Context, r *domain.Record) error
	SaveFn          func(ctx context.Context, r *domain.Record) error
	GetByParcelIDFn func(ctx context.Context, parcelID string) (*domain.Record, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.Record) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, r *domain.Record) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetByParcelID(ctx context.Context, parcelID string) (*domain.Record, error) {
	if m.GetByParcelIDFn != nil {
		return m.GetByParcelIDFn(ctx, parcelID)
	}
	return nil, domain.ErrNotFound
}

// RegionRepo is a function-backed mock that satisfies domain.RegionRepository.
type RegionRepo struct {
	GetFn func(ctx context.Context, region string) (*domain.RegionAssignment, error)
	PutFn func(ctx context.Context, region, verifier, by string) (*domain.RegionAssignment, error)
}

func (m *RegionRepo) Get(ctx context.Context, region string) (*domain.RegionAssignment, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, region)
	}
	return nil, domain.ErrNoVerifier
}

func (m *RegionRepo) Put(ctx context.Context, region, verifier, by string) (*domain.RegionAssignment, error) {
	if m.PutFn != nil {
		return m.PutFn(ctx, region, verifier, by)
	}
	return &domain.RegionAssignment{Region: region, Verifier: verifier, AssignedBy: by, Version: 1}, nil
}
