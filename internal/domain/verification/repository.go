package verification

import "context"

type Repository interface {
	Create(ctx context.Context, r *Record) error
	Save(ctx context.Context, r *Record) error
	GetByParcelID(ctx context.Context, parcelID string) (*Record, error)
}

type RegionRepository interface {
	// Get returns ErrNoVerifier when the region was never assigned.
	Get(ctx context.Context, region string) (*RegionAssignment, error)
	// Put overwrites the region's verifier and bumps its version. An empty
	// verifier removes the assignment.
	Put(ctx context.Context, region, verifier, by string) (*RegionAssignment, error)
}
