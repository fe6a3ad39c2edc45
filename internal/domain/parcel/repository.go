package parcel

import (
	"context"

	"landq-backend/internal/geometry"
)

type Repository interface {
	Create(ctx context.Context, p *Parcel) error
	GetByParcelID(ctx context.Context, parcelID string) (*Parcel, error)
	ListByOwner(ctx context.Context, owner string) ([]Parcel, error)

	// ScanEnvelope calls fn for every parcel whose envelope meets b, in
	// registration order. A non-nil error from fn stops the scan and is returned.
	ScanEnvelope(ctx context.Context, b geometry.Bounds, fn func(p *Parcel) error) error
}
