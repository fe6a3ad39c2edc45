package uow

import (
	"context"

	"landq-backend/internal/domain/loan"
	"landq-backend/internal/domain/parcel"
	"landq-backend/internal/domain/verification"
)

// Repos are bound to one transaction.
type Repos struct {
	Parcels       parcel.Repository
	Verifications verification.Repository
	Regions       verification.RegionRepository
	Loans         loan.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the parcel row first, then pass it in; serializes every
	// verification and loan mutation on that parcel
	WithinParcelTx(ctx context.Context, parcelID string, fn func(r Repos, p *parcel.Parcel) error) error
	// serializes registrations so a conflict scan sees every committed parcel
	WithinRegistryTx(ctx context.Context, fn func(r Repos) error) error
}
