package verification

import (
	"context"

	"landq-backend/internal/domain/event"
	"landq-backend/internal/domain/parcel"
	"landq-backend/internal/domain/uow"
	domain "landq-backend/internal/domain/verification"
	"landq-backend/pkg/account"
)

// AssignVerifier makes verifier the single authority for region, replacing
// whoever held it.
func (u *Usecase) AssignVerifier(ctx context.Context, caller, region, verifier string) (*RegionDTO, error) {
	admin, key, err := u.adminRegion(caller, region)
	if err != nil {
		return nil, err
	}
	v, err := account.Normalize(verifier)
	if err != nil {
		return nil, domain.ErrInvalidVerifier
	}

	var out *domain.RegionAssignment
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		out, err = r.Regions.Put(ctx, key, v, admin)
		return err
	})
	if err != nil {
		return nil, err
	}

	e := event.New(event.RegionVerifierAssigned, "", admin, "", u.now()).
		With("verifier", v).
		With("version", out.Version)
	e.Region = key
	u.publish(ctx, e)
	return regionDTO(out), nil
}

// RemoveVerifier clears the region; verify and reject there fail until the
// next assignment.
func (u *Usecase) RemoveVerifier(ctx context.Context, caller, region string) (*RegionDTO, error) {
	admin, key, err := u.adminRegion(caller, region)
	if err != nil {
		return nil, err
	}

	var out *domain.RegionAssignment
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		cur, err := r.Regions.Get(ctx, key)
		if err != nil {
			return err
		}
		if cur.Verifier == "" {
			return domain.ErrNoVerifier
		}
		out, err = r.Regions.Put(ctx, key, "", admin)
		return err
	})
	if err != nil {
		return nil, err
	}

	e := event.New(event.RegionVerifierRemoved, "", admin, "", u.now()).With("version", out.Version)
	e.Region = key
	u.publish(ctx, e)
	return regionDTO(out), nil
}

// GetRegionVerifier may lag a concurrent reassignment.
func (u *Usecase) GetRegionVerifier(ctx context.Context, region string) (*RegionDTO, error) {
	key, err := parcel.NormalizeRegion(region)
	if err != nil {
		return nil, err
	}
	a, err := u.regions.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if a.Verifier == "" {
		return nil, domain.ErrNoVerifier
	}
	return regionDTO(a), nil
}

func (u *Usecase) adminRegion(caller, region string) (string, string, error) {
	admin, err := account.Normalize(caller)
	if err != nil || !u.policy.Admins.Contains(admin) {
		return "", "", domain.ErrNotAdmin
	}
	key, err := parcel.NormalizeRegion(region)
	if err != nil {
		return "", "", err
	}
	return admin, key, nil
}

func regionDTO(a *domain.RegionAssignment) *RegionDTO {
	return &RegionDTO{
		Region:     a.Region,
		Verifier:   a.Verifier,
		Version:    a.Version,
		AssignedBy: a.AssignedBy,
		UpdatedAt:  a.UpdatedAt,
	}
}

