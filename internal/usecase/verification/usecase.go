package verification

import (
	"context"
	"errors"
	"strings"
	"time"

	"landq-backend/internal/domain/event"
	"landq-backend/internal/domain/parcel"
	"landq-backend/internal/domain/uow"
	domain "landq-backend/internal/domain/verification"
	"landq-backend/internal/infrastructure/logger"
	"landq-backend/internal/infrastructure/metrics"
	"landq-backend/pkg/account"
)

type Deps struct {
	UoW           uow.UnitOfWork
	Parcels       parcel.Repository
	Verifications domain.Repository
	Regions       domain.RegionRepository
	Events        event.Publisher
	Metrics       *metrics.Collector
	Log           *logger.Logger
	Policy        Policy
}

type Usecase struct {
	uow           uow.UnitOfWork
	parcels       parcel.Repository
	verifications domain.Repository
	regions       domain.RegionRepository
	events        event.Publisher
	metrics       *metrics.Collector
	log           *logger.Logger
	policy        Policy
	now           func() time.Time
}

func NewUsecase(d Deps) *Usecase {
	u := &Usecase{
		uow:           d.UoW,
		parcels:       d.Parcels,
		verifications: d.Verifications,
		regions:       d.Regions,
		events:        d.Events,
		metrics:       d.Metrics,
		log:           d.Log,
		policy:        d.Policy,
		now:           time.Now,
	}
	if u.events == nil {
		u.events = event.Discard{}
	}
	if u.log == nil {
		u.log = logger.Nop()
	}
	return u
}

// WithClock returns a copy of u reading time from now.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	cp := *u
	cp.now = now
	return &cp
}

// RequestVerification moves the parcel to pending on behalf of its owner.
func (u *Usecase) RequestVerification(ctx context.Context, parcelID, requester string) (*RecordDTO, error) {
	who, err := account.Normalize(requester)
	if err != nil {
		return nil, domain.ErrNotParcelOwner
	}
	now := u.now().UTC()
	var out *domain.Record

	err = u.uow.WithinParcelTx(ctx, parcelID, func(r uow.Repos, p *parcel.Parcel) error {
		if p.Owner != who {
			return domain.ErrNotParcelOwner
		}
		rec, err := r.Verifications.GetByParcelID(ctx, parcelID)
		fresh := errors.Is(err, domain.ErrNotFound)
		if err != nil && !fresh {
			return err
		}
		if fresh {
			rec = &domain.Record{ParcelID: parcelID, Region: p.Region, State: domain.StateUnverified}
		}

		switch {
		case rec.State == domain.StatePendingVerification:
			return domain.ErrAlreadyPending
		case rec.State == domain.StateRejected && u.policy.AllowReverifyAfterReject:
			rec.AppraisedValue = 0
			rec.Notes = ""
			rec.VerifiedAt = nil
		case !domain.CanTransition(rec.State, domain.StatePendingVerification):
			return domain.ErrAlreadyTerminal
		}

		rec.State = domain.StatePendingVerification
		rec.RequestedBy = who
		rec.RequestedAt = now
		rec.StateUpdatedAt = now
		rec.AssignedVerifier = ""
		// snapshot of who holds the region now; verify re-checks the live assignment
		a, err := r.Regions.Get(ctx, p.Region)
		switch {
		case err == nil:
			rec.AssignedVerifier = a.Verifier
		case !errors.Is(err, domain.ErrNoVerifier):
			return err
		}

		if fresh {
			err = r.Verifications.Create(ctx, rec)
		} else {
			err = r.Verifications.Save(ctx, rec)
		}
		out = rec
		return err
	})
	if err != nil {
		return nil, err
	}

	u.metrics.Verification("requested")
	u.emit(ctx, out, event.VerificationRequested, who, now)
	return toDTO(out), nil
}

// Verify approves a pending parcel. Only the verifier currently assigned to
// the parcel's region may do so.
func (u *Usecase) Verify(ctx context.Context, in VerifyInput) (*RecordDTO, error) {
	if in.AppraisedValue <= 0 {
		return nil, domain.ErrInvalidAppraisal
	}
	return u.conclude(ctx, in.ParcelID, in.Verifier, event.VerificationVerified, func(rec *domain.Record, now time.Time) {
		rec.State = domain.StateVerified
		rec.AppraisedValue = in.AppraisedValue
		rec.Notes = in.Notes
	})
}

// Reject closes a pending parcel with a reason.
func (u *Usecase) Reject(ctx context.Context, in RejectInput) (*RecordDTO, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}
	return u.conclude(ctx, in.ParcelID, in.Verifier, event.VerificationRejected, func(rec *domain.Record, now time.Time) {
		rec.State = domain.StateRejected
		rec.Notes = reason
	})
}

func (u *Usecase) conclude(ctx context.Context, parcelID, verifier string, t event.Type, apply func(*domain.Record, time.Time)) (*RecordDTO, error) {
	who, err := account.Normalize(verifier)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	now := u.now().UTC()
	var out *domain.Record

	err = u.uow.WithinParcelTx(ctx, parcelID, func(r uow.Repos, p *parcel.Parcel) error {
		a, err := r.Regions.Get(ctx, p.Region)
		if errors.Is(err, domain.ErrNoVerifier) {
			return domain.ErrUnauthorized
		}
		if err != nil {
			return err
		}
		if !a.Authorizes(who) {
			return domain.ErrUnauthorized
		}

		rec, err := r.Verifications.GetByParcelID(ctx, parcelID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidState
		}
		if err != nil {
			return err
		}
		if rec.State != domain.StatePendingVerification {
			return domain.ErrInvalidState
		}

		apply(rec, now)
		rec.AssignedVerifier = who
		rec.VerifiedAt = &now
		rec.StateUpdatedAt = now
		out = rec
		return r.Verifications.Save(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	u.metrics.Verification(string(out.State))
	u.emit(ctx, out, t, who, now)
	return toDTO(out), nil
}

// Get reports the parcel's verification; a parcel never submitted is unverified.
func (u *Usecase) Get(ctx context.Context, parcelID string) (*RecordDTO, error) {
	p, err := u.parcels.GetByParcelID(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	rec, err := u.verifications.GetByParcelID(ctx, parcelID)
	if errors.Is(err, domain.ErrNotFound) {
		return &RecordDTO{ParcelID: parcelID, Region: p.Region, State: string(domain.StateUnverified)}, nil
	}
	if err != nil {
		return nil, err
	}
	return toDTO(rec), nil
}

func (u *Usecase) emit(ctx context.Context, rec *domain.Record, t event.Type, actor string, at time.Time) {
	e := event.New(t, rec.ParcelID, actor, string(rec.State), at)
	e.Region = rec.Region
	if rec.State == domain.StateVerified {
		e = e.With("appraised_value", rec.AppraisedValue)
	}
	if rec.Notes != "" {
		e = e.With("notes", rec.Notes)
	}
	u.publish(ctx, e)
}

func (u *Usecase) publish(ctx context.Context, e event.Event) {
	if err := u.events.Publish(ctx, e); err != nil {
		u.log.Warn("event publish failed", "type", string(e.Type), "parcel_id", e.ParcelID, "error", err)
	}
}

func toDTO(rec *domain.Record) *RecordDTO {
	dto := &RecordDTO{
		ParcelID:         rec.ParcelID,
		Region:           rec.Region,
		State:            string(rec.State),
		RequestedBy:      rec.RequestedBy,
		AssignedVerifier: rec.AssignedVerifier,
		AppraisedValue:   rec.AppraisedValue,
		Notes:            rec.Notes,
		VerifiedAt:       rec.VerifiedAt,
	}
	if !rec.RequestedAt.IsZero() {
		at := rec.RequestedAt
		dto.RequestedAt = &at
	}
	return dto
}
