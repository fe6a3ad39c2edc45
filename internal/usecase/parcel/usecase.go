package parcel

import (
	"context"
	"time"

	"landq-backend/internal/domain/event"
	domain "landq-backend/internal/domain/parcel"
	"landq-backend/internal/domain/uow"
	"landq-backend/internal/geometry"
	"landq-backend/internal/infrastructure/logger"
	"landq-backend/internal/infrastructure/metrics"
	"landq-backend/pkg/account"
	"landq-backend/pkg/id"
)

type Deps struct {
	UoW     uow.UnitOfWork
	Parcels domain.Repository
	Events  event.Publisher
	Metrics *metrics.Collector
	Log     *logger.Logger
}

type Usecase struct {
	uow     uow.UnitOfWork
	parcels domain.Repository
	events  event.Publisher
	metrics *metrics.Collector
	log     *logger.Logger
	now     func() time.Time
}

func NewUsecase(d Deps) *Usecase {
	u := &Usecase{
		uow:     d.UoW,
		parcels: d.Parcels,
		events:  d.Events,
		metrics: d.Metrics,
		log:     d.Log,
		now:     time.Now,
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

// Register validates the boundary, scans every registered parcel whose
// envelope meets it and stores it only if none overlaps or equals it.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*ParcelDTO, error) {
	owner, err := account.Normalize(in.Owner)
	if err != nil {
		return nil, domain.ErrInvalidOwner
	}
	region, err := domain.NormalizeRegion(in.Region)
	if err != nil {
		return nil, err
	}
	poly, err := geometry.NewPolygon(in.Boundary)
	if err != nil {
		return nil, domain.ErrInvalidGeometry.Wrap(err)
	}
	boundary, err := geometry.MarshalGeoJSON(poly)
	if err != nil {
		return nil, domain.ErrInvalidGeometry.Wrap(err)
	}
	env := geometry.Envelope(poly)
	centroid := geometry.Centroid(poly)

	p := &domain.Parcel{
		ParcelID:    id.NewID32(),
		Owner:       owner,
		Region:      region,
		MetadataRef: in.MetadataRef,
		Boundary:    boundary,
		MinLat:      env.MinLat,
		MaxLat:      env.MaxLat,
		MinLon:      env.MinLon,
		MaxLon:      env.MaxLon,
		AreaSqm:     geometry.Area(poly),
		CentroidLat: centroid.Lat,
		CentroidLon: centroid.Lon,
		CreatedAt:   u.now().UTC(),
	}

	err = u.uow.WithinRegistryTx(ctx, func(r uow.Repos) error {
		err := r.Parcels.ScanEnvelope(ctx, env, func(existing *domain.Parcel) error {
			other, err := existing.Polygon()
			if err != nil {
				return err
			}
			if geometry.Overlaps(poly, other) || geometry.Equals(poly, other) {
				return domain.ErrConflictingParcel.WithRef(existing.ParcelID)
			}
			return nil
		})
		if err != nil {
			return err
		}
		return r.Parcels.Create(ctx, p)
	})
	if err != nil {
		if e, ok := errIs(err, domain.ErrConflictingParcel); ok {
			u.metrics.ParcelConflict()
			u.log.Info("parcel registration conflicts", "owner", owner, "region", region, "conflicting_parcel_id", e.Ref)
		}
		return nil, err
	}

	u.metrics.ParcelRegistered()
	e := event.New(event.ParcelRegistered, p.ParcelID, owner, "", p.CreatedAt).
		With("area_sqm", p.AreaSqm).
		With("metadata_ref", p.MetadataRef)
	e.Region = region
	u.emit(ctx, e)

	return toDTO(p, poly), nil
}

func (u *Usecase) Get(ctx context.Context, parcelID string) (*ParcelDTO, error) {
	if !id.Valid(parcelID) {
		return nil, domain.ErrNotFound
	}
	p, err := u.parcels.GetByParcelID(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	return decode(p)
}

func (u *Usecase) ListByOwner(ctx context.Context, owner string) ([]ParcelDTO, error) {
	o, err := account.Normalize(owner)
	if err != nil {
		return nil, domain.ErrInvalidOwner
	}
	list, err := u.parcels.ListByOwner(ctx, o)
	if err != nil {
		return nil, err
	}
	out := make([]ParcelDTO, 0, len(list))
	for i := range list {
		dto, err := decode(&list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *dto)
	}
	return out, nil
}

func (u *Usecase) emit(ctx context.Context, e event.Event) {
	if err := u.events.Publish(ctx, e); err != nil {
		u.log.Warn("event publish failed", "type", string(e.Type), "parcel_id", e.ParcelID, "error", err)
	}
}
