package ledger

import (
	"context"

	"gorm.io/gorm"

	"landq-backend/internal/domain/parcel"
	"landq-backend/internal/geometry"
)

const scanBatchSize = 200

type ParcelRepository struct{ db *gorm.DB }

func NewParcelRepository(db *gorm.DB) *ParcelRepository { return &ParcelRepository{db: db} }

func (r *ParcelRepository) Create(ctx context.Context, p *parcel.Parcel) error {
	return translate(r.db.WithContext(ctx).Create(p).Error, nil)
}

func (r *ParcelRepository) GetByParcelID(ctx context.Context, parcelID string) (*parcel.Parcel, error) {
	var out parcel.Parcel
	res := r.db.WithContext(ctx).Where("parcel_id = ?", parcelID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, parcel.ErrNotFound)
	}
	return &out, nil
}

func (r *ParcelRepository) ListByOwner(ctx context.Context, owner string) ([]parcel.Parcel, error) {
	var out []parcel.Parcel
	res := r.db.WithContext(ctx).Where("owner = ?", owner).Order("id ASC").Find(&out)
	return out, translate(res.Error, nil)
}

// ScanEnvelope walks candidates in primary key order, batch by batch. Boxes
// that merely touch b are included; the caller decides with exact predicates.
func (r *ParcelRepository) ScanEnvelope(ctx context.Context, b geometry.Bounds, fn func(p *parcel.Parcel) error) error {
	var (
		batch []parcel.Parcel
		stop  error
	)
	res := r.db.WithContext(ctx).
		Where("min_lat <= ? AND max_lat >= ? AND min_lon <= ? AND max_lon >= ?", b.MaxLat, b.MinLat, b.MaxLon, b.MinLon).
		FindInBatches(&batch, scanBatchSize, func(_ *gorm.DB, _ int) error {
			for i := range batch {
				if err := fn(&batch[i]); err != nil {
					stop = err
					return err
				}
			}
			return nil
		})
	if stop != nil {
		return stop
	}
	return translate(res.Error, nil)
}
