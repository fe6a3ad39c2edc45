package ledger

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"landq-backend/internal/domain/verification"
)

type VerificationRepository struct{ db *gorm.DB }

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) Create(ctx context.Context, v *verification.Record) error {
	return translate(r.db.WithContext(ctx).Create(v).Error, nil)
}

func (r *VerificationRepository) Save(ctx context.Context, v *verification.Record) error {
	return translate(r.db.WithContext(ctx).Save(v).Error, nil)
}

func (r *VerificationRepository) GetByParcelID(ctx context.Context, parcelID string) (*verification.Record, error) {
	var out verification.Record
	res := r.db.WithContext(ctx).Where("parcel_id = ?", parcelID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, verification.ErrNotFound)
	}
	return &out, nil
}

type RegionRepository struct{ db *gorm.DB }

func NewRegionRepository(db *gorm.DB) *RegionRepository { return &RegionRepository{db: db} }

func (r *RegionRepository) Get(ctx context.Context, region string) (*verification.RegionAssignment, error) {
	var out verification.RegionAssignment
	res := r.db.WithContext(ctx).Where("region = ?", region).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, verification.ErrNoVerifier)
	}
	return &out, nil
}

// Put is a single upsert, so concurrent assignments to a new region cannot
// collide on the unique index; the last write wins.
func (r *RegionRepository) Put(ctx context.Context, region, verifier, by string) (*verification.RegionAssignment, error) {
	a := verification.RegionAssignment{Region: region, Verifier: verifier, Version: 1, AssignedBy: by}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "region"}},
		DoUpdates: clause.Assignments(map[string]any{
			"verifier":    verifier,
			"assigned_by": by,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now().UTC(),
		}),
	}).Create(&a).Error
	if err != nil {
		return nil, translate(err, nil)
	}
	return r.Get(ctx, region)
}
