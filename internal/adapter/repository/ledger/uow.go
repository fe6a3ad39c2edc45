package ledger

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"landq-backend/internal/domain/parcel"
	"landq-backend/internal/domain/uow"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func repos(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Parcels:       &ParcelRepository{db: tx},
		Verifications: &VerificationRepository{db: tx},
		Regions:       &RegionRepository{db: tx},
		Loans:         &LoanRepository{db: tx},
	}
}

// run executes body in a transaction. Errors from body come back untouched;
// begin and commit failures are reported as ledger unavailability.
func (u *GormUoW) run(ctx context.Context, body func(tx *gorm.DB) error) error {
	var bodyErr error
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bodyErr = body(tx)
		return bodyErr
	})
	if bodyErr != nil {
		return bodyErr
	}
	return translate(err, nil)
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.run(ctx, func(tx *gorm.DB) error {
		return fn(repos(tx))
	})
}

func (u *GormUoW) WithinParcelTx(ctx context.Context, parcelID string, fn func(r uow.Repos, p *parcel.Parcel) error) error {
	return u.run(ctx, func(tx *gorm.DB) error {
		// lock the parcel row up-front; every verification and loan write on
		// the parcel queues behind it
		var p parcel.Parcel
		res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("parcel_id = ?", parcelID).First(&p)
		if res.Error != nil {
			return translate(res.Error, parcel.ErrNotFound)
		}
		return fn(repos(tx), &p)
	})
}

func (u *GormUoW) WithinRegistryTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.run(ctx, func(tx *gorm.DB) error {
		// bumping the head row takes its write lock, queueing registrations
		res := tx.Model(&registryHead{}).Where("id = ?", registryHeadID).
			UpdateColumn("seq", gorm.Expr("seq + 1"))
		if res.Error != nil {
			return translate(res.Error, nil)
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&registryHead{ID: registryHeadID, Seq: 1}).Error; err != nil {
				return translate(err, nil)
			}
		}
		return fn(repos(tx))
	})
}
