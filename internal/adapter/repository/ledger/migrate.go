package ledger

import (
	"gorm.io/gorm"

	"landq-backend/internal/domain/loan"
	"landq-backend/internal/domain/parcel"
	"landq-backend/internal/domain/verification"
)

const registryHeadID = 1

// registryHead is a single-row table; registrations lock it to serialize.
type registryHead struct {
	ID  uint64 `gorm:"primaryKey;autoIncrement:false"`
	Seq uint64 `gorm:"not null;default:0"`
}

func (registryHead) TableName() string { return "registry_heads" }

// Migrate creates or updates every ledger table and seeds the registry head.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&parcel.Parcel{},
		&verification.Record{},
		&verification.RegionAssignment{},
		&loan.Loan{},
		&loan.Repayment{},
		&registryHead{},
	); err != nil {
		return err
	}
	return db.FirstOrCreate(&registryHead{ID: registryHeadID}, registryHead{ID: registryHeadID}).Error
}
