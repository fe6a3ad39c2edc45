package parcel

import (
	"time"

	"github.com/twpayne/go-geom"
	"gorm.io/datatypes"

	"landq-backend/internal/geometry"
	"landq-backend/pkg/apperr"
)

var (
	ErrNotFound          = apperr.New(apperr.KindNotFound, "parcel_not_found", "parcel not found")
	ErrInvalidGeometry   = apperr.New(apperr.KindValidation, "invalid_geometry", "invalid parcel boundary")
	ErrInvalidRegion     = apperr.New(apperr.KindValidation, "invalid_region", "region must be 1-32 characters of letters, digits, space, '-' or '_'")
	ErrInvalidOwner      = apperr.New(apperr.KindValidation, "invalid_owner", "owner must be an account address")
	ErrConflictingParcel = apperr.New(apperr.KindConflict, "conflicting_parcel", "boundary overlaps or equals a registered parcel")
)

// Table: parcels. Boundary is immutable once written.
type Parcel struct {
	ID          uint64         `gorm:"primaryKey;column:id" json:"-"`
	ParcelID    string         `gorm:"size:32;not null;uniqueIndex:ux_parcels_parcel_id" json:"parcel_id"`
	Owner       string         `gorm:"size:42;not null;index:idx_parcels_owner" json:"owner"`
	Region      string         `gorm:"size:32;not null;index:idx_parcels_region" json:"region"`
	MetadataRef string         `gorm:"type:text" json:"metadata_ref"`
	Boundary    datatypes.JSON `gorm:"not null" json:"boundary"` // GeoJSON Polygon, lon/lat order

	// envelope columns back the candidate prefilter of the conflict scan
	MinLat float64 `gorm:"not null;index:idx_parcels_envelope,priority:1" json:"-"`
	MaxLat float64 `gorm:"not null;index:idx_parcels_envelope,priority:2" json:"-"`
	MinLon float64 `gorm:"not null;index:idx_parcels_envelope,priority:3" json:"-"`
	MaxLon float64 `gorm:"not null;index:idx_parcels_envelope,priority:4" json:"-"`

	AreaSqm     float64   `gorm:"not null" json:"area_sqm"`
	CentroidLat float64   `gorm:"not null" json:"centroid_lat"`
	CentroidLon float64   `gorm:"not null" json:"centroid_lon"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Parcel) TableName() string { return "parcels" }

// Polygon decodes the stored boundary.
func (p *Parcel) Polygon() (*geom.Polygon, error) {
	return geometry.UnmarshalGeoJSON(p.Boundary)
}
