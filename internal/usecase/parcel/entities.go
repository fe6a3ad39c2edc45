package parcel

import (
	"time"

	"landq-backend/internal/geometry"
)

type RegisterInput struct {
	Owner       string
	Region      string
	MetadataRef string
	Boundary    []geometry.LatLon
}

type ParcelDTO struct {
	ParcelID    string            `json:"parcel_id"`
	Owner       string            `json:"owner"`
	Region      string            `json:"region"`
	MetadataRef string            `json:"metadata_ref"`
	Boundary    []geometry.LatLon `json:"boundary"`
	BoundaryWKT string            `json:"boundary_wkt"`
	AreaSqm     float64           `json:"area_sqm"`
	Centroid    geometry.LatLon   `json:"centroid"`
	CreatedAt   time.Time         `json:"created_at"`
}
