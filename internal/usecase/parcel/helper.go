package parcel

import (
	"errors"

	"github.com/twpayne/go-geom"

	domain "landq-backend/internal/domain/parcel"
	"landq-backend/internal/geometry"
	"landq-backend/pkg/apperr"
)

func toDTO(p *domain.Parcel, poly *geom.Polygon) *ParcelDTO {
	// a validated single-ring polygon always encodes
	wkt, _ := geometry.WKT(poly)
	return &ParcelDTO{
		ParcelID:    p.ParcelID,
		Owner:       p.Owner,
		Region:      p.Region,
		MetadataRef: p.MetadataRef,
		Boundary:    geometry.Points(poly),
		BoundaryWKT: wkt,
		AreaSqm:     p.AreaSqm,
		Centroid:    geometry.LatLon{Lat: p.CentroidLat, Lon: p.CentroidLon},
		CreatedAt:   p.CreatedAt,
	}
}

func decode(p *domain.Parcel) (*ParcelDTO, error) {
	poly, err := p.Polygon()
	if err != nil {
		return nil, err
	}
	return toDTO(p, poly), nil
}

// errIs is errors.Is that also hands back the matching coded error.
func errIs(err error, target *apperr.Error) (*apperr.Error, bool) {
	if !errors.Is(err, target) {
		return nil, false
	}
	e, _ := apperr.As(err)
	return e, true
}
