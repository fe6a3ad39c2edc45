package geometry

import (
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// MarshalGeoJSON encodes p as a GeoJSON Polygon geometry.
func MarshalGeoJSON(p *geom.Polygon) ([]byte, error) {
	return geojson.Marshal(p)
}

// UnmarshalGeoJSON decodes a GeoJSON Polygon geometry. Only a single shell is
// accepted; a parcel with holes cannot be represented as a boundary.
func UnmarshalGeoJSON(data []byte) (*geom.Polygon, error) {
	var g geom.T
	if err := geojson.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	p, ok := g.(*geom.Polygon)
	if !ok {
		return nil, ErrNotPolygon
	}
	if p.NumLinearRings() != 1 {
		return nil, ErrHoles
	}
	return p, nil
}

// WKT renders p as Well-Known Text, e.g. "POLYGON ((0 0, 1 0, ...))".
func WKT(p *geom.Polygon) (string, error) {
	return wkt.Marshal(p)
}
