// Package geometry holds the polygon predicates used for parcel conflict
// detection. Polygons are *geom.Polygon values in the XY layout with
// X = longitude and Y = latitude, matching GeoJSON axis order.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
)

// MinPoints is the fewest distinct vertices a boundary may have. A repeated
// closing point does not count.
const MinPoints = 4

var (
	ErrTooFewPoints     = fmt.Errorf("boundary needs at least %d points", MinPoints)
	ErrCoordinateRange  = errors.New("coordinate out of range")
	ErrDegenerate       = errors.New("boundary encloses no area")
	ErrSelfIntersecting = errors.New("boundary is self-intersecting")
	ErrNotPolygon       = errors.New("geometry is not a polygon")
	ErrHoles            = errors.New("polygon must have exactly one ring")
)

// LatLon is one boundary vertex as submitted by a caller.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewPolygon validates a submitted boundary and builds its polygon. The ring
// is closed implicitly; a repeated closing point is accepted and dropped.
func NewPolygon(points []LatLon) (*geom.Polygon, error) {
	r, err := validate(points)
	if err != nil {
		return nil, err
	}
	closed := make([]geom.Coord, 0, len(r)+1)
	closed = append(closed, r...)
	closed = append(closed, r[0])
	return geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{closed})
}

// Validate reports why points cannot form a parcel boundary, or nil.
func Validate(points []LatLon) error {
	_, err := validate(points)
	return err
}

// Points returns the outer ring of p as open (lat, lon) vertices.
func Points(p *geom.Polygon) []LatLon {
	r := outerRing(p)
	out := make([]LatLon, len(r))
	for i, c := range r {
		out[i] = LatLon{Lat: c[1], Lon: c[0]}
	}
	return out
}

func validate(points []LatLon) (ring, error) {
	if len(points) < MinPoints {
		return nil, ErrTooFewPoints
	}
	r := make(ring, 0, len(points))
	for _, pt := range points {
		if !finite(pt.Lat) || !finite(pt.Lon) || math.Abs(pt.Lat) > 90 || math.Abs(pt.Lon) > 180 {
			return nil, fmt.Errorf("%w: (%v, %v)", ErrCoordinateRange, pt.Lat, pt.Lon)
		}
		c := geom.Coord{pt.Lon, pt.Lat}
		if len(r) > 0 && samePoint(r[len(r)-1], c) {
			continue
		}
		r = append(r, c)
	}
	for len(r) > 1 && samePoint(r[0], r[len(r)-1]) {
		r = r[:len(r)-1]
	}
	if len(r) < MinPoints {
		return nil, ErrTooFewPoints
	}
	if len(r) < 3 || math.Abs(r.signedArea()) <= eps {
		return nil, ErrDegenerate
	}
	if !r.simple() {
		return nil, ErrSelfIntersecting
	}
	return r, nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// outerRing returns the shell of p without its closing vertex.
func outerRing(p *geom.Polygon) ring {
	if p == nil || p.NumLinearRings() == 0 {
		return nil
	}
	coords := p.LinearRing(0).Coords()
	r := make(ring, 0, len(coords))
	for _, c := range coords {
		r = append(r, geom.Coord{c[0], c[1]})
	}
	if len(r) > 1 && samePoint(r[0], r[len(r)-1]) {
		r = r[:len(r)-1]
	}
	return r
}
