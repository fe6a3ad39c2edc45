package geometry

import (
	"github.com/twpayne/go-geom"
)

// Overlaps reports whether the interiors of a and b share any area. Parcels
// that only touch along an edge or at a corner do not overlap; containment and
// equality do. The predicate is symmetric.
func Overlaps(a, b *geom.Polygon) bool {
	ra, rb := outerRing(a), outerRing(b)
	if len(ra) < 3 || len(rb) < 3 {
		return false
	}
	if !a.Bounds().Overlaps(geom.XY, b.Bounds()) {
		return false
	}
	for i := range ra {
		p, q := ra.edge(i)
		for j := range rb {
			s, t := rb.edge(j)
			if properCross(p, q, s, t) {
				return true
			}
		}
	}
	// Without proper crossings the boundaries meet only at vertices or along
	// shared stretches, so each boundary piece is wholly inside, on, or
	// outside the other polygon.
	if enters(ra, rb) || enters(rb, ra) {
		return true
	}
	// Remaining cases are disjoint interiors or identical boundaries.
	if ip, ok := ra.interiorPoint(); ok && rb.locate(ip) == inside {
		return true
	}
	if ip, ok := rb.interiorPoint(); ok && ra.locate(ip) == inside {
		return true
	}
	return false
}

// Equals reports whether a and b cover the same point set, regardless of
// starting vertex, winding or collinear intermediate vertices.
func Equals(a, b *geom.Polygon) bool {
	ra, rb := outerRing(a), outerRing(b)
	if len(ra) < 3 || len(rb) < 3 {
		return false
	}
	if !sameBounds(a.Bounds(), b.Bounds()) {
		return false
	}
	return within(ra, rb) && within(rb, ra)
}

// enters reports whether some part of r's boundary lies strictly inside other.
func enters(r, other ring) bool {
	for _, v := range r {
		if other.locate(v) == inside {
			return true
		}
	}
	return r.pieces(other, func(_, _, mid geom.Coord) bool {
		return other.locate(mid) == inside
	})
}

// within reports whether every point of r's boundary lies on other's boundary.
func within(r, other ring) bool {
	for _, v := range r {
		if other.locate(v) != onBoundary {
			return false
		}
	}
	return !r.pieces(other, func(_, _, mid geom.Coord) bool {
		return other.locate(mid) != onBoundary
	})
}

func sameBounds(a, b *geom.Bounds) bool {
	for dim := 0; dim < 2; dim++ {
		if !closeTo(a.Min(dim), b.Min(dim)) || !closeTo(a.Max(dim), b.Max(dim)) {
			return false
		}
	}
	return true
}

func closeTo(x, y float64) bool {
	d := x - y
	return d <= eps && d >= -eps
}
