package geometry

import (
	"math"

	"github.com/twpayne/go-geom"
)

const earthRadiusM = 6371e3

// Area returns the approximate surface area of p in square metres, using an
// equirectangular projection centred on the polygon. Good to well under a
// percent for parcel-sized shapes away from the poles.
func Area(p *geom.Polygon) float64 {
	r := outerRing(p)
	if len(r) < 3 {
		return 0
	}
	c := Centroid(p)
	kx := earthRadiusM * math.Pi / 180 * math.Cos(c.Lat*math.Pi/180)
	ky := earthRadiusM * math.Pi / 180
	var sum float64
	for i := range r {
		a, b := r.edge(i)
		sum += (a[0]*kx)*(b[1]*ky) - (b[0]*kx)*(a[1]*ky)
	}
	return math.Abs(sum) / 2
}

// Centroid returns the area-weighted centroid of p.
func Centroid(p *geom.Polygon) LatLon {
	r := outerRing(p)
	if len(r) == 0 {
		return LatLon{}
	}
	a := r.signedArea()
	if math.Abs(a) <= eps {
		return vertexMean(r)
	}
	// shift to the first vertex to keep the products small
	o := r[0]
	var cx, cy float64
	for i := range r {
		s, t := r.edge(i)
		x0, y0 := s[0]-o[0], s[1]-o[1]
		x1, y1 := t[0]-o[0], t[1]-o[1]
		f := x0*y1 - x1*y0
		cx += (x0 + x1) * f
		cy += (y0 + y1) * f
	}
	return LatLon{Lat: o[1] + cy/(6*a), Lon: o[0] + cx/(6*a)}
}

func vertexMean(r ring) LatLon {
	var lat, lon float64
	for _, c := range r {
		lon += c[0]
		lat += c[1]
	}
	n := float64(len(r))
	return LatLon{Lat: lat / n, Lon: lon / n}
}

// Bounds is the lat/lon envelope of a polygon.
type Bounds struct {
	MinLat, MaxLat, MinLon, MaxLon float64
}

func Envelope(p *geom.Polygon) Bounds {
	b := p.Bounds()
	return Bounds{MinLon: b.Min(0), MaxLon: b.Max(0), MinLat: b.Min(1), MaxLat: b.Max(1)}
}
