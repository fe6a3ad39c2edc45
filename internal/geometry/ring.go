package geometry

import (
	"math"
	"sort"

	"github.com/twpayne/go-geom"
)

// eps absorbs float noise in orientation tests on degree coordinates.
const eps = 1e-12

// ring is an open sequence of vertices; the last connects back to the first.
type ring []geom.Coord

type location int

const (
	outside location = iota
	onBoundary
	inside
)

func samePoint(a, b geom.Coord) bool {
	return math.Abs(a[0]-b[0]) <= eps && math.Abs(a[1]-b[1]) <= eps
}

func cross(o, a, b geom.Coord) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func orient(o, a, b geom.Coord) int {
	switch v := cross(o, a, b); {
	case v > eps:
		return 1
	case v < -eps:
		return -1
	default:
		return 0
	}
}

// onSegment reports whether p lies on the closed segment ab.
func onSegment(p, a, b geom.Coord) bool {
	if orient(a, b, p) != 0 {
		return false
	}
	return p[0] >= math.Min(a[0], b[0])-eps && p[0] <= math.Max(a[0], b[0])+eps &&
		p[1] >= math.Min(a[1], b[1])-eps && p[1] <= math.Max(a[1], b[1])+eps
}

// properCross reports whether ab and cd cross at a single point interior to both.
func properCross(a, b, c, d geom.Coord) bool {
	o1, o2 := orient(a, b, c), orient(a, b, d)
	o3, o4 := orient(c, d, a), orient(c, d, b)
	return o1*o2 < 0 && o3*o4 < 0
}

// touches reports whether the closed segments ab and cd share any point.
func touches(a, b, c, d geom.Coord) bool {
	if properCross(a, b, c, d) {
		return true
	}
	return onSegment(c, a, b) || onSegment(d, a, b) || onSegment(a, c, d) || onSegment(b, c, d)
}

func (r ring) edge(i int) (geom.Coord, geom.Coord) {
	return r[i], r[(i+1)%len(r)]
}

func (r ring) signedArea() float64 {
	var sum float64
	for i := range r {
		a, b := r.edge(i)
		sum += a[0]*b[1] - b[0]*a[1]
	}
	return sum / 2
}

// simple reports whether no two edges meet other than consecutive edges at
// their shared vertex.
func (r ring) simple() bool {
	n := len(r)
	for i := 0; i < n; i++ {
		a, b := r.edge(i)
		// consecutive edge folding back over this one
		c := r[(i+2)%n]
		if orient(a, b, c) == 0 && (a[0]-b[0])*(c[0]-b[0])+(a[1]-b[1])*(c[1]-b[1]) > 0 {
			return false
		}
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			c, d := r.edge(j)
			if touches(a, b, c, d) {
				return false
			}
		}
	}
	return true
}

// locate classifies p against the polygon bounded by r.
func (r ring) locate(p geom.Coord) location {
	in := false
	for i := range r {
		a, b := r.edge(i)
		if onSegment(p, a, b) {
			return onBoundary
		}
		if (a[1] > p[1]) != (b[1] > p[1]) {
			x := a[0] + (p[1]-a[1])*(b[0]-a[0])/(b[1]-a[1])
			if p[0] < x {
				in = !in
			}
		}
	}
	if in {
		return inside
	}
	return outside
}

// interiorPoint returns a point strictly inside the polygon bounded by r. It
// scans a horizontal line placed between two vertex latitudes, so the line
// meets no vertex and its first two crossings bound an interior span.
func (r ring) interiorPoint() (geom.Coord, bool) {
	ys := make([]float64, 0, len(r))
	for _, c := range r {
		ys = append(ys, c[1])
	}
	sort.Float64s(ys)
	var y, gap float64
	for i := 1; i < len(ys); i++ {
		if d := ys[i] - ys[i-1]; d > gap {
			gap, y = d, (ys[i]+ys[i-1])/2
		}
	}
	if gap <= eps {
		return nil, false
	}
	var xs []float64
	for i := range r {
		a, b := r.edge(i)
		if (a[1] > y) != (b[1] > y) {
			xs = append(xs, a[0]+(y-a[1])*(b[0]-a[0])/(b[1]-a[1]))
		}
	}
	if len(xs) < 2 {
		return nil, false
	}
	sort.Float64s(xs)
	return geom.Coord{(xs[0] + xs[1]) / 2, y}, true
}

// pieces splits every edge of r at the vertices of other that lie on it and
// calls fn with each sub-segment's endpoints and midpoint. fn returning true
// stops the walk.
func (r ring) pieces(other ring, fn func(a, b, mid geom.Coord) bool) bool {
	for i := range r {
		a, b := r.edge(i)
		ts := []float64{0, 1}
		dx, dy := b[0]-a[0], b[1]-a[1]
		length := dx*dx + dy*dy
		for _, v := range other {
			if !onSegment(v, a, b) {
				continue
			}
			t := ((v[0]-a[0])*dx + (v[1]-a[1])*dy) / length
			if t > 0 && t < 1 {
				ts = append(ts, t)
			}
		}
		sort.Float64s(ts)
		for k := 1; k < len(ts); k++ {
			if ts[k]-ts[k-1] <= eps {
				continue
			}
			p := geom.Coord{a[0] + ts[k-1]*dx, a[1] + ts[k-1]*dy}
			q := geom.Coord{a[0] + ts[k]*dx, a[1] + ts[k]*dy}
			mid := geom.Coord{(p[0] + q[0]) / 2, (p[1] + q[1]) / 2}
			if fn(p, q, mid) {
				return true
			}
		}
	}
	return false
}
