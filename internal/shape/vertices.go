package shape

import (
	"math"
	"sort"

	"github.com/anreonyr/simphy/internal/geom"
)

// ArcVertices returns segments+1 points on an arc from start to end
// (radians). Used for polyline colliders.
func ArcVertices(radius, start, end float64, segments int) []geom.Vec2 {
	if segments <= 0 {
		return nil
	}
	step := (end - start) / float64(segments)
	out := make([]geom.Vec2, 0, segments+1)
	for i := 0; i <= segments; i++ {
		a := start + step*float64(i)
		out = append(out, geom.V2(math.Cos(a)*radius, math.Sin(a)*radius))
	}
	return out
}

// CircleVertices returns a closed circle: the last point repeats the first.
func CircleVertices(radius float64, segments int) []geom.Vec2 {
	return ArcVertices(radius, 0, 2*math.Pi, segments)
}

// EllipseVertices returns segments points around an ellipse without
// repeating the first point.
func EllipseVertices(rx, ry float64, segments int) []geom.Vec2 {
	if segments <= 0 {
		return nil
	}
	step := 2 * math.Pi / float64(segments)
	out := make([]geom.Vec2, segments)
	for i := range out {
		a := step * float64(i)
		out[i] = geom.V2(math.Cos(a)*rx, math.Sin(a)*ry)
	}
	return out
}

// RectangleVertices returns the four corners of a centered rectangle.
func RectangleVertices(w, h float64) []geom.Vec2 {
	hw, hh := w/2, h/2
	return []geom.Vec2{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh}}
}

// RoundedRectVertices returns a centered rectangle whose corners are
// replaced by arcs of cornerSegments steps. The corner radius is clamped to
// the half size; no corner segments gives the plain rectangle.
func RoundedRectVertices(w, h, cornerRadius float64, cornerSegments int) []geom.Vec2 {
	if cornerSegments <= 0 {
		return RectangleVertices(w, h)
	}
	hw, hh := w/2, h/2
	r := math.Min(cornerRadius, math.Min(hw, hh))
	iw, ih := hw-r, hh-r

	centers := []geom.Vec2{{X: iw, Y: ih}, {X: -iw, Y: ih}, {X: -iw, Y: -ih}, {X: iw, Y: -ih}}
	out := make([]geom.Vec2, 0, 4*cornerSegments+1)
	for c, center := range centers {
		start := float64(c) * math.Pi / 2
		first := 1
		if c == 0 {
			first = 0
		}
		for i := first; i <= cornerSegments; i++ {
			a := start + (math.Pi/2)*float64(i)/float64(cornerSegments)
			out = append(out, geom.V2(center.X+math.Cos(a)*r, center.Y+math.Sin(a)*r))
		}
	}
	return out
}

// RegularPolygon returns sides vertices on a circle of the given radius,
// starting straight up. Fewer than three sides yields nil.
func RegularPolygon(sides int, radius float64) []geom.Vec2 {
	if sides < 3 {
		return nil
	}
	step := 2 * math.Pi / float64(sides)
	start := -math.Pi / 2
	out := make([]geom.Vec2, sides)
	for i := range out {
		a := start + step*float64(i)
		out[i] = geom.V2(math.Cos(a)*radius, math.Sin(a)*radius)
	}
	return out
}

// StarVertices alternates outer and inner radius over points vertices, so
// a star has points/2 tips. Fewer than four points yields nil.
func StarVertices(points int, outer, inner float64) []geom.Vec2 {
	if points < 4 {
		return nil
	}
	step := 2 * math.Pi / float64(points)
	start := -math.Pi / 2
	out := make([]geom.Vec2, points)
	for i := range out {
		a := start + step*float64(i)
		r := outer
		if i%2 == 1 {
			r = inner
		}
		out[i] = geom.V2(math.Cos(a)*r, math.Sin(a)*r)
	}
	return out
}

// LineVertices interpolates segments steps from a to b. With no segments
// the line is just its two endpoints.
func LineVertices(a, b geom.Vec2, segments int) []geom.Vec2 {
	if segments <= 0 {
		return []geom.Vec2{a, b}
	}
	step := b.Sub(a).Scale(1 / float64(segments))
	out := make([]geom.Vec2, segments+1)
	for i := range out {
		out[i] = a.Add(step.Scale(float64(i)))
	}
	return out
}

// CrossVertices returns the twelve-point outline of a plus sign whose bar
// thickness is a quarter of the smaller side.
func CrossVertices(w, h float64) []geom.Vec2 {
	hw, hh := w/2, h/2
	ht := math.Min(w, h) / 8
	return []geom.Vec2{
		{X: -hw, Y: -ht}, {X: -ht, Y: -ht}, {X: -ht, Y: -hh}, {X: ht, Y: -hh},
		{X: ht, Y: -ht}, {X: hw, Y: -ht}, {X: hw, Y: ht}, {X: ht, Y: ht},
		{X: ht, Y: hh}, {X: -ht, Y: hh}, {X: -ht, Y: ht}, {X: -hw, Y: ht},
	}
}

// ConvexHull returns the counter-clockwise convex hull of points using the
// monotone chain algorithm. Collinear points are dropped; fewer than three
// non-collinear points yields nil.
func ConvexHull(points []geom.Vec2) []geom.Vec2 {
	pts := make([]geom.Vec2, 0, len(points))
	for _, p := range points {
		if p.IsFinite() {
			pts = append(pts, p)
		}
	}
	if len(pts) < 3 {
		return nil
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	cross := func(o, a, b geom.Vec2) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]geom.Vec2, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	hull = hull[:len(hull)-1]
	if len(hull) < 3 {
		return nil
	}
	return hull
}
