package shape

import (
	"fmt"
	"strings"

	"github.com/anreonyr/simphy/internal/geom"
)

// Shape is the logical shape of a placed entity.
type Shape int

const (
	Rectangle Shape = iota
	Circle
	Triangle
	Pentagon
	Hexagon
	Star
	Diamond
	Cross
)

var names = [...]string{
	Rectangle: "Rectangle",
	Circle:    "Circle",
	Triangle:  "Triangle",
	Pentagon:  "Pentagon",
	Hexagon:   "Hexagon",
	Star:      "Star",
	Diamond:   "Diamond",
	Cross:     "Cross",
}

// All returns every shape in declaration order.
func All() []Shape {
	return []Shape{Rectangle, Circle, Triangle, Pentagon, Hexagon, Star, Diamond, Cross}
}

// DisplayName is the name used for auto-generated entity names.
func (s Shape) DisplayName() string {
	if s < 0 || int(s) >= len(names) {
		return "Unknown"
	}
	return names[s]
}

func (s Shape) String() string { return s.DisplayName() }

// Valid reports whether s is one of the declared shapes.
func (s Shape) Valid() bool { return s >= 0 && int(s) < len(names) }

// Parse resolves a shape from its name, case-insensitively.
func Parse(name string) (Shape, error) {
	for i, n := range names {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Shape(i), nil
		}
	}
	return Rectangle, fmt.Errorf("unknown shape %q", name)
}

func (s Shape) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid shape %d", int(s))
	}
	return []byte(s.DisplayName()), nil
}

func (s *Shape) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// HullKind selects the collider primitive a hull maps to.
type HullKind int

const (
	HullBox HullKind = iota
	HullCircle
	HullPolygon
)

// Hull is the collidable outline of a shape in local space, centered on the
// origin.
type Hull struct {
	Kind        HullKind
	HalfExtents geom.Vec2   // HullBox
	Radius      float64     // HullCircle
	Vertices    []geom.Vec2 // HullPolygon, counter-clockwise convex
}

const (
	starPoints     = 10
	circleSegments = 32
)

// Hull maps the shape to its collider for the given bounding size.
func (s Shape) Hull(size geom.Vec2) Hull {
	half := size.Scale(0.5)
	radius := max(half.X, half.Y)

	switch s {
	case Rectangle:
		return Hull{Kind: HullBox, HalfExtents: half}
	case Circle:
		return Hull{Kind: HullCircle, Radius: radius}
	case Triangle:
		return polygon(RegularPolygon(3, radius))
	case Pentagon:
		return polygon(RegularPolygon(5, radius))
	case Hexagon:
		return polygon(RegularPolygon(6, radius))
	case Star:
		return polygon(StarVertices(starPoints, radius, radius/2))
	case Diamond:
		return polygon(RegularPolygon(4, radius))
	case Cross:
		return polygon(CrossVertices(size.X, size.Y))
	default:
		return Hull{Kind: HullBox, HalfExtents: half}
	}
}

func polygon(points []geom.Vec2) Hull {
	return Hull{Kind: HullPolygon, Vertices: ConvexHull(points)}
}

// Degenerate reports whether the hull has no usable area.
func (h Hull) Degenerate() bool {
	switch h.Kind {
	case HullBox:
		return h.HalfExtents.X <= 0 || h.HalfExtents.Y <= 0
	case HullCircle:
		return h.Radius <= 0
	default:
		return len(h.Vertices) < 3
	}
}

// Outline returns local-space vertices for any hull kind.
func (h Hull) Outline() []geom.Vec2 {
	switch h.Kind {
	case HullBox:
		return RectangleVertices(h.HalfExtents.X*2, h.HalfExtents.Y*2)
	case HullCircle:
		return EllipseVertices(h.Radius, h.Radius, circleSegments)
	default:
		out := make([]geom.Vec2, len(h.Vertices))
		copy(out, h.Vertices)
		return out
	}
}

// Extent returns the distance from the origin to the farthest hull point.
func (h Hull) Extent() float64 {
	switch h.Kind {
	case HullBox:
		return h.HalfExtents.Length()
	case HullCircle:
		return h.Radius
	}
	var r float64
	for _, v := range h.Vertices {
		r = max(r, v.Length())
	}
	return r
}
