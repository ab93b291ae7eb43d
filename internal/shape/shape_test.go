package shape

import (
	"math"
	"testing"

	"github.com/anreonyr/simphy/internal/geom"
)

func TestHullKinds(t *testing.T) {
	size := geom.V2(50, 50)
	cases := []struct {
		shape    Shape
		kind     HullKind
		vertices int
	}{
		{Rectangle, HullBox, 0},
		{Circle, HullCircle, 0},
		{Triangle, HullPolygon, 3},
		{Pentagon, HullPolygon, 5},
		{Hexagon, HullPolygon, 6},
		{Diamond, HullPolygon, 4},
		{Star, HullPolygon, 5},
		{Cross, HullPolygon, 8},
	}
	for _, tc := range cases {
		h := tc.shape.Hull(size)
		if h.Kind != tc.kind {
			t.Errorf("%s: kind = %d, want %d", tc.shape, h.Kind, tc.kind)
		}
		if tc.kind == HullPolygon && len(h.Vertices) != tc.vertices {
			t.Errorf("%s: %d hull vertices, want %d", tc.shape, len(h.Vertices), tc.vertices)
		}
		if h.Degenerate() {
			t.Errorf("%s: hull is degenerate", tc.shape)
		}
	}
}

func TestCircleRadiusUsesLargerSide(t *testing.T) {
	h := Circle.Hull(geom.V2(20, 60))
	if h.Radius != 30 {
		t.Fatalf("radius = %v, want 30", h.Radius)
	}
}

func TestRegularPolygonStartsUp(t *testing.T) {
	pts := RegularPolygon(4, 10)
	if len(pts) != 4 {
		t.Fatalf("got %d points", len(pts))
	}
	if math.Abs(pts[0].X) > 1e-9 || math.Abs(pts[0].Y+10) > 1e-9 {
		t.Fatalf("first vertex = %+v, want (0,-10)", pts[0])
	}
	if RegularPolygon(2, 10) != nil {
		t.Fatalf("two sides should yield nil")
	}
	if StarVertices(3, 10, 5) != nil {
		t.Fatalf("three star points should yield nil")
	}
}

func TestConvexHullIsCounterClockwise(t *testing.T) {
	pts := []geom.Vec2{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 0, Y: 2}, {X: 1, Y: 0}}
	hull := ConvexHull(pts)
	if len(hull) != 4 {
		t.Fatalf("hull = %+v, want 4 corners", hull)
	}
	var area float64
	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		area += a.X*b.Y - b.X*a.Y
	}
	if area <= 0 {
		t.Fatalf("hull winding is clockwise: %+v", hull)
	}

	if ConvexHull([]geom.Vec2{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}) != nil {
		t.Fatalf("collinear points should yield nil")
	}
}

func TestOutlineAndExtent(t *testing.T) {
	box := Rectangle.Hull(geom.V2(6, 8))
	if got := box.Extent(); got != 5 {
		t.Fatalf("box extent = %v, want 5", got)
	}
	if n := len(box.Outline()); n != 4 {
		t.Fatalf("box outline has %d points", n)
	}
	if n := len(Circle.Hull(geom.V2(10, 10)).Outline()); n != circleSegments {
		t.Fatalf("circle outline has %d points", n)
	}
	if (Rectangle.Hull(geom.V2(0, 10))).Degenerate() != true {
		t.Fatalf("zero width box should be degenerate")
	}
}

func TestParse(t *testing.T) {
	for _, s := range All() {
		got, err := Parse(s.DisplayName())
		if err != nil || got != s {
			t.Errorf("Parse(%q) = %v, %v", s.DisplayName(), got, err)
		}
	}
	if _, err := Parse("heptagon"); err == nil {
		t.Fatalf("expected error for unknown shape")
	}
	if got, _ := Parse(" circle "); got != Circle {
		t.Fatalf("case-insensitive parse failed: %v", got)
	}
}

func TestGenerators(t *testing.T) {
	if n := len(CircleVertices(1, 8)); n != 9 {
		t.Fatalf("circle has %d points, want 9", n)
	}
	line := LineVertices(geom.V2(0, 0), geom.V2(10, 0), 5)
	if len(line) != 6 || line[5] != geom.V2(10, 0) {
		t.Fatalf("line = %+v", line)
	}
	if ends := LineVertices(geom.V2(1, 2), geom.V2(3, 4), 0); len(ends) != 2 || ends[0] != geom.V2(1, 2) || ends[1] != geom.V2(3, 4) {
		t.Fatalf("zero segments = %+v, want both endpoints", ends)
	}
	rr := RoundedRectVertices(10, 10, 100, 4)
	for _, p := range rr {
		if math.Abs(p.X) > 5+1e-9 || math.Abs(p.Y) > 5+1e-9 {
			t.Fatalf("rounded rect point %+v outside bounds", p)
		}
	}
}
