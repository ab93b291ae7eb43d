package physics

import (
	"fmt"
	"sort"

	"github.com/jakecoffman/cp"

	"github.com/anreonyr/simphy/internal/geom"
	"github.com/anreonyr/simphy/internal/shape"
)

type entry struct {
	body   *cp.Body
	shape  *cp.Shape
	kind   BodyKind
	sensor bool
}

// World wraps a Chipmunk space keyed by entity id. It is not safe for
// concurrent use; the owner serializes access.
type World struct {
	space  *cp.Space
	bodies map[string]*entry
}

func NewWorld(gravity geom.Vec2) *World {
	space := cp.NewSpace()
	space.SetGravity(vec(gravity))
	return &World{space: space, bodies: make(map[string]*entry)}
}

// Add creates the body for id. An existing body with the same id is
// replaced.
func (w *World) Add(id string, spec BodySpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("add body %s: %w", id, err)
	}
	w.Remove(id)

	kind := spec.Kind
	if spec.Sensor {
		// Regions never move under forces.
		kind = Static
	}

	var body *cp.Body
	switch kind {
	case Static:
		body = cp.NewStaticBody()
	case Kinematic:
		body = cp.NewKinematicBody()
	default:
		body = cp.NewBody(spec.Mass, moment(spec.Mass, spec.Hull))
	}
	body.UserData = id
	body.SetPosition(vec(spec.Position))
	body.SetAngle(spec.Angle)
	if kind != Static {
		body.SetVelocity(spec.Velocity.X, spec.Velocity.Y)
	}

	s := newShape(body, spec.Hull)
	s.UserData = id
	s.SetSensor(spec.Sensor)
	s.SetFriction(spec.Friction)

	w.space.AddBody(body)
	w.space.AddShape(s)

	w.bodies[id] = &entry{body: body, shape: s, kind: kind, sensor: spec.Sensor}
	return nil
}

func newShape(body *cp.Body, h shape.Hull) *cp.Shape {
	switch h.Kind {
	case shape.HullBox:
		return cp.NewBox(body, h.HalfExtents.X*2, h.HalfExtents.Y*2, 0)
	case shape.HullCircle:
		return cp.NewCircle(body, h.Radius, cp.Vector{})
	default:
		verts := vecs(h.Vertices)
		return cp.NewPolyShape(body, len(verts), verts, cp.NewTransformIdentity(), 0)
	}
}

func moment(mass float64, h shape.Hull) float64 {
	switch h.Kind {
	case shape.HullBox:
		return cp.MomentForBox(mass, h.HalfExtents.X*2, h.HalfExtents.Y*2)
	case shape.HullCircle:
		return cp.MomentForCircle(mass, 0, h.Radius, cp.Vector{})
	default:
		verts := vecs(h.Vertices)
		return cp.MomentForPoly(mass, len(verts), verts, cp.Vector{}, 0)
	}
}

func (w *World) Remove(id string) {
	e, ok := w.bodies[id]
	if !ok {
		return
	}
	w.space.RemoveShape(e.shape)
	w.space.RemoveBody(e.body)
	delete(w.bodies, id)
}

func (w *World) Clear() {
	for id := range w.bodies {
		w.Remove(id)
	}
}

func (w *World) Has(id string) bool {
	_, ok := w.bodies[id]
	return ok
}

func (w *World) Len() int { return len(w.bodies) }

func (w *World) Position(id string) (geom.Vec2, bool) {
	e, ok := w.bodies[id]
	if !ok {
		return geom.Vec2{}, false
	}
	return fromVec(e.body.Position()), true
}

func (w *World) SetPosition(id string, p geom.Vec2) {
	e, ok := w.bodies[id]
	if !ok {
		return
	}
	e.body.SetPosition(vec(p))
	w.reindex(e)
}

func (w *World) Angle(id string) (float64, bool) {
	e, ok := w.bodies[id]
	if !ok {
		return 0, false
	}
	return e.body.Angle(), true
}

func (w *World) SetAngle(id string, a float64) {
	e, ok := w.bodies[id]
	if !ok {
		return
	}
	e.body.SetAngle(a)
	w.reindex(e)
}

// reindex refreshes the shape's bounding box in the spatial index after a
// teleport. Without it overlap queries see the old position until the
// next step, and static shapes never move in the index at all.
func (w *World) reindex(e *entry) {
	w.space.RemoveShape(e.shape)
	w.space.AddShape(e.shape)
}

func (w *World) Velocity(id string) (geom.Vec2, bool) {
	e, ok := w.bodies[id]
	if !ok || e.kind == Static {
		return geom.Vec2{}, ok
	}
	return fromVec(e.body.Velocity()), true
}

func (w *World) SetVelocity(id string, v geom.Vec2) {
	e, ok := w.bodies[id]
	if !ok || e.kind == Static {
		return
	}
	e.body.SetVelocity(v.X, v.Y)
}

// ApplyForce adds f to the body's accumulated force for the next step.
// Only dynamic bodies respond to forces.
func (w *World) ApplyForce(id string, f geom.Vec2) {
	e, ok := w.bodies[id]
	if !ok || e.kind != Dynamic {
		return
	}
	e.body.SetForce(e.body.Force().Add(vec(f)))
}

// Force returns the force accumulated since the last step.
func (w *World) Force(id string) geom.Vec2 {
	e, ok := w.bodies[id]
	if !ok {
		return geom.Vec2{}
	}
	return fromVec(e.body.Force())
}

// Overlapping returns the ids of non-sensor bodies whose shapes touch the
// shape of id, sorted.
func (w *World) Overlapping(id string) []string {
	e, ok := w.bodies[id]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	w.space.ShapeQuery(e.shape, func(s *cp.Shape, _ *cp.ContactPointSet) {
		if s == e.shape || s.Sensor() {
			return
		}
		other, ok := s.Body().UserData.(string)
		if !ok || other == id {
			return
		}
		seen[other] = struct{}{}
	})
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for other := range seen {
		out = append(out, other)
	}
	sort.Strings(out)
	return out
}

// Step advances the simulation. Accumulated forces are consumed.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}
	w.space.Step(dt)
}

func vec(v geom.Vec2) cp.Vector { return cp.Vector{X: v.X, Y: v.Y} }

func fromVec(v cp.Vector) geom.Vec2 { return geom.Vec2{X: v.X, Y: v.Y} }

func vecs(in []geom.Vec2) []cp.Vector {
	out := make([]cp.Vector, len(in))
	for i, v := range in {
		out[i] = vec(v)
	}
	return out
}
