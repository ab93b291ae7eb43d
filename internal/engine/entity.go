package engine

import (
	"fmt"

	"github.com/anreonyr/simphy/internal/field"
	"github.com/anreonyr/simphy/internal/geom"
	"github.com/anreonyr/simphy/internal/physics"
	"github.com/anreonyr/simphy/internal/shape"
)

// Transform is an entity's placement in the world. The editor works in the
// z=0 plane but keeps z so scenes round-trip unchanged.
type Transform struct {
	Translation geom.Vec3 `json:"translation"`
	Rotation    float64   `json:"rotation"`
	Scale       geom.Vec3 `json:"scale"`
}

// At returns an unrotated, unscaled transform at p.
func At(p geom.Vec2) Transform {
	return Transform{Translation: p.Extend(0), Scale: geom.V3(1, 1, 1)}
}

func (t Transform) Position() geom.Vec2 { return t.Translation.XY() }

func (t *Transform) SetPosition(p geom.Vec2) {
	t.Translation.X = p.X
	t.Translation.Y = p.Y
}

// Matrix is the 2D affine matrix of the transform.
func (t Transform) Matrix() geom.Matrix2D {
	return geom.FromTransform(t.Position(), t.Rotation, t.Scale.XY())
}

// Friction coefficients. The physics engine uses the dynamic coefficient.
type Friction struct {
	Dynamic float64 `json:"dynamic"`
	Static  float64 `json:"static"`
}

// Initial is the state an entity returns to when the simulation is reset.
type Initial struct {
	Transform Transform
	Velocity  geom.Vec2
}

// Body is either a Particle or a FieldRegion.
type Body interface {
	isBody()
}

// Particle is a mass-bearing rigid body that may carry a charge.
type Particle struct {
	Kind          physics.BodyKind
	Mass          float64
	Charge        *float64
	Velocity0     geom.Vec2
	ConstantForce geom.Vec2
}

// FieldRegion is a static sensor that pushes overlapping charged particles.
type FieldRegion struct {
	Kind  field.Kind
	Field field.Field
}

func (*Particle) isBody()    {}
func (*FieldRegion) isBody() {}

// Entity is a placed simulation object.
type Entity struct {
	ID        string
	Name      string
	Shape     shape.Shape
	Size      geom.Vec2
	Transform Transform
	Friction  Friction
	Body      Body
	Initial   Initial
}

func newParticle(id, name string, s shape.Shape, size geom.Vec2, t Transform, fr Friction, p Particle) (*Entity, error) {
	if !(p.Mass > 0) {
		return nil, fmt.Errorf("particle %q: mass must be positive, got %v", name, p.Mass)
	}
	if !p.Velocity0.IsFinite() || !p.ConstantForce.IsFinite() {
		return nil, fmt.Errorf("particle %q: non-finite velocity or force", name)
	}
	if p.Charge != nil {
		q := *p.Charge
		p.Charge = &q
	}
	e := &Entity{
		ID:        id,
		Name:      name,
		Shape:     s,
		Size:      size,
		Transform: t,
		Friction:  fr,
		Body:      &p,
	}
	e.Initial = Initial{Transform: t, Velocity: p.Velocity0}
	return e, nil
}

func newFieldRegion(id, name string, s shape.Shape, size geom.Vec2, t Transform, r FieldRegion) (*Entity, error) {
	if r.Kind == field.None {
		return nil, fmt.Errorf("field region %q: kind is none", name)
	}
	if !r.Field.Direction.IsFinite() {
		return nil, fmt.Errorf("field region %q: non-finite direction", name)
	}
	e := &Entity{
		ID:        id,
		Name:      name,
		Shape:     s,
		Size:      size,
		Transform: t,
		Body:      &r,
	}
	e.Initial = Initial{Transform: t}
	return e, nil
}

// Particle returns the particle body, or nil for a field region.
func (e *Entity) Particle() *Particle {
	p, _ := e.Body.(*Particle)
	return p
}

// Region returns the field region body, or nil for a particle.
func (e *Entity) Region() *FieldRegion {
	r, _ := e.Body.(*FieldRegion)
	return r
}

// BodyKind is the rigid-body kind; field regions are always static.
func (e *Entity) BodyKind() physics.BodyKind {
	if p := e.Particle(); p != nil {
		return p.Kind
	}
	return physics.Static
}

// Hull is the collider of the entity, scaled by its transform.
func (e *Entity) Hull() shape.Hull {
	s := e.Transform.Scale
	size := geom.V2(e.Size.X*abs(s.X), e.Size.Y*abs(s.Y))
	return e.Shape.Hull(size)
}

func (e *Entity) bodySpec() physics.BodySpec {
	spec := physics.BodySpec{
		Hull:     e.Hull(),
		Position: e.Transform.Position(),
		Angle:    e.Transform.Rotation,
		Friction: e.Friction.Dynamic,
	}
	switch b := e.Body.(type) {
	case *Particle:
		spec.Kind = b.Kind
		spec.Mass = b.Mass
		spec.Velocity = b.Velocity0
	case *FieldRegion:
		spec.Kind = physics.Static
		spec.Sensor = true
	}
	return spec
}

// clone copies e under a new id and name. The copy's initial state is its
// current transform.
func (e *Entity) clone(id, name string) *Entity {
	c := *e
	c.ID = id
	c.Name = name
	switch b := e.Body.(type) {
	case *Particle:
		p := *b
		if b.Charge != nil {
			q := *b.Charge
			p.Charge = &q
		}
		c.Body = &p
		c.Initial = Initial{Transform: c.Transform, Velocity: p.Velocity0}
	case *FieldRegion:
		r := *b
		c.Body = &r
		c.Initial = Initial{Transform: c.Transform}
	}
	return &c
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
