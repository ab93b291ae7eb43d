package engine

import (
	"fmt"

	"github.com/anreonyr/simphy/internal/field"
	"github.com/anreonyr/simphy/internal/geom"
	"github.com/anreonyr/simphy/internal/physics"
	"github.com/anreonyr/simphy/internal/shape"
)

// Properties is the editable snapshot of the selected entity. It reflects
// the entity's real values; Scale is the entity's size.
type Properties struct {
	Entity   string           `json:"entity"`
	Name     string           `json:"name"`
	Position geom.Vec3        `json:"position"`
	Rotation float64          `json:"rotation"`
	Scale    geom.Vec2        `json:"scale"`
	Shape    shape.Shape      `json:"shape"`
	BodyKind physics.BodyKind `json:"bodyKind"`
	Mass     *float64         `json:"mass,omitempty"`
	Charge   *float64         `json:"charge,omitempty"`
	Velocity *geom.Vec2       `json:"velocity,omitempty"`
	Field    *RegionProps     `json:"field,omitempty"`
}

type RegionProps struct {
	Kind      field.Kind `json:"kind"`
	Strength  float64    `json:"strength"`
	Direction geom.Vec3  `json:"direction"`
}

func (e *Engine) snapshot(ent *Entity) *Properties {
	p := &Properties{
		Entity:   ent.ID,
		Name:     ent.Name,
		Position: ent.Transform.Translation,
		Rotation: ent.Transform.Rotation,
		Scale:    ent.Size,
		Shape:    ent.Shape,
		BodyKind: ent.BodyKind(),
	}
	switch b := ent.Body.(type) {
	case *Particle:
		mass := b.Mass
		p.Mass = &mass
		if b.Charge != nil {
			q := *b.Charge
			p.Charge = &q
		}
		if v, ok := e.world.Velocity(ent.ID); ok {
			p.Velocity = &v
		}
	case *FieldRegion:
		p.Field = &RegionProps{Kind: b.Kind, Strength: b.Field.Strength, Direction: b.Field.Direction}
	}
	return p
}

func (e *Engine) selectEntity(ent *Entity) {
	e.selection = Selection{Entity: ent.ID, Properties: e.snapshot(ent)}
}

func (e *Engine) clearSelection() { e.selection = Selection{} }

// refreshSelection keeps the snapshot in step with the live entity.
func (e *Engine) refreshSelection() {
	if e.selection.Entity == "" {
		return
	}
	ent, ok := e.entities.Get(e.selection.Entity)
	if !ok {
		e.clearSelection()
		return
	}
	e.selection.Properties = e.snapshot(ent)
}

// PropertyPatch edits the selected entity. Nil fields are left alone.
// Charge and Mass apply to particles, Field* to regions.
type PropertyPatch struct {
	Name          *string           `json:"name,omitempty"`
	Position      *geom.Vec2        `json:"position,omitempty"`
	Rotation      *float64          `json:"rotation,omitempty"`
	Size          *geom.Vec2        `json:"size,omitempty"`
	Shape         *shape.Shape      `json:"shape,omitempty"`
	BodyKind      *physics.BodyKind `json:"bodyKind,omitempty"`
	Mass          *float64          `json:"mass,omitempty"`
	Charge        *float64          `json:"charge,omitempty"`
	FieldStrength *float64          `json:"fieldStrength,omitempty"`
	FieldDir      *geom.Vec3        `json:"fieldDirection,omitempty"`
}

func ParsePropertyPatch(data []byte) (PropertyPatch, error) {
	var p PropertyPatch
	if err := strictUnmarshal(data, &p); err != nil {
		return PropertyPatch{}, fmt.Errorf("property patch: %w", err)
	}
	return p, nil
}

// EditSelected applies p to the selected entity and rebuilds its body. On
// error the entity is unchanged.
func (e *Engine) EditSelected(p PropertyPatch) error {
	if e.selection.Entity == "" {
		return ErrNoSelection
	}
	ent, ok := e.entities.Get(e.selection.Entity)
	if !ok {
		e.clearSelection()
		return ErrEntityNotFound
	}

	next, err := p.applyTo(ent)
	if err != nil {
		return err
	}
	v, _ := e.world.Velocity(ent.ID)
	// A rejected body spec leaves the existing body in place.
	if err := e.world.Add(next.ID, next.bodySpec()); err != nil {
		return fmt.Errorf("edit %s: %w", ent.Name, err)
	}
	e.world.SetVelocity(next.ID, v)
	*ent = *next
	e.doc.MarkDirty()
	e.refreshSelection()
	return nil
}

func (p PropertyPatch) applyTo(ent *Entity) (*Entity, error) {
	next := ent.clone(ent.ID, ent.Name)
	next.Initial = ent.Initial

	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Position != nil {
		if !p.Position.IsFinite() {
			return nil, fmt.Errorf("position must be finite")
		}
		next.Transform.SetPosition(*p.Position)
	}
	if p.Rotation != nil {
		if !finite(*p.Rotation) {
			return nil, fmt.Errorf("rotation must be finite")
		}
		next.Transform.Rotation = *p.Rotation
	}
	if p.Size != nil {
		if !(p.Size.X > 0) || !(p.Size.Y > 0) || !p.Size.IsFinite() {
			return nil, fmt.Errorf("size must be positive")
		}
		next.Size = *p.Size
	}
	if p.Shape != nil {
		if !p.Shape.Valid() {
			return nil, fmt.Errorf("invalid shape")
		}
		next.Shape = *p.Shape
	}

	switch b := next.Body.(type) {
	case *Particle:
		if p.FieldStrength != nil || p.FieldDir != nil {
			return nil, fmt.Errorf("%s is not a field region", ent.Name)
		}
		if p.BodyKind != nil {
			b.Kind = *p.BodyKind
		}
		if p.Mass != nil {
			if !(*p.Mass > 0) || !finite(*p.Mass) {
				return nil, fmt.Errorf("mass must be positive")
			}
			b.Mass = *p.Mass
		}
		if p.Charge != nil {
			if !finite(*p.Charge) {
				return nil, fmt.Errorf("charge must be finite")
			}
			q := *p.Charge
			b.Charge = &q
		}
	case *FieldRegion:
		if p.Mass != nil || p.Charge != nil {
			return nil, fmt.Errorf("%s is a field region and has no mass or charge", ent.Name)
		}
		if p.BodyKind != nil && *p.BodyKind != physics.Static {
			return nil, fmt.Errorf("field regions are always static")
		}
		if p.FieldStrength != nil {
			if !finite(*p.FieldStrength) {
				return nil, fmt.Errorf("field strength must be finite")
			}
			b.Field.Strength = *p.FieldStrength
		}
		if p.FieldDir != nil {
			if !p.FieldDir.IsFinite() {
				return nil, fmt.Errorf("field direction must be finite")
			}
			b.Field.Direction = *p.FieldDir
		}
	}
	return next, nil
}
