package engine

import (
	"fmt"

	"github.com/anreonyr/simphy/internal/field"
	"github.com/anreonyr/simphy/internal/geom"
)

// Button is the primary pointer button for one frame.
type Button struct {
	Pressed      bool `json:"pressed"`
	JustPressed  bool `json:"justPressed"`
	JustReleased bool `json:"justReleased"`
}

// Input is the pointer state the UI reports for one frame. Cursor is nil
// when the pointer is off the window or cannot be projected into the world.
// ViewportHovered is false while UI chrome captures the pointer.
type Input struct {
	Cursor          *geom.Vec2 `json:"cursor,omitempty"`
	ViewportHovered bool       `json:"viewportHovered"`
	Primary         Button     `json:"primary"`
}

// worldCursor returns the cursor when world interaction is allowed.
func (in Input) worldCursor() (geom.Vec2, bool) {
	if in.Cursor == nil || !in.ViewportHovered || !in.Cursor.IsFinite() {
		return geom.Vec2{}, false
	}
	return *in.Cursor, true
}

// HandleInput runs one interaction pass. Exactly one tool behavior runs,
// chosen by the active tool.
func (e *Engine) HandleInput(in Input) {
	cursor, inWorld := e.updateIndicator(in)

	if !inWorld {
		// Only a release gets through, so a drag that leaves the viewport
		// still ends.
		if in.Primary.JustReleased {
			e.endDrag()
		}
		return
	}

	switch e.template.Tool {
	case ToolPlace:
		if in.Primary.JustPressed {
			if _, err := e.place(cursor); err != nil {
				e.logger.Warn("placement failed", "error", err)
			}
		}
	case ToolSelect:
		if in.Primary.JustPressed {
			e.selectAt(cursor)
		}
	case ToolDelete:
		if in.Primary.JustPressed {
			e.deleteAt(cursor)
		}
	case ToolMove:
		e.dragWith(cursor, in.Primary)
	case ToolPan:
		// Camera panning belongs to the UI.
	}
}

func (e *Engine) updateIndicator(in Input) (geom.Vec2, bool) {
	cursor, ok := in.worldCursor()
	if e.template.Tool != ToolPlace {
		e.indicator.Visible = false
		return cursor, ok
	}
	e.indicator.Visible = ok
	if ok {
		e.indicator.Position = cursor.Add(e.template.Offset)
	}
	return cursor, ok
}

// place commits a new entity from the template at the cursor.
func (e *Engine) place(cursor geom.Vec2) (*Entity, error) {
	t := e.template
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	id := e.opts.NewID()
	name := fmt.Sprintf("%s %d", t.Shape.DisplayName(), e.entities.Len()+1)
	transform := At(cursor.Add(t.Offset))

	var (
		ent *Entity
		err error
	)
	if t.FieldKind != field.None {
		ent, err = newFieldRegion(id, name, t.Shape, t.Size, transform, FieldRegion{Kind: t.FieldKind, Field: t.Field})
	} else {
		charge := t.Charge
		ent, err = newParticle(id, name, t.Shape, t.Size, transform, t.Friction, Particle{
			Kind:          t.BodyKind,
			Mass:          t.Mass,
			Charge:        &charge,
			Velocity0:     t.Velocity,
			ConstantForce: t.ConstantForce,
		})
	}
	if err != nil {
		return nil, err
	}
	if err := e.spawn(ent); err != nil {
		return nil, err
	}
	e.doc.MarkDirty()
	e.logger.Debug("entity placed", "id", ent.ID, "name", ent.Name, "x", cursor.X, "y", cursor.Y)
	return ent, nil
}

// hit finds the entity nearest to the cursor within the hit radius.
func (e *Engine) hit(cursor geom.Vec2) (*Entity, bool) {
	return e.entities.Nearest(cursor, e.opts.HitRadius)
}

func (e *Engine) selectAt(cursor geom.Vec2) {
	ent, ok := e.hit(cursor)
	if !ok {
		e.clearSelection()
		return
	}
	e.selectEntity(ent)
}

func (e *Engine) deleteAt(cursor geom.Vec2) {
	ent, ok := e.hit(cursor)
	if !ok {
		e.clearSelection()
		return
	}
	e.despawn(ent.ID)
	e.doc.MarkDirty()
	e.logger.Debug("entity deleted", "id", ent.ID, "name", ent.Name)
}

// dragWith moves the selected entity, keeping the offset captured when the
// button went down.
func (e *Engine) dragWith(cursor geom.Vec2, b Button) {
	if b.JustPressed && e.selection.Entity != "" {
		if ent, ok := e.entities.Get(e.selection.Entity); ok {
			e.drag = DragState{
				Dragging: true,
				Entity:   ent.ID,
				Offset:   ent.Transform.Position().Sub(cursor),
			}
		}
	}

	if b.Pressed && e.drag.Dragging {
		if ent, ok := e.entities.Get(e.drag.Entity); ok {
			e.moveEntity(ent, cursor.Add(e.drag.Offset))
		}
	}

	if b.JustReleased {
		e.endDrag()
	}
}

func (e *Engine) moveEntity(ent *Entity, p geom.Vec2) {
	if ent.Transform.Position() == p {
		return
	}
	ent.Transform.SetPosition(p)
	e.world.SetPosition(ent.ID, p)
	e.doc.MarkDirty()
}
