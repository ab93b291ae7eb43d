package engine

import (
	"errors"
	"fmt"

	"github.com/anreonyr/simphy/internal/document"
	"github.com/anreonyr/simphy/internal/field"
	"github.com/anreonyr/simphy/internal/geom"
	"github.com/anreonyr/simphy/internal/physics"
	"github.com/anreonyr/simphy/internal/shape"
)

// duplicateOffset is how far a duplicate is placed from its source.
var duplicateOffset = geom.V2(50, 50)

// NewScene discards every entity and starts an untitled document. The
// placement template returns to its defaults.
func (e *Engine) NewScene() {
	e.despawnAll()
	e.ResetTemplate()
	e.sim = newSimulation()
	e.doc = document.New()
	e.logger.Info("new scene")
}

// DeleteSelected removes the selected entity.
func (e *Engine) DeleteSelected() error {
	id := e.selection.Entity
	if id == "" {
		return ErrNoSelection
	}
	if !e.despawn(id) {
		e.clearSelection()
		return ErrEntityNotFound
	}
	e.doc.MarkDirty()
	return nil
}

// DuplicateSelected copies the selected entity, offset from its source,
// and selects the copy.
func (e *Engine) DuplicateSelected() (*Entity, error) {
	if e.selection.Entity == "" {
		return nil, ErrNoSelection
	}
	src, ok := e.entities.Get(e.selection.Entity)
	if !ok {
		e.clearSelection()
		return nil, ErrEntityNotFound
	}

	dup := src.clone(e.opts.NewID(), src.Name+" Copy")
	dup.Transform.SetPosition(src.Transform.Position().Add(duplicateOffset))
	dup.Initial.Transform = dup.Transform
	if err := e.spawn(dup); err != nil {
		return nil, fmt.Errorf("duplicate %s: %w", src.Name, err)
	}
	e.selectEntity(dup)
	e.doc.MarkDirty()
	return dup, nil
}

// LoadScene replaces every entity with the records in scene. Nothing
// changes when a record is invalid.
func (e *Engine) LoadScene(scene document.Scene) error {
	built := make([]*Entity, 0, len(scene.Entities))
	for i, rec := range scene.Entities {
		ent, err := e.fromRecord(rec)
		if err != nil {
			return fmt.Errorf("%w: entity %d (%q): %v", ErrInvalidScene, i, rec.Name, err)
		}
		built = append(built, ent)
	}
	// Check every body before touching the world.
	for _, ent := range built {
		if err := ent.bodySpec().Validate(); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidScene, ent.Name, err)
		}
	}

	e.despawnAll()
	e.sim.running = false
	for _, ent := range built {
		if err := e.spawn(ent); err != nil {
			// Validated above.
			return err
		}
	}
	return nil
}

func (e *Engine) fromRecord(rec document.EntityRecord) (*Entity, error) {
	t := Transform{
		Translation: geom.V3(rec.Transform.Translation[0], rec.Transform.Translation[1], rec.Transform.Translation[2]),
		Rotation:    rec.Transform.Rotation,
		Scale:       geom.V3(rec.Transform.Scale[0], rec.Transform.Scale[1], rec.Transform.Scale[2]),
	}
	if !t.Translation.IsFinite() || !t.Scale.IsFinite() || !finite(t.Rotation) {
		return nil, errors.New("non-finite transform")
	}

	s, size := shape.Rectangle, e.opts.DefaultSize
	if c := rec.Collider; c != nil {
		var err error
		if s, err = shape.Parse(c.Shape); err != nil {
			return nil, err
		}
		switch {
		case c.HalfExtents != nil:
			size = geom.V2(c.HalfExtents[0]*2, c.HalfExtents[1]*2)
		case c.Radius != nil:
			size = geom.V2(*c.Radius*2, *c.Radius*2)
		}
	}

	id := e.opts.NewID()
	if f := rec.Field; f != nil {
		kind, err := field.ParseKind(f.FieldType)
		if err != nil {
			return nil, err
		}
		dir := geom.V3(f.Direction[0], f.Direction[1], 0)
		if f.DirectionZ != nil {
			dir.Z = *f.DirectionZ
		}
		return newFieldRegion(id, rec.Name, s, size, t, FieldRegion{
			Kind:  kind,
			Field: field.Field{Strength: f.Strength, Direction: dir},
		})
	}

	kind := physics.Static
	if rec.RigidBody != nil {
		var err error
		if kind, err = physics.ParseBodyKind(rec.RigidBody.BodyType); err != nil {
			return nil, err
		}
	}
	return newParticle(id, rec.Name, s, size, t, Friction{}, Particle{
		Kind:   kind,
		Mass:   DefaultMass,
		Charge: rec.Charge,
	})
}

// CollectScene snapshots every entity as a record, in placement order.
// Colliders are not written.
func (e *Engine) CollectScene() document.Scene {
	out := document.Scene{Entities: make([]document.EntityRecord, 0, e.entities.Len())}
	for _, ent := range e.entities.All() {
		out.Entities = append(out.Entities, toRecord(ent))
	}
	return out
}

func toRecord(ent *Entity) document.EntityRecord {
	t := ent.Transform
	rec := document.EntityRecord{
		Name: ent.Name,
		Transform: document.TransformRecord{
			Translation: [3]float64{t.Translation.X, t.Translation.Y, t.Translation.Z},
			Rotation:    t.Rotation,
			Scale:       [3]float64{t.Scale.X, t.Scale.Y, t.Scale.Z},
		},
		RigidBody: &document.RigidBodyRecord{BodyType: ent.BodyKind().String()},
	}
	switch b := ent.Body.(type) {
	case *Particle:
		if b.Charge != nil {
			q := *b.Charge
			rec.Charge = &q
		}
	case *FieldRegion:
		fr := &document.FieldRecord{
			FieldType: b.Kind.String(),
			Strength:  b.Field.Strength,
			Direction: [2]float64{b.Field.Direction.X, b.Field.Direction.Y},
		}
		if z := b.Field.Direction.Z; z != 0 {
			fr.DirectionZ = &z
		}
		rec.Field = fr
	}
	return rec
}

// Open imports the scene at path and replaces the current one. On error
// the current scene and document are untouched.
func (e *Engine) Open(path string) error {
	scene, err := document.Import(path)
	if err != nil {
		return err
	}
	if err := e.LoadScene(scene); err != nil {
		return err
	}
	e.doc = &document.Document{Path: path, Data: scene}
	e.logger.Info("scene opened", "path", path, "entities", len(scene.Entities))
	return nil
}

// Save writes the scene to the document's path.
func (e *Engine) Save() error {
	if e.doc.Path == "" {
		return ErrNoDocumentPath
	}
	return e.SaveAs(e.doc.Path)
}

// SaveAs writes the scene to path. The document becomes clean, and adopts
// path, only after the write succeeded.
func (e *Engine) SaveAs(path string) error {
	scene := e.CollectScene()
	if err := document.Export(path, scene); err != nil {
		return err
	}
	e.doc.Data = scene
	e.doc.MarkClean(path)
	e.logger.Info("scene saved", "path", path, "entities", len(scene.Entities))
	return nil
}

// Import replaces the scene with one decoded from data, keeping no path.
// The document is dirty afterwards since nothing on disk matches it.
func (e *Engine) Import(f document.Format, data []byte) error {
	scene, err := document.Decode(f, data)
	if err != nil {
		return err
	}
	if err := e.LoadScene(scene); err != nil {
		return err
	}
	e.doc = &document.Document{Data: scene, Dirty: true}
	return nil
}

// Export encodes the current scene without touching the document.
func (e *Engine) Export(f document.Format) ([]byte, error) {
	return document.Encode(f, e.CollectScene())
}

// LoadSample replaces the scene with the development sample.
func (e *Engine) LoadSample() error {
	scene := document.NewSampleScene()
	if err := e.LoadScene(scene); err != nil {
		return err
	}
	e.doc = &document.Document{Data: scene}
	return nil
}
