package engine

import (
	"encoding/json"

	"github.com/anreonyr/simphy/internal/geom"
	"github.com/anreonyr/simphy/internal/physics"
	"github.com/anreonyr/simphy/internal/shape"
)

// Frame is everything the UI needs to draw one frame.
type Frame struct {
	Tool      Tool         `json:"tool"`
	Running   bool         `json:"running"`
	TimeScale float64      `json:"timeScale"`
	Document  DocumentView `json:"document"`
	Indicator Indicator    `json:"indicator"`
	Selection *Properties  `json:"selection,omitempty"`
	Entities  []EntityView `json:"entities"`
}

type DocumentView struct {
	Title string `json:"title"`
	Path  string `json:"path,omitempty"`
	Dirty bool   `json:"dirty"`
}

// EntityView is one entity as drawn. Outline is in world coordinates and
// already includes scale, rotation and translation.
type EntityView struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Shape     shape.Shape      `json:"shape"`
	BodyKind  physics.BodyKind `json:"bodyKind"`
	Field     string           `json:"field,omitempty"`
	Transform geom.Matrix2D    `json:"transform"`
	Outline   []geom.Vec2      `json:"outline"`
	Bounds    geom.Rect        `json:"bounds"`
	Selected  bool             `json:"selected,omitempty"`
}

// Frame snapshots the engine state in placement order.
func (e *Engine) Frame() Frame {
	f := Frame{
		Tool:      e.template.Tool,
		Running:   e.sim.running,
		TimeScale: e.sim.timeScale,
		Document: DocumentView{
			Title: e.doc.Title(),
			Path:  e.doc.Path,
			Dirty: e.doc.Dirty,
		},
		Indicator: e.indicator,
		Selection: e.selection.Properties,
		Entities:  make([]EntityView, 0, e.entities.Len()),
	}
	for _, ent := range e.entities.All() {
		f.Entities = append(f.Entities, e.view(ent))
	}
	return f
}

func (e *Engine) view(ent *Entity) EntityView {
	// The hull already carries the scale.
	m := geom.FromTransform(ent.Transform.Position(), ent.Transform.Rotation, geom.V2(1, 1))
	outline := m.ApplyAll(ent.Hull().Outline())
	v := EntityView{
		ID:        ent.ID,
		Name:      ent.Name,
		Shape:     ent.Shape,
		BodyKind:  ent.BodyKind(),
		Transform: ent.Transform.Matrix(),
		Outline:   outline,
		Bounds:    geom.Bounds(outline),
		Selected:  ent.ID == e.selection.Entity,
	}
	if r := ent.Region(); r != nil {
		v.Field = r.Kind.String()
	}
	return v
}

// FrameJSON serializes the current frame for the browser.
func (e *Engine) FrameJSON() (string, error) {
	data, err := json.Marshal(e.Frame())
	if err != nil {
		return "{}", err
	}
	return string(data), nil
}
