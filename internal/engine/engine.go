package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/anreonyr/simphy/internal/document"
	"github.com/anreonyr/simphy/internal/field"
	"github.com/anreonyr/simphy/internal/geom"
	"github.com/anreonyr/simphy/internal/physics"
	"github.com/anreonyr/simphy/internal/typeid"
)

var (
	ErrNoSelection     = errors.New("no entity selected")
	ErrNoDocumentPath  = errors.New("document has no path")
	ErrEntityNotFound  = errors.New("entity not found")
	ErrInvalidTemplate = errors.New("invalid template")
	ErrInvalidScene    = errors.New("invalid scene")
)

// Options configures an Engine. A zero HitRadius or DefaultSize takes its
// default; a zero Gravity disables gravity.
type Options struct {
	HitRadius   float64
	Gravity     geom.Vec2
	DefaultSize geom.Vec2
	Logger      *slog.Logger
	// NewID generates entity ids.
	NewID func() string
}

// DefaultHitRadius is the selection distance in world units.
const DefaultHitRadius = 25.0

func DefaultOptions() Options {
	return Options{
		HitRadius:   DefaultHitRadius,
		Gravity:     geom.V2(0, -100),
		DefaultSize: geom.V2(50, 50),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HitRadius <= 0 {
		o.HitRadius = d.HitRadius
	}
	if o.DefaultSize.X <= 0 || o.DefaultSize.Y <= 0 {
		o.DefaultSize = d.DefaultSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.NewID == nil {
		o.NewID = typeid.NewEntityID
	}
	return o
}

// Selection is the selected entity, if any, and its property snapshot.
type Selection struct {
	Entity     string
	Properties *Properties
}

// DragState is valid only while Dragging is true.
type DragState struct {
	Dragging bool
	Entity   string
	Offset   geom.Vec2
}

// Indicator is the placement preview that follows the cursor in Place mode.
type Indicator struct {
	Visible  bool      `json:"visible"`
	Position geom.Vec2 `json:"position"`
}

// Engine is the editor core. It owns the placed entities, the physics world,
// the placement template, selection, drag state and the scene document.
// It is not safe for concurrent use; one goroutine drives it.
type Engine struct {
	opts   Options
	logger *slog.Logger

	world    *physics.World
	forces   *field.Engine
	entities *Registry

	template  Template
	selection Selection
	drag      DragState
	indicator Indicator

	doc *document.Document
	sim simulation
}

// New creates an engine with an empty, untitled scene.
func New(opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		opts:     opts,
		logger:   opts.Logger,
		world:    physics.NewWorld(opts.Gravity),
		forces:   field.NewEngine(opts.Logger),
		entities: NewRegistry(),
		template: DefaultTemplate(opts.DefaultSize),
		doc:      document.New(),
		sim:      newSimulation(),
	}
}

// --- Commands ---

// SetTool switches the active tool. Switching ends any drag.
func (e *Engine) SetTool(t Tool) {
	if t == e.template.Tool {
		return
	}
	e.template.Tool = t
	e.endDrag()
	if t != ToolPlace {
		e.indicator.Visible = false
	}
}

// UpdateTemplate applies a partial update to the placement template. The
// template is left unchanged when the result would be invalid.
func (e *Engine) UpdateTemplate(p TemplatePatch) error {
	next := p.apply(e.template)
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	e.template = next
	return nil
}

// ResetTemplate restores the default template, keeping nothing.
func (e *Engine) ResetTemplate() {
	e.template = DefaultTemplate(e.opts.DefaultSize)
	e.indicator.Visible = false
	e.endDrag()
}

// --- Queries ---

func (e *Engine) Template() Template { return e.template }

func (e *Engine) Tool() Tool { return e.template.Tool }

func (e *Engine) Selection() Selection { return e.selection }

func (e *Engine) Drag() DragState { return e.drag }

func (e *Engine) Indicator() Indicator { return e.indicator }

// Document returns the scene document. Callers must not modify it.
func (e *Engine) Document() *document.Document { return e.doc }

func (e *Engine) IsDirty() bool { return e.doc.Dirty }

func (e *Engine) Entities() []*Entity { return e.entities.All() }

func (e *Engine) Entity(id string) (*Entity, bool) { return e.entities.Get(id) }

func (e *Engine) Len() int { return e.entities.Len() }

// --- Internal helpers ---

// spawn adds the entity to the registry and the physics world.
func (e *Engine) spawn(ent *Entity) error {
	if err := e.world.Add(ent.ID, ent.bodySpec()); err != nil {
		return err
	}
	e.entities.Add(ent)
	return nil
}

// despawn removes the entity and clears any selection or drag on it.
func (e *Engine) despawn(id string) bool {
	if !e.entities.Remove(id) {
		return false
	}
	e.world.Remove(id)
	if e.selection.Entity == id {
		e.clearSelection()
	}
	if e.drag.Entity == id {
		e.endDrag()
	}
	return true
}

func (e *Engine) despawnAll() {
	e.world.Clear()
	e.entities.Clear()
	e.clearSelection()
	e.endDrag()
}

func (e *Engine) endDrag() { e.drag = DragState{} }
