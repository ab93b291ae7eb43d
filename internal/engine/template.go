package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/anreonyr/simphy/internal/field"
	"github.com/anreonyr/simphy/internal/geom"
	"github.com/anreonyr/simphy/internal/physics"
	"github.com/anreonyr/simphy/internal/shape"
)

// Tool is the active editor tool. Exactly one is active at a time.
type Tool int

const (
	ToolPan Tool = iota
	ToolSelect
	ToolMove
	ToolPlace
	ToolDelete
)

var toolNames = [...]string{
	ToolPan:    "pan",
	ToolSelect: "select",
	ToolMove:   "move",
	ToolPlace:  "place",
	ToolDelete: "delete",
}

func (t Tool) String() string {
	if t < 0 || int(t) >= len(toolNames) {
		return "unknown"
	}
	return toolNames[t]
}

func ParseTool(s string) (Tool, error) {
	for i, n := range toolNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return Tool(i), nil
		}
	}
	return ToolPan, fmt.Errorf("unknown tool %q", s)
}

func (t Tool) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tool) UnmarshalText(text []byte) error {
	parsed, err := ParseTool(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DefaultMass is the mass of particles whose mass is not otherwise known.
const DefaultMass = 1.0

// Template is the configuration of the next entity to be placed. It is
// never simulated itself.
type Template struct {
	Tool          Tool             `json:"tool"`
	Shape         shape.Shape      `json:"shape"`
	Size          geom.Vec2        `json:"size"`
	Offset        geom.Vec2        `json:"offset"`
	Mass          float64          `json:"mass"`
	BodyKind      physics.BodyKind `json:"bodyKind"`
	FieldKind     field.Kind       `json:"fieldKind"`
	Field         field.Field      `json:"field"`
	Charge        float64          `json:"charge"`
	Friction      Friction         `json:"friction"`
	Velocity      geom.Vec2        `json:"velocity"`
	ConstantForce geom.Vec2        `json:"constantForce"`
}

// DefaultTemplate returns the template a fresh editor starts with.
func DefaultTemplate(size geom.Vec2) Template {
	return Template{
		Tool:     ToolPan,
		Shape:    shape.Rectangle,
		Size:     size,
		Mass:     DefaultMass,
		BodyKind: physics.Dynamic,
		Field:    field.Field{Direction: geom.V3(0, 0, 1)},
	}
}

// Validate rejects templates that cannot produce a valid entity.
func (t Template) Validate() error {
	if !t.Shape.Valid() {
		return fmt.Errorf("invalid shape %d", int(t.Shape))
	}
	if !(t.Size.X > 0) || !(t.Size.Y > 0) || !t.Size.IsFinite() {
		return fmt.Errorf("size must be positive, got %vx%v", t.Size.X, t.Size.Y)
	}
	if !(t.Mass > 0) || math.IsInf(t.Mass, 0) {
		return fmt.Errorf("mass must be positive, got %v", t.Mass)
	}
	if !finite(t.Charge) || !finite(t.Field.Strength) || !finite(t.Friction.Dynamic) || !finite(t.Friction.Static) {
		return fmt.Errorf("charge, field strength and friction must be finite")
	}
	if t.Friction.Dynamic < 0 || t.Friction.Static < 0 {
		return fmt.Errorf("friction must not be negative")
	}
	if !t.Offset.IsFinite() || !t.Velocity.IsFinite() || !t.ConstantForce.IsFinite() || !t.Field.Direction.IsFinite() {
		return fmt.Errorf("vectors must be finite")
	}
	return nil
}

// TemplatePatch is a partial template update. Nil fields are left alone.
// Tool changes go through Engine.SetTool.
type TemplatePatch struct {
	Shape         *shape.Shape      `json:"shape,omitempty"`
	Size          *geom.Vec2        `json:"size,omitempty"`
	Offset        *geom.Vec2        `json:"offset,omitempty"`
	Mass          *float64          `json:"mass,omitempty"`
	BodyKind      *physics.BodyKind `json:"bodyKind,omitempty"`
	FieldKind     *field.Kind       `json:"fieldKind,omitempty"`
	FieldStrength *float64          `json:"fieldStrength,omitempty"`
	FieldDir      *geom.Vec3        `json:"fieldDirection,omitempty"`
	Charge        *float64          `json:"charge,omitempty"`
	Friction      *Friction         `json:"friction,omitempty"`
	Velocity      *geom.Vec2        `json:"velocity,omitempty"`
	ConstantForce *geom.Vec2        `json:"constantForce,omitempty"`
}

// ParseTemplatePatch decodes a JSON patch, rejecting unknown keys.
func ParseTemplatePatch(data []byte) (TemplatePatch, error) {
	var p TemplatePatch
	if err := strictUnmarshal(data, &p); err != nil {
		return TemplatePatch{}, fmt.Errorf("template patch: %w", err)
	}
	return p, nil
}

func (p TemplatePatch) apply(t Template) Template {
	if p.Shape != nil {
		t.Shape = *p.Shape
	}
	if p.Size != nil {
		t.Size = *p.Size
	}
	if p.Offset != nil {
		t.Offset = *p.Offset
	}
	if p.Mass != nil {
		t.Mass = *p.Mass
	}
	if p.BodyKind != nil {
		t.BodyKind = *p.BodyKind
	}
	if p.FieldKind != nil {
		t.FieldKind = *p.FieldKind
	}
	if p.FieldStrength != nil {
		t.Field.Strength = *p.FieldStrength
	}
	if p.FieldDir != nil {
		t.Field.Direction = *p.FieldDir
	}
	if p.Charge != nil {
		t.Charge = *p.Charge
	}
	if p.Friction != nil {
		t.Friction = *p.Friction
	}
	if p.Velocity != nil {
		t.Velocity = *p.Velocity
	}
	if p.ConstantForce != nil {
		t.ConstantForce = *p.ConstantForce
	}
	return t
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
