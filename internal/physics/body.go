package physics

import (
	"fmt"
	"strings"

	"github.com/anreonyr/simphy/internal/geom"
	"github.com/anreonyr/simphy/internal/shape"
)

// BodyKind is the rigid-body kind of a particle.
type BodyKind int

const (
	Dynamic BodyKind = iota
	Static
	Kinematic
)

func (k BodyKind) String() string {
	switch k {
	case Static:
		return "Static"
	case Kinematic:
		return "Kinematic"
	default:
		return "Dynamic"
	}
}

// ParseBodyKind accepts the persisted spellings, case-insensitively.
func ParseBodyKind(s string) (BodyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dynamic":
		return Dynamic, nil
	case "static", "fixed":
		return Static, nil
	case "kinematic", "kinematicpositionbased", "kinematicvelocitybased":
		return Kinematic, nil
	}
	return Dynamic, fmt.Errorf("unknown body type %q", s)
}

func (k BodyKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *BodyKind) UnmarshalText(text []byte) error {
	parsed, err := ParseBodyKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// BodySpec describes a body to add to the world.
type BodySpec struct {
	Kind     BodyKind
	Mass     float64
	Hull     shape.Hull
	Position geom.Vec2
	Angle    float64
	Velocity geom.Vec2
	Friction float64
	// Sensor shapes report overlaps but never collide.
	Sensor bool
}

// Validate reports why the spec cannot become a body.
func (s BodySpec) Validate() error {
	if s.Hull.Degenerate() {
		return fmt.Errorf("degenerate hull")
	}
	if !s.Position.IsFinite() || !s.Velocity.IsFinite() {
		return fmt.Errorf("non-finite position or velocity")
	}
	if s.Kind == Dynamic && !s.Sensor && !(s.Mass > 0) {
		return fmt.Errorf("dynamic body needs a positive mass, got %v", s.Mass)
	}
	return nil
}
