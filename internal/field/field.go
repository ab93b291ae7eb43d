package field

import (
	"fmt"
	"strings"

	"github.com/anreonyr/simphy/internal/geom"
)

// Kind tags a field region. None means the entity is not a region.
type Kind int

const (
	None Kind = iota
	Magnetic
	Electric
)

func (k Kind) String() string {
	switch k {
	case Magnetic:
		return "magnetic"
	case Electric:
		return "electric"
	default:
		return "none"
	}
}

// ParseKind accepts the persisted spellings, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "magnetic":
		return Magnetic, nil
	case "electric":
		return Electric, nil
	case "none", "":
		return None, nil
	}
	return None, fmt.Errorf("unknown field type %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Field is the strength and direction of a region. Direction need not be
// normalized.
type Field struct {
	Strength  float64   `json:"strength"`
	Direction geom.Vec3 `json:"direction"`
}

// Degenerate reports whether the direction cannot be normalized.
func (f Field) Degenerate() bool {
	_, ok := f.Direction.Normalize()
	return !ok
}

// MagneticForce returns the in-plane component of
// normalize(direction) × (v, 0) · q · strength.
func MagneticForce(f Field, q float64, v geom.Vec2) geom.Vec2 {
	dir, ok := f.Direction.Normalize()
	if !ok {
		return geom.Vec2{}
	}
	return dir.Cross(v.Extend(0)).Scale(q * f.Strength).XY()
}

// ElectricForce returns the in-plane component of
// normalize(direction) · q · strength.
func ElectricForce(f Field, q float64) geom.Vec2 {
	dir, ok := f.Direction.Normalize()
	if !ok {
		return geom.Vec2{}
	}
	return dir.Scale(q * f.Strength).XY()
}
