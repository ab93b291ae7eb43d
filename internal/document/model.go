package document

import "path/filepath"

// Scene is the persisted form of a scene: an ordered list of entities.
type Scene struct {
	Entities []EntityRecord `json:"entities" yaml:"entities"`
}

type EntityRecord struct {
	Name      string           `json:"name" yaml:"name"`
	Transform TransformRecord  `json:"transform" yaml:"transform"`
	RigidBody *RigidBodyRecord `json:"rigid_body" yaml:"rigid_body"`
	Collider  *ColliderRecord  `json:"collider" yaml:"collider"`
	Charge    *float64         `json:"charge" yaml:"charge"`
	Field     *FieldRecord     `json:"field" yaml:"field"`
}

type TransformRecord struct {
	Translation [3]float64 `json:"translation" yaml:"translation,flow"`
	Rotation    float64    `json:"rotation" yaml:"rotation"`
	Scale       [3]float64 `json:"scale" yaml:"scale,flow"`
}

// RigidBodyRecord carries the body kind as "Dynamic", "Static" or
// "Kinematic".
type RigidBodyRecord struct {
	BodyType string `json:"body_type" yaml:"body_type"`
}

type ColliderRecord struct {
	Shape       string      `json:"shape" yaml:"shape"`
	HalfExtents *[2]float64 `json:"half_extents" yaml:"half_extents,flow"`
	Radius      *float64    `json:"radius" yaml:"radius"`
}

// FieldRecord describes a field region. DirectionZ is only present when the
// direction leaves the plane, as magnetic fields usually do.
type FieldRecord struct {
	FieldType  string     `json:"field_type" yaml:"field_type"`
	Strength   float64    `json:"strength" yaml:"strength"`
	Direction  [2]float64 `json:"direction" yaml:"direction,flow"`
	DirectionZ *float64   `json:"direction_z,omitempty" yaml:"direction_z,omitempty"`
}

// Identity is the transform of an untransformed entity at the origin.
func Identity() TransformRecord {
	return TransformRecord{Scale: [3]float64{1, 1, 1}}
}

// Document tracks the scene being edited along with its backing file and
// whether it has unsaved changes.
type Document struct {
	Path  string
	Dirty bool
	Data  Scene
}

func New() *Document {
	return &Document{Data: Scene{Entities: []EntityRecord{}}}
}

func (d *Document) MarkDirty() { d.Dirty = true }

// MarkClean records a successful save or load of path.
func (d *Document) MarkClean(path string) {
	d.Path = path
	d.Dirty = false
}

// Title is the file name, or "Untitled", with a trailing "*" when dirty.
func (d *Document) Title() string {
	title := "Untitled"
	if d.Path != "" {
		title = filepath.Base(d.Path)
	}
	if d.Dirty {
		title += "*"
	}
	return title
}

func f64(v float64) *float64 { return &v }
