package document

// NewSampleScene returns the development scene: a magnetic region pointing
// into the screen on the right, an electric region on the left and a
// charged ball above it.
func NewSampleScene() Scene {
	region := func(x float64) TransformRecord {
		t := Identity()
		t.Translation = [3]float64{x, 0, 0}
		return t
	}
	regionCollider := func() *ColliderRecord {
		return &ColliderRecord{Shape: "Rectangle", HalfExtents: &[2]float64{2000, 4000}}
	}

	ball := Identity()
	ball.Translation = [3]float64{-1000, 1000, 0}

	return Scene{Entities: []EntityRecord{
		{
			Name:      "Magnetic Field",
			Transform: region(2000),
			RigidBody: &RigidBodyRecord{BodyType: "Static"},
			Collider:  regionCollider(),
			Field: &FieldRecord{
				FieldType:  "magnetic",
				Strength:   40,
				Direction:  [2]float64{0, 0},
				DirectionZ: f64(-1),
			},
		},
		{
			Name:      "Electric Field",
			Transform: region(-2000),
			RigidBody: &RigidBodyRecord{BodyType: "Static"},
			Collider:  regionCollider(),
			Field: &FieldRecord{
				FieldType: "electric",
				Strength:  10000,
				Direction: [2]float64{1, 1},
			},
		},
		{
			Name:      "Ball",
			Transform: ball,
			RigidBody: &RigidBodyRecord{BodyType: "Dynamic"},
			Collider:  &ColliderRecord{Shape: "Circle", Radius: f64(10)},
			Charge:    f64(10),
		},
	}}
}
