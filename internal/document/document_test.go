package document

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func ballScene() Scene {
	t := Identity()
	t.Translation = [3]float64{1, 2, 3}
	return Scene{Entities: []EntityRecord{{Name: "Ball", Transform: t}}}
}

func TestYAMLRoundTripBall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ball.yaml")
	if err := Export(path, ballScene()); err != nil {
		t.Fatalf("export: %v", err)
	}
	got, err := Import(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(got.Entities) != 1 {
		t.Fatalf("got %d entities, want 1", len(got.Entities))
	}
	e := got.Entities[0]
	if e.Name != "Ball" || e.Transform.Translation != [3]float64{1, 2, 3} {
		t.Fatalf("entity = %+v", e)
	}
}

func TestRoundTripSampleScene(t *testing.T) {
	want := NewSampleScene()
	want.Entities = append(want.Entities, EntityRecord{
		Name: "Odd \"name\"\twith escapes",
		Transform: TransformRecord{
			Translation: [3]float64{0.1, -2.5e-7, 1e20},
			Rotation:    1.25,
			Scale:       [3]float64{2, 2, 1},
		},
		RigidBody: &RigidBodyRecord{BodyType: "Kinematic"},
		Charge:    f64(-3.5),
	})

	for _, name := range []string{"scene.yaml", "scene.yml", "scene.ron"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := Export(path, want); err != nil {
				t.Fatalf("export: %v", err)
			}
			got, err := Import(path)
			if err != nil {
				t.Fatalf("import: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("round trip mismatch\n got: %+v\nwant: %+v", got, want)
			}
		})
	}
}

func TestUnsupportedExtensionDoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"scene.json", "scene", "scene.txt"} {
		path := filepath.Join(dir, name)
		if err := Export(path, ballScene()); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("export %s: err = %v, want ErrUnsupportedFormat", name, err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("export %s created a file", name)
		}
		if _, err := Import(path); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("import %s: err = %v, want ErrUnsupportedFormat", name, err)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("directory not empty: %v", entries)
	}
}

func TestExportFailureKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(path, []byte("entities: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Export(filepath.Join(dir, "missing", "scene.yaml"), ballScene()); err == nil {
		t.Fatalf("expected error writing into a missing directory")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "entities: []\n" {
		t.Fatalf("existing file changed: %q", data)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name   string
		format Format
		input  string
		want   error
	}{
		{"yaml syntax", YAML, "entities: [\n", ErrParse},
		{"yaml missing name", YAML, "entities:\n  - transform: {translation: [0, 0, 0], rotation: 0, scale: [1, 1, 1]}\n", ErrSchema},
		{"yaml unknown key", YAML, "entities: []\nextra: 1\n", ErrSchema},
		{"yaml short vector", YAML, "entities:\n  - name: a\n    transform: {translation: [0, 0], rotation: 0, scale: [1, 1, 1]}\n", ErrSchema},
		{"yaml empty", YAML, "", ErrSchema},
		{"ron syntax", RON, "(entities: [", ErrParse},
		{"ron trailing", RON, "(entities: []) )", ErrParse},
		{"ron wrong type", RON, `(entities: [(name: 5, transform: (translation: (0,0,0), rotation: 0, scale: (1,1,1)))])`, ErrSchema},
		{"ron duplicate", RON, "(entities: [], entities: [])", ErrParse},
		{"ron deep nesting", RON, "(entities: " + strings.Repeat("[", 1<<20) + ")", ErrParse},
		{"ron nesting within limit", RON, "(entities: [], extra: " + strings.Repeat("[", 100) + strings.Repeat("]", 100) + ")", ErrSchema},
		{"ron deep some", RON, strings.Repeat("Some(", maxRONDepth+1) + "1" + strings.Repeat(")", maxRONDepth+1), ErrParse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(tc.format, []byte(tc.input))
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if got.Entities != nil {
				t.Fatalf("partial scene returned: %+v", got)
			}
		})
	}
}

func TestDecodeRONDialect(t *testing.T) {
	input := `
// scene written by hand
Scene(
    entities: [
        (
            name: "Probe",
            transform: TransformData(
                translation: (1, 2.5, -3,),
                rotation: 0.0, /* radians */
                scale: (1.0, 1.0, 1.0),
            ),
            rigid_body: Some((body_type: "Dynamic")),
            charge: Some(2),
            field: None,
        ),
    ],
)`
	got, err := Decode(RON, []byte(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Entities) != 1 {
		t.Fatalf("got %d entities", len(got.Entities))
	}
	e := got.Entities[0]
	if e.Name != "Probe" || e.Transform.Translation != [3]float64{1, 2.5, -3} {
		t.Fatalf("entity = %+v", e)
	}
	if e.RigidBody == nil || e.RigidBody.BodyType != "Dynamic" {
		t.Fatalf("rigid body = %+v", e.RigidBody)
	}
	if e.Charge == nil || *e.Charge != 2 || e.Collider != nil || e.Field != nil {
		t.Fatalf("optional fields = %+v", e)
	}
}

func TestRONEncodingShape(t *testing.T) {
	out := string(encodeRON(NewSampleScene()))
	for _, want := range []string{
		`name: "Ball",`,
		"translation: (-1000.0, 1000.0, 0.0),",
		"charge: Some(10.0),",
		"field: None,",
		"direction_z: Some(-1.0),",
		`rigid_body: Some((`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded RON missing %q", want)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{"a.yaml": YAML, "b.YML": YAML, "dir.v2/c.ron": RON} {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Errorf("FormatFromPath(%q) = %v, %v", path, got, err)
		}
	}
}

func TestDocumentTitle(t *testing.T) {
	d := New()
	if d.Title() != "Untitled" {
		t.Fatalf("title = %q", d.Title())
	}
	d.MarkDirty()
	if d.Title() != "Untitled*" {
		t.Fatalf("title = %q", d.Title())
	}
	d.MarkClean("/tmp/scenes/lab.ron")
	if d.Dirty || d.Title() != "lab.ron" {
		t.Fatalf("title = %q dirty=%v", d.Title(), d.Dirty)
	}
}
