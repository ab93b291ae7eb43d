package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"

	"github.com/anreonyr/simphy/internal/document"
	"github.com/anreonyr/simphy/internal/field"
	"github.com/anreonyr/simphy/internal/geom"
	"github.com/anreonyr/simphy/internal/physics"
	"github.com/anreonyr/simphy/internal/shape"
)

func newTestEngine(t *testing.T, gravity geom.Vec2) *Engine {
	t.Helper()
	n := 0
	return New(Options{
		Gravity: gravity,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewID: func() string {
			n++
			return fmt.Sprintf("ent-%d", n)
		},
	})
}

func at(p geom.Vec2) *geom.Vec2 { return &p }

func click(p geom.Vec2) Input {
	return Input{Cursor: at(p), ViewportHovered: true, Primary: Button{Pressed: true, JustPressed: true}}
}

func hold(p geom.Vec2) Input {
	return Input{Cursor: at(p), ViewportHovered: true, Primary: Button{Pressed: true}}
}

func release(p geom.Vec2) Input {
	return Input{Cursor: at(p), ViewportHovered: true, Primary: Button{JustReleased: true}}
}

func placeAt(t *testing.T, e *Engine, p geom.Vec2) *Entity {
	t.Helper()
	e.SetTool(ToolPlace)
	before := e.Len()
	e.HandleInput(click(p))
	if e.Len() != before+1 {
		t.Fatalf("placement at %+v did not add an entity", p)
	}
	return e.Entities()[e.Len()-1]
}

func TestPlacementNamesAndCount(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	for i := 1; i <= 4; i++ {
		ent := placeAt(t, e, geom.V2(float64(i)*100, 0))
		if want := fmt.Sprintf("Rectangle %d", i); ent.Name != want {
			t.Fatalf("name = %q, want %q", ent.Name, want)
		}
	}
	if e.Len() != 4 {
		t.Fatalf("len = %d, want 4", e.Len())
	}
	if !e.IsDirty() {
		t.Fatalf("placement should mark the document dirty")
	}

	shp := shape.Hexagon
	if err := e.UpdateTemplate(TemplatePatch{Shape: &shp}); err != nil {
		t.Fatal(err)
	}
	if ent := placeAt(t, e, geom.V2(0, 500)); ent.Name != "Hexagon 5" {
		t.Fatalf("name = %q, want Hexagon 5", ent.Name)
	}
}

func TestPlacementUsesTemplate(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	mass, charge := 3.0, -2.0
	offset := geom.V2(5, -5)
	if err := e.UpdateTemplate(TemplatePatch{Mass: &mass, Charge: &charge, Offset: &offset}); err != nil {
		t.Fatal(err)
	}
	ent := placeAt(t, e, geom.V2(10, 10))
	if got := ent.Transform.Position(); got != geom.V2(15, 5) {
		t.Fatalf("position = %+v, want offset applied", got)
	}
	p := ent.Particle()
	if p == nil || p.Mass != 3 || p.Charge == nil || *p.Charge != -2 {
		t.Fatalf("particle = %+v", p)
	}

	// Later template edits do not reach placed entities.
	charge = 9
	if err := e.UpdateTemplate(TemplatePatch{Charge: &charge}); err != nil {
		t.Fatal(err)
	}
	if *p.Charge != -2 {
		t.Fatalf("placed charge changed to %v", *p.Charge)
	}
}

func TestUpdateTemplateRejectsInvalid(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	zero := 0.0
	if err := e.UpdateTemplate(TemplatePatch{Mass: &zero}); !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("err = %v, want ErrInvalidTemplate", err)
	}
	if e.Template().Mass != DefaultMass {
		t.Fatalf("template changed after rejected update")
	}

	if _, err := ParseTemplatePatch([]byte(`{"bogus":1}`)); err == nil {
		t.Fatalf("unknown key should be rejected")
	}
	p, err := ParseTemplatePatch([]byte(`{"shape":"star","fieldKind":"electric"}`))
	if err != nil {
		t.Fatal(err)
	}
	if *p.Shape != shape.Star || *p.FieldKind != field.Electric {
		t.Fatalf("patch = %+v", p)
	}
}

func TestSelectWithinHitRadius(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	ent := placeAt(t, e, geom.V2(0, 0))
	e.SetTool(ToolSelect)

	e.HandleInput(click(geom.V2(24.9, 0)))
	if e.Selection().Entity != ent.ID {
		t.Fatalf("click inside radius did not select")
	}
	props := e.Selection().Properties
	if props == nil || props.Name != ent.Name || props.Mass == nil || *props.Mass != DefaultMass {
		t.Fatalf("properties = %+v", props)
	}

	e.HandleInput(click(geom.V2(25, 0)))
	if e.Selection().Entity != "" {
		t.Fatalf("click on the radius should miss")
	}
}

func TestSelectPicksNearest(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	placeAt(t, e, geom.V2(0, 0))
	near := placeAt(t, e, geom.V2(20, 0))
	e.SetTool(ToolSelect)
	e.HandleInput(click(geom.V2(15, 0)))
	if e.Selection().Entity != near.ID {
		t.Fatalf("selected %q, want %q", e.Selection().Entity, near.ID)
	}
}

func TestMoveKeepsGrabOffset(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	p := geom.V2(100, 100)
	ent := placeAt(t, e, p)
	e.SetTool(ToolSelect)
	c0 := geom.V2(110, 105)
	e.HandleInput(click(c0))
	if e.Selection().Entity != ent.ID {
		t.Fatalf("not selected")
	}
	e.doc.MarkClean("")

	e.SetTool(ToolMove)
	e.HandleInput(click(c0))
	if !e.Drag().Dragging {
		t.Fatalf("drag did not start")
	}
	if e.IsDirty() {
		t.Fatalf("grabbing without moving should not dirty the document")
	}
	c1 := geom.V2(200, 300)
	e.HandleInput(hold(c1))
	want := p.Add(c1.Sub(c0))
	if got := ent.Transform.Position(); got != want {
		t.Fatalf("position = %+v, want %+v", got, want)
	}
	if wp, _ := e.world.Position(ent.ID); wp != want {
		t.Fatalf("body position = %+v, want %+v", wp, want)
	}
	if !e.IsDirty() {
		t.Fatalf("move should mark dirty")
	}

	e.HandleInput(release(c1))
	if e.Drag().Dragging {
		t.Fatalf("release should end the drag")
	}
	e.HandleInput(hold(geom.V2(0, 0)))
	if got := ent.Transform.Position(); got != want {
		t.Fatalf("entity moved after release")
	}
}

func TestMoveWithoutSelectionDoesNothing(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	ent := placeAt(t, e, geom.V2(0, 0))
	e.SetTool(ToolMove)
	e.HandleInput(click(geom.V2(0, 0)))
	e.HandleInput(hold(geom.V2(50, 50)))
	if e.Drag().Dragging || ent.Transform.Position() != geom.V2(0, 0) {
		t.Fatalf("drag started without a selection")
	}
}

func TestReleaseOutsideViewportEndsDrag(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	placeAt(t, e, geom.V2(0, 0))
	e.SetTool(ToolSelect)
	e.HandleInput(click(geom.V2(0, 0)))
	e.SetTool(ToolMove)
	e.HandleInput(click(geom.V2(0, 0)))

	e.HandleInput(Input{Primary: Button{JustReleased: true}})
	if e.Drag().Dragging {
		t.Fatalf("release off-viewport should end the drag")
	}
}

func TestDeleteClearsSelection(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	ent := placeAt(t, e, geom.V2(0, 0))
	other := placeAt(t, e, geom.V2(300, 0))
	e.SetTool(ToolSelect)
	e.HandleInput(click(geom.V2(1, 1)))

	e.SetTool(ToolDelete)
	e.HandleInput(click(geom.V2(1, 1)))
	if _, ok := e.Entity(ent.ID); ok {
		t.Fatalf("entity still present")
	}
	if e.world.Has(ent.ID) {
		t.Fatalf("body still in the world")
	}
	if e.Selection().Entity != "" {
		t.Fatalf("selection not cleared")
	}
	if _, ok := e.Entity(other.ID); !ok || e.Len() != 1 {
		t.Fatalf("wrong entity deleted")
	}

	e.HandleInput(click(geom.V2(-500, -500)))
	if e.Len() != 1 {
		t.Fatalf("miss deleted something")
	}
}

func TestOutsideViewportSuppressesTools(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	e.SetTool(ToolPlace)

	e.HandleInput(Input{Cursor: at(geom.V2(0, 0)), ViewportHovered: false, Primary: Button{Pressed: true, JustPressed: true}})
	e.HandleInput(Input{ViewportHovered: true, Primary: Button{Pressed: true, JustPressed: true}})
	if e.Len() != 0 {
		t.Fatalf("placed %d entities outside the viewport", e.Len())
	}
	if e.Indicator().Visible {
		t.Fatalf("indicator visible outside the viewport")
	}

	e.HandleInput(Input{Cursor: at(geom.V2(7, 8)), ViewportHovered: true})
	if ind := e.Indicator(); !ind.Visible || ind.Position != geom.V2(7, 8) {
		t.Fatalf("indicator = %+v", ind)
	}
}

func TestToolGating(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	for _, tool := range []Tool{ToolPan, ToolSelect, ToolMove, ToolDelete} {
		e.SetTool(tool)
		e.HandleInput(click(geom.V2(0, 0)))
		if e.Len() != 0 {
			t.Fatalf("%s placed an entity", tool)
		}
	}

	ent := placeAt(t, e, geom.V2(0, 0))
	e.HandleInput(click(geom.V2(0, 0)))
	if e.Selection().Entity != "" {
		t.Fatalf("place tool selected %s", ent.ID)
	}
	if e.Len() != 2 {
		t.Fatalf("second click should place again, len = %d", e.Len())
	}

	e.SetTool(ToolPan)
	if e.Indicator().Visible {
		t.Fatalf("indicator visible after leaving place")
	}
	e.HandleInput(click(geom.V2(0, 0)))
	if e.Selection().Entity != "" || e.Len() != 2 {
		t.Fatalf("pan changed the scene")
	}
}

func TestMagneticRegionPushesCharge(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	kind, strength, dir := field.Magnetic, 5.0, geom.V3(0, 0, -1)
	size := geom.V2(400, 400)
	if err := e.UpdateTemplate(TemplatePatch{FieldKind: &kind, FieldStrength: &strength, FieldDir: &dir, Size: &size}); err != nil {
		t.Fatal(err)
	}
	region := placeAt(t, e, geom.V2(0, 0))
	if region.Region() == nil {
		t.Fatalf("expected a field region")
	}

	none, charge, v := field.None, 2.0, geom.V2(0, 10)
	small := geom.V2(10, 10)
	if err := e.UpdateTemplate(TemplatePatch{FieldKind: &none, Charge: &charge, Velocity: &v, Size: &small}); err != nil {
		t.Fatal(err)
	}
	ball := placeAt(t, e, geom.V2(0, 0))

	e.Play()
	dt := 0.01
	e.Tick(Input{}, dt)

	if s := e.FieldStats(); s.Applied != 1 {
		t.Fatalf("stats = %+v, want one application", s)
	}
	got, _ := e.world.Velocity(ball.ID)
	// F = (100, 0) on unit mass.
	if math.Abs(got.X-100*dt) > 1e-9 || math.Abs(got.Y-10) > 1e-9 {
		t.Fatalf("velocity = %+v, want (%v, 10)", got, 100*dt)
	}
	if rp, _ := e.world.Position(region.ID); rp != geom.V2(0, 0) {
		t.Fatalf("region moved to %+v", rp)
	}
}

func TestParticleDraggedIntoRegionWhilePaused(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	kind, strength, dir := field.Electric, 3.0, geom.V3(1, 0, 0)
	size := geom.V2(400, 400)
	if err := e.UpdateTemplate(TemplatePatch{FieldKind: &kind, FieldStrength: &strength, FieldDir: &dir, Size: &size}); err != nil {
		t.Fatal(err)
	}
	placeAt(t, e, geom.V2(0, 0))

	none, charge, small := field.None, 2.0, geom.V2(10, 10)
	if err := e.UpdateTemplate(TemplatePatch{FieldKind: &none, Charge: &charge, Size: &small}); err != nil {
		t.Fatal(err)
	}
	start := geom.V2(1000, 1000)
	ball := placeAt(t, e, start)

	e.SetTool(ToolSelect)
	e.HandleInput(click(start))
	e.SetTool(ToolMove)
	e.HandleInput(click(start))
	e.HandleInput(hold(geom.V2(0, 50)))
	e.HandleInput(release(geom.V2(0, 50)))
	if got := ball.Transform.Position(); got != geom.V2(0, 50) {
		t.Fatalf("ball at %+v, want (0, 50)", got)
	}

	e.Play()
	e.Tick(Input{}, 0.01)
	if s := e.FieldStats(); s.Applied != 1 {
		t.Fatalf("first tick after play: stats = %+v, want one application", s)
	}
}

func TestPausedTickDoesNotStep(t *testing.T) {
	e := newTestEngine(t, geom.V2(0, -100))
	ent := placeAt(t, e, geom.V2(0, 0))
	e.Tick(Input{}, 0.1)
	if ent.Transform.Position() != geom.V2(0, 0) || e.Steps() != 0 {
		t.Fatalf("paused engine stepped")
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	e := newTestEngine(t, geom.V2(0, -100))
	v := geom.V2(3, 0)
	if err := e.UpdateTemplate(TemplatePatch{Velocity: &v}); err != nil {
		t.Fatal(err)
	}
	ent := placeAt(t, e, geom.V2(10, 20))
	if err := e.SetTimeScale(2); err != nil {
		t.Fatal(err)
	}

	if !e.Toggle() {
		t.Fatalf("toggle should start the simulation")
	}
	for i := 0; i < 10; i++ {
		e.Tick(Input{}, 0.05)
	}
	if e.Steps() != 10 {
		t.Fatalf("steps = %d", e.Steps())
	}
	if p := ent.Transform.Position(); p.Y >= 20 || p.X <= 10 {
		t.Fatalf("entity did not move: %+v", p)
	}

	e.Reset()
	if e.IsRunning() {
		t.Fatalf("reset should pause")
	}
	if p := ent.Transform.Position(); p != geom.V2(10, 20) {
		t.Fatalf("position after reset = %+v", p)
	}
	if got, _ := e.world.Velocity(ent.ID); got != v {
		t.Fatalf("velocity after reset = %+v, want %+v", got, v)
	}
	if e.TimeScale() != 2 {
		t.Fatalf("reset should keep the time scale")
	}
}

func TestSetTimeScaleRejectsNonPositive(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	for _, s := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if err := e.SetTimeScale(s); err == nil {
			t.Fatalf("time scale %v accepted", s)
		}
	}
	if e.TimeScale() != 1 {
		t.Fatalf("time scale = %v", e.TimeScale())
	}
}

func TestDuplicateSelected(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	if _, err := e.DuplicateSelected(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v", err)
	}
	src := placeAt(t, e, geom.V2(10, 10))
	e.SetTool(ToolSelect)
	e.HandleInput(click(geom.V2(10, 10)))

	dup, err := e.DuplicateSelected()
	if err != nil {
		t.Fatal(err)
	}
	if dup.Name != "Rectangle 1 Copy" || dup.ID == src.ID {
		t.Fatalf("dup = %+v", dup)
	}
	if p := dup.Transform.Position(); p != geom.V2(60, 60) {
		t.Fatalf("dup position = %+v", p)
	}
	if e.Selection().Entity != dup.ID {
		t.Fatalf("copy should be selected")
	}
	*dup.Particle().Charge = 42
	if *src.Particle().Charge == 42 {
		t.Fatalf("duplicate shares state with its source")
	}
}

func TestEditSelected(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	ent := placeAt(t, e, geom.V2(0, 0))
	if err := e.EditSelected(PropertyPatch{}); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v", err)
	}
	e.SetTool(ToolSelect)
	e.HandleInput(click(geom.V2(0, 0)))

	p, err := ParsePropertyPatch([]byte(`{"name":"Probe","mass":4,"position":{"x":5,"y":6},"shape":"circle"}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.EditSelected(p); err != nil {
		t.Fatal(err)
	}
	if ent.Name != "Probe" || ent.Particle().Mass != 4 || ent.Shape != shape.Circle {
		t.Fatalf("entity = %+v", ent)
	}
	if wp, _ := e.world.Position(ent.ID); wp != geom.V2(5, 6) {
		t.Fatalf("body position = %+v", wp)
	}
	if props := e.Selection().Properties; props.Name != "Probe" || props.Position != geom.V3(5, 6, 0) {
		t.Fatalf("snapshot not refreshed: %+v", props)
	}

	bad := -1.0
	if err := e.EditSelected(PropertyPatch{Mass: &bad}); err == nil {
		t.Fatalf("negative mass accepted")
	}
	if ent.Particle().Mass != 4 {
		t.Fatalf("rejected edit changed the entity")
	}
	strength := 1.0
	if err := e.EditSelected(PropertyPatch{FieldStrength: &strength}); err == nil {
		t.Fatalf("field edit on a particle accepted")
	}
}

func TestSaveAndOpenRoundTrip(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	if err := e.Save(); !errors.Is(err, ErrNoDocumentPath) {
		t.Fatalf("err = %v", err)
	}
	placeAt(t, e, geom.V2(1, 2))
	kind := field.Electric
	if err := e.UpdateTemplate(TemplatePatch{FieldKind: &kind}); err != nil {
		t.Fatal(err)
	}
	placeAt(t, e, geom.V2(-50, 0))

	path := filepath.Join(t.TempDir(), "scene.ron")
	if err := e.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	if e.IsDirty() || e.Document().Title() != "scene.ron" {
		t.Fatalf("document = %+v", e.Document())
	}

	o := newTestEngine(t, geom.Vec2{})
	if err := o.Open(path); err != nil {
		t.Fatal(err)
	}
	if o.Len() != 2 || o.IsDirty() || o.Document().Path != path {
		t.Fatalf("opened %d entities, doc %+v", o.Len(), o.Document())
	}
	a, b := o.Entities()[0], o.Entities()[1]
	if a.Name != "Rectangle 1" || a.Transform.Position() != geom.V2(1, 2) || a.BodyKind() != physics.Dynamic {
		t.Fatalf("first = %+v", a)
	}
	if r := b.Region(); r == nil || r.Kind != field.Electric || r.Field.Direction != geom.V3(0, 0, 1) {
		t.Fatalf("second = %+v", b)
	}
}

func TestSaveAsFailureKeepsDirty(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	placeAt(t, e, geom.V2(0, 0))
	err := e.SaveAs(filepath.Join(t.TempDir(), "scene.txt"))
	if !errors.Is(err, document.ErrUnsupportedFormat) {
		t.Fatalf("err = %v", err)
	}
	if !e.IsDirty() || e.Document().Path != "" {
		t.Fatalf("document changed after failed save: %+v", e.Document())
	}
}

func TestOpenFailureKeepsScene(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	placeAt(t, e, geom.V2(0, 0))
	if err := e.Open(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("opening a missing file succeeded")
	}
	if err := e.Import(document.YAML, []byte("entities: [{name: x}]")); err == nil {
		t.Fatalf("schema-invalid import succeeded")
	}
	if e.Len() != 1 || !e.IsDirty() {
		t.Fatalf("scene changed after failed open")
	}
}

func TestImportAndExport(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	src := []byte(`entities:
  - name: Ball
    transform: {translation: [1, 2, 0], rotation: 0, scale: [1, 1, 1]}
    rigid_body: {body_type: Dynamic}
    collider: {shape: Circle, radius: 10}
    charge: 4
`)
	if err := e.Import(document.YAML, src); err != nil {
		t.Fatal(err)
	}
	if e.Len() != 1 || !e.IsDirty() || e.Document().Path != "" {
		t.Fatalf("len %d, doc %+v", e.Len(), e.Document())
	}
	ent := e.Entities()[0]
	if ent.Shape != shape.Circle || ent.Size != geom.V2(20, 20) || *ent.Particle().Charge != 4 {
		t.Fatalf("entity = %+v", ent)
	}

	out, err := e.Export(document.RON)
	if err != nil {
		t.Fatal(err)
	}
	scene, err := document.Decode(document.RON, out)
	if err != nil {
		t.Fatal(err)
	}
	if len(scene.Entities) != 1 || scene.Entities[0].Name != "Ball" || *scene.Entities[0].Charge != 4 {
		t.Fatalf("exported %+v", scene)
	}
}

func TestSampleSceneSimulates(t *testing.T) {
	e := newTestEngine(t, geom.V2(0, -100))
	if err := e.LoadSample(); err != nil {
		t.Fatal(err)
	}
	if e.Len() != 3 || e.IsDirty() {
		t.Fatalf("len = %d, dirty = %v", e.Len(), e.IsDirty())
	}
	e.Play()
	e.Tick(Input{}, 1.0/60)
	if s := e.FieldStats(); s.Applied != 1 || s.Degenerate != 0 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestNewSceneClearsEverything(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	placeAt(t, e, geom.V2(0, 0))
	e.Play()
	e.NewScene()
	if e.Len() != 0 || e.world.Len() != 0 || e.IsRunning() || e.IsDirty() || e.Tool() != ToolPan {
		t.Fatalf("new scene left state behind")
	}
	if e.Document().Title() != "Untitled" {
		t.Fatalf("title = %q", e.Document().Title())
	}
}

func TestFrame(t *testing.T) {
	e := newTestEngine(t, geom.Vec2{})
	ent := placeAt(t, e, geom.V2(100, 0))
	e.SetTool(ToolSelect)
	e.HandleInput(click(geom.V2(100, 0)))

	f := e.Frame()
	if f.Tool != ToolSelect || len(f.Entities) != 1 || f.Selection == nil {
		t.Fatalf("frame = %+v", f)
	}
	v := f.Entities[0]
	if v.ID != ent.ID || !v.Selected || len(v.Outline) != 4 {
		t.Fatalf("view = %+v", v)
	}
	if v.Bounds != (geom.Rect{X: 75, Y: -25, Width: 50, Height: 50}) {
		t.Fatalf("bounds = %+v", v.Bounds)
	}
	if !f.Document.Dirty || f.Document.Title != "Untitled*" {
		t.Fatalf("document = %+v", f.Document)
	}
	if _, err := e.FrameJSON(); err != nil {
		t.Fatal(err)
	}
}
