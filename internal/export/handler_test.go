package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/anreonyr/simphy/internal/engine"
	"github.com/anreonyr/simphy/internal/geom"
	"github.com/anreonyr/simphy/internal/session"
)

func newTestServer(t *testing.T) (*session.Hub, *mux.Router) {
	t.Helper()
	hub := session.NewHub(session.Options{
		Engine:       engine.Options{Gravity: geom.Vec2{}},
		TickInterval: 5 * time.Millisecond,
		SceneDir:     t.TempDir(),
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	go hub.Run()
	t.Cleanup(hub.Stop)

	h := NewHandler(hub)
	r := mux.NewRouter()
	r.HandleFunc("/api/sessions/{sessionId}/export", h.Export).Methods("GET")
	r.HandleFunc("/api/sessions/{sessionId}/import", h.Import).Methods("POST")
	return hub, r
}

func upload(t *testing.T, r http.Handler, target, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestExportDownload(t *testing.T) {
	hub, r := newTestServer(t)
	sid := hub.Create().ID()
	if err := hub.Do(context.Background(), sid, func(e *engine.Engine) error { return e.LoadSample() }); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sid+"/export?format=ron&name=my%20lab", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="my-lab.ron"` {
		t.Fatalf("disposition = %q", got)
	}
	if !strings.Contains(rec.Body.String(), `"Ball"`) {
		t.Fatalf("body = %s", rec.Body)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sid+"/export", nil))
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="scene.yaml"` {
		t.Fatalf("default disposition = %q", got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sid+"/export?format=json", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad format: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/sess_missing/export", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing session: status = %d", rec.Code)
	}
}

func TestImportUpload(t *testing.T) {
	hub, r := newTestServer(t)
	sid := hub.Create().ID()

	scene := `entities:
  - name: Probe
    transform:
      translation: [10, 20, 0]
      rotation: 0
      scale: [1, 1, 1]
    rigid_body:
      body_type: Dynamic
    charge: 2
`
	rec := upload(t, r, "/api/sessions/"+sid+"/import", "probe.yaml", scene)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var names []string
	_ = hub.Do(context.Background(), sid, func(e *engine.Engine) error {
		for _, ent := range e.Entities() {
			names = append(names, ent.Name)
		}
		return nil
	})
	if len(names) != 1 || names[0] != "Probe" {
		t.Fatalf("entities = %v", names)
	}

	if rec := upload(t, r, "/api/sessions/"+sid+"/import", "probe.txt", scene); rec.Code != http.StatusBadRequest {
		t.Fatalf("txt: status = %d", rec.Code)
	}
	if rec := upload(t, r, "/api/sessions/"+sid+"/import", "bad.yaml", "entities: ["); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("parse error: status = %d", rec.Code)
	}
}
