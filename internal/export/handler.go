// Package export serves scene downloads and uploads for live sessions.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/anreonyr/simphy/internal/document"
	"github.com/anreonyr/simphy/internal/engine"
	"github.com/anreonyr/simphy/internal/session"
)

const maxUploadSize = 4 << 20 // 4MB

// Sessions runs work on a live session's engine.
type Sessions interface {
	Do(ctx context.Context, sessionID string, fn func(*engine.Engine) error) error
}

type Handler struct {
	sessions Sessions
}

func NewHandler(sessions Sessions) *Handler {
	return &Handler{sessions: sessions}
}

// Export downloads the session's scene. The format query parameter selects
// yaml (default) or ron; name sets the download filename.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	format := document.YAML
	if v := r.URL.Query().Get("format"); v != "" {
		var err error
		if format, err = document.ParseFormat(v); err != nil {
			http.Error(w, "invalid format: must be yaml or ron", http.StatusBadRequest)
			return
		}
	}

	name := sanitizeName(r.URL.Query().Get("name"))

	var data []byte
	err := h.sessions.Do(r.Context(), sessionID, func(e *engine.Engine) error {
		var err error
		data, err = e.Export(format)
		return err
	})
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s%s"`, name, format.Ext()))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)

	slog.Info("scene exported", "session", sessionID, "format", format.String(), "size", len(data))
}

// Import replaces the session's scene with an uploaded file. The format
// comes from the "format" form value or, failing that, the file extension.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "request too large", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var format document.Format
	if v := r.FormValue("format"); v != "" {
		format, err = document.ParseFormat(v)
	} else {
		format, err = document.FormatFromPath(header.Filename)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("read uploaded scene", "error", err)
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	var entities int
	err = h.sessions.Do(r.Context(), sessionID, func(e *engine.Engine) error {
		if err := e.Import(format, data); err != nil {
			return err
		}
		entities = e.Len()
		return nil
	})
	if err != nil {
		handleError(w, err)
		return
	}

	slog.Info("scene imported", "session", sessionID, "file", header.Filename, "entities", entities)
	w.WriteHeader(http.StatusNoContent)
}

func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, document.ErrParse),
		errors.Is(err, document.ErrSchema),
		errors.Is(err, engine.ErrInvalidScene):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, document.ErrUnsupportedFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		session.HandleError(w, err)
	}
}

func sanitizeName(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" {
		return "scene"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
