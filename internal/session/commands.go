package session

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/anreonyr/simphy/internal/engine"
)

// ResolvePath maps a client-supplied scene path onto root. Absolute paths
// and paths that climb out of root are rejected.
func ResolvePath(root, p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathOutsideRoot)
	}
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideRoot, p)
	}
	full := filepath.Join(root, p)
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideRoot, p)
	}
	return full, nil
}

// apply runs one client command against the engine. It is only called from
// the room loop. A non-nil reply goes back to the sender.
func (r *Room) apply(e *engine.Engine, msg *Message) (*Message, error) {
	switch msg.Type {
	case TypePointer:
		var ev PointerPayload
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return nil, fmt.Errorf("invalid pointer payload: %w", err)
		}
		return nil, r.pointer.Apply(ev)

	case TypeToolSet:
		var p ToolPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, fmt.Errorf("invalid tool payload: %w", err)
		}
		tool, err := engine.ParseTool(p.Tool)
		if err != nil {
			return nil, err
		}
		e.SetTool(tool)
		return nil, nil

	case TypeTemplateUpdate:
		patch, err := engine.ParseTemplatePatch(msg.Payload)
		if err != nil {
			return nil, err
		}
		return nil, e.UpdateTemplate(patch)

	case TypeSelectionEdit:
		patch, err := engine.ParsePropertyPatch(msg.Payload)
		if err != nil {
			return nil, err
		}
		return nil, e.EditSelected(patch)

	case TypeEditDelete:
		return nil, e.DeleteSelected()

	case TypeEditDuplicate:
		_, err := e.DuplicateSelected()
		return nil, err

	case TypeSceneNew:
		e.NewScene()
		return r.status(e)

	case TypeSceneSample:
		if err := e.LoadSample(); err != nil {
			return nil, err
		}
		return r.status(e)

	case TypeSceneOpen:
		path, err := r.scenePath(msg)
		if err != nil {
			return nil, err
		}
		if err := e.Open(path); err != nil {
			return nil, err
		}
		return r.status(e)

	case TypeSceneSave:
		if err := e.Save(); err != nil {
			return nil, err
		}
		return r.status(e)

	case TypeSceneSaveAs:
		path, err := r.scenePath(msg)
		if err != nil {
			return nil, err
		}
		if err := e.SaveAs(path); err != nil {
			return nil, err
		}
		return r.status(e)

	case TypeSimPlay:
		e.Play()
		return nil, nil

	case TypeSimPause:
		e.Pause()
		return nil, nil

	case TypeSimReset:
		e.Reset()
		return nil, nil

	case TypeSimTimeScale:
		var p TimeScalePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, fmt.Errorf("invalid time scale payload: %w", err)
		}
		return nil, e.SetTimeScale(p.Scale)

	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (r *Room) scenePath(msg *Message) (string, error) {
	var p PathPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return "", fmt.Errorf("invalid path payload: %w", err)
	}
	return ResolvePath(r.sceneDir, p.Path)
}

// status reports the document with its path relative to the scene
// directory.
func (r *Room) status(e *engine.Engine) (*Message, error) {
	doc := e.Document()
	p := StatusPayload{Title: doc.Title(), Dirty: doc.Dirty, Entities: e.Len()}
	if doc.Path != "" {
		if rel, err := filepath.Rel(r.sceneDir, doc.Path); err == nil {
			p.Path = filepath.ToSlash(rel)
		}
	}
	return newMessage(TypeSceneStatus, p)
}
