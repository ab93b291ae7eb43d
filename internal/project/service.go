// Package project is the scene library: scenes saved server-side from a
// live session and opened back into one.
package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anreonyr/simphy/internal/document"
	"github.com/anreonyr/simphy/internal/engine"
	"github.com/anreonyr/simphy/internal/session"
	"github.com/anreonyr/simphy/internal/store"
	"github.com/anreonyr/simphy/internal/typeid"
)

var (
	ErrNotFound    = store.ErrNotFound
	ErrInvalidName = errors.New("invalid scene name")
)

const maxNameLength = 128

// Sessions runs work on a live session's engine.
type Sessions interface {
	Do(ctx context.Context, sessionID string, fn func(*engine.Engine) error) error
}

type Service struct {
	store    store.Store
	sessions Sessions
}

func NewService(s store.Store, sessions Sessions) *Service {
	return &Service{store: s, sessions: sessions}
}

// Scene is a library entry with its encoded contents.
type Scene struct {
	store.SceneInfo
	Content string `json:"content"`
}

// --- Commands ---

// SaveFromSession encodes the session's current scene and stores it as a
// new library entry.
func (s *Service) SaveFromSession(ctx context.Context, sessionID, name, format string) (*store.SceneInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return nil, ErrInvalidName
	}
	f := document.YAML
	if format != "" {
		var err error
		if f, err = document.ParseFormat(format); err != nil {
			return nil, err
		}
	}

	var (
		data     []byte
		entities int
	)
	err := s.sessions.Do(ctx, sessionID, func(e *engine.Engine) error {
		var err error
		data, err = e.Export(f)
		entities = e.Len()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("collect scene: %w", err)
	}

	blob := store.SceneBlob{
		SceneInfo: store.SceneInfo{
			ID:       typeid.NewSceneID(),
			Name:     name,
			Format:   f.String(),
			Entities: entities,
		},
		Data: data,
	}
	if err := s.store.Save(ctx, blob); err != nil {
		return nil, err
	}
	saved, err := s.store.Get(ctx, blob.ID)
	if err != nil {
		return nil, err
	}
	return &saved.SceneInfo, nil
}

// OpenInSession replaces the session's scene with a library entry. The
// session document keeps no path and is left dirty.
func (s *Service) OpenInSession(ctx context.Context, sceneID, sessionID string) error {
	blob, err := s.store.Get(ctx, sceneID)
	if err != nil {
		return err
	}
	f, err := document.ParseFormat(blob.Format)
	if err != nil {
		return err
	}
	return s.sessions.Do(ctx, sessionID, func(e *engine.Engine) error {
		return e.Import(f, blob.Data)
	})
}

func (s *Service) Delete(ctx context.Context, sceneID string) error {
	return s.store.Delete(ctx, sceneID)
}

// --- Queries ---

func (s *Service) Get(ctx context.Context, sceneID string) (*Scene, error) {
	blob, err := s.store.Get(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	return &Scene{SceneInfo: blob.SceneInfo, Content: string(blob.Data)}, nil
}

func (s *Service) List(ctx context.Context) ([]store.SceneInfo, error) {
	return s.store.List(ctx)
}

// Compile-time check that the session hub can back the library.
var _ Sessions = (*session.Hub)(nil)
