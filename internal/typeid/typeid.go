package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixEntity  = "ent"
	PrefixSession = "sess"
	PrefixScene   = "scene"
	PrefixViewer  = "viewer"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewEntityID() string  { return New(PrefixEntity) }
func NewSessionID() string { return New(PrefixSession) }
func NewSceneID() string   { return New(PrefixScene) }
func NewViewerID() string  { return New(PrefixViewer) }

// Validate checks that id parses and carries expectedPrefix.
func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
