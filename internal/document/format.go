package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrParse             = errors.New("parse scene")
	ErrSchema            = errors.New("scene does not match schema")
)

// Format is a textual scene encoding.
type Format int

const (
	YAML Format = iota + 1
	RON
)

func (f Format) String() string {
	switch f {
	case YAML:
		return "yaml"
	case RON:
		return "ron"
	default:
		return "unknown"
	}
}

// Ext is the canonical file extension, including the dot.
func (f Format) Ext() string { return "." + f.String() }

// ContentType is the media type used when serving the encoding over HTTP.
func (f Format) ContentType() string {
	switch f {
	case YAML:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// ParseFormat resolves a format name or extension such as "yml" or ".ron".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "yaml", "yml":
		return YAML, nil
	case "ron":
		return RON, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// FormatFromPath selects the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return 0, fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, filepath.Base(path))
	}
	return ParseFormat(ext)
}

// Encode serializes scene in the given format.
func Encode(f Format, scene Scene) ([]byte, error) {
	if scene.Entities == nil {
		scene.Entities = []EntityRecord{}
	}
	switch f {
	case YAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(scene); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case RON:
		return encodeRON(scene), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}
}

// Decode parses data in the given format. The text is first parsed into a
// generic tree, normalized to JSON, validated against the scene schema and
// only then decoded, so a failure never yields a partial scene.
func Decode(f Format, data []byte) (Scene, error) {
	var tree any
	switch f {
	case YAML:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return Scene{}, fmt.Errorf("%w: yaml: %v", ErrParse, err)
		}
		tree = normalizeYAML(tree)
	case RON:
		var err error
		if tree, err = parseRON(data); err != nil {
			return Scene{}, fmt.Errorf("%w: ron: %v", ErrParse, err)
		}
	default:
		return Scene{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}

	raw, err := json.Marshal(tree)
	if err != nil {
		return Scene{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := validate(raw); err != nil {
		return Scene{}, err
	}

	var scene Scene
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&scene); err != nil {
		return Scene{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return scene, nil
}

// normalizeYAML rewrites non-string mapping keys so the tree can be
// marshaled as JSON.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeYAML(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalizeYAML(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = normalizeYAML(e)
		}
		return t
	default:
		return v
	}
}
