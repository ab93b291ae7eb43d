// Package store persists the scene library: named, encoded scenes kept
// server-side. Scene bytes are stored zstd-compressed.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
)

var ErrNotFound = errors.New("scene not found")

// SceneInfo describes a stored scene without its contents.
type SceneInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Format    string    `json:"format"`
	Entities  int       `json:"entities"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SceneBlob is a stored scene. Data is the encoded scene text,
// uncompressed.
type SceneBlob struct {
	SceneInfo
	Data []byte `json:"-"`
}

type Store interface {
	// Save inserts or replaces the scene with blob.ID. CreatedAt of an
	// existing scene is kept.
	Save(ctx context.Context, blob SceneBlob) error
	Get(ctx context.Context, id string) (SceneBlob, error)
	// List returns every scene, most recently updated first.
	List(ctx context.Context) ([]SceneInfo, error)
	Delete(ctx context.Context, id string) error
	Close()
}

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

func compress(data []byte) []byte {
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

func decompress(data []byte) ([]byte, error) {
	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress scene: %w", err)
	}
	return out, nil
}

func validateBlob(b SceneBlob) error {
	if b.ID == "" {
		return errors.New("scene id is required")
	}
	if b.Name == "" {
		return errors.New("scene name is required")
	}
	return nil
}

// stamp fills in the timestamps for a save at now.
func stamp(b SceneBlob, now time.Time) SceneBlob {
	now = now.UTC().Truncate(time.Millisecond)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	return b
}
