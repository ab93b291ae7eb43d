package document

import (
	"fmt"
	"os"
	"path/filepath"
)

// Import reads and decodes the scene at path. The format is chosen by
// extension; nothing is returned on failure.
func Import(path string) (Scene, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return Scene{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Scene{}, fmt.Errorf("read scene: %w", err)
	}
	scene, err := Decode(f, data)
	if err != nil {
		return Scene{}, fmt.Errorf("import %s: %w", filepath.Base(path), err)
	}
	return scene, nil
}

// Export encodes scene and replaces path with it. The scene is fully
// encoded before anything is written, and the file is written to a
// temporary sibling and renamed into place, so a failure leaves any
// existing file untouched.
func Export(path string, scene Scene) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(f, scene)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync scene: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close scene: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod scene: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename scene: %w", err)
	}
	return nil
}
