package zarr

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"

	"github.com/robert-malhotra/go-zarr/internal/meta"
)

const (
	// attrsFileName holds a collection's JSON attributes.
	attrsFileName = ".zattrs"
	// groupMarkerName marks a directory as a group.
	groupMarkerName = ".zgroup"
)

// Collection is the common surface of arrays and groups: a backing
// directory with user attributes.
//
// Attributes are read when the collection is opened and written back by
// Close. Callers needing durability mid-life call WriteAttributes.
type Collection interface {
	// Path returns the backing directory.
	Path() string

	// Name returns the last path component of the backing directory.
	Name() string

	// Attributes returns the mutable attribute object.
	Attributes() map[string]any

	// WriteAttributes persists the attributes to the directory.
	WriteAttributes() error

	// Close persists pending state and releases the collection.
	Close() error
}

// collection carries the directory path and attributes shared by arrays
// and groups.
type collection struct {
	dir   string
	attrs map[string]any
}

func newCollection(dir string) (collection, error) {
	attrs, err := readAttributes(dir)
	if err != nil {
		return collection{}, err
	}
	return collection{dir: dir, attrs: attrs}, nil
}

// readAttributes loads <dir>/.zattrs, returning an empty object when the
// file does not exist.
func readAttributes(dir string) (map[string]any, error) {
	path := filepath.Join(dir, attrsFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading attributes %s: %w", path, err)
	}

	attrs := map[string]any{}
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("parsing attributes %s: %w", path, err)
	}
	return attrs, nil
}

func (c *collection) Path() string { return c.dir }

func (c *collection) Name() string { return filepath.Base(c.dir) }

func (c *collection) Attributes() map[string]any { return c.attrs }

// WriteAttributes serializes the attributes to <dir>/.zattrs. Nothing is
// written when the attributes are empty and no file exists yet.
func (c *collection) WriteAttributes() error {
	path := filepath.Join(c.dir, attrsFileName)
	if len(c.attrs) == 0 {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil
		}
	}

	data, err := json.MarshalIndent(c.attrs, "", "    ")
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing attributes %s: %w", path, err)
	}
	return nil
}

// OpenCollection opens the array or group rooted at dir: a directory with
// a .zgroup marker opens as a group, one with a .zarray header as an
// array. A directory with neither, or a path that is not a directory,
// fails with ErrNotCollection; a path that cannot be stat'ed returns the
// underlying filesystem error.
func OpenCollection(dir string) (Collection, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotCollection, dir)
	}

	if _, err := os.Stat(filepath.Join(dir, groupMarkerName)); err == nil {
		return OpenGroup(dir)
	}
	if _, err := os.Stat(meta.Path(dir)); err == nil {
		return OpenArray(dir)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotCollection, dir)
}
