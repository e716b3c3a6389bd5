package zarr

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
)

// groupMarker is the content of a .zgroup marker file.
const groupMarker = "{\n    \"zarr_format\": 2\n}\n"

// Group is a directory bearing a .zgroup marker whose subdirectories are
// further groups or arrays. Children are opened when the group is and are
// shared: every lookup returns the same collection value, so mutation
// through one handle is visible through all of them.
type Group struct {
	collection
	children []Collection
}

// CreateGroup creates a group directory, writing the .zgroup marker.
// Collections already present in the directory are discovered as children.
func CreateGroup(dir string) (*Group, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	marker := filepath.Join(dir, groupMarkerName)
	if _, err := os.Stat(marker); os.IsNotExist(err) {
		if err := renameio.WriteFile(marker, []byte(groupMarker), 0o644); err != nil {
			return nil, fmt.Errorf("writing group marker %s: %w", marker, err)
		}
	}
	return openGroup(dir)
}

// OpenGroup opens an existing group. The directory must carry a .zgroup
// marker.
func OpenGroup(dir string) (*Group, error) {
	if _, err := os.Stat(filepath.Join(dir, groupMarkerName)); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotGroup, dir)
		}
		return nil, err
	}
	return openGroup(dir)
}

func openGroup(dir string) (*Group, error) {
	col, err := newCollection(dir)
	if err != nil {
		return nil, err
	}

	g := &Group{collection: col}
	if err := g.findChildren(); err != nil {
		return nil, err
	}
	return g, nil
}

// findChildren scans the directory for child collections. Entries that are
// neither arrays nor groups, such as the marker and attribute files, are
// skipped. The scan is in name order, so iteration order is stable.
func (g *Group) findChildren() error {
	entries, err := os.ReadDir(g.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		child, err := OpenCollection(filepath.Join(g.dir, entry.Name()))
		if err != nil {
			if errors.Is(err, ErrNotCollection) {
				continue
			}
			return fmt.Errorf("opening child %q: %w", entry.Name(), err)
		}
		g.children = append(g.children, child)
	}
	return nil
}

// Children returns the group's child collections in stable order.
func (g *Group) Children() []Collection {
	return g.children
}

// Find returns the child with the given name, or nil when absent.
func (g *Group) Find(name string) Collection {
	for _, child := range g.children {
		if child.Name() == name {
			return child
		}
	}
	return nil
}

// CreateGroup creates a child group under this group and registers it as a
// child. If a child group with that name already exists, its shared handle
// is returned instead of a second instance.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if existing := g.Find(name); existing != nil {
		sub, ok := existing.(*Group)
		if !ok {
			return nil, fmt.Errorf("%w: child %q is not a group", ErrNotGroup, name)
		}
		return sub, nil
	}

	child, err := CreateGroup(filepath.Join(g.dir, name))
	if err != nil {
		return nil, err
	}
	g.children = append(g.children, child)
	return child, nil
}

// Close persists the group's attributes and closes its children.
func (g *Group) Close() error {
	errs := []error{g.WriteAttributes()}
	for _, child := range g.children {
		errs = append(errs, child.Close())
	}
	return errors.Join(errs...)
}
