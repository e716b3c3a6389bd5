package zarr

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func buildTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	g, err := CreateGroup(dir)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := g.CreateGroup("sub"); err != nil {
		t.Fatalf("CreateGroup(sub) failed: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	for _, name := range []string{"arr", "sub/deep"} {
		a, err := CreateAt[int32](filepath.Join(dir, name), []uint64{2}, []uint64{2})
		if err != nil {
			t.Fatalf("CreateAt(%s) failed: %v", name, err)
		}
		if err := a.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}
	return dir
}

func TestWalkVisitsEverything(t *testing.T) {
	dir := buildTree(t)

	g, err := OpenGroup(dir)
	if err != nil {
		t.Fatalf("OpenGroup failed: %v", err)
	}
	defer g.Close()

	var visited []string
	err = Walk(g, func(path string, c Collection, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		visited = append(visited, rel)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{".", "arr", "sub", "sub/deep"}
	if diff := cmp.Diff(want, visited); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkStopsOnError(t *testing.T) {
	dir := buildTree(t)

	g, err := OpenGroup(dir)
	if err != nil {
		t.Fatalf("OpenGroup failed: %v", err)
	}
	defer g.Close()

	stop := errors.New("stop")
	count := 0
	err = Walk(g, func(path string, c Collection, err error) error {
		count++
		if count == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk returned %v, want the callback error", err)
	}
	if count != 2 {
		t.Errorf("callback ran %d times after requesting a stop, want 2", count)
	}
}
