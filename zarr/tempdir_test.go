package zarr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateAllocatesDistinctTempDirs(t *testing.T) {
	t.Cleanup(func() {
		if err := Cleanup(); err != nil {
			t.Errorf("Cleanup failed: %v", err)
		}
	})

	a, err := Create[int32]([]uint64{4}, []uint64{2})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer a.Close()
	b, err := Create[int32]([]uint64{4}, []uint64{2})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer b.Close()

	if a.Path() == b.Path() {
		t.Fatalf("temporary arrays share a directory: %s", a.Path())
	}

	root, err := TempDir()
	if err != nil {
		t.Fatalf("TempDir failed: %v", err)
	}
	for _, p := range []string{a.Path(), b.Path()} {
		if !strings.HasPrefix(p, root+string(filepath.Separator)) {
			t.Errorf("temporary array %s is outside the scratch directory %s", p, root)
		}
	}
}

func TestCleanupRemovesScratchDir(t *testing.T) {
	a, err := Create[int32]([]uint64{2}, []uint64{2})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := a.Set(0, 1); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	root, err := TempDir()
	if err != nil {
		t.Fatalf("TempDir failed: %v", err)
	}
	if err := Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Errorf("scratch directory %s still exists after Cleanup", root)
	}
}
