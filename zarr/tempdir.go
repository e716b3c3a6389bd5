package zarr

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// scratch is the process-wide state behind temporary array directories.
var scratch struct {
	mu   sync.Mutex
	dir  string
	next uint64
}

const scratchName = "go-zarr"

// TempDir returns the process-wide scratch directory, creating it on first
// use. It lives under the OS temp location when that is writable and under
// the working directory otherwise. Call Cleanup before the process exits
// to remove it and everything created inside it.
func TempDir() (string, error) {
	scratch.mu.Lock()
	defer scratch.mu.Unlock()
	return tempDirLocked()
}

func tempDirLocked() (string, error) {
	if scratch.dir != "" {
		return scratch.dir, nil
	}

	target := filepath.Join(os.TempDir(), scratchName)
	if err := os.MkdirAll(target, 0o755); err != nil {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			return "", fmt.Errorf("creating scratch directory: %w", err)
		}
		target = filepath.Join(cwd, "temp")
		if err := os.MkdirAll(target, 0o755); err != nil {
			return "", fmt.Errorf("creating scratch directory: %w", err)
		}
	}

	scratch.dir = target
	return target, nil
}

// Cleanup removes the scratch directory and all temporary arrays inside
// it. It is a no-op when TempDir was never used.
func Cleanup() error {
	scratch.mu.Lock()
	defer scratch.mu.Unlock()

	if scratch.dir == "" {
		return nil
	}
	err := os.RemoveAll(scratch.dir)
	scratch.dir = ""
	return err
}

// createTempArrayPath allocates a fresh, uniquely numbered subdirectory of
// the scratch directory.
func createTempArrayPath() (string, error) {
	scratch.mu.Lock()
	defer scratch.mu.Unlock()

	root, err := tempDirLocked()
	if err != nil {
		return "", err
	}

	for {
		name := strconv.FormatUint(scratch.next, 10)
		scratch.next++
		target := filepath.Join(root, name)
		err := os.Mkdir(target, 0o755)
		if err == nil {
			return target, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("creating temporary array directory: %w", err)
		}
	}
}
