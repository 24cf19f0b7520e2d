package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileExists reports whether a regular file is present at path, errors other than absence are returned
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", path)
	}

	return true, nil
}

// EnsureDir creates dir and its parents unless it already exists
func EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return os.MkdirAll(dir, 0o755)
}
