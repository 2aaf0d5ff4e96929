package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrNotRegular = errors.New("not a regular file")
	ErrTooLarge   = errors.New("file too large")
)

func EnsureSubdDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// ReadFile reads a regular file of at most maxBytes (0 means unlimited) and
// returns its base name and content.
func ReadFile(path string, maxBytes int64) (string, []byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return "", nil, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	if maxBytes > 0 && fi.Size() > maxBytes {
		return "", nil, fmt.Errorf("%s is %d bytes: %w", path, fi.Size(), ErrTooLarge)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}
	return filepath.Base(path), b, nil
}
