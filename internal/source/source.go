// Package source reads and writes the files the CLI works with. Paths may
// start with "~"; every failure is reported as a *stackerr.IoError.
package source

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/xkilldash9x/runeforge/internal/stackerr"
)

// Stdio is the path that selects standard input or output.
const Stdio = "-"

// Expand resolves a leading "~" to the user's home directory.
func Expand(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", &stackerr.IoError{Op: "expand", Path: path, Err: err}
	}
	return expanded, nil
}

// Read returns the contents of path.
func Read(path string) ([]byte, error) {
	expanded, err := Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, &stackerr.IoError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// Write replaces path with data, creating parent directories as needed. The
// file is written to a temporary sibling first and renamed into place.
func Write(path string, data []byte) error {
	expanded, err := Expand(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(expanded)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &stackerr.IoError{Op: "create directory for", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(expanded)+".*")
	if err != nil {
		return &stackerr.IoError{Op: "write", Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &stackerr.IoError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &stackerr.IoError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return &stackerr.IoError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), expanded); err != nil {
		return &stackerr.IoError{Op: "write", Path: path, Err: err}
	}
	return nil
}
