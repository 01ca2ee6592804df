package extractor

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Workspace is a per-request scratch directory for uploads, downloads and extracted audio.
type Workspace struct {
	fs  afero.Fs
	dir string
}

// NewWorkspace creates a fresh directory under baseDir. An empty baseDir uses the
// filesystem's temp dir.
func NewWorkspace(fs afero.Fs, baseDir, prefix string) (*Workspace, error) {
	if fs == nil {
		return nil, errors.New("workspace filesystem is nil")
	}
	dir, err := afero.TempDir(fs, baseDir, prefix)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{fs: fs, dir: dir}, nil
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string { return w.dir }

// Fs exposes the filesystem the workspace lives on.
func (w *Workspace) Fs() afero.Fs { return w.fs }

// Path returns the location of name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, safeName(name, "file"))
}

// Save copies r into the workspace under name and returns the stored path.
func (w *Workspace) Save(name string, r io.Reader) (string, error) {
	if r == nil {
		return "", errors.New("workspace save: reader is nil")
	}
	path := w.Path(name)
	f, err := w.fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// Exists reports whether path is a regular file on the workspace filesystem.
func (w *Workspace) Exists(path string) error {
	info, err := w.fs.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// Remove deletes the workspace and everything in it. Safe to call on nil.
func (w *Workspace) Remove() error {
	if w == nil || w.fs == nil || w.dir == "" {
		return nil
	}
	return w.fs.RemoveAll(w.dir)
}

func safeName(name, fallback string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return fallback
	}
	return name
}
