package storage

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

// Local removes files stored under a directory on disk, as referenced by
// URLs like /uploads/<name>.
type Local struct {
	dir string
}

func NewLocal(dir string) *Local { return &Local{dir: dir} }

// Delete removes the file named by the last path element of fileURL.
// Only the base name is used, so a URL can never escape dir. Missing files are fine.
func (l *Local) Delete(_ context.Context, fileURL string) error {
	p := fileURL
	if u, err := url.Parse(fileURL); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	if name == "." || name == "/" || name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(l.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
