package csventity

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
)

// FSStore is a ResourceStore over an fs.FS, such as an embed.FS or the
// result of fs.Sub. DirStore is an FSStore over os.DirFS.
type FSStore struct {
	fsys   fs.FS
	root   string
	open   *closerSet
	closed bool
}

// NewFSStore creates a store reading resources from fsys. Resource names are
// slash-separated paths relative to the root of fsys.
func NewFSStore(fsys fs.FS) *FSStore {
	return &FSStore{
		fsys: fsys,
		open: newCloserSet(),
	}
}

// NewDirStore creates a store reading resources from files in dir
func NewDirStore(dir string) *FSStore {
	s := NewFSStore(os.DirFS(dir))
	s.root = dir
	return s
}

// HasResource implements ResourceStore
func (s *FSStore) HasResource(name string) bool {
	if s.closed || !fs.ValidPath(path.Clean(name)) {
		return false
	}
	info, err := fs.Stat(s.fsys, path.Clean(name))
	return err == nil && !info.IsDir()
}

// Open implements ResourceStore
func (s *FSStore) Open(name string) (io.ReadCloser, error) {
	if s.closed {
		return nil, ErrClosed
	}
	f, err := s.fsys.Open(path.Clean(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, s.describe(name))
		}
		return nil, fmt.Errorf("failed to open %s: %w", s.describe(name), err)
	}
	return s.open.track(f), nil
}

// Close implements ResourceStore
func (s *FSStore) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.open.closeAll()
}

func (s *FSStore) describe(name string) string {
	if s.root == "" {
		return name
	}
	return path.Join(s.root, name)
}
