package csventity

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extZip is the archive extension that selects the zip-backed store and sink
const extZip = ".zip"

// ResourceStore is the read side of a set of named byte streams backed by a
// directory, an archive or any fs.FS. A store is owned by one read session
// and must be closed exactly once; Close is safe to repeat.
type ResourceStore interface {
	// HasResource reports whether a resource named name exists
	HasResource(name string) bool
	// Open returns a stream over the named resource. The caller closes it.
	Open(name string) (io.ReadCloser, error)
	// Close releases every handle held by the store
	Close() error
}

// ResourceSink is the write side of a set of named byte streams. Writers are
// obtained per record type and stay owned by the sink.
type ResourceSink interface {
	// Writer returns the destination of recordType's resource, opening it
	// on first use
	Writer(recordType, name string) (io.Writer, error)
	// Flush pushes buffered bytes of every open destination
	Flush() error
	// Close flushes and releases every destination; safe to repeat
	Close() error
}

// OpenStore opens path for reading: a .zip file is read as an archive, a
// directory as a directory.
func OpenStore(path string) (ResourceStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrFileNotFound)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat path %s: %w", path, err)
	}
	if info.IsDir() {
		return NewDirStore(path), nil
	}
	if strings.EqualFold(filepath.Ext(path), extZip) {
		return OpenZipStore(path)
	}
	return nil, fmt.Errorf("%w: %s is neither a directory nor a zip archive", ErrUnsupportedFormat, path)
}

// CreateSink creates a sink at path: a path ending in .zip becomes a new
// archive, anything else a directory (created if needed).
func CreateSink(path string, options WriteOptions) (ResourceSink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrFileNotFound)
	}
	if strings.EqualFold(filepath.Ext(path), extZip) {
		return CreateZipSink(path, options.ArchiveCompression)
	}
	return NewDirSink(path)
}

// closerSet tracks open handles so a store can release them on Close.
type closerSet struct {
	open map[io.Closer]struct{}
}

func newCloserSet() *closerSet {
	return &closerSet{open: make(map[io.Closer]struct{})}
}

func (s *closerSet) add(c io.Closer) {
	s.open[c] = struct{}{}
}

func (s *closerSet) remove(c io.Closer) {
	delete(s.open, c)
}

// closeAll closes every tracked handle and keeps the first error
func (s *closerSet) closeAll() error {
	var firstErr error
	for c := range s.open {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.open, c)
	}
	return firstErr
}

// trackedReadCloser untracks itself from the owning set when closed
type trackedReadCloser struct {
	io.ReadCloser
	set    *closerSet
	closed bool
}

func (t *trackedReadCloser) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.set.remove(t)
	return t.ReadCloser.Close()
}

func (s *closerSet) track(rc io.ReadCloser) io.ReadCloser {
	t := &trackedReadCloser{ReadCloser: rc, set: s}
	s.add(t)
	return t
}
