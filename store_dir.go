package csventity

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// dirPermission is the mode of directories created by DirSink
const dirPermission = 0o750

// dirDestination is one open file of a DirSink
type dirDestination struct {
	file   *os.File
	writer *bufio.Writer
}

// DirSink writes each record type's resource to its own file in a
// directory. All files stay open until Close.
type DirSink struct {
	dir          string
	destinations map[string]*dirDestination
	order        []string
	closed       bool
}

// NewDirSink creates a sink writing into dir, creating the directory if needed
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return &DirSink{
		dir:          dir,
		destinations: make(map[string]*dirDestination),
	}, nil
}

// Writer implements ResourceSink
func (s *DirSink) Writer(recordType, name string) (io.Writer, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if d, ok := s.destinations[recordType]; ok {
		return d.writer, nil
	}

	path := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), dirPermission); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	file, err := os.Create(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	d := &dirDestination{file: file, writer: bufio.NewWriter(file)}
	s.destinations[recordType] = d
	s.order = append(s.order, recordType)
	return d.writer, nil
}

// Flush implements ResourceSink
func (s *DirSink) Flush() error {
	if s.closed {
		return ErrClosed
	}
	var errs []error
	for _, recordType := range s.order {
		if err := s.destinations[recordType].writer.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush %s: %w", recordType, err))
		}
	}
	return errors.Join(errs...)
}

// Close implements ResourceSink. Every file is closed even if an earlier
// flush or close fails.
func (s *DirSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, recordType := range s.order {
		d := s.destinations[recordType]
		if err := d.writer.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush %s: %w", recordType, err))
		}
		if err := d.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", recordType, err))
		}
	}
	return errors.Join(errs...)
}
