package csventity

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// ZipStore is a ResourceStore over the entries of a zip archive.
type ZipStore struct {
	path    string
	archive *zip.ReadCloser
	entries map[string]*zip.File
	open    *closerSet
	closed  bool
}

// OpenZipStore opens the archive at path and indexes its central directory
func OpenZipStore(path string) (*ZipStore, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}

	entries := make(map[string]*zip.File, len(archive.File))
	for _, f := range archive.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		entries[f.Name] = f
	}
	return &ZipStore{
		path:    path,
		archive: archive,
		entries: entries,
		open:    newCloserSet(),
	}, nil
}

// HasResource implements ResourceStore
func (s *ZipStore) HasResource(name string) bool {
	if s.closed {
		return false
	}
	_, ok := s.entries[name]
	return ok
}

// Open implements ResourceStore
func (s *ZipStore) Open(name string) (io.ReadCloser, error) {
	if s.closed {
		return nil, ErrClosed
	}
	f, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s in archive %s", ErrFileNotFound, name, s.path)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in archive %s: %w", name, s.path, err)
	}
	return s.open.track(rc), nil
}

// Close implements ResourceStore
func (s *ZipStore) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(s.open.closeAll(), s.archive.Close())
}

// ZipSink writes each record type's resource as one entry of a new zip
// archive. Entries are written sequentially, so a record type's rows must be
// contiguous: asking for a record type whose entry was already finished
// fails with ErrZipOrderingViolation.
type ZipSink struct {
	file     *os.File
	archive  *zip.Writer
	method   uint16
	current  string
	entry    *bufio.Writer
	finished map[string]bool
	closed   bool
}

// CreateZipSink creates (or truncates) the archive at path
func CreateZipSink(path string, compression ArchiveCompression) (*ZipSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPermission); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	file, err := os.Create(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	archive := zip.NewWriter(file)
	method := zip.Deflate
	switch compression {
	case ArchiveStore:
		method = zip.Store
	case ArchiveBestSpeed, ArchiveBestCompression:
		level := compression.level()
		archive.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(w, level)
		})
	}

	return &ZipSink{
		file:     file,
		archive:  archive,
		method:   method,
		finished: make(map[string]bool),
	}, nil
}

// Writer implements ResourceSink
func (s *ZipSink) Writer(recordType, name string) (io.Writer, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if recordType == s.current && s.entry != nil {
		return s.entry, nil
	}
	if s.finished[recordType] {
		return nil, fmt.Errorf("%w: entry %s of record type %s was already finished", ErrZipOrderingViolation, name, recordType)
	}

	if err := s.finishEntry(); err != nil {
		return nil, err
	}
	w, err := s.archive.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   s.method,
		Modified: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive entry %s: %w", name, err)
	}
	s.current = recordType
	s.entry = bufio.NewWriter(w)
	return s.entry, nil
}

// finishEntry flushes the open entry and marks its record type finished
func (s *ZipSink) finishEntry() error {
	if s.entry == nil {
		return nil
	}
	err := s.entry.Flush()
	s.finished[s.current] = true
	s.current = ""
	s.entry = nil
	if err != nil {
		return fmt.Errorf("failed to flush archive entry: %w", err)
	}
	return nil
}

// Flush implements ResourceSink
func (s *ZipSink) Flush() error {
	if s.closed {
		return ErrClosed
	}
	if s.entry != nil {
		if err := s.entry.Flush(); err != nil {
			return fmt.Errorf("failed to flush archive entry: %w", err)
		}
	}
	return s.archive.Flush()
}

// Close implements ResourceSink. The archive file is closed even if writing
// the central directory fails.
func (s *ZipSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.finishEntry(); err != nil {
		errs = append(errs, err)
	}
	if err := s.archive.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to finish archive: %w", err))
	}
	if err := s.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close archive file: %w", err))
	}
	return errors.Join(errs...)
}
