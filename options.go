package csventity

import (
	"log/slog"

	"github.com/klauspost/compress/flate"
)

// ArchiveCompression selects how entries of a zip sink are compressed
type ArchiveCompression int

const (
	// ArchiveDeflate uses deflate at the default level (default)
	ArchiveDeflate ArchiveCompression = iota
	// ArchiveStore stores entries uncompressed
	ArchiveStore
	// ArchiveBestSpeed uses deflate tuned for speed
	ArchiveBestSpeed
	// ArchiveBestCompression uses deflate tuned for size
	ArchiveBestCompression
)

// String returns the string representation of ArchiveCompression
func (c ArchiveCompression) String() string {
	switch c {
	case ArchiveDeflate:
		return "deflate"
	case ArchiveStore:
		return "store"
	case ArchiveBestSpeed:
		return "deflate-fast"
	case ArchiveBestCompression:
		return "deflate-best"
	default:
		return "deflate"
	}
}

// level returns the deflate level of the compression mode
func (c ArchiveCompression) level() int {
	switch c {
	case ArchiveBestSpeed:
		return flate.BestSpeed
	case ArchiveBestCompression:
		return flate.BestCompression
	case ArchiveStore:
		return flate.NoCompression
	default:
		return flate.DefaultCompression
	}
}

// ReadOptions configures a read session.
//
// Example:
//
//	options := NewReadOptions().
//		WithTrimValues(true).
//		WithInternStrings(true)
type ReadOptions struct {
	// TrimValues removes leading and trailing whitespace from every field
	TrimValues bool
	// InternStrings collapses equal field values to one shared string per session
	InternStrings bool
	// Tokenizer splits lines into fields
	Tokenizer TokenizerStrategy
	// Logger receives session diagnostics
	Logger *slog.Logger
}

// NewReadOptions creates default read options (CSV, no trimming, no interning, silent)
func NewReadOptions() ReadOptions {
	return ReadOptions{
		Tokenizer: CSVTokenizer{},
		Logger:    discardLogger(),
	}
}

// WithTrimValues sets whether field values are trimmed
func (o ReadOptions) WithTrimValues(trim bool) ReadOptions {
	o.TrimValues = trim
	return o
}

// WithInternStrings sets whether field values are interned per session
func (o ReadOptions) WithInternStrings(intern bool) ReadOptions {
	o.InternStrings = intern
	return o
}

// WithTokenizer sets the tokenizer strategy
func (o ReadOptions) WithTokenizer(tokenizer TokenizerStrategy) ReadOptions {
	o.Tokenizer = tokenizer
	return o
}

// WithLogger sets the logger
func (o ReadOptions) WithLogger(logger *slog.Logger) ReadOptions {
	o.Logger = logger
	return o
}

// normalize fills unset fields with defaults
func (o ReadOptions) normalize() ReadOptions {
	if o.Tokenizer == nil {
		o.Tokenizer = CSVTokenizer{}
	}
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
	return o
}

// WriteOptions configures a write session.
//
// Example:
//
//	options := NewWriteOptions().
//		WithArchiveCompression(ArchiveBestCompression)
type WriteOptions struct {
	// Tokenizer joins fields into lines
	Tokenizer TokenizerStrategy
	// ArchiveCompression applies to zip sinks only
	ArchiveCompression ArchiveCompression
	// Logger receives session diagnostics
	Logger *slog.Logger
}

// NewWriteOptions creates default write options (CSV, deflate, silent)
func NewWriteOptions() WriteOptions {
	return WriteOptions{
		Tokenizer:          CSVTokenizer{},
		ArchiveCompression: ArchiveDeflate,
		Logger:             discardLogger(),
	}
}

// WithTokenizer sets the tokenizer strategy
func (o WriteOptions) WithTokenizer(tokenizer TokenizerStrategy) WriteOptions {
	o.Tokenizer = tokenizer
	return o
}

// WithArchiveCompression sets the compression of zip entries
func (o WriteOptions) WithArchiveCompression(compression ArchiveCompression) WriteOptions {
	o.ArchiveCompression = compression
	return o
}

// WithLogger sets the logger
func (o WriteOptions) WithLogger(logger *slog.Logger) WriteOptions {
	o.Logger = logger
	return o
}

// normalize fills unset fields with defaults
func (o WriteOptions) normalize() WriteOptions {
	if o.Tokenizer == nil {
		o.Tokenizer = CSVTokenizer{}
	}
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
	return o
}

// discardLogger returns a logger that drops every record
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
