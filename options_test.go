package csventity

import (
	"log/slog"
	"os"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
)

func TestReadOptions(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		o := NewReadOptions()
		assert.False(t, o.TrimValues)
		assert.False(t, o.InternStrings)
		assert.IsType(t, CSVTokenizer{}, o.Tokenizer)
		assert.NotNil(t, o.Logger)
	})

	t.Run("builder methods return copies", func(t *testing.T) {
		t.Parallel()
		base := NewReadOptions()
		changed := base.WithTrimValues(true).WithInternStrings(true).WithTokenizer(TSVTokenizer{})
		assert.False(t, base.TrimValues)
		assert.True(t, changed.TrimValues)
		assert.True(t, changed.InternStrings)
		assert.IsType(t, TSVTokenizer{}, changed.Tokenizer)
	})

	t.Run("zero value is normalized", func(t *testing.T) {
		t.Parallel()
		o := ReadOptions{}.normalize()
		assert.IsType(t, CSVTokenizer{}, o.Tokenizer)
		assert.NotNil(t, o.Logger)
	})

	t.Run("logger", func(t *testing.T) {
		t.Parallel()
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		assert.Same(t, logger, NewReadOptions().WithLogger(logger).Logger)
	})
}

func TestWriteOptions(t *testing.T) {
	t.Parallel()

	o := NewWriteOptions()
	assert.Equal(t, ArchiveDeflate, o.ArchiveCompression)
	assert.IsType(t, CSVTokenizer{}, o.Tokenizer)

	changed := o.WithArchiveCompression(ArchiveStore).WithTokenizer(TSVTokenizer{}).WithLogger(nil)
	assert.Equal(t, ArchiveStore, changed.ArchiveCompression)
	assert.Equal(t, ArchiveDeflate, o.ArchiveCompression)
	assert.Nil(t, changed.Logger)
	assert.NotNil(t, changed.normalize().Logger)
}

func TestArchiveCompression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		compression ArchiveCompression
		name        string
		level       int
	}{
		{compression: ArchiveDeflate, name: "deflate", level: flate.DefaultCompression},
		{compression: ArchiveStore, name: "store", level: flate.NoCompression},
		{compression: ArchiveBestSpeed, name: "deflate-fast", level: flate.BestSpeed},
		{compression: ArchiveBestCompression, name: "deflate-best", level: flate.BestCompression},
		{compression: ArchiveCompression(99), name: "deflate", level: flate.DefaultCompression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.name, tt.compression.String())
			assert.Equal(t, tt.level, tt.compression.level())
		})
	}
}
