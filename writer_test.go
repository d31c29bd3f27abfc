package csventity

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPair struct {
	Name  string
	Value string
}

func pairSchema() *Schema {
	return NewSchema[testPair]("pair", "pairs.txt",
		Text("name", func(p *testPair) string { return p.Name }, func(p *testPair, v string) { p.Name = v }),
		Text("value", func(p *testPair) string { return p.Value }, func(p *testPair, v string) { p.Value = v }),
	)
}

func newDirWriter(t *testing.T, options WriteOptions, schemas ...*Schema) (*Writer, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "out")
	w, err := CreateWriter(dir, testRegistry(t, schemas...), options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w, dir
}

func TestWriter_Handle(t *testing.T) {
	t.Parallel()

	w, dir := newDirWriter(t, NewWriteOptions(), pairSchema())
	require.NoError(t, w.Handle(&testPair{Name: "alice", Value: "a"}))
	require.NoError(t, w.Close())

	assert.Equal(t, "name,value\nalice,a\n", readResource(t, dir, "pairs.txt"))
}

func TestWriter_Quoting(t *testing.T) {
	t.Parallel()

	w, dir := newDirWriter(t, NewWriteOptions(), pairSchema())
	require.NoError(t, w.Handle(&testPair{Name: "a,b", Value: `say "hi"`}))
	require.NoError(t, w.Handle(&testPair{Name: "plain", Value: ""}))
	require.NoError(t, w.Close())

	assert.Equal(t, "name,value\n\"a,b\",\"say \"\"hi\"\"\"\nplain,\n", readResource(t, dir, "pairs.txt"))
}

func TestWriter_RoundTrip(t *testing.T) {
	t.Parallel()

	registry := testRegistry(t, agencySchema(), stopSchema().WithExtensions(stopAccessSchema()))

	accessible := &testStop{ID: "s1", Name: "Main St, North", Lat: 35.25, Wheelchair: 1, Opened: time.Date(2020, 5, 17, 0, 0, 0, 0, time.UTC)}
	accessible.PutExtension("stop_access", &testStopAccess{Tactile: true, Note: `"ramp"`})
	plain := &testStop{ID: "s2", Name: "Oak"}

	for _, path := range []string{"feed", "feed.zip"} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			target := filepath.Join(t.TempDir(), path)

			w, err := CreateWriter(target, registry, NewWriteOptions())
			require.NoError(t, err)
			require.NoError(t, w.Handle(&testAgency{ID: ID{Value: "a1"}, Name: "Metro"}))
			require.NoError(t, w.Handle(accessible))
			require.NoError(t, w.Handle(plain))
			require.NoError(t, w.Close())

			r, err := OpenReader(target, registry, NewReadOptions())
			require.NoError(t, err)
			defer r.Close()
			agencies := NewCollector[testAgency]()
			stops := NewCollector[testStop]()
			r.AddHandler(agencies, stops)
			r.AddRecordTypes("agency", "stop")
			require.NoError(t, r.ReadAll(context.Background()))

			require.Equal(t, 1, agencies.Len())
			assert.Equal(t, ID{Value: "a1"}, agencies.Entities()[0].ID)
			assert.Equal(t, "Metro", agencies.Entities()[0].Name)

			require.Equal(t, 2, stops.Len())
			got := stops.Entities()[0]
			assert.Equal(t, accessible.ID, got.ID)
			assert.Equal(t, accessible.Name, got.Name)
			assert.InDelta(t, accessible.Lat, got.Lat, 1e-9)
			assert.Equal(t, accessible.Wheelchair, got.Wheelchair)
			assert.True(t, accessible.Opened.Equal(got.Opened))

			ext, ok := ExtensionOf[testStopAccess](got, "stop_access")
			require.True(t, ok)
			assert.Equal(t, testStopAccess{Tactile: true, Note: `"ramp"`}, *ext)

			ext, ok = ExtensionOf[testStopAccess](stops.Entities()[1], "stop_access")
			require.True(t, ok, "an extension with empty columns decodes to its zero value")
			assert.Equal(t, testStopAccess{}, *ext)
		})
	}
}

func TestWriter_ExcludeOptionalAndMissingFields(t *testing.T) {
	t.Parallel()

	stops := []*testStop{
		{ID: "s1", Name: "A", Lat: 1.5},
		{ID: "s2", Name: "B"},
	}

	w, dir := newDirWriter(t, NewWriteOptions(), stopSchema())
	require.NoError(t, w.ExcludeOptionalAndMissingFields("stop", Entities(stops)))
	for _, s := range stops {
		require.NoError(t, w.Handle(s))
	}
	require.NoError(t, w.Close())

	assert.Equal(t, "stop_id,stop_name,stop_lat\ns1,A,1.5\ns2,B,\n", readResource(t, dir, "stops.txt"))
}

func TestWriter_ExcludeAfterWrite(t *testing.T) {
	t.Parallel()

	w, _ := newDirWriter(t, NewWriteOptions(), stopSchema())
	require.NoError(t, w.Handle(&testStop{ID: "s1", Name: "A"}))

	err := w.ExcludeOptionalAndMissingFields("stop", nil)
	require.ErrorIs(t, err, ErrAlreadyWritten)

	err = w.ExcludeOptionalAndMissingFields("trip", nil)
	require.ErrorIs(t, err, ErrUnknownRecordType)
}

func TestWriter_ZipOrderingViolation(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "feed.zip")
	w, err := CreateWriter(target, testRegistry(t, agencySchema(), stopSchema()), NewWriteOptions())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Handle(&testAgency{ID: ID{Value: "a1"}, Name: "A"}))
	require.NoError(t, w.Handle(&testStop{ID: "s1", Name: "S"}))
	err = w.Handle(&testAgency{ID: ID{Value: "a2"}, Name: "B"})
	require.ErrorIs(t, err, ErrZipOrderingViolation)

	var entityErr *EntityError
	require.ErrorAs(t, err, &entityErr)
	assert.Equal(t, "agency", entityErr.RecordType)
}

func TestWriter_DirectoryAllowsInterleaving(t *testing.T) {
	t.Parallel()

	w, dir := newDirWriter(t, NewWriteOptions(), agencySchema(), stopSchema())
	require.NoError(t, w.Handle(&testAgency{ID: ID{Value: "a1"}, Name: "A"}))
	require.NoError(t, w.Handle(&testStop{ID: "s1", Name: "S"}))
	require.NoError(t, w.Handle(&testAgency{ID: ID{Value: "a2"}, Name: "B"}))
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	assert.Equal(t, "agency_id,agency_name,agency_url\na1,A,\na2,B,\n", readResource(t, dir, "agency.txt"))
}

func TestWriter_FixedColumns(t *testing.T) {
	t.Parallel()

	schema := stopSchema().WithFixedColumns("stop_name", "stop_id")
	w, dir := newDirWriter(t, NewWriteOptions(), schema)
	require.NoError(t, w.Handle(&testStop{ID: "s1", Name: "A"}))
	require.NoError(t, w.Close())

	assert.Equal(t, "A,s1\n", readResource(t, dir, "stops.txt"), "no header line")
}

func TestWriter_TSV(t *testing.T) {
	t.Parallel()

	w, dir := newDirWriter(t, NewWriteOptions().WithTokenizer(TSVTokenizer{}), pairSchema())
	require.NoError(t, w.Handle(&testPair{Name: "a,b", Value: "c"}))
	require.NoError(t, w.Close())

	assert.Equal(t, "name\tvalue\na,b\tc\n", readResource(t, dir, "pairs.txt"))
}

func TestWriter_Errors(t *testing.T) {
	t.Parallel()

	w, _ := newDirWriter(t, NewWriteOptions(), pairSchema())

	err := w.Handle(&testAgency{})
	require.ErrorIs(t, err, ErrUnknownRecordType)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	require.ErrorIs(t, w.Handle(&testPair{}), ErrClosed)
	require.ErrorIs(t, w.Flush(), ErrClosed)
	require.ErrorIs(t, w.ExcludeOptionalAndMissingFields("pair", nil), ErrClosed)
}

func TestWriter_AsReaderHandler(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeResource(t, src, "pairs.txt", "value,name\r\na,alice\r\n\r\nb,bob\r\n")
	registry := testRegistry(t, pairSchema())

	dst := filepath.Join(t.TempDir(), "copy.zip")
	w, err := CreateWriter(dst, registry, NewWriteOptions().WithArchiveCompression(ArchiveBestCompression))
	require.NoError(t, err)

	r, err := OpenReader(src, registry, NewReadOptions())
	require.NoError(t, err)
	defer r.Close()
	r.AddHandler(w)
	r.AddRecordTypes("pair")
	require.NoError(t, r.ReadAll(context.Background()))
	require.NoError(t, w.Close())

	store, err := OpenStore(dst)
	require.NoError(t, err)
	defer store.Close()
	rc, err := store.Open("pairs.txt")
	require.NoError(t, err)
	assert.Equal(t, "name,value\nalice,a\nbob,b\n", readAllAndClose(t, rc), "the copy is normalized to schema column order")
}

func TestWriter_Logger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	w, _ := newDirWriter(t, NewWriteOptions().WithLogger(logger), pairSchema())
	require.NoError(t, w.Handle(&testPair{Name: "a", Value: "b"}))
	require.NoError(t, w.Close())

	assert.Contains(t, buf.String(), "resource opened")
	assert.Contains(t, buf.String(), "lines=2")
}
