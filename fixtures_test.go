package csventity

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testAgency struct {
	ID   ID
	Name string
	URL  string
}

type testStop struct {
	Extensions
	ID         string
	Name       string
	Lat        float64
	Wheelchair int
	Opened     time.Time
}

type testStopAccess struct {
	Tactile bool
	Note    string
}

func agencySchema() *Schema {
	return NewSchema[testAgency]("agency", "agency.txt",
		Identifier("agency_id", func(a *testAgency) ID { return a.ID }, func(a *testAgency, v ID) { a.ID = v }),
		Text("agency_name", func(a *testAgency) string { return a.Name }, func(a *testAgency, v string) { a.Name = v }),
		Text("agency_url", func(a *testAgency) string { return a.URL }, func(a *testAgency, v string) { a.URL = v }).Optional(),
	)
}

func stopSchema() *Schema {
	return NewSchema[testStop]("stop", "stops.txt",
		Text("stop_id", func(s *testStop) string { return s.ID }, func(s *testStop, v string) { s.ID = v }),
		Text("stop_name", func(s *testStop) string { return s.Name }, func(s *testStop, v string) { s.Name = v }),
		Float("stop_lat", func(s *testStop) float64 { return s.Lat }, func(s *testStop, v float64) { s.Lat = v }).Optional(),
		Int("wheelchair_boarding", func(s *testStop) int { return s.Wheelchair }, func(s *testStop, v int) { s.Wheelchair = v }).Optional(),
		Date("opened", func(s *testStop) time.Time { return s.Opened }, func(s *testStop, v time.Time) { s.Opened = v }).Optional(),
	)
}

func stopAccessSchema() *Schema {
	return NewSchema[testStopAccess]("stop_access", "",
		Bool("tactile_paving", func(a *testStopAccess) bool { return a.Tactile }, func(a *testStopAccess, v bool) { a.Tactile = v }).Optional(),
		Text("access_note", func(a *testStopAccess) string { return a.Note }, func(a *testStopAccess, v string) { a.Note = v }).Optional(),
	)
}

func testRegistry(t *testing.T, schemas ...*Schema) *Registry {
	t.Helper()
	r, err := NewRegistry(schemas...)
	require.NoError(t, err)
	return r
}

func writeResource(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readResource(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name))) //nolint:gosec // test file path
	require.NoError(t, err)
	return string(data)
}
