package csventity_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/nao1215/csventity"
)

type Stop struct {
	csventity.Extensions
	ID   csventity.ID
	Name string
	Zone int
}

func stopSchema() *csventity.Schema {
	return csventity.NewSchema[Stop]("stop", "stops.txt",
		csventity.Identifier("stop_id", func(s *Stop) csventity.ID { return s.ID }, func(s *Stop, v csventity.ID) { s.ID = v }),
		csventity.Text("stop_name", func(s *Stop) string { return s.Name }, func(s *Stop, v string) { s.Name = v }),
		csventity.Int("zone_id", func(s *Stop) int { return s.Zone }, func(s *Stop, v int) { s.Zone = v }).Optional(),
	)
}

func ExampleParseLine() {
	fields, err := csventity.ParseLine(`s1,"Main St, North",`)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%q\n", fields)
	fmt.Println(csventity.FormatLine(fields))

	// Output:
	// ["s1" "Main St, North" ""]
	// s1,"Main St, North",
}

func ExampleReader() {
	dir, err := os.MkdirTemp("", "csventity_example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	content := "\uFEFFstop_id,stop_name,zone_id\r\ns1,Main St,2\r\n\r\ns2,\"Elm, North\",\r\n"
	if err := os.WriteFile(filepath.Join(dir, "stops.txt"), []byte(content), 0o600); err != nil {
		log.Fatal(err)
	}

	registry, err := csventity.NewRegistry(stopSchema())
	if err != nil {
		log.Fatal(err)
	}
	reader, err := csventity.OpenReader(dir, registry, csventity.NewReadOptions())
	if err != nil {
		log.Fatal(err)
	}
	defer reader.Close()

	reader.Context().SetDefaultPrefix("metro")
	reader.AddHandler(csventity.HandlerFunc(func(entity any) error {
		stop := entity.(*Stop)
		fmt.Printf("%s %q zone=%d\n", stop.ID, stop.Name, stop.Zone)
		return nil
	}))
	reader.AddRecordTypes("stop")

	if err := reader.ReadAll(context.Background()); err != nil {
		log.Fatal(err)
	}

	// Output:
	// metro_s1 "Main St" zone=2
	// metro_s2 "Elm, North" zone=0
}

func ExampleWriter() {
	dir, err := os.MkdirTemp("", "csventity_example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	registry, err := csventity.NewRegistry(stopSchema())
	if err != nil {
		log.Fatal(err)
	}
	writer, err := csventity.CreateWriter(filepath.Join(dir, "out"), registry, csventity.NewWriteOptions())
	if err != nil {
		log.Fatal(err)
	}

	stops := []*Stop{
		{ID: csventity.ID{Value: "s1"}, Name: "Main St"},
		{ID: csventity.ID{Value: "s2"}, Name: `The "Elm"`},
	}
	// zone_id is unset everywhere, so it is left out
	if err := writer.ExcludeOptionalAndMissingFields("stop", csventity.Entities(stops)); err != nil {
		log.Fatal(err)
	}
	for _, s := range stops {
		if err := writer.Handle(s); err != nil {
			log.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		log.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out", "stops.txt"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(string(data))

	// Output:
	// stop_id,stop_name
	// s1,Main St
	// s2,"The ""Elm"""
}

func ExampleParseSchemaConfig() {
	config := `
schemas:
  - type: route
    resource: routes.txt
    fields:
      - column: route_id
        kind: id
      - column: route_type
        kind: int
        default: "3"
`
	schemas, err := csventity.ParseSchemaConfig([]byte(config))
	if err != nil {
		log.Fatal(err)
	}

	route := schemas[0]
	fmt.Println(route.RecordType(), route.ResourceName(), route.Columns())

	entity, err := route.Decode(csventity.NewContext(), csventity.Row{"route_id": "r1"})
	if err != nil {
		log.Fatal(err)
	}
	record := entity.(*csventity.DynamicRecord)
	routeType, _ := record.Get("route_type")
	fmt.Println(routeType)

	// Output:
	// route routes.txt [route_id route_type]
	// 3
}
