package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/crn-tools/crnqa"
)

var (
	tagStr   = flag.String("tags", "motorway,primary,primary_link,road,secondary,secondary_link,residential,tertiary,tertiary_link,unclassified,trunk,trunk_link,motorway_link", "Set of needed highway tags (separated by commas)")
	fileName = flag.String("file", "my_graph.osm.pbf", "Filename of *.osm.pbf file (it has to be compressed)")
	dst      = flag.String("dst", ".", "Destination directory for the arc layer")
	layer    = flag.String("layer", "segment", "Layer name of the produced arc GeoJSON file")
)

func main() {
	flag.Parse()

	cfg := crnqa.OSMImportConfig{
		Tags: strings.Split(*tagStr, ","),
	}

	st := time.Now()
	arcs, err := crnqa.ImportArcsFromOSMFile(*fileName, &cfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d arcs in %v\n", arcs.Len(), time.Since(st))

	exporter := crnqa.GeoJSONExporter{}
	if err := exporter.Export(arcs, *dst, *layer); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Printf("Wrote layer '%s' to %s\n", *layer, *dst)
}
