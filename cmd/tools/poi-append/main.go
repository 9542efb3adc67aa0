// poi-append adds one tile to the persistent POI dataset CSV. The rectangle
// is derived from a centre point and a square tile size in km, matching the
// fallback load path, and written in the 9-column append format.
package main

import (
	"flag"
	"log"

	"github.com/banshee-data/overpass.report/internal/dataset"
)

var (
	poiPath = flag.String("pois", "data/pois.csv", "POI dataset CSV to append to")
	name    = flag.String("name", "", "POI name (required)")
	typ     = flag.String("type", "", "POI type")
	lat     = flag.Float64("lat", 0, "Centre latitude in degrees")
	lon     = flag.Float64("lon", 0, "Centre longitude in degrees")
	tileKm  = flag.Float64("tile-km", 5, "Square tile size in km")
)

func main() {
	flag.Parse()

	if *name == "" {
		log.Fatal("a POI name is required (-name)")
	}
	if *tileKm <= 0 {
		log.Fatalf("tile-km must be positive, got %g", *tileKm)
	}

	tile := dataset.PoiTile{
		Rect:   dataset.RectFromCenter(*lat, *lon, *tileKm),
		Name:   *name,
		Type:   *typ,
		TileKm: *tileKm,
	}
	if err := dataset.AppendPoiCSV(*poiPath, tile); err != nil {
		log.Fatalf("failed to append POI: %v", err)
	}
	log.Printf("appended %q to %s", *name, *poiPath)
}
