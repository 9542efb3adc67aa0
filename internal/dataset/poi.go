package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/banshee-data/overpass.report/internal/geo"
)

// PoiTile is one named, typed tile rectangle. TileKm is the size hint: the
// value the rectangle was derived from for a centre-point row, the Tile_km
// column (when present) for a row with explicit bounds, and zero otherwise.
type PoiTile struct {
	Rect   geo.Rect
	Name   string
	Type   string
	TileKm float64
}

// PoiSet is the loaded POI dataset, its spatial index, and the per-tile
// bounding boxes precomputed for the selector's pre-check. For axis-aligned
// tiles the bound equals the rectangle; the precomputation keeps the
// abstraction identical to the general-polygon case.
type PoiSet struct {
	Tiles  []PoiTile
	Bounds []geo.Rect
	Grid   *geo.Grid
}

// LoadPoiCSV reads a POI dataset. Preferred columns are Lat_min, Lat_max,
// Lon_min, Lon_max with Name and Type; the fallback layout is Center_Lat,
// Center_Lon, Tile_km with Name and Type, expanded via RectFromCenter. Rows
// without a name, or with missing coordinates, are skipped.
func LoadPoiCSV(path string, cellDeg float64) (*PoiSet, error) {
	records, err := readAll(path)
	if err != nil {
		return nil, err
	}

	header := records[0]
	nameCol := columnIndex(header, "Name")
	typeCol := columnIndex(header, "Type")
	latMinCol := columnIndex(header, "Lat_min")
	latMaxCol := columnIndex(header, "Lat_max")
	lonMinCol := columnIndex(header, "Lon_min")
	lonMaxCol := columnIndex(header, "Lon_max")
	latCCol := columnIndex(header, "Center_Lat")
	lonCCol := columnIndex(header, "Center_Lon")
	tileKmCol := columnIndex(header, "Tile_km")

	bounded := latMinCol >= 0 && latMaxCol >= 0 && lonMinCol >= 0 && lonMaxCol >= 0

	set := &PoiSet{Grid: geo.NewGrid(cellDeg)}
	for _, rec := range records[1:] {
		name := ""
		if nameCol >= 0 && nameCol < len(rec) {
			name = strings.TrimSpace(rec[nameCol])
		}
		if name == "" {
			continue
		}
		typ := ""
		if typeCol >= 0 && typeCol < len(rec) {
			typ = strings.TrimSpace(rec[typeCol])
		}

		tile := PoiTile{Name: name, Type: typ}
		if bounded {
			latMin, ok1 := parseFloat(rec, latMinCol)
			latMax, ok2 := parseFloat(rec, latMaxCol)
			lonMin, ok3 := parseFloat(rec, lonMinCol)
			lonMax, ok4 := parseFloat(rec, lonMaxCol)
			if !ok1 || !ok2 || !ok3 || !ok4 || latMin > latMax {
				continue
			}
			tile.Rect = geo.NewRect(latMin, latMax, lonMin, lonMax)
			if km, ok := parseFloat(rec, tileKmCol); ok {
				tile.TileKm = km
			}
		} else {
			latC, ok1 := parseFloat(rec, latCCol)
			lonC, ok2 := parseFloat(rec, lonCCol)
			km, ok3 := parseFloat(rec, tileKmCol)
			if !ok1 || !ok2 || !ok3 || km <= 0 {
				continue
			}
			tile.Rect = RectFromCenter(latC, lonC, km)
			tile.TileKm = km
		}

		set.Grid.Insert(len(set.Tiles), tile.Rect)
		set.Tiles = append(set.Tiles, tile)
		set.Bounds = append(set.Bounds, tile.Rect)
	}
	return set, nil
}

// AppendPoiCSV appends one tile to the persistent POI dataset in the
// 9-column format: Name, Type, Tile_km, Center_Lat, Center_Lon, Lat_min,
// Lat_max, Lon_min, Lon_max, numeric fields at ten decimal places. This is
// the only state the pipeline persists; the in-memory set is not updated —
// callers reload the dataset (and its grid) between runs.
func AppendPoiCSV(path string, tile PoiTile) error {
	if tile.Name == "" {
		return fmt.Errorf("append poi: name must be non-empty")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("append poi: %w", err)
	}
	defer f.Close()

	latC, lonC := tile.Rect.Center()
	w := csv.NewWriter(f)
	w.Write([]string{
		tile.Name,
		tile.Type,
		fmt.Sprintf("%.10f", tile.TileKm),
		fmt.Sprintf("%.10f", latC),
		fmt.Sprintf("%.10f", lonC),
		fmt.Sprintf("%.10f", tile.Rect.LatMin),
		fmt.Sprintf("%.10f", tile.Rect.LatMax),
		fmt.Sprintf("%.10f", tile.Rect.LonMin),
		fmt.Sprintf("%.10f", tile.Rect.LonMax),
	})
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("append poi: %w", err)
	}
	return nil
}
