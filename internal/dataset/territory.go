package dataset

import (
	"strings"

	"github.com/banshee-data/overpass.report/internal/geo"
)

// CountryTile is one labeled tile rectangle of the territory dataset. The
// label is an ISO-3166 country name and may be empty when unknown.
type CountryTile struct {
	Rect  geo.Rect
	Label string
}

// TerritorySet is the loaded territory dataset plus its spatial index. The
// set is read-only during a run.
type TerritorySet struct {
	Tiles []CountryTile
	Grid  *geo.Grid
}

// LoadTerritoryCSV reads a territory dataset. The preferred layout addresses
// columns by header name (Lat_min, Lat_max, Lon_min, Lon_max) with the
// country label in the trailing column. The legacy layout is positional:
// centre longitude and latitude in columns 3–4, width and height in degrees
// in columns 5–6, label in column 7. Rows missing required values are
// skipped. Labels are whitespace-trimmed.
func LoadTerritoryCSV(path string, cellDeg float64) (*TerritorySet, error) {
	records, err := readAll(path)
	if err != nil {
		return nil, err
	}

	header := records[0]
	latMinCol := columnIndex(header, "Lat_min")
	latMaxCol := columnIndex(header, "Lat_max")
	lonMinCol := columnIndex(header, "Lon_min")
	lonMaxCol := columnIndex(header, "Lon_max")
	named := latMinCol >= 0 && latMaxCol >= 0 && lonMinCol >= 0 && lonMaxCol >= 0

	set := &TerritorySet{Grid: geo.NewGrid(cellDeg)}
	for _, rec := range records[1:] {
		var tile CountryTile
		var ok bool
		if named {
			tile, ok = territoryFromNamed(rec, latMinCol, latMaxCol, lonMinCol, lonMaxCol)
		} else {
			tile, ok = territoryFromLegacy(rec)
		}
		if !ok {
			continue
		}
		set.Grid.Insert(len(set.Tiles), tile.Rect)
		set.Tiles = append(set.Tiles, tile)
	}
	return set, nil
}

func territoryFromNamed(rec []string, latMinCol, latMaxCol, lonMinCol, lonMaxCol int) (CountryTile, bool) {
	latMin, ok1 := parseFloat(rec, latMinCol)
	latMax, ok2 := parseFloat(rec, latMaxCol)
	lonMin, ok3 := parseFloat(rec, lonMinCol)
	lonMax, ok4 := parseFloat(rec, lonMaxCol)
	if !ok1 || !ok2 || !ok3 || !ok4 || latMin > latMax {
		return CountryTile{}, false
	}
	label := ""
	if len(rec) > 0 {
		label = strings.TrimSpace(rec[len(rec)-1])
	}
	return CountryTile{Rect: geo.NewRect(latMin, latMax, lonMin, lonMax), Label: label}, true
}

func territoryFromLegacy(rec []string) (CountryTile, bool) {
	// 1-based columns 3..7: centre lon, centre lat, width°, height°, label.
	if len(rec) < 7 {
		return CountryTile{}, false
	}
	lonC, ok1 := parseFloat(rec, 2)
	latC, ok2 := parseFloat(rec, 3)
	w, ok3 := parseFloat(rec, 4)
	h, ok4 := parseFloat(rec, 5)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return CountryTile{}, false
	}
	rect := geo.NewRect(latC-h/2, latC+h/2, lonC-w/2, lonC+w/2)
	return CountryTile{Rect: rect, Label: strings.TrimSpace(rec[6])}, true
}

// Resolve returns the label of the first dataset tile containing the point,
// via the 3×3 grid probe. The second return is false when no tile matches.
func (s *TerritorySet) Resolve(lat, lon float64) (string, bool) {
	label := ""
	found := s.Grid.Probe(lat, lon, func(h int) bool {
		if s.Tiles[h].Rect.Contains(lat, lon) {
			label = s.Tiles[h].Label
			return true
		}
		return false
	})
	return label, found
}
