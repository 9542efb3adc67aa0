package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPoiCSV_BoundedColumns(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "pois.csv",
		"Name,Type,Lat_min,Lat_max,Lon_min,Lon_max\n"+
			"Paris,city,48.7566,48.9566,2.2522,2.4522\n"+
			",city,0,1,0,1\n"+
			"Broken,city,x,1,0,1\n")

	set, err := LoadPoiCSV(path, 1.0)
	require.NoError(t, err)
	require.Len(t, set.Tiles, 1, "nameless and malformed rows are skipped")

	tile := set.Tiles[0]
	assert.Equal(t, "Paris", tile.Name)
	assert.Equal(t, "city", tile.Type)
	assert.InDelta(t, 48.7566, tile.Rect.LatMin, 1e-9)
	assert.Zero(t, tile.TileKm)
	require.Len(t, set.Bounds, 1)
	assert.Equal(t, tile.Rect, set.Bounds[0])
}

func TestLoadPoiCSV_CenterFallback(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "pois.csv",
		"Name,Type,Center_Lat,Center_Lon,Tile_km\n"+
			"Equator site,pad,0,10,10\n"+
			"Zero tile,pad,0,10,0\n")

	set, err := LoadPoiCSV(path, 1.0)
	require.NoError(t, err)
	require.Len(t, set.Tiles, 1, "non-positive tile size is skipped")

	tile := set.Tiles[0]
	assert.Equal(t, 10.0, tile.TileKm)

	// At the equator: half-extents of 5 km over 110.574 and 111.320 km/deg.
	assert.InDelta(t, -5/110.574, tile.Rect.LatMin, 1e-9)
	assert.InDelta(t, 5/110.574, tile.Rect.LatMax, 1e-9)
	assert.InDelta(t, 10-5/111.320, tile.Rect.LonMin, 1e-9)
	assert.InDelta(t, 10+5/111.320, tile.Rect.LonMax, 1e-9)
}

func TestRectFromCenter_HighLatitude(t *testing.T) {
	t.Parallel()

	r := RectFromCenter(60, 0, 10)
	lonHalf := 5 / (111.320 * math.Cos(60*math.Pi/180))
	assert.InDelta(t, -lonHalf, r.LonMin, 1e-9)
	assert.InDelta(t, lonHalf, r.LonMax, 1e-9)
	assert.Greater(t, r.LonMax-r.LonMin, r.LatMax-r.LatMin,
		"longitude extent widens toward the pole")
}

func TestAppendPoiCSV_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pois.csv")
	require.NoError(t, os.WriteFile(path,
		[]byte("Name,Type,Tile_km,Center_Lat,Center_Lon,Lat_min,Lat_max,Lon_min,Lon_max\n"), 0o644))

	tile := PoiTile{
		Rect:   RectFromCenter(48.8566, 2.3522, 5),
		Name:   "Paris",
		Type:   "city",
		TileKm: 5,
	}
	require.NoError(t, AppendPoiCSV(path, tile))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	fields := strings.Split(lines[1], ",")
	require.Len(t, fields, 9)
	assert.Equal(t, "Paris", fields[0])
	assert.Equal(t, "5.0000000000", fields[2], "numeric fields carry ten decimals")

	// The appended row loads back through the preferred column path.
	set, err := LoadPoiCSV(path, 1.0)
	require.NoError(t, err)
	require.Len(t, set.Tiles, 1)
	assert.Equal(t, "Paris", set.Tiles[0].Name)
	assert.InDelta(t, tile.Rect.LatMin, set.Tiles[0].Rect.LatMin, 1e-9)
	assert.Equal(t, 5.0, set.Tiles[0].TileKm)
}

func TestAppendPoiCSV_RequiresName(t *testing.T) {
	t.Parallel()

	err := AppendPoiCSV(filepath.Join(t.TempDir(), "pois.csv"), PoiTile{})
	assert.Error(t, err)
}
