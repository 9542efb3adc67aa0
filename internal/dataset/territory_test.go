package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTerritoryCSV_NamedColumns(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "territories.csv",
		"Lat_min,Lat_max,Lon_min,Lon_max,Country\n"+
			"49,59,-8,2,  United Kingdom \n"+
			"42,51,-5,8,France\n"+
			"bad,row,skipped,entirely,Nowhere\n"+
			"1,2,3\n")

	set, err := LoadTerritoryCSV(path, 1.0)
	require.NoError(t, err)
	require.Len(t, set.Tiles, 2)
	assert.Equal(t, "United Kingdom", set.Tiles[0].Label, "labels are trimmed")
	assert.Equal(t, "France", set.Tiles[1].Label)
}

func TestLoadTerritoryCSV_LegacyColumns(t *testing.T) {
	t.Parallel()

	// Centre lon/lat in columns 3-4, width/height in 5-6, label in 7.
	path := writeCSV(t, "legacy.csv",
		"id,code,clon,clat,w,h,label\n"+
			"1,GB,-3,54,10,10,United Kingdom\n"+
			"2,XX,too,few\n")

	set, err := LoadTerritoryCSV(path, 1.0)
	require.NoError(t, err)
	require.Len(t, set.Tiles, 1)

	tile := set.Tiles[0]
	assert.Equal(t, "United Kingdom", tile.Label)
	assert.InDelta(t, 49, tile.Rect.LatMin, 1e-9)
	assert.InDelta(t, 59, tile.Rect.LatMax, 1e-9)
	assert.InDelta(t, -8, tile.Rect.LonMin, 1e-9)
	assert.InDelta(t, 2, tile.Rect.LonMax, 1e-9)
}

func TestLoadTerritoryCSV_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTerritoryCSV(filepath.Join(t.TempDir(), "absent.csv"), 1.0)
		var lerr *DatasetLoadError
		assert.ErrorAs(t, err, &lerr)
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeCSV(t, "empty.csv", "")
		_, err := LoadTerritoryCSV(path, 1.0)
		var lerr *DatasetLoadError
		assert.ErrorAs(t, err, &lerr)
	})
}

// A sample over the UK resolves to the UK tile, not the neighboring France
// tile.
func TestTerritorySet_Resolve(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, "territories.csv",
		"Lat_min,Lat_max,Lon_min,Lon_max,Country\n"+
			"49,59,-8,2,United Kingdom\n"+
			"42,51,-5,8,France\n")

	set, err := LoadTerritoryCSV(path, 1.0)
	require.NoError(t, err)

	label, found := set.Resolve(51.5074, -0.1278)
	require.True(t, found)
	assert.Equal(t, "United Kingdom", label)

	label, found = set.Resolve(48.8566, 2.3522)
	require.True(t, found)
	assert.Equal(t, "France", label)

	_, found = set.Resolve(0, -30)
	assert.False(t, found, "mid-Atlantic matches nothing")
}
