package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/overpass.report/internal/overpass"
)

func samplePicks() []overpass.PoiPick {
	return []overpass.PoiPick{
		{TimeStr: "2025/06/05 22:27:50", Lat: 48.8566, Lon: 2.3522, RangeKm: 0.684521, AzimuthDeg: 56.49, Name: "Paris", Type: "city"},
		{TimeStr: "2025/06/05 22:31:12", Lat: 51.5074, Lon: -0.1278, RangeKm: 12.5, AzimuthDeg: 310.04, Name: "London, greater", Type: "city"},
		{TimeStr: "2025/06/05 22:40:00", Lat: -0.0005, Lon: 179.99995, RangeKm: 3.25, AzimuthDeg: 0.0, Name: "Dateline buoy", Type: "buoy"},
	}
}

// The export starts with the UTF-8 BOM, then the exact header, then one row
// per pick with the fixed numeric formats.
func TestWritePoiCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "picks.csv")
	require.NoError(t, WritePoiCSV(path, nil, samplePicks()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), 3)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, raw[:3])

	lines := strings.Split(string(raw[3:]), "\n")
	require.Len(t, lines, 5, "header, three rows, trailing newline")
	assert.Equal(t, "Time,Latitude,Longitude,Range_km,Direction,Name,Type", lines[0])
	assert.Equal(t, "2025/06/05 22:27:50,48.85660,2.35220,0.685,56.5°,Paris,city", lines[1])
	assert.Equal(t, `2025/06/05 22:31:12,51.50740,-0.12780,12.500,310.0°,"London, greater",city`, lines[2])
	assert.Equal(t, "2025/06/05 22:40:00,-0.00050,179.99995,3.250,0.0°,Dateline buoy,buoy", lines[3])
	assert.Empty(t, lines[4])
}

func TestWritePoiCSV_MetaPreamble(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "picks.csv")
	meta := &Meta{TLE: "ISS (ZARYA)", StepS: 1, HorizonH: 24}
	require.NoError(t, WritePoiCSV(path, meta, samplePicks()[:1]))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(string(raw[3:]), "\n")
	assert.Equal(t, "# tle=ISS (ZARYA)", lines[0])
	assert.Equal(t, "# step_s=1", lines[1])
	assert.Equal(t, "# horizon_h=24", lines[2])
	assert.Equal(t, "Time,Latitude,Longitude,Range_km,Direction,Name,Type", lines[3])
}

// The TXT variant is tab-separated with no BOM and no quoting.
func TestWritePoiTXT(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "picks.txt")
	require.NoError(t, WritePoiTXT(path, samplePicks()[:2]))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, byte(0xEF), raw[0])

	lines := strings.Split(string(raw), "\n")
	assert.Equal(t, "Time\tLatitude\tLongitude\tRange_km\tDirection\tName\tType", lines[0])
	assert.Equal(t, "2025/06/05 22:31:12\t51.50740\t-0.12780\t12.500\t310.0°\tLondon, greater\tcity", lines[2])
}

func TestCsvField(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "plain", csvField("plain"))
	assert.Equal(t, `"a,b"`, csvField("a,b"))
	assert.Equal(t, `"he said ""hi"""`, csvField(`he said "hi"`))
	assert.Equal(t, "\"line\nbreak\"", csvField("line\nbreak"))
	assert.Equal(t, "\"cr\rhere\"", csvField("cr\rhere"))
}

func TestWriteTerritoryCSV_DropsGapMarkers(t *testing.T) {
	t.Parallel()

	rows := []overpass.TerritoryRow{
		{TimeStr: "2025/06/05 22:27:50", Lat: 51.5074, Lon: -0.1278, Country: "United Kingdom"},
		{}, // gap marker
		{TimeStr: "2025/06/05 22:28:40", Lat: 51.6, Lon: -0.2, Country: "United Kingdom"},
	}

	path := filepath.Join(t.TempDir(), "territory.csv")
	require.NoError(t, WriteTerritoryCSV(path, nil, rows))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw[3:]), "\n"), "\n")
	require.Len(t, lines, 3, "gap markers are not part of the export format")
	assert.Equal(t, "Time,Latitude,Longitude,Country", lines[0])
	assert.Equal(t, "2025/06/05 22:27:50,51.50740,-0.12780,United Kingdom", lines[1])
}

func TestWriteCSV_ErrorSurfacesPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "no", "such", "dir", "out.csv")
	err := WritePoiCSV(path, nil, nil)
	var werr *ExportWriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, path, werr.Path)
}
