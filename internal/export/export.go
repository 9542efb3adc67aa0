// Package export writes the spreadsheet-ready result files: UTF-8 CSV with
// byte-order mark and fixed numeric formats, plus a tab-separated TXT
// variant. The whole file is assembled in memory and written with a single
// best-effort call to keep partial files rare; atomic rename is deliberately
// not attempted.
package export

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/banshee-data/overpass.report/internal/overpass"
)

// utf8BOM prefixes CSV exports so spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PoiHeader is the fixed header row of the POI export.
var PoiHeader = []string{"Time", "Latitude", "Longitude", "Range_km", "Direction", "Name", "Type"}

// TerritoryHeader is the header row of the territory overflight export.
var TerritoryHeader = []string{"Time", "Latitude", "Longitude", "Country"}

// Meta is the optional comment preamble written before the CSV header. The
// lines are fixed in format: "# tle=<id>", "# step_s=<int>", "# horizon_h=<int>".
type Meta struct {
	TLE      string
	StepS    int
	HorizonH int
}

// ExportWriteError reports a filesystem failure during export. A partial
// file may exist afterwards.
type ExportWriteError struct {
	Path string
	Err  error
}

func (e *ExportWriteError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportWriteError) Unwrap() error { return e.Err }

// csvField quotes a field when it contains a comma, quote, CR, or LF;
// embedded quotes are doubled. The decimal separator of numeric fields is
// always '.' — formatting happens upstream with fmt verbs.
func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func writeRow(buf *bytes.Buffer, fields []string, sep byte, quote bool) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(sep)
		}
		if quote {
			f = csvField(f)
		}
		buf.WriteString(f)
	}
	buf.WriteByte('\n')
}

func writeAll(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &ExportWriteError{Path: path, Err: err}
	}
	return nil
}

// WriteCSV writes a BOM-prefixed, comma-separated file: optional metadata
// preamble, header row, then the data rows.
func WriteCSV(path string, meta *Meta, header []string, rows [][]string) error {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	if meta != nil {
		fmt.Fprintf(&buf, "# tle=%s\n", meta.TLE)
		fmt.Fprintf(&buf, "# step_s=%d\n", meta.StepS)
		fmt.Fprintf(&buf, "# horizon_h=%d\n", meta.HorizonH)
	}
	writeRow(&buf, header, ',', true)
	for _, row := range rows {
		writeRow(&buf, row, ',', true)
	}
	return writeAll(path, buf.Bytes())
}

// WriteTXT writes the tab-separated variant: no BOM, no quoting.
func WriteTXT(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	writeRow(&buf, header, '\t', false)
	for _, row := range rows {
		writeRow(&buf, row, '\t', false)
	}
	return writeAll(path, buf.Bytes())
}

// PoiRows renders picks with the fixed numeric formats: latitude and
// longitude at five decimals, range at three, bearing at one with a
// trailing degree sign.
func PoiRows(picks []overpass.PoiPick) [][]string {
	rows := make([][]string, 0, len(picks))
	for _, p := range picks {
		rows = append(rows, []string{
			p.TimeStr,
			fmt.Sprintf("%.5f", p.Lat),
			fmt.Sprintf("%.5f", p.Lon),
			fmt.Sprintf("%.3f", p.RangeKm),
			fmt.Sprintf("%.1f°", p.AzimuthDeg),
			p.Name,
			p.Type,
		})
	}
	return rows
}

// TerritoryRows renders labeled samples for export. Gap-marker rows are a
// view-only separator and are dropped here.
func TerritoryRows(rows []overpass.TerritoryRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		if r.IsGapMarker() {
			continue
		}
		out = append(out, []string{
			r.TimeStr,
			fmt.Sprintf("%.5f", r.Lat),
			fmt.Sprintf("%.5f", r.Lon),
			r.Country,
		})
	}
	return out
}

// WritePoiCSV writes the POI closest-approach export.
func WritePoiCSV(path string, meta *Meta, picks []overpass.PoiPick) error {
	return WriteCSV(path, meta, PoiHeader, PoiRows(picks))
}

// WritePoiTXT writes the tab-separated POI export.
func WritePoiTXT(path string, picks []overpass.PoiPick) error {
	return WriteTXT(path, PoiHeader, PoiRows(picks))
}

// WriteTerritoryCSV writes the territory overflight export.
func WriteTerritoryCSV(path string, meta *Meta, rows []overpass.TerritoryRow) error {
	return WriteCSV(path, meta, TerritoryHeader, TerritoryRows(rows))
}

// WriteTerritoryTXT writes the tab-separated territory export.
func WriteTerritoryTXT(path string, rows []overpass.TerritoryRow) error {
	return WriteTXT(path, TerritoryHeader, TerritoryRows(rows))
}
