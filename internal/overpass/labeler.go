package overpass

import (
	"context"

	"github.com/banshee-data/overpass.report/internal/dataset"
	"github.com/banshee-data/overpass.report/internal/ephem"
)

// WildcardCountry selects every land sample regardless of label.
const WildcardCountry = "*"

// DefaultGapMarkerSec is the timestamp gap between consecutive emitted rows
// beyond which a single blank separator row is inserted.
const DefaultGapMarkerSec = 30.0

// TerritoryRow is one labeled ground-track sample. A blank row (empty
// TimeStr, zero coordinates) is a visual gap separator and never reaches the
// export format.
type TerritoryRow struct {
	TimeStr string
	Lat     float64
	Lon     float64
	Country string
}

// IsGapMarker reports whether the row is a blank separator.
func (r TerritoryRow) IsGapMarker() bool { return r.TimeStr == "" }

// LabelOptions select which overflights the labeler emits.
type LabelOptions struct {
	// Selector is WildcardCountry for all land, or an exact country label.
	// Empty behaves as the wildcard.
	Selector string
	// GapMarkerSec overrides the separator threshold; zero means the
	// default, negative disables separators.
	GapMarkerSec float64
}

// LabelTerritories resolves the overflown country for every sample and emits
// the rows matching the selector, preserving sample order. Samples over no
// dataset tile are dropped. The ephemeris buffer must not be mutated while
// labeling runs; the labeler holds a read-only borrow.
func LabelTerritories(ctx context.Context, buf *ephem.Buffer, set *dataset.TerritorySet, opts LabelOptions) ([]TerritoryRow, error) {
	if buf.Len() == 0 {
		return nil, nil
	}
	gapSec := opts.GapMarkerSec
	if gapSec == 0 {
		gapSec = DefaultGapMarkerSec
	}
	wildcard := opts.Selector == "" || opts.Selector == WildcardCountry

	rows := make([]TerritoryRow, 0, buf.Len())
	lastJD := 0.0
	for i := range buf.Samples {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		s := &buf.Samples[i]
		label, found := set.Resolve(s.Lat, s.Lon)
		if !found {
			continue
		}
		if !wildcard && label != opts.Selector {
			continue
		}

		if gapSec > 0 && lastJD != 0 && (s.JD-lastJD)*ephem.SecondsPerDay > gapSec {
			rows = append(rows, TerritoryRow{})
		}
		lastJD = s.JD

		rows = append(rows, TerritoryRow{
			TimeStr: s.TimeStr,
			Lat:     s.Lat,
			Lon:     s.Lon,
			Country: label,
		})
	}

	tracef("labeler: %d samples -> %d rows (selector %q)", buf.Len(), len(rows), opts.Selector)
	return rows, nil
}
