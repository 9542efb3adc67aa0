package overpass

import (
	"github.com/banshee-data/overpass.report/internal/ephem"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RunSummary is the per-run statistics bundle logged at run end and
// surfaced to callers alongside the result rows.
type RunSummary struct {
	RunID        string
	Samples      int
	LandSamples  int
	LandFraction float64

	PoiMatches     int
	RangeMinKm     float64
	RangeMeanKm    float64
	RangeStddevKm  float64
	BearingSpanDeg float64
}

// Summarize computes the run statistics from the buffer and both consumer
// outputs. Gap-marker rows are excluded from the land counts.
func Summarize(runID string, buf *ephem.Buffer, rows []TerritoryRow, picks []PoiPick) RunSummary {
	sum := RunSummary{RunID: runID, Samples: buf.Len(), PoiMatches: len(picks)}

	for _, r := range rows {
		if !r.IsGapMarker() {
			sum.LandSamples++
		}
	}
	if sum.Samples > 0 {
		sum.LandFraction = float64(sum.LandSamples) / float64(sum.Samples)
	}

	if len(picks) > 0 {
		ranges := make([]float64, len(picks))
		bearings := make([]float64, len(picks))
		for i, p := range picks {
			ranges[i] = p.RangeKm
			bearings[i] = p.AzimuthDeg
		}
		sum.RangeMinKm = floats.Min(ranges)
		sum.RangeMeanKm = stat.Mean(ranges, nil)
		if len(picks) > 1 {
			sum.RangeStddevKm = stat.StdDev(ranges, nil)
			sum.BearingSpanDeg = floats.Max(bearings) - floats.Min(bearings)
		}
	}
	return sum
}
