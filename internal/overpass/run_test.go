package overpass

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/overpass.report/internal/dataset"
	"github.com/banshee-data/overpass.report/internal/ephem"
	"github.com/banshee-data/overpass.report/internal/geo"
)

const (
	issName  = "ISS (ZARYA)"
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"

	// Near the element set's epoch, where propagation is well conditioned.
	issEpochJD = 2454730.0
)

func issState(t *testing.T) *ephem.SatState {
	t.Helper()
	tle, err := ephem.ParseTLE(issName, issLine1, issLine2)
	require.NoError(t, err)
	return tle.NewSatState()
}

// A territory set blanketing the whole globe in one band per hemisphere, so
// every sample labels.
func globalSet() *dataset.TerritorySet {
	return territorySet(
		dataset.CountryTile{Rect: geo.NewRect(0, 90, -180, 179.9999999999), Label: "North"},
		dataset.CountryTile{Rect: geo.NewRect(-90, 0, -180, 179.9999999999), Label: "South"},
	)
}

func globalPois() *dataset.PoiSet {
	return poiSet(
		dataset.PoiTile{Rect: geo.NewRect(-60, 60, -180, 179.9999999999), Name: "Everywhere", Type: "band"},
	)
}

func TestPipeline_Run(t *testing.T) {
	t.Parallel()

	pipe := NewPipeline(globalSet(), globalPois())

	ephemSink := &sampleSink{}
	pipe.EphemSink = ephemSink

	result, err := pipe.Run(context.Background(), RunRequest{
		State: issState(t),
		Params: ephem.RunParams{
			JDNow:      issEpochJD,
			HorizonSec: 60,
			StepSec:    1,
		},
		CountrySelector: WildcardCountry,
		PoiWorkers:      1,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 61, result.Buffer.Len())
	assert.Len(t, result.Territories, 61, "the global dataset labels every sample")
	require.Len(t, result.Picks, 1)
	assert.Equal(t, "Everywhere", result.Picks[0].Name)

	assert.Equal(t, 61, len(ephemSink.rows), "the ephemeris sink received every sample")
	assert.Equal(t, 1, ephemSink.begun)
	assert.Equal(t, 1, ephemSink.ended)

	assert.Same(t, result.Buffer, pipe.CurrentBuffer(), "the buffer handle swaps on success")

	sum := result.Summary
	assert.Equal(t, 61, sum.Samples)
	assert.Equal(t, 1.0, sum.LandFraction)
	assert.Equal(t, 1, sum.PoiMatches)
}

type sampleSink struct {
	begun int
	ended int
	rows  []ephem.Sample
}

func (s *sampleSink) BeginBulk() { s.begun++ }
func (s *sampleSink) EndBulk()   { s.ended++ }
func (s *sampleSink) AppendBatch(rows []ephem.Sample) {
	s.rows = append(s.rows, rows...)
}

// A cancelled run publishes nothing to any consumer.
func TestPipeline_CancelledPublishesNothing(t *testing.T) {
	t.Parallel()

	pipe := NewPipeline(globalSet(), globalPois())
	ephemSink := &sampleSink{}
	pipe.EphemSink = ephemSink

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := pipe.Run(ctx, RunRequest{
		State:  issState(t),
		Params: ephem.RunParams{JDNow: issEpochJD, HorizonSec: 3600, StepSec: 1},
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	assert.Zero(t, ephemSink.begun)
	assert.Empty(t, ephemSink.rows)
}

func TestPipeline_SwapDatasets(t *testing.T) {
	t.Parallel()

	pipe := NewPipeline(globalSet(), globalPois())

	empty := &dataset.TerritorySet{Grid: geo.NewGrid(1.0)}
	pipe.SwapDatasets(empty, nil)

	result, err := pipe.Run(context.Background(), RunRequest{
		State:  issState(t),
		Params: ephem.RunParams{JDNow: issEpochJD, HorizonSec: 10, StepSec: 1},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Territories, "the swapped-in territory set is used")
	assert.NotEmpty(t, result.Picks, "the POI set was left in place")
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	buf := trackBuffer(1,
		[2]float64{51, -1},
		[2]float64{52, -1},
		[2]float64{0, -30},
	)
	rows := []TerritoryRow{
		{TimeStr: buf.Samples[0].TimeStr, Country: "United Kingdom"},
		{}, // gap marker, excluded from counts
		{TimeStr: buf.Samples[1].TimeStr, Country: "United Kingdom"},
	}
	picks := []PoiPick{
		{Name: "A", RangeKm: 2, AzimuthDeg: 10},
		{Name: "B", RangeKm: 6, AzimuthDeg: 40},
	}

	sum := Summarize("run-1", buf, rows, picks)
	assert.Equal(t, "run-1", sum.RunID)
	assert.Equal(t, 3, sum.Samples)
	assert.Equal(t, 2, sum.LandSamples)
	assert.InDelta(t, 2.0/3.0, sum.LandFraction, 1e-12)
	assert.Equal(t, 2, sum.PoiMatches)
	assert.InDelta(t, 2, sum.RangeMinKm, 1e-12)
	assert.InDelta(t, 4, sum.RangeMeanKm, 1e-12)
	assert.InDelta(t, 30, sum.BearingSpanDeg, 1e-12)
}
