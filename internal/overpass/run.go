package overpass

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/overpass.report/internal/dataset"
	"github.com/banshee-data/overpass.report/internal/ephem"
)

// RunRequest are the inputs of one full pipeline run.
type RunRequest struct {
	State  *ephem.SatState
	Params ephem.RunParams

	// CountrySelector is WildcardCountry or an exact label; empty means
	// wildcard.
	CountrySelector string
	// PoiNameFilter restricts the POI selector to one name; empty selects
	// all POIs.
	PoiNameFilter string
	// PoiWorkers forces the selector pool size; zero auto-sizes.
	PoiWorkers int
	// GapMarkerSec overrides the labeler's separator threshold.
	GapMarkerSec float64
	// ChunkSize overrides the streaming batch bound.
	ChunkSize int
}

// RunResult bundles one run's outputs. The buffer is the run-scoped
// ephemeris handle; consumers hold read-only borrows of it for the result's
// lifetime.
type RunResult struct {
	RunID       string
	Buffer      *ephem.Buffer
	Territories []TerritoryRow
	Picks       []PoiPick
	Summary     RunSummary
}

// Pipeline owns the current datasets and the current ephemeris buffer, and
// enforces the single-flight run policy. Datasets are read-only while a run
// is in flight; SwapDatasets replaces them between runs.
type Pipeline struct {
	mu          sync.Mutex
	territories *dataset.TerritorySet
	pois        *dataset.PoiSet
	current     *ephem.Buffer

	flight SingleFlight

	// Optional streaming consumers; each receives its product in chunked
	// batches after the producers complete.
	EphemSink     Sink[ephem.Sample]
	TerritorySink Sink[TerritoryRow]
	PoiSink       Sink[PoiPick]

	// Status carries the pulse/elapsed/busy hooks for the active run.
	Status *RunStatus
}

// NewPipeline builds a pipeline over loaded datasets.
func NewPipeline(territories *dataset.TerritorySet, pois *dataset.PoiSet) *Pipeline {
	return &Pipeline{territories: territories, pois: pois}
}

// SwapDatasets atomically replaces the datasets used by subsequent runs. It
// cancels any in-flight run first so no worker observes the swap.
func (p *Pipeline) SwapDatasets(territories *dataset.TerritorySet, pois *dataset.PoiSet) {
	p.flight.Stop()
	p.mu.Lock()
	defer p.mu.Unlock()
	if territories != nil {
		p.territories = territories
	}
	if pois != nil {
		p.pois = pois
	}
}

// CurrentBuffer returns the buffer of the last successful run, or nil.
func (p *Pipeline) CurrentBuffer() *ephem.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Run executes the full pipeline: ephemeris generation, then the territory
// labeler and the POI selector as two parallel consumers over the finished
// buffer, then the chunked streaming drain into any configured sinks.
//
// Starting a new run cancels a prior in-flight run for this pipeline. A run
// cancelled before the drain returns context.Canceled and publishes nothing;
// any other producer error likewise aborts before publication. A
// cancellation during the drain stops it early and returns no result.
func (p *Pipeline) Run(parent context.Context, req RunRequest) (*RunResult, error) {
	ctx, cancel := p.flight.Begin(parent)
	defer cancel()

	stop := p.Status.Track(ctx)
	defer stop()

	runID := uuid.NewString()
	diagf("run %s: horizon=%gs step=%gs selector=%q poi=%q",
		runID, req.Params.HorizonSec, req.Params.StepSec, req.CountrySelector, req.PoiNameFilter)

	buf, err := ephem.Generate(ctx, req.State, req.Params)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			opsf("run %s: ephemeris failed: %v", runID, err)
		}
		return nil, err
	}

	p.mu.Lock()
	territories, pois := p.territories, p.pois
	p.current = buf
	p.mu.Unlock()

	// Two parallel consumers over the read-only buffer.
	var (
		wg      sync.WaitGroup
		rows    []TerritoryRow
		picks   []PoiPick
		rowErr  error
		pickErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		rows, rowErr = LabelTerritories(ctx, buf, territories, LabelOptions{
			Selector:     req.CountrySelector,
			GapMarkerSec: req.GapMarkerSec,
		})
	}()
	go func() {
		defer wg.Done()
		picks, pickErr = SelectPois(ctx, buf, pois, SelectOptions{
			NameFilter: req.PoiNameFilter,
			Workers:    req.PoiWorkers,
		})
	}()
	wg.Wait()

	if rowErr != nil {
		return nil, rowErr
	}
	if pickErr != nil {
		return nil, pickErr
	}

	// Publication: chunked streaming into the configured sinks. A
	// cancellation from here on stops the drain early and the run returns
	// the context error with no result; batches already appended stay
	// with their sinks.
	if err := Stream(ctx, buf.Samples, p.EphemSink, req.ChunkSize); err != nil {
		return nil, err
	}
	if err := Stream(ctx, rows, p.TerritorySink, req.ChunkSize); err != nil {
		return nil, err
	}
	if err := Stream(ctx, picks, p.PoiSink, req.ChunkSize); err != nil {
		return nil, err
	}

	sum := Summarize(runID, buf, rows, picks)
	diagf("run %s: %d samples, %d territory rows (%.1f%% land), %d poi picks",
		runID, sum.Samples, len(rows), 100*sum.LandFraction, sum.PoiMatches)

	return &RunResult{
		RunID:       runID,
		Buffer:      buf,
		Territories: rows,
		Picks:       picks,
		Summary:     sum,
	}, nil
}
