package overpass

import (
	"context"
	"runtime"
	"sync"

	"github.com/banshee-data/overpass.report/internal/dataset"
	"github.com/banshee-data/overpass.report/internal/ephem"
	"github.com/banshee-data/overpass.report/internal/geo"
)

// Worker-count clamp for the short-lived POI pool.
const (
	minPoiWorkers = 2
	maxPoiWorkers = 8
)

// PoiPick is the closest-approach record for one matched POI: the single
// sample with minimum range to the POI rectangle centre, with the forward
// bearing from the centre to that sample. One record per matched POI name
// per run.
type PoiPick struct {
	TimeStr    string
	Lat        float64
	Lon        float64
	RangeKm    float64
	AzimuthDeg float64
	Name       string
	Type       string
}

// SelectOptions tune one selector run.
type SelectOptions struct {
	// NameFilter restricts matching to a single POI name (single-POI
	// mode). Empty matches all POIs.
	NameFilter string
	// Workers overrides the pool size; zero or negative auto-sizes to
	// clamp(NumCPU, 2, 8). Forcing 1 makes the output bitwise
	// deterministic in POI discovery order.
	Workers int
}

// poiHit is one worker-local match record, reduced per POI after the pool
// drains.
type poiHit struct {
	poi     int
	sample  int
	rangeKm float64
	azDeg   float64
}

func poolSize(requested, samples int) int {
	t := requested
	if t <= 0 {
		t = runtime.NumCPU()
		if t < minPoiWorkers {
			t = minPoiWorkers
		}
		if t > maxPoiWorkers {
			t = maxPoiWorkers
		}
	}
	if t > samples {
		t = samples
	}
	return t
}

// SelectPois scans the ephemeris buffer against the POI dataset and returns
// one pick per POI that had at least one sample inside its rectangle.
//
// The sample sequence is partitioned into contiguous slices, one short-lived
// worker per slice, each returning its own value-typed hit bucket; no state
// is shared while the pool runs. The reduction keeps the minimum-range hit
// per POI, resolving distance ties to the earliest sample, and because the
// buckets are merged in slice order the result does not depend on goroutine
// scheduling. Output order follows POI discovery order during the merge.
//
// Cancellation is polled per sample; a cancelled run discards all partial
// results.
func SelectPois(ctx context.Context, buf *ephem.Buffer, set *dataset.PoiSet, opts SelectOptions) ([]PoiPick, error) {
	n := buf.Len()
	if n == 0 || len(set.Tiles) == 0 {
		return nil, nil
	}

	t := poolSize(opts.Workers, n)
	buckets := make([][]poiHit, t)

	var wg sync.WaitGroup
	for w := 0; w < t; w++ {
		lo, hi := w*n/t, (w+1)*n/t
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			buckets[w] = scanSlice(ctx, buf, set, opts.NameFilter, lo, hi)
		}(w, lo, hi)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return reduceHits(buf, set, buckets), nil
}

// scanSlice is the worker body: bounding-box pre-check, rectangle
// membership, then range and bearing from the POI rectangle centre to the
// sample position. Returns nil as soon as the context is cancelled.
func scanSlice(ctx context.Context, buf *ephem.Buffer, set *dataset.PoiSet, nameFilter string, lo, hi int) []poiHit {
	var hits []poiHit
	var seen []int // handles already tested for the current sample

	for i := lo; i < hi; i++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		s := &buf.Samples[i]
		seen = seen[:0]
		set.Grid.Probe(s.Lat, s.Lon, func(h int) bool {
			for _, sh := range seen {
				if sh == h {
					return false
				}
			}
			seen = append(seen, h)

			if !set.Bounds[h].Contains(s.Lat, s.Lon) {
				return false
			}
			tile := &set.Tiles[h]
			if !tile.Rect.Contains(s.Lat, s.Lon) {
				return false
			}
			if nameFilter != "" && tile.Name != nameFilter {
				// Single-POI mode: a hit on the wrong POI moves
				// straight on to the next sample.
				return true
			}

			cLat, cLon := tile.Rect.Center()
			hits = append(hits, poiHit{
				poi:     h,
				sample:  i,
				rangeKm: geo.Haversine(cLat, cLon, s.Lat, s.Lon),
				azDeg:   geo.Azimuth(cLat, cLon, s.Lat, s.Lon),
			})
			return false
		})
	}
	return hits
}

// reduceHits folds the per-worker buckets into one pick per POI. Buckets are
// consumed in slice order, so sample indices arrive ascending per POI and
// the earliest sample naturally wins range ties.
func reduceHits(buf *ephem.Buffer, set *dataset.PoiSet, buckets [][]poiHit) []PoiPick {
	best := make(map[int]poiHit)
	var order []int

	for _, bucket := range buckets {
		for _, h := range bucket {
			cur, ok := best[h.poi]
			if !ok {
				best[h.poi] = h
				order = append(order, h.poi)
				continue
			}
			if h.rangeKm < cur.rangeKm {
				best[h.poi] = h
			}
		}
	}

	picks := make([]PoiPick, 0, len(order))
	for _, poi := range order {
		h := best[poi]
		tile := &set.Tiles[poi]
		s := &buf.Samples[h.sample]
		picks = append(picks, PoiPick{
			TimeStr:    s.TimeStr,
			Lat:        s.Lat,
			Lon:        s.Lon,
			RangeKm:    h.rangeKm,
			AzimuthDeg: h.azDeg,
			Name:       tile.Name,
			Type:       tile.Type,
		})
	}
	tracef("selector: %d hits reduced to %d picks", totalHits(buckets), len(picks))
	return picks
}

func totalHits(buckets [][]poiHit) int {
	n := 0
	for _, b := range buckets {
		n += len(b)
	}
	return n
}
