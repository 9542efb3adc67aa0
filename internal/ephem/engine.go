package ephem

import (
	"context"
	"fmt"
)

// Sample is one sub-satellite ground-track point at 1 Hz (or coarser)
// resolution. Lon is normalized to [-180, 180). TimeStr is the fixed
// "YYYY/MM/DD HH:MM:SS" rendering of JD and is owned by the sample.
type Sample struct {
	JD      float64
	TimeStr string
	Lat     float64
	Lon     float64
}

// Buffer is the ordered ground-track sequence for one run. Insertion order
// equals temporal order; the buffer exclusively owns its samples. One buffer
// is active per run and is replaced wholesale on the next run.
type Buffer struct {
	Samples []Sample
	StepSec float64
}

// Len returns the number of samples.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Samples)
}

// ObserverSite is the ground-station position supplied by the caller.
// Immutable for the duration of a run.
type ObserverSite struct {
	LatDeg float64
	LonDeg float64
	AltM   float64
}

// RunParams are the inputs of one ephemeris generation run.
type RunParams struct {
	JDNow      float64 // start of the horizon, Julian date UTC
	HorizonSec float64 // horizon length D, seconds, > 0
	StepSec    float64 // sample spacing s, seconds, > 0
	Site       ObserverSite
}

// Validate rejects non-positive horizon or step before a run starts.
func (p RunParams) Validate() error {
	if p.HorizonSec <= 0 {
		return fmt.Errorf("horizon must be positive, got %gs", p.HorizonSec)
	}
	if p.StepSec <= 0 {
		return fmt.Errorf("step must be positive, got %gs", p.StepSec)
	}
	return nil
}

// SampleCount is the exact output length for a horizon: ⌊D/s⌋ + 1.
func (p RunParams) SampleCount() int {
	return int(p.HorizonSec/p.StepSec) + 1
}

// Generate propagates a private clone of state across the horizon and
// returns the chronological ground-track buffer.
//
// The context is polled at every sample; on cancellation the in-flight buffer
// is discarded and ctx.Err() is returned, so no partial sequence is ever
// published. A PropagationError at any step likewise aborts the whole run
// with no partial buffer.
func Generate(ctx context.Context, state *SatState, p RunParams) (*Buffer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n := p.SampleCount()
	clone := state.Clone()
	buf := &Buffer{Samples: make([]Sample, 0, n), StepSec: p.StepSec}

	tracef("generate: %s jd=%.6f n=%d step=%gs site=(%.4f, %.4f)",
		state.Name, p.JDNow, n, p.StepSec, p.Site.LatDeg, p.Site.LonDeg)

	for k := 0; k < n; k++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		jd := p.JDNow + float64(k)*p.StepSec/SecondsPerDay
		lat, lon, err := Advance(clone, jd)
		if err != nil {
			opsf("generate aborted at sample %d: %v", k, err)
			return nil, err
		}

		buf.Samples = append(buf.Samples, Sample{
			JD:      jd,
			TimeStr: TimeStrForJD(jd),
			Lat:     lat,
			Lon:     lon,
		})
	}

	diagf("generate: %s produced %d samples", state.Name, buf.Len())
	return buf, nil
}
