package ephem

import (
	"fmt"
	"math"

	gosatellite "github.com/joshuaferrara/go-satellite"
)

// earthRadiusKm is the WGS72/WGS84 equatorial radius used by SGP4. A
// propagated position magnitude below this means the orbit has decayed.
const earthRadiusKm = 6378.135

// SatState is the opaque orbital state consumed by Advance. A state is
// advanced only through Advance; workers must operate on a private Clone so
// the main state is never shared between goroutines.
type SatState struct {
	Name string
	sat  gosatellite.Satellite
}

// Clone returns an independent copy of the state. The underlying SGP4
// element struct is plain value data, so a shallow copy is a full copy.
func (s *SatState) Clone() *SatState {
	c := *s
	return &c
}

// PropagationError reports a decayed orbit or an otherwise unusable
// propagation result at a specific Julian date.
type PropagationError struct {
	Name string
	JD   float64
	Msg  string
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("propagate %s at jd=%.6f: %s", e.Name, e.JD, e.Msg)
}

// Advance propagates the state to the target Julian date and returns the
// sub-satellite latitude and longitude in degrees. Longitude is in
// [-180, 180). The target date is rounded to the nearest UTC second, matching
// the 1 Hz product resolution.
func Advance(state *SatState, jd float64) (latDeg, lonDeg float64, err error) {
	year, month, day, hour, minute, sec := JDToUTC(jd)

	pos, _ := gosatellite.Propagate(state.sat, year, month, day, hour, minute, sec)

	r := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if math.IsNaN(r) {
		return 0, 0, &PropagationError{Name: state.Name, JD: jd, Msg: "propagator returned NaN position"}
	}
	if r < earthRadiusKm {
		return 0, 0, &PropagationError{Name: state.Name, JD: jd, Msg: "orbit decayed"}
	}

	gmst := gosatellite.ThetaG_JD(gosatellite.JDay(year, month, day, hour, minute, sec))
	_, _, ll := gosatellite.ECIToLLA(pos, gmst)
	deg := gosatellite.LatLongDeg(ll)

	lonDeg = math.Mod(deg.Longitude+540, 360) - 180
	return deg.Latitude, lonDeg, nil
}

// Decayed reports whether the state already fails to propagate at the given
// Julian date. Used as a pre-flight check before committing to a full run.
func Decayed(state *SatState, jd float64) bool {
	_, _, err := Advance(state.Clone(), jd)
	return err != nil
}
