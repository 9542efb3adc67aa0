// Package geo provides the spherical-geometry primitives and the spatial
// index used by the overflight filters: longitude normalization, axis-aligned
// tile rectangles with antimeridian wrap, haversine distance, forward
// azimuth, and a fixed-cell equirectangular grid with a 3×3 neighborhood
// probe.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// containsEpsilon is the inclusive tolerance applied to interval tests so samples
// that land exactly on a tile edge are not lost to floating-point drift.
const containsEpsilon = 1e-12

// NormLon maps any longitude onto [-180, 180). Required before every
// rectangle test and cell mapping.
func NormLon(lon float64) float64 {
	l := math.Mod(lon+180, 360)
	if l < 0 {
		l += 360
	}
	return l - 180
}

// Rect is an axis-aligned rectangle on the sphere. If the normalized
// longitude interval has LonMin > LonMax the rectangle wraps the
// antimeridian and its longitude extent is [LonMin, 180) ∪ [-180, LonMax].
type Rect struct {
	LatMin, LatMax float64
	LonMin, LonMax float64
}

// NewRect builds a rectangle with normalized longitude bounds.
func NewRect(latMin, latMax, lonMin, lonMax float64) Rect {
	return Rect{
		LatMin: latMin,
		LatMax: latMax,
		LonMin: NormLon(lonMin),
		LonMax: NormLon(lonMax),
	}
}

// Wraps reports whether the rectangle crosses the antimeridian.
func (r Rect) Wraps() bool { return r.LonMin > r.LonMax }

// Contains tests point membership in constant time. The latitude interval is
// tested first with the inclusive tolerance, then the (possibly wrapped)
// longitude interval.
func (r Rect) Contains(lat, lon float64) bool {
	if lat < r.LatMin-containsEpsilon || lat > r.LatMax+containsEpsilon {
		return false
	}
	lon = NormLon(lon)
	if r.Wraps() {
		return lon >= r.LonMin-containsEpsilon || lon <= r.LonMax+containsEpsilon
	}
	return lon >= r.LonMin-containsEpsilon && lon <= r.LonMax+containsEpsilon
}

// Center returns the rectangle center, wrap-aware in longitude.
func (r Rect) Center() (lat, lon float64) {
	lat = (r.LatMin + r.LatMax) / 2
	span := r.LonMax - r.LonMin
	if r.Wraps() {
		span += 360
	}
	return lat, NormLon(r.LonMin + span/2)
}

// Haversine returns the great-circle distance in kilometres between two
// points given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := NormLon(lon2-lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Azimuth returns the initial great-circle bearing in degrees from the first
// point to the second, normalized to [0, 360).
func Azimuth(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dLambda := NormLon(lon2-lon1) * math.Pi / 180

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// PolygonContains is the ray-casting membership test retained for
// non-rectangular filter shapes. It is not on the hot path; tile rectangles
// use Rect.Contains.
func PolygonContains(ring [][2]float64, lat, lon float64) bool {
	if len(ring) < 3 {
		return false
	}
	poly := make(orb.Ring, 0, len(ring)+1)
	for _, v := range ring {
		poly = append(poly, orb.Point{NormLon(v[1]), v[0]})
	}
	if poly[0] != poly[len(poly)-1] {
		poly = append(poly, poly[0])
	}
	return planar.RingContains(poly, orb.Point{NormLon(lon), lat})
}
