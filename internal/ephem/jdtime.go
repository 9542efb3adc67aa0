package ephem

import (
	"fmt"
	"math"
	"time"
)

// SecondsPerDay is the fixed UTC day length used for Julian date arithmetic.
const SecondsPerDay = 86400.0

// TimeParseError reports a display-time string that does not match the
// expected layout. Callers may substitute the current time and continue;
// the error never propagates past the call site.
type TimeParseError struct {
	Input string
	Err   error
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("parse display time %q: %v", e.Input, e.Err)
}

func (e *TimeParseError) Unwrap() error { return e.Err }

// JDToUTC converts a Julian date (UTC) to calendar components using the
// Fliegel–Van Flandern / Meeus algorithm. The fraction of day is rounded to
// the nearest integer second (ties round up) and the carry propagates through
// seconds, minutes and hours into the day. The day is not re-checked against
// the month length when rounding adds a full second at a month boundary, so
// the rollover is approximate there.
func JDToUTC(jd float64) (year, month, day, hour, minute, sec int) {
	z := math.Floor(jd + 0.5)
	f := jd + 0.5 - z

	a := z
	if z >= 2299161 {
		alpha := math.Floor((z - 1867216.25) / 36524.25)
		a = z + 1 + alpha - math.Floor(alpha/4)
	}
	b := a + 1524
	c := math.Floor((b - 122.1) / 365.25)
	d := math.Floor(365.25 * c)
	e := math.Floor((b - d) / 30.6001)

	day = int(b - d - math.Floor(30.6001*e))
	if e < 14 {
		month = int(e - 1)
	} else {
		month = int(e - 13)
	}
	if month > 2 {
		year = int(c - 4716)
	} else {
		year = int(c - 4715)
	}

	secs := int(math.Floor(f*SecondsPerDay + 0.5))
	if secs >= int(SecondsPerDay) {
		secs -= int(SecondsPerDay)
		day++
	}
	hour = secs / 3600
	minute = (secs % 3600) / 60
	sec = secs % 60
	return year, month, day, hour, minute, sec
}

// UTCToJD converts calendar components (UTC) to a Julian date. Inverse of
// JDToUTC to within the half-second rounding of that function.
func UTCToJD(year, month, day, hour, minute, sec int) float64 {
	y, m := float64(year), float64(month)
	if m <= 2 {
		y--
		m += 12
	}
	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)
	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + float64(day) + b - 1524.5
	return jd + (float64(hour)*3600+float64(minute)*60+float64(sec))/SecondsPerDay
}

// FormatUTC renders calendar components in the fixed display pattern
// "YYYY/MM/DD HH:MM:SS".
func FormatUTC(year, month, day, hour, minute, sec int) string {
	return fmt.Sprintf("%04d/%02d/%02d %02d:%02d:%02d", year, month, day, hour, minute, sec)
}

// TimeStrForJD is the display form of a Julian date, rounded to the second.
func TimeStrForJD(jd float64) string {
	return FormatUTC(JDToUTC(jd))
}

const displayLayout = "2006-01-02 15:04:05"

// ParseDisplayTime parses a "YYYY-MM-DD HH:MM:SS" string (the layout shown in
// downstream views) and returns seconds since the Unix epoch in UTC. Any
// deviation from the layout yields a TimeParseError.
func ParseDisplayTime(s string) (int64, error) {
	if len(s) != len(displayLayout) {
		return 0, &TimeParseError{Input: s, Err: fmt.Errorf("want %d characters, got %d", len(displayLayout), len(s))}
	}
	t, err := time.ParseInLocation(displayLayout, s, time.UTC)
	if err != nil {
		return 0, &TimeParseError{Input: s, Err: err}
	}
	return t.Unix(), nil
}
