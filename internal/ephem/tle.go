package ephem

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	gosatellite "github.com/joshuaferrara/go-satellite"
)

// TLE is a parsed two-line element set, with the optional name line from
// a 3LE catalog entry.
type TLE struct {
	Name  string
	Line1 string
	Line2 string
}

// lineChecksum computes the NORAD mod-10 checksum over the first 68
// characters of a TLE line. Digits add their value, '-' adds one, everything
// else adds nothing.
func lineChecksum(line string) int {
	cs := 0
	for i := 0; i < 68 && i < len(line); i++ {
		c := line[i]
		switch {
		case '0' <= c && c <= '9':
			cs += int(c - '0')
		case c == '-':
			cs++
		}
	}
	return cs % 10
}

// validateLine checks length, the leading line number, and the checksum digit.
func validateLine(line string, wantNum byte) error {
	if len(line) < 69 {
		return fmt.Errorf("line too short: %d characters", len(line))
	}
	if line[0] != wantNum {
		return fmt.Errorf("want line number %c, got %c", wantNum, line[0])
	}
	if int(line[68]-'0') != lineChecksum(line) {
		return fmt.Errorf("checksum mismatch on line %c", wantNum)
	}
	return nil
}

// ParseTLE assembles and validates a TLE from raw lines. The name is optional.
func ParseTLE(name, line1, line2 string) (*TLE, error) {
	line1 = strings.TrimRight(line1, " \r\n")
	line2 = strings.TrimRight(line2, " \r\n")
	if err := validateLine(line1, '1'); err != nil {
		return nil, fmt.Errorf("tle: %w", err)
	}
	if err := validateLine(line2, '2'); err != nil {
		return nil, fmt.Errorf("tle: %w", err)
	}
	return &TLE{Name: strings.TrimSpace(name), Line1: line1, Line2: line2}, nil
}

// ReadTLEFile reads the first element set from a TLE or 3LE file. Lines that
// are not part of an element set (blank lines, comments) are skipped until a
// "1 "/"2 " pair is found; the nearest preceding non-element line is taken as
// the satellite name.
func ReadTLEFile(path string) (*TLE, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tle: open %s: %w", path, err)
	}
	defer f.Close()

	var name, line1 string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \r")
		switch {
		case strings.HasPrefix(line, "1 "):
			line1 = line
		case strings.HasPrefix(line, "2 ") && line1 != "":
			return ParseTLE(name, line1, line)
		case strings.TrimSpace(line) != "":
			name = line
			line1 = ""
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("tle: read %s: %w", path, err)
	}
	return nil, fmt.Errorf("tle: no element set found in %s", path)
}

// NewSatState builds the opaque propagator state for an element set using the
// WGS84 gravity model.
func (t *TLE) NewSatState() *SatState {
	sat := gosatellite.TLEToSat(t.Line1, t.Line2, gosatellite.GravityWGS84)
	return &SatState{Name: t.Name, sat: sat}
}
