package types

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Millis is a span of time in whole milliseconds. Remaining clock time may
// be negative until the game is settled.
type Millis int64

// Minute is one minute in milliseconds.
const Minute Millis = 60 * 1000

// Duration converts m to a time.Duration.
func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// MillisOf truncates a time.Duration to whole milliseconds.
func MillisOf(d time.Duration) Millis {
	return Millis(d.Milliseconds())
}

// String renders m with FormatMillis.
func (m Millis) String() string {
	return FormatMillis(m)
}

var timespanPattern = regexp.MustCompile(`^(-)?(?:([0-9]+):)?([0-9]+)(?:\.([0-9]+))?$`)

// ParseMillis parses "[-][MM:]SS[.mmm]" into milliseconds. Fractions finer
// than a millisecond are truncated.
func ParseMillis(s string) (Millis, error) {
	m := timespanPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid time %q: expected [MM:]SS[.mmm]", s)
	}
	seconds, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q: %w", s, err)
	}
	total := float64(seconds) * 1000
	if m[4] != "" {
		frac, err := strconv.ParseFloat("0."+m[4], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid fraction in %q: %w", s, err)
		}
		total += frac * 1000
	}
	if m[2] != "" {
		minutes, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid minutes in %q: %w", s, err)
		}
		total += float64(minutes) * 60000
	}
	if m[1] != "" {
		total = -total
	}
	return Millis(math.Trunc(total)), nil
}

// FormatMillis renders milliseconds as "[-]MM:SS.mmm". Minutes are not
// folded into hours.
func FormatMillis(m Millis) string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	ms := v % 1000
	s := (v / 1000) % 60
	min := v / 60000
	return fmt.Sprintf("%s%02d:%02d.%03d", sign, min, s, ms)
}

// UnmarshalJSON accepts a number of milliseconds or a timespan string.
func (m *Millis) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseMillis(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("time must be a number or a string, got %s", string(data))
	}
	*m = Millis(math.Trunc(f))
	return nil
}
