package token

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TTL is a token lifetime that unmarshals from env-style text.
//
// Accepted forms: Go durations ("15m", "1h30m"), whole days ("7d"), or plain
// integer seconds ("900").
type TTL time.Duration

func (t TTL) Duration() time.Duration { return time.Duration(t) }

func (t *TTL) UnmarshalText(b []byte) error {
	d, err := ParseTTL(string(b))
	if err != nil {
		return err
	}
	*t = TTL(d)
	return nil
}

// ParseTTL parses s in any of the forms accepted by TTL.
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("ttl: empty")
	}

	var d time.Duration
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if d, err = scale(s, n, time.Second); err != nil {
			return 0, err
		}
	} else if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("ttl %q: %w", s, err)
		}
		if d, err = scale(s, n, 24*time.Hour); err != nil {
			return 0, err
		}
	} else {
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("ttl %q: %w", s, err)
		}
	}

	if d <= 0 {
		return 0, fmt.Errorf("ttl %q: %w", s, ErrInvalidTTL)
	}
	return d, nil
}

// scale returns n units, refusing counts that would overflow time.Duration.
func scale(s string, n int64, unit time.Duration) (time.Duration, error) {
	if n > math.MaxInt64/int64(unit) || n < math.MinInt64/int64(unit) {
		return 0, fmt.Errorf("ttl %q: out of range: %w", s, ErrInvalidTTL)
	}
	return time.Duration(n) * unit, nil
}
