// Package dates parses loosely typed date values and converts instants to
// and from UTC day keys used for daily bucketing.
package dates

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// DayKeyLayout is the layout of a day key: YYYY-MM-DD.
const DayKeyLayout = "2006-01-02"

// ErrDayKey is returned for malformed day keys.
var ErrDayKey = errors.New("invalid day key")

// Layouts tried in order for string input. Layouts without a zone parse as UTC.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"02 Jan 2006",
	"Jan 2, 2006",
}

// ParseFlexible coerces v into a valid instant. It accepts time.Time,
// *time.Time, strings in common date layouts, []byte, and integer or float
// values holding Unix milliseconds. It reports false instead of failing.
// Empty input, numeric zero and the zero time are treated as missing.
func ParseFlexible(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return valid(x)
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return valid(*x)
	case string:
		return parseString(x)
	case []byte:
		return parseString(string(x))
	case int64:
		return fromMillis(float64(x))
	case float64:
		return fromMillis(x)
	case fmt.Stringer:
		return parseString(x.String())
	default:
		return fromNumber(reflect.ValueOf(v))
	}
}

// fromNumber handles every integer and float kind, named types included.
func fromNumber(rv reflect.Value) (time.Time, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fromMillis(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fromMillis(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return fromMillis(rv.Float())
	default:
		return time.Time{}, false
	}
}

func valid(t time.Time) (time.Time, bool) {
	if t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

func parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// maxMillis bounds millisecond input to the range a calendar instant supports.
const maxMillis = 8.64e15

func fromMillis(ms float64) (time.Time, bool) {
	if ms == 0 || math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).UTC(), true
}

// DayKey formats the UTC calendar day of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	y, m, d := t.UTC().Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// ParseDayKey returns UTC midnight of the day named by key.
func ParseDayKey(key string) (time.Time, error) {
	t, err := time.Parse(DayKeyLayout, strings.TrimSpace(key))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %w", ErrDayKey, key, err)
	}
	return t, nil
}

// StartOfDay truncates t to UTC midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
