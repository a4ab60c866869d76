// Package codec provides value maps for common non-primitive field types.
package codec

import (
	"strconv"
	"time"

	mg "github.com/reoring/modelgraph"
)

// TimeRFC3339 maps time.Time to RFC3339 strings. Times are written in UTC
// with trailing zero fractions trimmed; the instant round-trips exactly but
// the location does not.
func TimeRFC3339() mg.ValueMap[time.Time] { return rfc3339Map{} }

type rfc3339Map struct{}

func (rfc3339Map) Write(w *mg.Writer, v time.Time) { w.String(formatRFC3339Canonical(v)) }

func (rfc3339Map) Read(r *mg.Reader, _ mg.ModelObject, _ *mg.Context) (time.Time, bool, error) {
	tok, err := r.Next()
	if err != nil {
		return time.Time{}, false, err
	}
	switch tok.Kind {
	case mg.TokenNull:
		return time.Time{}, false, nil
	case mg.TokenString:
		t, err := parseRFC3339(tok.String)
		if err != nil {
			return time.Time{}, false, &mg.ValueError{Expected: "RFC3339 time", Found: strconv.Quote(tok.String), Err: err}
		}
		return t, true, nil
	}
	return time.Time{}, false, &mg.ValueError{Expected: "RFC3339 time", Found: tok.Kind.String()}
}

// Duration maps time.Duration to Go duration strings such as "1h30m".
func Duration() mg.ValueMap[time.Duration] { return durationMap{} }

type durationMap struct{}

func (durationMap) Write(w *mg.Writer, v time.Duration) { w.String(v.String()) }

func (durationMap) Read(r *mg.Reader, _ mg.ModelObject, _ *mg.Context) (time.Duration, bool, error) {
	tok, err := r.Next()
	if err != nil {
		return 0, false, err
	}
	switch tok.Kind {
	case mg.TokenNull:
		return 0, false, nil
	case mg.TokenString:
		d, err := time.ParseDuration(tok.String)
		if err != nil {
			return 0, false, &mg.ValueError{Expected: "duration", Found: strconv.Quote(tok.String), Err: err}
		}
		return d, true, nil
	}
	return 0, false, &mg.ValueError{Expected: "duration", Found: tok.Kind.String()}
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}
