package modelgraph

import (
	"errors"
	"fmt"
	"strings"
)

// Entry codes.
const (
	CodeFormatError  = "format_error"  // Wrong token at a structural boundary.
	CodeFieldDecode  = "field_decode"  // A field value failed to decode.
	CodeUnknownKey   = "unknown_key"   // Key with no declared field (only recorded when configured).
	CodeDuplicateKey = "duplicate_key" // Repeated object key.
	CodeParseError   = "parse_error"   // Malformed document or limit exceeded.
	CodeTruncated    = "truncated"     // Input larger than MaxBytes.
	CodeTrailingData = "trailing_data" // Extra values after the root value.
	CodeNullRoot     = "null_root"     // Root value is null.
	CodeCustom       = "custom"        // Recorded by application code.
)

// Entry is a single recorded load problem.
type Entry struct {
	Severity Severity
	Code     string
	Path     string // JSON Pointer of the offending value ("/" for the root).
	Message  string
	Cause    error
	Offset   int64 // Byte offset in the input (-1 when unknown).
}

func (e Entry) String() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("%s: %s at %s", e.Severity, e.Message, e.Path)
}

// Entries is an ordered collection of entries that implements error.
type Entries []Entry

// Error summarizes the first few entries.
func (es Entries) Error() string {
	if len(es) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := len(es)
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s %s at %s", es[i].Severity, es[i].Code, es[i].Path)
	}
	if len(es) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(es))
	}
	return b.String()
}

// AsEntries extracts Entries from an error using errors.As internally.
func AsEntries(err error) (Entries, bool) {
	if err == nil {
		return nil, false
	}
	var es Entries
	if errors.As(err, &es) {
		return es, true
	}
	return nil, false
}

// FormatError reports a token that does not match the expected document shape.
type FormatError struct {
	Expected string // e.g. "array or null".
	Found    string // Kind of the token actually read.
	Offset   int64
}

func (e *FormatError) Error() string {
	if e.Found == "" {
		return "expected " + e.Expected
	}
	return "expected " + e.Expected + ", found " + e.Found
}

// FieldDecodeError reports a single field value that could not be decoded.
type FieldDecodeError struct {
	Field string
	Err   error
}

func (e *FieldDecodeError) Error() string {
	return fmt.Sprintf("field '%s': %v", e.Field, e.Err)
}

func (e *FieldDecodeError) Unwrap() error { return e.Err }

// ErrRoundTrip is wrapped by Copy when a live object fails to survive its own
// save/load round trip.
var ErrRoundTrip = errors.New("modelgraph: round trip lost data")
