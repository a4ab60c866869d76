package modelgraph

import (
	"fmt"
	"math"
	"strconv"
	"unsafe"
)

// ValueMap converts values of type V between memory and document form.
//
// Read decodes the value at the cursor. present is false when the document
// holds null for a value that has no null representation; the caller then
// leaves its destination at the default. On error the cursor may be left
// anywhere inside the value; callers resynchronize.
type ValueMap[V any] interface {
	Write(w *Writer, v V)
	Read(r *Reader, owner ModelObject, ctx *Context) (v V, present bool, err error)
}

// ValueError reports a value whose token kind or content does not fit the
// target type.
type ValueError struct {
	Expected string
	Found    string
	Err      error
}

func (e *ValueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("expected %s, found %s: %v", e.Expected, e.Found, e.Err)
	}
	return fmt.Sprintf("expected %s, found %s", e.Expected, e.Found)
}

func (e *ValueError) Unwrap() error { return e.Err }

// readScalar consumes one token. A null yields present=false.
func readScalar(r *Reader) (Token, bool, error) {
	tok, err := r.Next()
	if err != nil {
		return Token{}, false, err
	}
	return tok, tok.Kind != TokenNull, nil
}

type boolMap struct{}

// Bool maps bool to JSON booleans.
func Bool() ValueMap[bool] { return boolMap{} }

func (boolMap) Write(w *Writer, v bool) { w.Bool(v) }

func (boolMap) Read(r *Reader, _ ModelObject, _ *Context) (bool, bool, error) {
	tok, ok, err := readScalar(r)
	if err != nil || !ok {
		return false, false, err
	}
	if tok.Kind != TokenBool {
		return false, false, &ValueError{Expected: "bool", Found: tok.Kind.String()}
	}
	return tok.Bool, true, nil
}

type stringMap[S ~string] struct{}

// String maps string-kinded types to JSON strings.
func String[S ~string]() ValueMap[S] { return stringMap[S]{} }

func (stringMap[S]) Write(w *Writer, v S) { w.String(string(v)) }

func (stringMap[S]) Read(r *Reader, _ ModelObject, _ *Context) (S, bool, error) {
	tok, ok, err := readScalar(r)
	if err != nil || !ok {
		return "", false, err
	}
	if tok.Kind != TokenString {
		return "", false, &ValueError{Expected: "string", Found: tok.Kind.String()}
	}
	return S(tok.String), true, nil
}

// Signed is the set of signed integer kinds.
type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is the set of unsigned integer kinds.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type intMap[N Signed] struct{}

// Int maps signed integers to JSON numbers. Values round-trip exactly;
// fractional, exponent or out-of-range literals fail to decode.
func Int[N Signed]() ValueMap[N] { return intMap[N]{} }

func (intMap[N]) Write(w *Writer, v N) { w.Int(int64(v)) }

func (intMap[N]) Read(r *Reader, _ ModelObject, _ *Context) (N, bool, error) {
	tok, ok, err := readScalar(r)
	if err != nil || !ok {
		return 0, false, err
	}
	if tok.Kind != TokenNumber {
		return 0, false, &ValueError{Expected: "integer", Found: tok.Kind.String()}
	}
	var zero N
	v, err := strconv.ParseInt(tok.Number, 10, int(unsafe.Sizeof(zero))*8)
	if err != nil {
		return 0, false, &ValueError{Expected: "integer", Found: tok.Number, Err: err}
	}
	return N(v), true, nil
}

type uintMap[N Unsigned] struct{}

// Uint maps unsigned integers to JSON numbers.
func Uint[N Unsigned]() ValueMap[N] { return uintMap[N]{} }

func (uintMap[N]) Write(w *Writer, v N) { w.Uint(uint64(v)) }

func (uintMap[N]) Read(r *Reader, _ ModelObject, _ *Context) (N, bool, error) {
	tok, ok, err := readScalar(r)
	if err != nil || !ok {
		return 0, false, err
	}
	if tok.Kind != TokenNumber {
		return 0, false, &ValueError{Expected: "unsigned integer", Found: tok.Kind.String()}
	}
	var zero N
	v, err := strconv.ParseUint(tok.Number, 10, int(unsafe.Sizeof(zero))*8)
	if err != nil {
		return 0, false, &ValueError{Expected: "unsigned integer", Found: tok.Number, Err: err}
	}
	return N(v), true, nil
}

// Floating is the set of floating-point kinds.
type Floating interface {
	~float32 | ~float64
}

type floatMap[F Floating] struct{}

// Float maps floating-point values to JSON numbers using the shortest
// representation that round-trips. NaN and the infinities travel as the
// strings "NaN", "Infinity" and "-Infinity".
func Float[F Floating]() ValueMap[F] { return floatMap[F]{} }

func bitSizeOf[F Floating]() int {
	var zero F
	return int(unsafe.Sizeof(zero)) * 8
}

func (floatMap[F]) Write(w *Writer, v F) { w.Float(float64(v), bitSizeOf[F]()) }

func (floatMap[F]) Read(r *Reader, _ ModelObject, _ *Context) (F, bool, error) {
	tok, ok, err := readScalar(r)
	if err != nil || !ok {
		return 0, false, err
	}
	switch tok.Kind {
	case TokenNumber:
		v, err := strconv.ParseFloat(tok.Number, bitSizeOf[F]())
		if err != nil {
			return 0, false, &ValueError{Expected: "number", Found: tok.Number, Err: err}
		}
		return F(v), true, nil
	case TokenString:
		switch tok.String {
		case "NaN":
			return F(math.NaN()), true, nil
		case "Infinity":
			return F(math.Inf(1)), true, nil
		case "-Infinity":
			return F(math.Inf(-1)), true, nil
		}
		return 0, false, &ValueError{Expected: "number", Found: strconv.Quote(tok.String)}
	}
	return 0, false, &ValueError{Expected: "number", Found: tok.Kind.String()}
}

type enumMap[E comparable] struct {
	names  map[E]string
	values map[string]E
}

// Enum maps a closed set of values to their names. Writing a value without a
// name is a programming error and panics; reading an unknown name fails to
// decode.
func Enum[E comparable](names map[E]string) ValueMap[E] {
	m := enumMap[E]{names: make(map[E]string, len(names)), values: make(map[string]E, len(names))}
	for v, n := range names {
		if _, dup := m.values[n]; dup {
			panic("modelgraph: duplicate enum name " + n)
		}
		m.names[v] = n
		m.values[n] = v
	}
	return m
}

func (m enumMap[E]) Write(w *Writer, v E) {
	n, ok := m.names[v]
	if !ok {
		panic(fmt.Sprintf("modelgraph: enum value %v has no name", v))
	}
	w.String(n)
}

func (m enumMap[E]) Read(r *Reader, _ ModelObject, _ *Context) (E, bool, error) {
	var zero E
	tok, ok, err := readScalar(r)
	if err != nil || !ok {
		return zero, false, err
	}
	if tok.Kind != TokenString {
		return zero, false, &ValueError{Expected: "enum name", Found: tok.Kind.String()}
	}
	v, ok := m.values[tok.String]
	if !ok {
		return zero, false, &ValueError{Expected: "enum name", Found: strconv.Quote(tok.String)}
	}
	return v, true, nil
}
