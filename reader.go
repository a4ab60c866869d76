package modelgraph

import (
	eng "github.com/reoring/modelgraph/internal/engine"
)

// TokenKind and Token expose the engine token model to value maps defined
// outside this package.
type (
	TokenKind = eng.Kind
	Token     = eng.Token
)

const (
	TokenBeginObject = eng.KindBeginObject
	TokenEndObject   = eng.KindEndObject
	TokenBeginArray  = eng.KindBeginArray
	TokenEndArray    = eng.KindEndArray
	TokenKey         = eng.KindKey
	TokenString      = eng.KindString
	TokenNumber      = eng.KindNumber
	TokenBool        = eng.KindBool
	TokenNull        = eng.KindNull
)

// ContainerKind selects arrays or objects in ReadContainerStart.
type ContainerKind int

const (
	ContainerArray ContainerKind = iota
	ContainerObject
)

func (k ContainerKind) String() string {
	if k == ContainerObject {
		return "object"
	}
	return "array"
}

// Reader is a cursor over a document token stream with one token of
// lookahead. Tokenizer failures are sticky: once the underlying source fails,
// every later call returns the same error.
type Reader struct {
	src      eng.TokenSource
	peeked   Token
	hasPeek  bool
	depth    int
	consumed int64
	err      error
}

// NewReader wraps a token source.
func NewReader(src eng.TokenSource) *Reader { return &Reader{src: src} }

// Err returns the sticky tokenizer error, if any.
func (r *Reader) Err() error { return r.err }

// Depth returns the number of containers currently open.
func (r *Reader) Depth() int { return r.depth }

// Offset returns the byte offset of the last token, or -1 when unknown.
func (r *Reader) Offset() int64 { return r.src.Location() }

// Peek returns the next token without consuming it.
func (r *Reader) Peek() (Token, error) {
	if r.err != nil {
		return Token{}, r.err
	}
	if !r.hasPeek {
		tok, err := r.src.NextToken()
		if err != nil {
			r.err = err
			return Token{}, err
		}
		r.peeked, r.hasPeek = tok, true
	}
	return r.peeked, nil
}

// Next consumes and returns the next token.
func (r *Reader) Next() (Token, error) {
	tok, err := r.Peek()
	if err != nil {
		return Token{}, err
	}
	r.hasPeek = false
	r.consumed++
	switch tok.Kind {
	case eng.KindBeginObject, eng.KindBeginArray:
		r.depth++
	case eng.KindEndObject, eng.KindEndArray:
		r.depth--
	}
	return tok, nil
}

// ReadContainerStart discriminates a null from a container of the requested
// kind. On null it consumes the null and returns false: the value is
// logically absent. On a matching opening token it consumes it and returns
// true. Any other token is left in place and a *FormatError is returned.
func (r *Reader) ReadContainerStart(kind ContainerKind) (bool, error) {
	tok, err := r.Peek()
	if err != nil {
		return false, err
	}
	want := eng.KindBeginArray
	if kind == ContainerObject {
		want = eng.KindBeginObject
	}
	switch tok.Kind {
	case eng.KindNull:
		_, err = r.Next()
		return false, err
	case want:
		_, err = r.Next()
		return err == nil, err
	}
	return false, &FormatError{Expected: kind.String() + " or null", Found: tok.Kind.String(), Offset: tok.Offset}
}

// More reports whether the current container has another element or key.
func (r *Reader) More() (bool, error) {
	tok, err := r.Peek()
	if err != nil {
		return false, err
	}
	return tok.Kind != eng.KindEndArray && tok.Kind != eng.KindEndObject, nil
}

// ReadKey consumes an object key.
func (r *Reader) ReadKey() (string, error) {
	tok, err := r.Peek()
	if err != nil {
		return "", err
	}
	if tok.Kind != eng.KindKey {
		return "", &FormatError{Expected: "key", Found: tok.Kind.String(), Offset: tok.Offset}
	}
	_, err = r.Next()
	return tok.String, err
}

// ReadContainerEnd consumes the closing token of the current container.
func (r *Reader) ReadContainerEnd(kind ContainerKind) error {
	tok, err := r.Peek()
	if err != nil {
		return err
	}
	want := eng.KindEndArray
	if kind == ContainerObject {
		want = eng.KindEndObject
	}
	if tok.Kind != want {
		return &FormatError{Expected: "end of " + kind.String(), Found: tok.Kind.String(), Offset: tok.Offset}
	}
	_, err = r.Next()
	return err
}

// Skip consumes one complete value.
func (r *Reader) Skip() error {
	tok, err := r.Next()
	if err != nil {
		return err
	}
	if tok.Kind != eng.KindBeginObject && tok.Kind != eng.KindBeginArray {
		return nil
	}
	return r.skipTo(r.depth - 1)
}

func (r *Reader) skipTo(depth int) error {
	for r.depth > depth {
		if _, err := r.Next(); err != nil {
			return err
		}
	}
	return nil
}

type readerMark struct {
	depth    int
	consumed int64
}

func (r *Reader) mark() readerMark { return readerMark{depth: r.depth, consumed: r.consumed} }

// resync moves the cursor past the value that started at m after its decoder
// failed part way through.
func (r *Reader) resync(m readerMark) error {
	if r.err != nil {
		return r.err
	}
	if r.consumed == m.consumed {
		return r.Skip()
	}
	return r.skipTo(m.depth)
}
