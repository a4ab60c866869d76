package engine

// Kind represents token kinds from a generic document source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindBeginObject:
		return "begin object"
	case KindEndObject:
		return "end object"
	case KindBeginArray:
		return "begin array"
	case KindEndArray:
		return "end array"
	case KindKey:
		return "key"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// IsScalar reports whether the kind is a single-token value.
func (k Kind) IsScalar() bool {
	switch k {
	case KindString, KindNumber, KindBool, KindNull:
		return true
	}
	return false
}

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
// NextToken returns io.EOF once the input is exhausted.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Key     string // Offending object key, for duplicate_key.
	Message string
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// frameState tracks key/value alternation inside an open container. Drivers
// that translate a flat decoder stream into keyed tokens share it.
type frameState struct {
	object       bool
	expectingKey bool
}

// KeyTracker classifies strings as keys or values for drivers whose underlying
// decoder does not distinguish them.
type KeyTracker struct {
	stack []frameState
}

// Open records a new container.
func (t *KeyTracker) Open(object bool) {
	t.stack = append(t.stack, frameState{object: object, expectingKey: object})
}

// Close pops the innermost container and marks the parent value as consumed.
func (t *KeyTracker) Close() {
	if n := len(t.stack); n > 0 {
		t.stack = t.stack[:n-1]
	}
	t.Value()
}

// IsKey reports whether the next string is an object key and advances state.
func (t *KeyTracker) IsKey() bool {
	if n := len(t.stack); n > 0 {
		top := &t.stack[n-1]
		if top.object && top.expectingKey {
			top.expectingKey = false
			return true
		}
	}
	return false
}

// Value marks a value as consumed in the current container.
func (t *KeyTracker) Value() {
	if n := len(t.stack); n > 0 {
		top := &t.stack[n-1]
		if top.object && !top.expectingKey {
			top.expectingKey = true
		}
	}
}
