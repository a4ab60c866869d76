package modelgraph

import (
	"bytes"
	"math"
	"strconv"

	j "github.com/goccy/go-json"
)

type writerFrame struct {
	object bool
	n      int
}

// Writer streams a document into an in-memory buffer. Strings are escaped
// minimally (no HTML escaping). Misuse, such as a key outside an object, is a
// programming error and panics.
type Writer struct {
	buf      bytes.Buffer
	indent   string
	prefix   string
	stack    []writerFrame
	afterKey bool
}

// NewWriter returns a Writer configured by opt.
func NewWriter(opt SaveOpt) *Writer {
	return &Writer{indent: opt.Indent, prefix: opt.Prefix}
}

// Bytes returns the written document. The writer must be balanced.
func (w *Writer) Bytes() []byte {
	if len(w.stack) != 0 || w.afterKey {
		panic("modelgraph: writer has unclosed containers")
	}
	return w.buf.Bytes()
}

func (w *Writer) newline(depth int) {
	if w.indent == "" {
		return
	}
	w.buf.WriteByte('\n')
	w.buf.WriteString(w.prefix)
	for i := 0; i < depth; i++ {
		w.buf.WriteString(w.indent)
	}
}

func (w *Writer) beforeValue() {
	if w.afterKey {
		w.afterKey = false
		return
	}
	n := len(w.stack)
	if n == 0 {
		return
	}
	top := &w.stack[n-1]
	if top.object {
		panic("modelgraph: value written in object without key")
	}
	if top.n > 0 {
		w.buf.WriteByte(',')
	}
	top.n++
	w.newline(n)
}

// Key writes an object key.
func (w *Writer) Key(k string) {
	n := len(w.stack)
	if n == 0 || !w.stack[n-1].object || w.afterKey {
		panic("modelgraph: key written outside object")
	}
	top := &w.stack[n-1]
	if top.n > 0 {
		w.buf.WriteByte(',')
	}
	top.n++
	w.newline(n)
	w.writeString(k)
	w.buf.WriteByte(':')
	if w.indent != "" {
		w.buf.WriteByte(' ')
	}
	w.afterKey = true
}

func (w *Writer) open(object bool, c byte) {
	w.beforeValue()
	w.buf.WriteByte(c)
	w.stack = append(w.stack, writerFrame{object: object})
}

func (w *Writer) close(object bool, c byte) {
	n := len(w.stack)
	if n == 0 || w.stack[n-1].object != object || w.afterKey {
		panic("modelgraph: unbalanced container end")
	}
	if w.stack[n-1].n > 0 {
		w.newline(n - 1)
	}
	w.stack = w.stack[:n-1]
	w.buf.WriteByte(c)
}

func (w *Writer) BeginObject() { w.open(true, '{') }
func (w *Writer) EndObject()   { w.close(true, '}') }
func (w *Writer) BeginArray()  { w.open(false, '[') }
func (w *Writer) EndArray()    { w.close(false, ']') }

// WriteContainerStart mirrors Reader.ReadContainerStart: an absent container
// is written as null and false is returned; otherwise the opening token is
// written and the caller writes the children and closes the container.
func (w *Writer) WriteContainerStart(kind ContainerKind, present bool) bool {
	if !present {
		w.Null()
		return false
	}
	if kind == ContainerObject {
		w.BeginObject()
	} else {
		w.BeginArray()
	}
	return true
}

func (w *Writer) Null() {
	w.beforeValue()
	w.buf.WriteString("null")
}

func (w *Writer) Bool(b bool) {
	w.beforeValue()
	w.buf.WriteString(strconv.FormatBool(b))
}

func (w *Writer) Int(v int64) {
	w.beforeValue()
	w.buf.WriteString(strconv.FormatInt(v, 10))
}

func (w *Writer) Uint(v uint64) {
	w.beforeValue()
	w.buf.WriteString(strconv.FormatUint(v, 10))
}

// Float writes f with the shortest representation that round-trips at the
// given bit size. Non-finite values are written as the strings "NaN",
// "Infinity" and "-Infinity".
func (w *Writer) Float(f float64, bitSize int) {
	switch {
	case math.IsNaN(f):
		w.String("NaN")
		return
	case math.IsInf(f, 1):
		w.String("Infinity")
		return
	case math.IsInf(f, -1):
		w.String("-Infinity")
		return
	}
	w.beforeValue()
	w.buf.WriteString(strconv.FormatFloat(f, 'g', -1, bitSize))
}

func (w *Writer) String(s string) {
	w.beforeValue()
	w.writeString(s)
}

// Raw writes an already encoded compact value verbatim.
func (w *Writer) Raw(lit string) {
	w.beforeValue()
	w.buf.WriteString(lit)
}

func (w *Writer) writeString(s string) {
	b, err := j.MarshalWithOption(s, j.DisableHTMLEscape())
	if err != nil {
		panic("modelgraph: cannot encode string: " + err.Error())
	}
	w.buf.Write(b)
}
