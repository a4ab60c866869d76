package modelgraph

import (
	"sort"

	j "github.com/goccy/go-json"
)

type listMap[V any] struct{ elem ValueMap[V] }

// List maps slices to arrays. A nil slice is written as null and null is read
// back as absent, while an empty slice round-trips as []. A null element is
// read as the element's zero value.
func List[V any](elem ValueMap[V]) ValueMap[[]V] { return listMap[V]{elem: elem} }

func (m listMap[V]) Write(w *Writer, v []V) {
	if !w.WriteContainerStart(ContainerArray, v != nil) {
		return
	}
	for _, e := range v {
		m.elem.Write(w, e)
	}
	w.EndArray()
}

func (m listMap[V]) Read(r *Reader, owner ModelObject, ctx *Context) ([]V, bool, error) {
	ok, err := r.ReadContainerStart(ContainerArray)
	if err != nil || !ok {
		return nil, false, err
	}
	out := make([]V, 0)
	for i := 0; ; i++ {
		more, err := r.More()
		if err != nil {
			return nil, false, err
		}
		if !more {
			break
		}
		ctx.pushIndex(i)
		e, _, err := m.elem.Read(r, owner, ctx)
		ctx.pop()
		if err != nil {
			return nil, false, err
		}
		out = append(out, e)
	}
	if err := r.ReadContainerEnd(ContainerArray); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

type dictMap[V any] struct{ elem ValueMap[V] }

// Dict maps string-keyed maps to objects. Keys are written in sorted order;
// nil and empty maps are distinguished the same way List distinguishes
// slices.
func Dict[V any](elem ValueMap[V]) ValueMap[map[string]V] { return dictMap[V]{elem: elem} }

func (m dictMap[V]) Write(w *Writer, v map[string]V) {
	if !w.WriteContainerStart(ContainerObject, v != nil) {
		return
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.Key(k)
		m.elem.Write(w, v[k])
	}
	w.EndObject()
}

func (m dictMap[V]) Read(r *Reader, owner ModelObject, ctx *Context) (map[string]V, bool, error) {
	ok, err := r.ReadContainerStart(ContainerObject)
	if err != nil || !ok {
		return nil, false, err
	}
	out := make(map[string]V)
	for {
		more, err := r.More()
		if err != nil {
			return nil, false, err
		}
		if !more {
			break
		}
		k, err := r.ReadKey()
		if err != nil {
			return nil, false, err
		}
		ctx.pushField(k)
		e, _, err := m.elem.Read(r, owner, ctx)
		ctx.pop()
		if err != nil {
			return nil, false, err
		}
		out[k] = e
	}
	if err := r.ReadContainerEnd(ContainerObject); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

type nullableMap[V any] struct{ inner ValueMap[V] }

// Nullable maps *V so that an explicit null is preserved: nil is written as
// null and null is read back as a present nil pointer, unlike an absent key
// which leaves the field untouched.
func Nullable[V any](inner ValueMap[V]) ValueMap[*V] { return nullableMap[V]{inner: inner} }

func (m nullableMap[V]) Write(w *Writer, v *V) {
	if v == nil {
		w.Null()
		return
	}
	m.inner.Write(w, *v)
}

func (m nullableMap[V]) Read(r *Reader, owner ModelObject, ctx *Context) (*V, bool, error) {
	tok, err := r.Peek()
	if err != nil {
		return nil, false, err
	}
	if tok.Kind == TokenNull {
		_, err := r.Next()
		return nil, err == nil, err
	}
	v, ok, err := m.inner.Read(r, owner, ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &v, true, nil
}

type anyMap struct{}

// Any maps a schema-less document subtree to plain Go values: map[string]any,
// []any, json.Number, string, bool and nil. Numbers keep their literal text.
// Other Go values are encoded with go-json.
func Any() ValueMap[any] { return anyMap{} }

func (m anyMap) Write(w *Writer, v any) {
	switch t := v.(type) {
	case nil:
		w.Null()
	case bool:
		w.Bool(t)
	case string:
		w.String(t)
	case j.Number:
		w.Raw(t.String())
	case int:
		w.Int(int64(t))
	case int64:
		w.Int(t)
	case float64:
		w.Float(t, 64)
	case []any:
		w.BeginArray()
		for _, e := range t {
			m.Write(w, e)
		}
		w.EndArray()
	case map[string]any:
		Dict[any](m).Write(w, t)
	default:
		b, err := j.MarshalWithOption(t, j.DisableHTMLEscape())
		if err != nil {
			panic("modelgraph: cannot encode value: " + err.Error())
		}
		w.Raw(string(b))
	}
}

func (m anyMap) Read(r *Reader, owner ModelObject, ctx *Context) (any, bool, error) {
	tok, err := r.Peek()
	if err != nil {
		return nil, false, err
	}
	switch tok.Kind {
	case TokenBeginObject:
		v, ok, err := Dict[any](m).Read(r, owner, ctx)
		return v, ok, err
	case TokenBeginArray:
		v, ok, err := List[any](m).Read(r, owner, ctx)
		return v, ok, err
	}
	if _, err := r.Next(); err != nil {
		return nil, false, err
	}
	switch tok.Kind {
	case TokenString:
		return tok.String, true, nil
	case TokenNumber:
		return j.Number(tok.Number), true, nil
	case TokenBool:
		return tok.Bool, true, nil
	case TokenNull:
		return nil, true, nil
	}
	return nil, false, &ValueError{Expected: "value", Found: tok.Kind.String()}
}
