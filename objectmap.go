package modelgraph

import (
	"errors"
	"fmt"

	"github.com/reoring/modelgraph/i18n"
)

// Property describes one persisted field of T. Build properties with Prop.
type Property[T any] interface {
	Name() string
	initDefault(obj T)
	omit(obj T) bool
	write(w *Writer, obj T)
	read(r *Reader, obj T, owner ModelObject, ctx *Context) (assigned bool, err error)
}

// PropOption configures a property.
type PropOption[V any] func(*propConfig[V])

type propConfig[V any] struct {
	hasDefault bool
	def        V
	isDefault  func(V) bool
	onLoad     func(V)
}

// WithDefault declares the field's default. The default is assigned to every
// new instance before its document fields are read, and a field holding the
// default is omitted when saving.
func WithDefault[V comparable](def V) PropOption[V] {
	return func(c *propConfig[V]) {
		c.hasDefault = true
		c.def = def
		c.isDefault = func(v V) bool { return v == def }
	}
}

// OmitWhen omits the field when pred reports true for its current value. The
// value read back for an omitted field is whatever the new instance holds.
func OmitWhen[V any](pred func(V) bool) PropOption[V] {
	return func(c *propConfig[V]) { c.isDefault = pred }
}

// OnLoad registers fn to receive the decoded value right after it is
// assigned. It runs inline, during construction, so it must not look at
// other objects of the graph.
func OnLoad[V any](fn func(V)) PropOption[V] {
	return func(c *propConfig[V]) { c.onLoad = fn }
}

type prop[T any, V any] struct {
	name  string
	vm    ValueMap[V]
	field func(T) *V
	cfg   propConfig[V]
}

// Prop declares a persisted field named name, stored at the address returned
// by field and encoded with vm.
func Prop[T any, V any](name string, vm ValueMap[V], field func(T) *V, opts ...PropOption[V]) Property[T] {
	p := &prop[T, V]{name: name, vm: vm, field: field}
	for _, o := range opts {
		o(&p.cfg)
	}
	return p
}

func (p *prop[T, V]) Name() string { return p.name }

func (p *prop[T, V]) initDefault(obj T) {
	if p.cfg.hasDefault {
		*p.field(obj) = p.cfg.def
	}
}

func (p *prop[T, V]) omit(obj T) bool {
	return p.cfg.isDefault != nil && p.cfg.isDefault(*p.field(obj))
}

func (p *prop[T, V]) write(w *Writer, obj T) { p.vm.Write(w, *p.field(obj)) }

func (p *prop[T, V]) read(r *Reader, obj T, owner ModelObject, ctx *Context) (bool, error) {
	v, ok, err := p.vm.Read(r, owner, ctx)
	if err != nil || !ok {
		return false, err
	}
	*p.field(obj) = v
	if p.cfg.onLoad != nil {
		p.cfg.onLoad(v)
	}
	return true, nil
}

// Map is the serialization map of model type T: a constructor plus the
// ordered list of persisted properties. A Map is built once, usually as a
// package variable next to the type, and is safe for concurrent use after
// construction. Map implements ValueMap[T], so nested objects and lists of
// objects reuse it directly.
//
// T should be a pointer type.
type Map[T ModelObject] struct {
	name   string
	create func(owner ModelObject) T
	props  []Property[T]
	index  map[string]int
	hooks  []func(T)
}

// NewMap builds the map for T. create must return a new instance owned by
// owner. Property names must be unique.
func NewMap[T ModelObject](name string, create func(owner ModelObject) T, props ...Property[T]) *Map[T] {
	m := &Map[T]{name: name, create: create, index: make(map[string]int, len(props))}
	for _, p := range props {
		m.add(p)
	}
	return m
}

// Add appends properties. It exists for maps of self-referencing types,
// whose properties refer to the map itself; call it before first use.
func (m *Map[T]) Add(props ...Property[T]) *Map[T] {
	for _, p := range props {
		m.add(p)
	}
	return m
}

func (m *Map[T]) add(p Property[T]) {
	if _, dup := m.index[p.Name()]; dup {
		panic(fmt.Sprintf("modelgraph: %s: duplicate property %q", m.name, p.Name()))
	}
	m.index[p.Name()] = len(m.props)
	m.props = append(m.props, p)
}

// WithHook registers fn as a deferred hook for every loaded instance. It runs
// after the instance's own AfterDeserialize, during Notify.
func (m *Map[T]) WithHook(fn func(T)) *Map[T] {
	m.hooks = append(m.hooks, fn)
	return m
}

// Name returns the type name used in messages.
func (m *Map[T]) Name() string { return m.name }

// Properties returns the declared property names in declaration order.
func (m *Map[T]) Properties() []string {
	out := make([]string, len(m.props))
	for i, p := range m.props {
		out[i] = p.Name()
	}
	return out
}

// New creates an instance owned by owner with declared defaults applied.
func (m *Map[T]) New(owner ModelObject) T {
	obj := m.create(owner)
	if obj.Owner() != owner {
		panic(fmt.Sprintf("modelgraph: %s constructor ignored its owner", m.name))
	}
	for _, p := range m.props {
		p.initDefault(obj)
	}
	return obj
}

func isNil[T any](v T) bool {
	var zero T
	return any(v) == any(zero)
}

// Serialize writes obj as an object node. Properties holding their default
// are omitted.
func (m *Map[T]) Serialize(obj T, w *Writer) {
	w.BeginObject()
	for _, p := range m.props {
		if p.omit(obj) {
			continue
		}
		w.Key(p.Name())
		p.write(w, obj)
	}
	w.EndObject()
}

// Write implements ValueMap; a nil object is written as null.
func (m *Map[T]) Write(w *Writer, obj T) {
	if isNil(obj) {
		w.Null()
		return
	}
	m.Serialize(obj, w)
}

// Deserialize reads an object node into a new instance owned by owner. A
// null yields the zero T. Problems with single fields are reported to ctx and
// the field keeps its default; the returned error is non-nil only when the
// node is not an object or the token stream itself failed.
func (m *Map[T]) Deserialize(owner ModelObject, r *Reader, ctx *Context) (T, error) {
	v, _, err := m.Read(r, owner, ctx)
	return v, err
}

// Read implements ValueMap.
func (m *Map[T]) Read(r *Reader, owner ModelObject, ctx *Context) (T, bool, error) {
	var zero T
	ok, err := r.ReadContainerStart(ContainerObject)
	if err != nil || !ok {
		return zero, false, err
	}
	obj := m.New(owner)
	if err := m.readFields(r, obj, ctx); err != nil {
		return zero, false, err
	}
	if h, ok := any(obj).(AfterDeserializer); ok {
		ctx.RegisterCallback(h.AfterDeserialize)
	}
	for _, fn := range m.hooks {
		ctx.RegisterCallback(func() { fn(obj) })
	}
	return obj, true, nil
}

// callbackSpan is the range of pending callbacks queued while one field value
// was decoded.
type callbackSpan struct{ from, to int }

// readFields decodes keys until the end of the object. Only stream failures
// are returned; everything else is reported to ctx. When a repeated key
// replaces a field value, the callbacks of objects built for the replaced
// value are cancelled.
func (m *Map[T]) readFields(r *Reader, obj T, ctx *Context) error {
	var assigned map[string]callbackSpan
	for {
		more, err := r.More()
		if err != nil {
			return err
		}
		if !more {
			break
		}
		key, err := r.ReadKey()
		if err != nil {
			return err
		}
		from := ctx.Pending()
		ctx.pushField(key)
		ok, err := m.readField(r, obj, key, ctx)
		ctx.pop()
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if prev, dup := assigned[key]; dup {
			ctx.cancel(prev.from, prev.to)
		}
		if assigned == nil {
			assigned = make(map[string]callbackSpan)
		}
		assigned[key] = callbackSpan{from: from, to: ctx.Pending()}
	}
	return r.ReadContainerEnd(ContainerObject)
}

// readField decodes one key. It reports whether the field was assigned; the
// error is non-nil only for stream failures.
func (m *Map[T]) readField(r *Reader, obj T, key string, ctx *Context) (bool, error) {
	i, known := m.index[key]
	if !known {
		if sev := ctx.opt.Strictness.OnUnknownKey; sev > SeverityNone {
			ctx.reportAt(sev, CodeUnknownKey, i18n.T(CodeUnknownKey, map[string]string{"type": m.name, "key": key}), nil, r.Offset())
		}
		return false, r.Skip()
	}
	mk := r.mark()
	queued := ctx.Pending()
	ok, err := m.props[i].read(r, obj, obj, ctx)
	if err == nil {
		return ok, nil
	}
	if r.Err() != nil {
		return false, r.Err()
	}
	// Objects built for the rejected value are discarded with it.
	ctx.truncate(queued)
	code := CodeFieldDecode
	var fe *FormatError
	if errors.As(err, &fe) {
		code = CodeFormatError
	}
	fde := &FieldDecodeError{Field: key, Err: err}
	msg := i18n.T(code, map[string]string{"type": m.name, "field": key}) + ": " + err.Error()
	ctx.reportAt(SeverityError, code, msg, fde, r.Offset())
	return false, r.resync(mk)
}
