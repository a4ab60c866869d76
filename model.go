package modelgraph

import "sync/atomic"

// ID identifies a model object within the running process.
type ID uint64

var lastID atomic.Uint64

// ModelObject is a node in an ownership tree. Every object except a root has
// exactly one owner, fixed when the object is created.
type ModelObject interface {
	Owner() ModelObject
	ID() ID
}

// AfterDeserializer is implemented by model objects that need a hook once the
// whole graph they were loaded with is built. The hook runs exactly once per
// load, after every object of that load exists.
type AfterDeserializer interface {
	AfterDeserialize()
}

// Base implements ModelObject. Embed it and call InitBase from the type's
// constructor.
type Base struct {
	owner ModelObject
	id    ID
}

// InitBase binds the object to owner and assigns its ID. It panics when
// called twice: ownership is never reassigned.
func (b *Base) InitBase(owner ModelObject) {
	if b.id != 0 {
		panic("modelgraph: object already initialized")
	}
	b.owner = owner
	b.id = ID(lastID.Add(1))
}

func (b *Base) Owner() ModelObject { return b.owner }
func (b *Base) ID() ID             { return b.id }

// Root walks the owner chain up to the object without an owner.
func Root(o ModelObject) ModelObject {
	for o != nil {
		up := o.Owner()
		if up == nil {
			return o
		}
		o = up
	}
	return nil
}

// IsOwnedBy reports whether ancestor appears in o's owner chain.
func IsOwnedBy(o, ancestor ModelObject) bool {
	if o == nil || ancestor == nil {
		return false
	}
	for up := o.Owner(); up != nil; up = up.Owner() {
		if up.ID() == ancestor.ID() {
			return true
		}
	}
	return false
}
