package modelgraph

import (
	"strconv"
	"strings"

	eng "github.com/reoring/modelgraph/internal/engine"
	"github.com/reoring/modelgraph/internal/logger"
)

// Context carries the error collector and the deferred "finished loading"
// callbacks through one top-level deserialization pass. Callbacks never run
// inline; Notify runs them once the whole graph is built.
//
// A Context belongs to a single load. Loads started from application code
// while another load is in flight (for example Copy inside a hook) must use
// their own Context.
type Context struct {
	collector *ErrorCollector
	pending   []func()
	path      []string
	opt       LoadOpt
}

// NewContext returns a Context reporting into collector. A nil collector is
// replaced with a fresh one.
func NewContext(collector *ErrorCollector) *Context {
	if collector == nil {
		collector = NewErrorCollector()
	}
	return &Context{collector: collector}
}

func newLoadContext(collector *ErrorCollector, opt LoadOpt) *Context {
	c := NewContext(collector)
	c.opt = opt
	return c
}

// Collector returns the collector entries are reported into.
func (c *Context) Collector() *ErrorCollector { return c.collector }

// RegisterCallback queues fn to run during Notify.
func (c *Context) RegisterCallback(fn func()) {
	if fn == nil {
		return
	}
	c.pending = append(c.pending, fn)
}

// Pending returns the length of the callback queue, cancelled slots included.
func (c *Context) Pending() int { return len(c.pending) }

func (c *Context) truncate(n int) {
	if n < len(c.pending) {
		c.pending = c.pending[:n]
	}
}

// cancel drops the callbacks queued at positions [from, to) without moving
// the others.
func (c *Context) cancel(from, to int) {
	if to > len(c.pending) {
		to = len(c.pending)
	}
	for i := from; i < to; i++ {
		c.pending[i] = nil
	}
}

// Notify runs every queued callback exactly once, in registration order, and
// empties the queue. Callbacks registered while Notify runs are appended and
// run in the same pass.
func (c *Context) Notify() {
	n := 0
	for len(c.pending) > 0 {
		batch := c.pending
		c.pending = nil
		for _, fn := range batch {
			if fn == nil {
				continue
			}
			fn()
			n++
		}
	}
	logger.TraceMessage("modelgraph: notified %d callbacks", n)
}

// Path returns the JSON Pointer of the value currently being decoded.
func (c *Context) Path() string {
	if len(c.path) == 0 {
		return "/"
	}
	return "/" + strings.Join(c.path, "/")
}

func (c *Context) pushField(name string) { c.path = append(c.path, eng.EscapePointerToken(name)) }

func (c *Context) pushIndex(i int) { c.path = append(c.path, strconv.Itoa(i)) }

func (c *Context) pop() {
	if n := len(c.path); n > 0 {
		c.path = c.path[:n-1]
	}
}

// Report records an entry at the current path.
func (c *Context) Report(sev Severity, code, message string, cause error) {
	c.collector.Add(Entry{Severity: sev, Code: code, Path: c.Path(), Message: message, Cause: cause, Offset: -1})
}

func (c *Context) reportAt(sev Severity, code, message string, cause error, offset int64) {
	c.collector.Add(Entry{Severity: sev, Code: code, Path: c.Path(), Message: message, Cause: cause, Offset: offset})
}
