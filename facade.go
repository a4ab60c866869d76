package modelgraph

import (
	"errors"
	"fmt"
	"io"

	"github.com/reoring/modelgraph/i18n"
	eng "github.com/reoring/modelgraph/internal/engine"
	"github.com/reoring/modelgraph/internal/logger"
)

// Save serializes obj into a new buffer using DefaultSaveOpt.
func Save[T ModelObject](m *Map[T], obj T) []byte {
	return SaveWith(m, obj, DefaultSaveOpt())
}

// SaveWith serializes obj into a new buffer. Saving a well-formed graph
// cannot fail.
func SaveWith[T ModelObject](m *Map[T], obj T, opt SaveOpt) []byte {
	return SaveValue[T](m, obj, opt)
}

// Load parses a JSON buffer into a new T owned by owner using DefaultLoadOpt,
// runs the deferred hooks and returns the object with its collector. Whether
// to use the result is the caller's decision, based on the collector.
func Load[T ModelObject](m *Map[T], buf []byte, owner ModelObject) (T, *ErrorCollector) {
	c := NewErrorCollector()
	return LoadInto(m, JSONBytes(buf), owner, c, DefaultLoadOpt()), c
}

// LoadWith is Load for any Source with explicit options.
func LoadWith[T ModelObject](m *Map[T], src Source, owner ModelObject, opt LoadOpt) (T, *ErrorCollector) {
	c := NewErrorCollector()
	return LoadInto(m, src, owner, c, opt), c
}

// LoadOrDefault loads buf and returns def unless the collector accepts
// threshold.
func LoadOrDefault[T ModelObject](m *Map[T], buf []byte, owner ModelObject, def T, threshold Severity) T {
	v, c := Load(m, buf, owner)
	if !c.Accepts(threshold) {
		return def
	}
	return v
}

// LoadInto deserializes src into a new T owned by owner, reporting into
// collector. It uses a fresh Context, so it may be called from inside hooks
// of another load. When the root cannot be read the zero T is returned, no
// hooks run, and the problem is recorded at SeverityError (null root) or
// SeverityCritical.
func LoadInto[T ModelObject](m *Map[T], src Source, owner ModelObject, collector *ErrorCollector, opt LoadOpt) T {
	return decode(m, m.Name(), src, owner, collector, opt)
}

// SaveValue serializes a value that is not a model object, such as a list
// of roots or a schema-less tree read with Any.
func SaveValue[V any](vm ValueMap[V], v V, opt SaveOpt) []byte {
	w := NewWriter(opt)
	vm.Write(w, v)
	return w.Bytes()
}

// LoadValue is LoadWith for a root decoded by an arbitrary ValueMap. Objects
// created by nested maps have no owner and their hooks run before LoadValue
// returns.
func LoadValue[V any](vm ValueMap[V], src Source, opt LoadOpt) (V, *ErrorCollector) {
	c := NewErrorCollector()
	return decode(vm, "value", src, nil, c, opt), c
}

func decode[V any](vm ValueMap[V], name string, src Source, owner ModelObject, collector *ErrorCollector, opt LoadOpt) V {
	var zero V
	ctx := newLoadContext(collector, opt)
	if opt.MaxBytes > 0 && int64(len(src.Data)) > opt.MaxBytes {
		ctx.Report(SeverityCritical, CodeTruncated, i18n.T(CodeTruncated, nil), nil)
		return zero
	}
	ts, err := src.open()
	if err != nil {
		ctx.Report(SeverityCritical, CodeParseError, fmt.Sprintf("%s %s: %v", src.Format, i18n.T(CodeParseError, nil), err), err)
		return zero
	}
	ts = eng.WrapWithEnforcement(ts, eng.EnforceOptions{
		OnDuplicate: duplicateMode(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		IssueSink: func(si eng.SimpleIssue) {
			collector.Add(Entry{Severity: opt.Strictness.OnDuplicateKey, Code: si.Code, Path: si.Path, Message: issueMessage(si), Offset: ts.Location()})
		},
	})

	r := NewReader(ts)
	v, present, err := vm.Read(r, owner, ctx)
	if err != nil {
		reportStreamError(ctx, r, err)
		return zero
	}
	if !present {
		ctx.reportAt(SeverityError, CodeNullRoot, i18n.T(CodeNullRoot, map[string]string{"type": name}), nil, r.Offset())
		return zero
	}
	if _, err := r.Peek(); !errors.Is(err, io.EOF) {
		ctx.reportAt(SeverityWarning, CodeTrailingData, i18n.T(CodeTrailingData, nil), err, r.Offset())
		logger.WarnMessage("modelgraph: %s: data after the root value ignored", src.Format)
	}

	ctx.Notify()
	logger.DebugMessage("modelgraph: loaded %s from %s: severity=%s entries=%d",
		name, src.Format, collector.Severity(), len(collector.entries))
	return v
}

func reportStreamError(ctx *Context, r *Reader, err error) {
	var ie eng.IssueError
	switch {
	case errors.As(err, &ie):
		ctx.collector.Add(Entry{Severity: SeverityCritical, Code: ie.Code, Path: ie.Path, Message: issueMessage(ie.SimpleIssue), Cause: err, Offset: r.Offset()})
	case r.Err() != nil:
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		ctx.reportAt(SeverityCritical, CodeParseError, i18n.T(CodeParseError, nil)+": "+err.Error(), err, r.Offset())
	default:
		ctx.reportAt(SeverityCritical, CodeFormatError, err.Error(), err, r.Offset())
	}
	logger.ErrorMessage("modelgraph: load aborted at offset %d: %v", r.Offset(), err)
}

// issueMessage localizes an enforcement issue.
func issueMessage(si eng.SimpleIssue) string {
	switch si.Code {
	case CodeDuplicateKey:
		return i18n.T(CodeDuplicateKey, map[string]string{"key": si.Key})
	case CodeTruncated:
		return i18n.T(CodeTruncated, nil)
	}
	return i18n.T(si.Code, nil) + ": " + si.Message
}

func duplicateMode(s Severity) eng.DuplicateStrictness {
	switch s {
	case SeverityNone:
		return eng.DupIgnore
	case SeverityCritical:
		return eng.DupFail
	default:
		return eng.DupReport
	}
}

// Copy clones obj under newOwner by saving it and loading the result, so a
// copy is exactly as faithful as a round trip. The copy's hooks run before
// Copy returns. A live object that does not survive its own round trip is an
// invariant violation and is returned as an error wrapping ErrRoundTrip
// together with the partially defaulted copy.
func Copy[T ModelObject](m *Map[T], obj T, newOwner ModelObject) (T, error) {
	buf := SaveWith(m, obj, SaveOpt{})
	c := NewErrorCollector()
	out := LoadInto(m, JSONBytes(buf), newOwner, c, LoadOpt{})
	if err := c.Err(SeverityError); err != nil {
		return out, fmt.Errorf("%w: %s: %v", ErrRoundTrip, m.Name(), err)
	}
	return out, nil
}

// MustCopy is Copy that panics on round-trip failure.
func MustCopy[T ModelObject](m *Map[T], obj T, newOwner ModelObject) T {
	out, err := Copy(m, obj, newOwner)
	if err != nil {
		panic(err)
	}
	return out
}
