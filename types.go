package modelgraph

// Severity expresses how serious a recorded load problem is. Levels are
// totally ordered; the zero value is SeverityNone.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Strictness configures how tolerated irregularities are recorded.
type Strictness struct {
	// OnDuplicateKey is the severity recorded for a repeated object key
	// (the last value wins). SeverityNone disables detection; SeverityCritical
	// aborts the load.
	OnDuplicateKey Severity
	// OnUnknownKey is the severity recorded for a key no field declares.
	// Unknown keys are always skipped; SeverityNone records nothing.
	OnUnknownKey Severity
}

// LoadOpt bundles load options. The zero value is usable.
type LoadOpt struct {
	Strictness Strictness
	MaxDepth   int   // 0 disables the nesting limit.
	MaxBytes   int64 // 0 disables the input size limit.
}

// SaveOpt bundles save options. The zero value writes compact output.
type SaveOpt struct {
	Indent string // Per-level indentation; empty writes compact output.
	Prefix string // Prepended to every line after the first when indenting.
}

// DefaultLoadOpt records duplicate keys as warnings and ignores unknown keys.
func DefaultLoadOpt() LoadOpt {
	return LoadOpt{Strictness: Strictness{OnDuplicateKey: SeverityWarning}}
}

// DefaultSaveOpt writes human-readable, two-space indented output.
func DefaultSaveOpt() SaveOpt {
	return SaveOpt{Indent: "  "}
}
