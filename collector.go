package modelgraph

import (
	"sort"

	"github.com/reoring/modelgraph/internal/logger"
)

// ErrorCollector accumulates entries for one top-level operation and tracks
// the highest severity seen. It is not safe for concurrent use.
type ErrorCollector struct {
	severity Severity
	entries  Entries
}

// NewErrorCollector returns an empty collector with severity SeverityNone.
func NewErrorCollector() *ErrorCollector { return &ErrorCollector{} }

// Record appends an application-defined entry.
func (c *ErrorCollector) Record(sev Severity, message string) {
	c.Add(Entry{Severity: sev, Code: CodeCustom, Message: message, Offset: -1})
}

// Add appends e and raises the running severity. Severity never decreases.
func (c *ErrorCollector) Add(e Entry) {
	c.entries = append(c.entries, e)
	if e.Severity > c.severity {
		c.severity = e.Severity
	}
	if logger.IsTraceEnabled() {
		logger.TraceMessage("modelgraph: recorded %s", e.String())
	}
}

// Severity returns the highest severity recorded so far.
func (c *ErrorCollector) Severity() Severity { return c.severity }

// Entries returns a copy of the recorded entries in recording order.
func (c *ErrorCollector) Entries() Entries {
	return append(Entries(nil), c.entries...)
}

// Accepts reports whether the collected severity is below threshold.
// With threshold SeverityError a warning-only load is accepted.
func (c *ErrorCollector) Accepts(threshold Severity) bool { return c.severity < threshold }

// Err returns the recorded entries as an error when the collector does not
// accept threshold, and nil otherwise.
func (c *ErrorCollector) Err(threshold Severity) error {
	if c.Accepts(threshold) {
		return nil
	}
	return c.Entries()
}

// SummaryLine is one group of identical entries.
type SummaryLine struct {
	Severity Severity
	Message  string
	Count    int
}

// Summary groups entries with the same severity and message, most severe
// first; groups of equal severity keep first-occurrence order.
func (c *ErrorCollector) Summary() []SummaryLine {
	type key struct {
		sev Severity
		msg string
	}
	idx := map[key]int{}
	var lines []SummaryLine
	for _, e := range c.entries {
		k := key{e.Severity, e.Message}
		if i, ok := idx[k]; ok {
			lines[i].Count++
			continue
		}
		idx[k] = len(lines)
		lines = append(lines, SummaryLine{Severity: e.Severity, Message: e.Message, Count: 1})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Severity > lines[j].Severity })
	return lines
}
