package modelgraph

import (
	"bytes"
	"errors"

	j "github.com/goccy/go-json"

	eng "github.com/reoring/modelgraph/internal/engine"
	"github.com/reoring/modelgraph/internal/gojson"
	"github.com/reoring/modelgraph/internal/yamlsrc"
)

// Format names a document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// Source is a fully materialized document buffer together with its format.
type Source struct {
	Format Format
	Data   []byte
}

// JSONBytes wraps a JSON buffer as a Source.
func JSONBytes(b []byte) Source { return Source{Format: FormatJSON, Data: b} }

// YAMLBytes wraps a YAML buffer as a Source. YAML documents load through the
// same maps as JSON; a second document in the stream is trailing data.
func YAMLBytes(b []byte) Source { return Source{Format: FormatYAML, Data: b} }

var errInvalidJSON = errors.New("invalid JSON document")

func (s Source) open() (eng.TokenSource, error) {
	switch s.Format {
	case FormatYAML:
		return yamlsrc.NewBytes(s.Data), nil
	default:
		if !firstValueValid(s.Data) {
			return nil, errInvalidJSON
		}
		return gojson.NewBytes(s.Data), nil
	}
}

// firstValueValid checks the syntax of the first JSON value in data. The
// streaming decoder is lenient about separators, so the root value is checked
// up front; anything after it is left to the trailing data check.
func firstValueValid(data []byte) bool {
	var raw j.RawMessage
	if err := j.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return false
	}
	return j.Valid(raw)
}
