// Package yamlsrc flattens gopkg.in/yaml.v3 documents into an
// engine.TokenSource so YAML input can be loaded through the same type maps
// as JSON.
package yamlsrc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	eng "github.com/reoring/modelgraph/internal/engine"
)

type source struct {
	dec     *yaml.Decoder
	pending []eng.Token
}

// NewBytes wraps a YAML byte slice into an engine.TokenSource. Each YAML
// document in the stream yields one top-level value.
func NewBytes(b []byte) eng.TokenSource {
	return &source{dec: yaml.NewDecoder(bytes.NewReader(b))}
}

func (s *source) NextToken() (eng.Token, error) {
	for len(s.pending) == 0 {
		var doc yaml.Node
		if err := s.dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return eng.Token{}, io.EOF
			}
			return eng.Token{}, err
		}
		toks, err := flatten(&doc, nil)
		if err != nil {
			return eng.Token{}, err
		}
		s.pending = toks
	}
	tok := s.pending[0]
	s.pending = s.pending[1:]
	return tok, nil
}

// Location is unknown for YAML input; token offsets carry source lines instead.
func (s *source) Location() int64 { return -1 }

func flatten(n *yaml.Node, out []eng.Token) ([]eng.Token, error) {
	line := int64(n.Line)
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return append(out, eng.Token{Kind: eng.KindNull, Offset: line}), nil
		}
		return flatten(n.Content[0], out)
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("yaml: dangling alias at line %d", n.Line)
		}
		return flatten(n.Alias, out)
	case yaml.MappingNode:
		out = append(out, eng.Token{Kind: eng.KindBeginObject, Offset: line})
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("yaml: non-scalar mapping key at line %d", k.Line)
			}
			out = append(out, eng.Token{Kind: eng.KindKey, String: k.Value, Offset: int64(k.Line)})
			var err error
			if out, err = flatten(n.Content[i+1], out); err != nil {
				return nil, err
			}
		}
		return append(out, eng.Token{Kind: eng.KindEndObject, Offset: line}), nil
	case yaml.SequenceNode:
		out = append(out, eng.Token{Kind: eng.KindBeginArray, Offset: line})
		for _, c := range n.Content {
			var err error
			if out, err = flatten(c, out); err != nil {
				return nil, err
			}
		}
		return append(out, eng.Token{Kind: eng.KindEndArray, Offset: line}), nil
	case yaml.ScalarNode:
		tok, err := scalar(n)
		if err != nil {
			return nil, err
		}
		tok.Offset = line
		return append(out, tok), nil
	}
	return nil, fmt.Errorf("yaml: unsupported node kind %d at line %d", n.Kind, n.Line)
}

func scalar(n *yaml.Node) (eng.Token, error) {
	switch n.ShortTag() {
	case "!!null":
		return eng.Token{Kind: eng.KindNull}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return eng.Token{}, err
		}
		return eng.Token{Kind: eng.KindBool, Bool: b}, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			// Out of int64 range: keep the literal text.
			return eng.Token{Kind: eng.KindNumber, Number: n.Value}, nil
		}
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatInt(i, 10)}, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return eng.Token{}, err
		}
		switch {
		case math.IsNaN(f):
			return eng.Token{Kind: eng.KindString, String: "NaN"}, nil
		case math.IsInf(f, 1):
			return eng.Token{Kind: eng.KindString, String: "Infinity"}, nil
		case math.IsInf(f, -1):
			return eng.Token{Kind: eng.KindString, String: "-Infinity"}, nil
		}
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatFloat(f, 'g', -1, 64)}, nil
	default:
		return eng.Token{Kind: eng.KindString, String: n.Value}, nil
	}
}
