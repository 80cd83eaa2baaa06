package manifest

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"omibyte.io/devicedriver/internal/diag"
)

// ParseYAML parses YAML text into a Manifest Tree. yaml.Node preserves
// mapping key order (it is a flat alternating key/value Content slice),
// which is walked directly rather than decoding into map[string]any.
func ParseYAML(file string, text []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return Value{}, fmt.Errorf("%s: %w", file, err)
	}
	if len(doc.Content) == 0 {
		return Value{Kind: KindNull}, nil
	}
	return nodeToValue(file, doc.Content[0])
}

func nodeSpan(file string, n *yaml.Node) diag.Span {
	return diag.Span{File: file, Offset: n.Line, Length: 1}
}

func nodeToValue(file string, n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Value{Kind: KindNull, Span: nodeSpan(file, n)}, nil
		}
		return nodeToValue(file, n.Content[0])
	case yaml.MappingNode:
		var keys []string
		m := map[string]Value{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode := n.Content[i]
			valNode := n.Content[i+1]
			val, err := nodeToValue(file, valNode)
			if err != nil {
				return Value{}, err
			}
			if _, exists := m[keyNode.Value]; !exists {
				keys = append(keys, keyNode.Value)
			}
			m[keyNode.Value] = val
		}
		return Value{Kind: KindMap, Span: nodeSpan(file, n), MapKeys: keys, MapV: m}, nil
	case yaml.SequenceNode:
		arr := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeToValue(file, c)
			if err != nil {
				return Value{}, err
			}
			arr = append(arr, v)
		}
		return Value{Kind: KindArray, Span: nodeSpan(file, n), ArrayV: arr}, nil
	case yaml.ScalarNode:
		return scalarToValue(file, n)
	case yaml.AliasNode:
		return nodeToValue(file, n.Alias)
	default:
		return Value{}, fmt.Errorf("%s:%d: unsupported YAML node kind", file, n.Line)
	}
}

func scalarToValue(file string, n *yaml.Node) (Value, error) {
	span := nodeSpan(file, n)
	switch n.Tag {
	case "!!null":
		return Value{Kind: KindNull, Span: span}, nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBool, Span: span, BoolV: b}, nil
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindInteger, Span: span, IntV: i}, nil
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindFloat, Span: span, FloatV: f}, nil
	default:
		return Value{Kind: KindString, Span: span, StringV: n.Value}, nil
	}
}
