package manifest

import (
	"fmt"
	"sort"

	toml "github.com/pelletier/go-toml"
)

// ParseTOML parses TOML text into a Manifest Tree. github.com/pelletier/go-toml
// (v1) is used rather than v2 because its *toml.Tree records the source
// position of every key, from which treeToValue restores parse order;
// v2's reflection-based decode into native maps keeps no such record.
// spec.md §4.A requires order-preserving maps across all three
// structured backends.
func ParseTOML(file string, text []byte) (Value, error) {
	tree, err := toml.LoadBytes(text)
	if err != nil {
		return Value{}, fmt.Errorf("%s: %w", file, err)
	}
	return treeToValue(file, tree)
}

func treeToValue(file string, tree *toml.Tree) (Value, error) {
	// Keys() iterates the tree's internal map, so its order is arbitrary;
	// sort by source position to get the keys back in document order.
	keys := tree.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		pi, pj := tree.GetPosition(keys[i]), tree.GetPosition(keys[j])
		if pi.Line != pj.Line {
			return pi.Line < pj.Line
		}
		return pi.Col < pj.Col
	})
	m := map[string]Value{}
	for _, k := range keys {
		raw := tree.Get(k)
		v, err := tomlValueToValue(file, raw)
		if err != nil {
			return Value{}, err
		}
		m[k] = v
	}
	return Value{Kind: KindMap, MapKeys: keys, MapV: m}, nil
}

func tomlValueToValue(file string, raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Value{Kind: KindNull}, nil
	case bool:
		return Value{Kind: KindBool, BoolV: t}, nil
	case int64:
		return Value{Kind: KindInteger, IntV: t}, nil
	case int:
		return Value{Kind: KindInteger, IntV: int64(t)}, nil
	case float64:
		return Value{Kind: KindFloat, FloatV: t}, nil
	case string:
		return Value{Kind: KindString, StringV: t}, nil
	case []interface{}:
		arr := make([]Value, 0, len(t))
		for _, e := range t {
			v, err := tomlValueToValue(file, e)
			if err != nil {
				return Value{}, err
			}
			arr = append(arr, v)
		}
		return Value{Kind: KindArray, ArrayV: arr}, nil
	case *toml.Tree:
		return treeToValue(file, t)
	case []*toml.Tree:
		arr := make([]Value, 0, len(t))
		for _, e := range t {
			v, err := treeToValue(file, e)
			if err != nil {
				return Value{}, err
			}
			arr = append(arr, v)
		}
		return Value{Kind: KindArray, ArrayV: arr}, nil
	default:
		return Value{}, fmt.Errorf("%s: unsupported TOML value of type %T", file, raw)
	}
}
