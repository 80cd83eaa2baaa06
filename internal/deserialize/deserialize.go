// Package deserialize implements the Manifest Deserializer (spec.md
// §4.B): it walks a Manifest Tree (internal/manifest) and populates the
// surface AST (internal/ast) using the schema described in spec.md §4.B.
//
// Key names follow the manifest schema snake_case convention (grounded
// in the original implementation's global-config keys, e.g.
// "default_register_access", "register_address_type"), distinct from the
// DSL's PascalCase config names (internal/dsl uses those directly).
package deserialize

import (
	"omibyte.io/devicedriver/internal/ast"
	"omibyte.io/devicedriver/internal/diag"
	"omibyte.io/devicedriver/internal/manifest"
)

// Deserialize walks a top-level Manifest Tree map representing a Device
// and produces a surface AST, collecting schema diagnostics into sink.
// It returns a (possibly partial) Device even on failure so that callers
// which want best-effort diagnostics can still inspect what parsed.
func Deserialize(file string, root manifest.Value, sink *diag.Sink) *ast.Device {
	keys, m, err := root.AsMap()
	if err != nil {
		sink.Errorf(root.Span, diag.KindSchemaWrongKind, "device manifest root: %v", err)
		return nil
	}

	dev := &ast.Device{Span: root.Span}

	for _, key := range keys {
		val := m[key]
		if key == "config" {
			dev.Config = deserializeGlobalConfig(file, val, sink)
			continue
		}
		obj := deserializeObject(file, key, val, sink)
		if obj != nil {
			dev.Objects = append(dev.Objects, *obj)
		}
	}
	return dev
}

func ident(name string, span diag.Span) ast.Identifier {
	return ast.Identifier{Original: name, Span: span}
}

func deserializeGlobalConfig(file string, v manifest.Value, sink *diag.Sink) *ast.GlobalConfig {
	keys, m, err := v.AsMap()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "config: %v", err)
		return nil
	}
	cfg := &ast.GlobalConfig{Span: v.Span}
	for _, key := range keys {
		val := m[key]
		switch key {
		case "default_register_access":
			cfg.DefaultRegisterAccess = spannedAccess(file, val, sink)
		case "default_field_access":
			cfg.DefaultFieldAccess = spannedAccess(file, val, sink)
		case "default_buffer_access":
			cfg.DefaultBufferAccess = spannedAccess(file, val, sink)
		case "default_byte_order":
			cfg.DefaultByteOrder = spannedByteOrder(file, val, sink)
		case "default_bit_order":
			cfg.DefaultBitOrder = spannedBitOrder(file, val, sink)
		case "register_address_type":
			cfg.RegisterAddressType = spannedAddrType(file, val, sink)
		case "command_address_type":
			cfg.CommandAddressType = spannedAddrType(file, val, sink)
		case "buffer_address_type":
			cfg.BufferAddressType = spannedAddrType(file, val, sink)
		case "name_word_boundaries":
			cfg.NameWordBoundaries = spannedStringList(file, val, sink)
		case "defmt_feature":
			s, err := val.AsString()
			if err != nil {
				sink.Errorf(val.Span, diag.KindSchemaWrongKind, "defmt_feature: %v", err)
				continue
			}
			cfg.DefmtFeature = &ast.Spanned[string]{Value: s, Span: val.Span}
		default:
			sink.Errorf(val.Span, diag.KindSchemaUnknownKey, "unrecognized config key %q", key)
		}
	}
	return cfg
}

func spannedAccess(file string, v manifest.Value, sink *diag.Sink) *ast.Spanned[ast.Access] {
	s, err := v.AsString()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "access: %v", err)
		return nil
	}
	a, ok := parseAccess(s)
	if !ok {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "unrecognized access value %q", s)
		return nil
	}
	return &ast.Spanned[ast.Access]{Value: a, Span: v.Span}
}

func parseAccess(s string) (ast.Access, bool) {
	switch s {
	case "ReadWrite", "RW":
		return ast.AccessRW, true
	case "ReadOnly", "RO":
		return ast.AccessRO, true
	case "WriteOnly", "WO":
		return ast.AccessWO, true
	default:
		return ast.AccessUnset, false
	}
}

func spannedByteOrder(file string, v manifest.Value, sink *diag.Sink) *ast.Spanned[ast.ByteOrder] {
	s, err := v.AsString()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "byte_order: %v", err)
		return nil
	}
	switch s {
	case "LE":
		return &ast.Spanned[ast.ByteOrder]{Value: ast.LE, Span: v.Span}
	case "BE":
		return &ast.Spanned[ast.ByteOrder]{Value: ast.BE, Span: v.Span}
	default:
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "unrecognized byte order %q, expected LE or BE", s)
		return nil
	}
}

func spannedBitOrder(file string, v manifest.Value, sink *diag.Sink) *ast.Spanned[ast.BitOrder] {
	s, err := v.AsString()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "bit_order: %v", err)
		return nil
	}
	switch s {
	case "LSB0":
		return &ast.Spanned[ast.BitOrder]{Value: ast.LSB0, Span: v.Span}
	case "MSB0":
		return &ast.Spanned[ast.BitOrder]{Value: ast.MSB0, Span: v.Span}
	default:
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "unrecognized bit order %q, expected LSB0 or MSB0", s)
		return nil
	}
}

func spannedAddrType(file string, v manifest.Value, sink *diag.Sink) *ast.Spanned[string] {
	s, err := v.AsString()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "address type: %v", err)
		return nil
	}
	if _, ok := ast.ValidAddrType(s); !ok {
		sink.Errorf(v.Span, diag.KindSchemaBadAddressType, "unrecognized address type %q", s)
		return nil
	}
	return &ast.Spanned[string]{Value: s, Span: v.Span}
}

func spannedStringList(file string, v manifest.Value, sink *diag.Sink) *ast.Spanned[[]string] {
	if s, err := v.AsString(); err == nil {
		return &ast.Spanned[[]string]{Value: []string{s}, Span: v.Span}
	}
	arr, err := v.AsArray()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "name_word_boundaries: expected string or array")
		return nil
	}
	var out []string
	for _, e := range arr {
		s, err := e.AsString()
		if err != nil {
			sink.Errorf(e.Span, diag.KindSchemaWrongKind, "name_word_boundaries entry: %v", err)
			continue
		}
		out = append(out, s)
	}
	return &ast.Spanned[[]string]{Value: out, Span: v.Span}
}

func deserializeObject(file, name string, v manifest.Value, sink *diag.Sink) *ast.Object {
	keys, m, err := v.AsMap()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "object %q: %v", name, err)
		return nil
	}
	typeVal, ok := v.Get("type")
	if !ok {
		sink.Errorf(v.Span, diag.KindSchemaMissingKey, "object %q missing required key 'type'", name)
		return nil
	}
	typeStr, err := typeVal.AsString()
	if err != nil {
		sink.Errorf(typeVal.Span, diag.KindSchemaWrongKind, "object %q: 'type' must be a string", name)
		return nil
	}

	obj := &ast.Object{
		Name: ident(name, v.Span),
		Kind: ident(typeStr, typeVal.Span),
		Span: v.Span,
	}

	switch typeStr {
	case "block":
		obj.ObjectKind = ast.KindBlock
		obj.Block = deserializeBlock(file, keys, m, sink)
	case "register":
		obj.ObjectKind = ast.KindRegister
		obj.Register = deserializeRegister(file, keys, m, sink)
	case "command":
		obj.ObjectKind = ast.KindCommand
		obj.Command = deserializeCommand(file, keys, m, sink)
	case "buffer":
		obj.ObjectKind = ast.KindBuffer
		obj.Buffer = deserializeBuffer(file, keys, m, sink)
	case "ref":
		obj.ObjectKind = ast.KindRef
		obj.Ref = deserializeRef(file, name, keys, m, v.Span, sink)
	default:
		sink.Errorf(typeVal.Span, diag.KindSchemaWrongKind, "unrecognized object type %q for %q", typeStr, name)
		return nil
	}

	for _, key := range keys {
		val := m[key]
		switch key {
		case "description":
			obj.Doc = deserializeDoc(val, sink)
		case "cfg":
			s, err := val.AsString()
			if err != nil {
				sink.Errorf(val.Span, diag.KindSchemaWrongKind, "cfg: %v", err)
				continue
			}
			obj.Attr = &ast.Attr{Value: s, Span: val.Span}
		}
	}
	return obj
}

func deserializeDoc(v manifest.Value, sink *diag.Sink) *ast.Doc {
	s, err := v.AsString()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "description: %v", err)
		return nil
	}
	return &ast.Doc{Lines: splitLines(s), Span: v.Span}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

var blockKeys = map[string]bool{"type": true, "cfg": true, "description": true, "address": true, "repeat": true, "objects": true}

func deserializeBlock(file string, keys []string, m map[string]manifest.Value, sink *diag.Sink) *ast.BlockBody {
	body := &ast.BlockBody{}
	for _, key := range keys {
		val := m[key]
		if !blockKeys[key] {
			sink.Errorf(val.Span, diag.KindSchemaUnknownKey, "unexpected key %q in block", key)
			continue
		}
		switch key {
		case "address":
			body.AddressOffset = spannedInt(val, sink)
		case "repeat":
			body.Repeat = deserializeRepeat(val, sink)
		case "objects":
			okeys, om, err := val.AsMap()
			if err != nil {
				sink.Errorf(val.Span, diag.KindSchemaWrongKind, "objects: %v", err)
				continue
			}
			for _, ok := range okeys {
				obj := deserializeObject(file, ok, om[ok], sink)
				if obj != nil {
					body.Objects = append(body.Objects, *obj)
				}
			}
		}
	}
	return body
}

func spannedInt(v manifest.Value, sink *diag.Sink) *ast.Spanned[int64] {
	i, err := v.AsInteger()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "expected integer: %v", err)
		return nil
	}
	return &ast.Spanned[int64]{Value: i, Span: v.Span}
}

func spannedBool(v manifest.Value, sink *diag.Sink) *ast.Spanned[bool] {
	b, err := v.AsBool()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "expected boolean: %v", err)
		return nil
	}
	return &ast.Spanned[bool]{Value: b, Span: v.Span}
}

func deserializeRepeat(v manifest.Value, sink *diag.Sink) *ast.Repeat {
	_, m, err := v.AsMap()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "repeat: %v", err)
		return nil
	}
	r := &ast.Repeat{Span: v.Span}
	if countVal, ok := m["count"]; ok {
		if i, err := countVal.AsInteger(); err == nil {
			r.Count = i
		} else {
			sink.Errorf(countVal.Span, diag.KindSchemaWrongKind, "repeat.count: %v", err)
		}
	} else {
		sink.Errorf(v.Span, diag.KindSchemaMissingKey, "repeat missing required key 'count'")
	}
	if strideVal, ok := m["stride"]; ok {
		if i, err := strideVal.AsInteger(); err == nil {
			r.Stride = i
		} else {
			sink.Errorf(strideVal.Span, diag.KindSchemaWrongKind, "repeat.stride: %v", err)
		}
	} else {
		sink.Errorf(v.Span, diag.KindSchemaMissingKey, "repeat missing required key 'stride'")
	}
	return r
}

var registerKeys = map[string]bool{
	"type": true, "cfg": true, "description": true, "access": true, "byte_order": true,
	"bit_order": true, "address": true, "size_bits": true, "reset_value": true, "repeat": true,
	"allow_bit_overlap": true, "allow_address_overlap": true, "fields": true,
}

func deserializeRegister(file string, keys []string, m map[string]manifest.Value, sink *diag.Sink) *ast.RegisterBody {
	body := &ast.RegisterBody{}
	for _, key := range keys {
		val := m[key]
		if !registerKeys[key] {
			sink.Errorf(val.Span, diag.KindSchemaUnknownKey, "unexpected key %q in register", key)
			continue
		}
		switch key {
		case "access":
			body.Access = spannedAccess(file, val, sink)
		case "byte_order":
			body.ByteOrder = spannedByteOrder(file, val, sink)
		case "bit_order":
			body.BitOrder = spannedBitOrder(file, val, sink)
		case "address":
			body.Address = spannedInt(val, sink)
		case "size_bits":
			body.SizeBits = spannedInt(val, sink)
		case "reset_value":
			body.ResetValue = deserializeResetValue(val, sink)
		case "repeat":
			body.Repeat = deserializeRepeat(val, sink)
		case "allow_bit_overlap":
			body.AllowBitOverlap = spannedBool(val, sink)
		case "allow_address_overlap":
			body.AllowAddressOverlap = spannedBool(val, sink)
		case "fields":
			body.Fields = deserializeFields(val, sink)
		}
	}
	if body.Address == nil {
		sink.Errorf(diag.Span{}, diag.KindSchemaMissingKey, "register missing required key 'address'")
	}
	if body.SizeBits == nil {
		sink.Errorf(diag.Span{}, diag.KindSchemaMissingKey, "register missing required key 'size_bits'")
	}
	return body
}

func deserializeResetValue(v manifest.Value, sink *diag.Sink) *ast.ResetValue {
	if i, err := v.AsInteger(); err == nil {
		return &ast.ResetValue{Integer: &ast.Spanned[int64]{Value: i, Span: v.Span}, Span: v.Span}
	}
	arr, err := v.AsArray()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "reset_value: expected integer or array of integers")
		return nil
	}
	bytes := make([]int64, 0, len(arr))
	for _, e := range arr {
		i, err := e.AsInteger()
		if err != nil {
			sink.Errorf(e.Span, diag.KindSchemaWrongKind, "reset_value entry: %v", err)
			continue
		}
		bytes = append(bytes, i)
	}
	return &ast.ResetValue{Bytes: &ast.Spanned[[]int64]{Value: bytes, Span: v.Span}, Span: v.Span}
}

func deserializeFields(v manifest.Value, sink *diag.Sink) []ast.FieldDecl {
	keys, m, err := v.AsMap()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "fields: %v", err)
		return nil
	}
	fields := make([]ast.FieldDecl, 0, len(keys))
	for _, key := range keys {
		f := deserializeField(key, m[key], sink)
		if f != nil {
			fields = append(fields, *f)
		}
	}
	return fields
}

var fieldKeys = map[string]bool{
	"description": true, "access": true, "type": true, "address": true,
	"conversion": true, "try_conversion": true,
}

func deserializeField(name string, v manifest.Value, sink *diag.Sink) *ast.FieldDecl {
	keys, m, err := v.AsMap()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "field %q: %v", name, err)
		return nil
	}
	fd := &ast.FieldDecl{Name: ident(name, v.Span), Span: v.Span}
	for _, key := range keys {
		val := m[key]
		if !fieldKeys[key] {
			sink.Errorf(val.Span, diag.KindSchemaUnknownKey, "unexpected key %q in field %q", key, name)
			continue
		}
		switch key {
		case "description":
			fd.Doc = deserializeDoc(val, sink)
		case "access":
			fd.Access = spannedAccess("", val, sink)
		case "type":
			fd.BaseType = deserializeBaseType(val, sink)
		case "address":
			start, end, ok := deserializeFieldAddress(val, sink)
			if ok {
				fd.Start, fd.End = start, end
			}
		case "conversion":
			fd.Conversion = deserializeConversion(val, ast.ConversionAs, sink)
		case "try_conversion":
			if fd.Conversion != nil {
				sink.Errorf(val.Span, diag.KindConversionConflict, "field %q has both 'conversion' and 'try_conversion'", name)
				continue
			}
			fd.Conversion = deserializeConversion(val, ast.ConversionAsTry, sink)
		}
	}
	return fd
}

func deserializeBaseType(v manifest.Value, sink *diag.Sink) *ast.Spanned[ast.BaseType] {
	s, err := v.AsString()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "type: %v", err)
		return nil
	}
	switch s {
	case "bool":
		return &ast.Spanned[ast.BaseType]{Value: ast.BaseTypeBool, Span: v.Span}
	case "uint":
		return &ast.Spanned[ast.BaseType]{Value: ast.BaseTypeUint, Span: v.Span}
	case "int":
		return &ast.Spanned[ast.BaseType]{Value: ast.BaseTypeInt, Span: v.Span}
	default:
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "unrecognized base type %q, expected bool, uint or int", s)
		return nil
	}
}

// deserializeFieldAddress accepts either a single bit index (a one-bit
// field) or a two-element [start, end) array.
func deserializeFieldAddress(v manifest.Value, sink *diag.Sink) (start, end int64, ok bool) {
	if i, err := v.AsInteger(); err == nil {
		return i, i + 1, true
	}
	arr, err := v.AsArray()
	if err != nil || len(arr) != 2 {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "address: expected an integer or a [start, end) pair")
		return 0, 0, false
	}
	s, err1 := arr[0].AsInteger()
	e, err2 := arr[1].AsInteger()
	if err1 != nil || err2 != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "address: pair entries must be integers")
		return 0, 0, false
	}
	return s, e, true
}

func deserializeConversion(v manifest.Value, kw ast.ConversionKeyword, sink *diag.Sink) *ast.ConversionDecl {
	if s, err := v.AsString(); err == nil {
		return &ast.ConversionDecl{Keyword: kw, TypePath: &ast.Spanned[string]{Value: s, Span: v.Span}, Span: v.Span}
	}
	keys, m, err := v.AsMap()
	if err != nil {
		sink.Errorf(v.Span, diag.KindSchemaWrongKind, "conversion: expected a type path string or an inline enum map")
		return nil
	}
	nameVal, ok := m["name"]
	if !ok {
		sink.Errorf(v.Span, diag.KindSchemaMissingKey, "inline enum missing required key 'name'")
		return nil
	}
	nameStr, err := nameVal.AsString()
	if err != nil {
		sink.Errorf(nameVal.Span, diag.KindSchemaWrongKind, "enum 'name': %v", err)
		return nil
	}
	enumDecl := &ast.EnumDecl{Name: ident(nameStr, nameVal.Span), Span: v.Span}
	for _, key := range keys {
		if key == "name" {
			continue
		}
		variant := deserializeVariant(key, m[key], sink)
		if variant != nil {
			enumDecl.Variants = append(enumDecl.Variants, *variant)
		}
	}
	return &ast.ConversionDecl{Keyword: kw, Enum: enumDecl, Span: v.Span}
}

func deserializeVariant(name string, v manifest.Value, sink *diag.Sink) *ast.EnumVariantDecl {
	variant := &ast.EnumVariantDecl{Name: ident(name, v.Span), Span: v.Span, ValueKind: ast.VariantAuto}

	setValue := func(val manifest.Value) {
		if val.Kind == manifest.KindNull {
			variant.ValueKind = ast.VariantAuto
			return
		}
		if s, err := val.AsString(); err == nil {
			switch s {
			case "default":
				variant.ValueKind = ast.VariantDefault
				return
			case "catch_all":
				variant.ValueKind = ast.VariantCatchAll
				return
			}
		}
		if i, err := val.AsInteger(); err == nil {
			variant.ValueKind = ast.VariantExplicit
			variant.Value = i
			return
		}
		sink.Errorf(val.Span, diag.KindSchemaWrongKind, "enum variant %q: value must be null, an integer, \"default\" or \"catch_all\"", name)
	}

	switch v.Kind {
	case manifest.KindMap:
		_, m, _ := v.AsMap()
		if descVal, ok := m["description"]; ok {
			variant.Doc = deserializeDoc(descVal, sink)
		}
		if valueVal, ok := m["value"]; ok {
			setValue(valueVal)
		}
	default:
		setValue(v)
	}
	return variant
}

var commandKeys = map[string]bool{
	"type": true, "cfg": true, "description": true, "byte_order": true, "bit_order": true,
	"address": true, "repeat": true, "allow_bit_overlap": true, "allow_address_overlap": true,
	"fields_in": true, "fields_out": true, "size_bits_in": true, "size_bits_out": true,
}

func deserializeCommand(file string, keys []string, m map[string]manifest.Value, sink *diag.Sink) *ast.CommandBody {
	body := &ast.CommandBody{}
	var in, out *ast.CommandSide
	getIn := func() *ast.CommandSide {
		if in == nil {
			in = &ast.CommandSide{}
		}
		return in
	}
	getOut := func() *ast.CommandSide {
		if out == nil {
			out = &ast.CommandSide{}
		}
		return out
	}
	for _, key := range keys {
		val := m[key]
		if !commandKeys[key] {
			sink.Errorf(val.Span, diag.KindSchemaUnknownKey, "unexpected key %q in command", key)
			continue
		}
		switch key {
		case "byte_order":
			body.ByteOrder = spannedByteOrder(file, val, sink)
		case "bit_order":
			body.BitOrder = spannedBitOrder(file, val, sink)
		case "address":
			body.Address = spannedInt(val, sink)
		case "repeat":
			body.Repeat = deserializeRepeat(val, sink)
		case "allow_bit_overlap":
			body.AllowBitOverlap = spannedBool(val, sink)
		case "allow_address_overlap":
			body.AllowAddressOverlap = spannedBool(val, sink)
		case "fields_in":
			getIn().Fields = deserializeFields(val, sink)
		case "fields_out":
			getOut().Fields = deserializeFields(val, sink)
		case "size_bits_in":
			getIn().SizeBits = spannedInt(val, sink)
		case "size_bits_out":
			getOut().SizeBits = spannedInt(val, sink)
		}
	}
	body.In, body.Out = in, out
	return body
}

var bufferKeys = map[string]bool{"type": true, "cfg": true, "description": true, "access": true, "address": true}

func deserializeBuffer(file string, keys []string, m map[string]manifest.Value, sink *diag.Sink) *ast.BufferBody {
	body := &ast.BufferBody{}
	for _, key := range keys {
		val := m[key]
		if !bufferKeys[key] {
			sink.Errorf(val.Span, diag.KindSchemaUnknownKey, "unexpected key %q in buffer", key)
			continue
		}
		switch key {
		case "access":
			body.Access = spannedAccess(file, val, sink)
		case "address":
			body.Address = spannedInt(val, sink)
		}
	}
	if body.Address == nil {
		sink.Errorf(diag.Span{}, diag.KindSchemaMissingKey, "buffer missing required key 'address'")
	}
	return body
}

var refKeys = map[string]bool{"type": true, "cfg": true, "description": true, "target_kind": true, "target": true, "override": true}

func deserializeRef(file, name string, keys []string, m map[string]manifest.Value, span diag.Span, sink *diag.Sink) *ast.RefBody {
	body := &ast.RefBody{Span: span}
	var targetKindStr string
	for _, key := range keys {
		val := m[key]
		if !refKeys[key] {
			sink.Errorf(val.Span, diag.KindSchemaUnknownKey, "unexpected key %q in ref", key)
			continue
		}
		switch key {
		case "target_kind":
			s, err := val.AsString()
			if err != nil {
				sink.Errorf(val.Span, diag.KindSchemaWrongKind, "target_kind: %v", err)
				continue
			}
			targetKindStr = s
		case "target":
			s, err := val.AsString()
			if err != nil {
				sink.Errorf(val.Span, diag.KindSchemaWrongKind, "target: %v", err)
				continue
			}
			body.Target = ident(s, val.Span)
		case "override":
			overrideKeys, overrideMap, err := val.AsMap()
			if err != nil {
				sink.Errorf(val.Span, diag.KindSchemaWrongKind, "override: %v", err)
				continue
			}
			body.Override = buildOverrideObject(file, name, targetKindStr, overrideKeys, overrideMap, val.Span, sink)
		}
	}
	switch targetKindStr {
	case "register":
		body.TargetKind = ast.KindRegister
	case "command":
		body.TargetKind = ast.KindCommand
	case "block":
		body.TargetKind = ast.KindBlock
	default:
		sink.Errorf(span, diag.KindSchemaWrongKind, "ref %q: target_kind must be one of \"register\", \"command\", \"block\"", name)
	}
	if body.Target.Original == "" {
		sink.Errorf(span, diag.KindSchemaMissingKey, "ref %q missing required key 'target'", name)
	}
	return body
}

// buildOverrideObject re-uses the kind-specific deserializers so an
// override body accepts the same keys as a full object definition of
// that kind. internal/lower is responsible for rejecting overrides of
// structural keys (size_bits, fields, byte_order, bit_order) per
// spec.md §4.E step 3.
func buildOverrideObject(file, name, kindStr string, keys []string, m map[string]manifest.Value, span diag.Span, sink *diag.Sink) ast.Object {
	obj := ast.Object{Name: ident(name, span), Span: span}
	switch kindStr {
	case "register":
		obj.ObjectKind = ast.KindRegister
		obj.Register = deserializeRegisterOverride(file, keys, m, sink)
	case "command":
		obj.ObjectKind = ast.KindCommand
		obj.Command = deserializeCommand(file, keys, m, sink)
	case "block":
		obj.ObjectKind = ast.KindBlock
		obj.Block = deserializeBlock(file, keys, m, sink)
	default:
		sink.Errorf(span, diag.KindSchemaWrongKind, "cannot build override for unknown target kind %q", kindStr)
	}
	return obj
}

// deserializeRegisterOverride is like deserializeRegister but does not
// demand 'address'/'size_bits' (an override may legitimately omit them,
// inheriting from the ref's target); internal/lower enforces which keys
// may actually be overridden.
func deserializeRegisterOverride(file string, keys []string, m map[string]manifest.Value, sink *diag.Sink) *ast.RegisterBody {
	body := &ast.RegisterBody{}
	for _, key := range keys {
		val := m[key]
		if !registerKeys[key] {
			sink.Errorf(val.Span, diag.KindSchemaUnknownKey, "unexpected key %q in ref override", key)
			continue
		}
		switch key {
		case "access":
			body.Access = spannedAccess(file, val, sink)
		case "byte_order":
			body.ByteOrder = spannedByteOrder(file, val, sink)
		case "bit_order":
			body.BitOrder = spannedBitOrder(file, val, sink)
		case "address":
			body.Address = spannedInt(val, sink)
		case "size_bits":
			body.SizeBits = spannedInt(val, sink)
		case "reset_value":
			body.ResetValue = deserializeResetValue(val, sink)
		case "repeat":
			body.Repeat = deserializeRepeat(val, sink)
		case "allow_bit_overlap":
			body.AllowBitOverlap = spannedBool(val, sink)
		case "allow_address_overlap":
			body.AllowAddressOverlap = spannedBool(val, sink)
		case "fields":
			body.Fields = deserializeFields(val, sink)
		}
	}
	return body
}
