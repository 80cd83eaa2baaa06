// Package lower implements Lowering & Normalization (spec.md §4.E): it
// turns a surface AST into an IR, resolving references, merging
// overrides, propagating defaults and normalizing identifiers. The
// semantic checks that validate the result (internal/semantic) run
// afterward, against the IR this package produces.
package lower

import (
	"omibyte.io/devicedriver/internal/ast"
	"omibyte.io/devicedriver/internal/diag"
	"omibyte.io/devicedriver/internal/ir"
)

type context struct {
	sink       *diag.Sink
	boundaries []string
	addrTypes  ir.AddressTypes
	defaults   ir.Defaults
}

// LowerDevice runs all six ordered steps of spec.md §4.E and returns the
// resulting IR. name is supplied by the caller (the top-level devicedriver package),
// since neither the DSL nor the manifest grammar carries a device name
// of its own.
func LowerDevice(name string, dev *ast.Device, sink *diag.Sink) *ir.Device {
	if dev == nil {
		return nil
	}
	c := &context{sink: sink, boundaries: DefaultBoundaries}
	if dev.Config != nil && dev.Config.NameWordBoundaries != nil {
		c.boundaries = dev.Config.NameWordBoundaries.Value
	}
	c.addrTypes, c.defaults = elaborateConfig(dev.Config)

	rootCanonical, _ := Normalize(name, c.boundaries)
	root := &ir.Block{
		Name:          rootCanonical,
		OriginalName:  name,
		AddressOffset: 0,
		Span:          dev.Span,
	}
	root.Children = c.lowerObjects(dev.Objects)

	return &ir.Device{
		Name:           rootCanonical,
		AddressTypes:   c.addrTypes,
		Defaults:       c.defaults,
		NameBoundaries: c.boundaries,
		RootBlock:      root,
		Span:           dev.Span,
	}
}

func elaborateConfig(cfg *ast.GlobalConfig) (ir.AddressTypes, ir.Defaults) {
	defaults := ir.Defaults{
		RegisterAccess: ir.AccessRW,
		FieldAccess:    ir.AccessRW,
		BufferAccess:   ir.AccessRW,
		BitOrder:       ir.LSB0, // spec.md §4.E step 1: bit_order defaults to LSB0 when absent
	}
	var addrTypes ir.AddressTypes
	if cfg == nil {
		return addrTypes, defaults
	}
	if cfg.RegisterAddressType != nil {
		addrTypes.Register = ir.AddrType(cfg.RegisterAddressType.Value)
	}
	if cfg.CommandAddressType != nil {
		addrTypes.Command = ir.AddrType(cfg.CommandAddressType.Value)
	}
	if cfg.BufferAddressType != nil {
		addrTypes.Buffer = ir.AddrType(cfg.BufferAddressType.Value)
	}
	if cfg.DefaultRegisterAccess != nil {
		defaults.RegisterAccess = toIRAccess(cfg.DefaultRegisterAccess.Value)
	}
	if cfg.DefaultFieldAccess != nil {
		defaults.FieldAccess = toIRAccess(cfg.DefaultFieldAccess.Value)
	}
	if cfg.DefaultBufferAccess != nil {
		defaults.BufferAccess = toIRAccess(cfg.DefaultBufferAccess.Value)
	}
	if cfg.DefaultByteOrder != nil {
		bo := toIRByteOrder(cfg.DefaultByteOrder.Value)
		defaults.ByteOrder = &bo
	}
	if cfg.DefaultBitOrder != nil {
		defaults.BitOrder = toIRBitOrder(cfg.DefaultBitOrder.Value)
	}
	return addrTypes, defaults
}

func toIRAccess(a ast.Access) ir.Access {
	switch a {
	case ast.AccessRO:
		return ir.AccessRO
	case ast.AccessWO:
		return ir.AccessWO
	default:
		return ir.AccessRW
	}
}

func toIRByteOrder(b ast.ByteOrder) ir.ByteOrder {
	if b == ast.BE {
		return ir.BE
	}
	return ir.LE
}

func toIRBitOrder(b ast.BitOrder) ir.BitOrder {
	if b == ast.MSB0 {
		return ir.MSB0
	}
	return ir.LSB0
}

// pendingResetOverride records a ref's reset_value override so that,
// once the referenced sibling has been lowered into an IR Register, the
// override can be recorded on it as ref_reset_overrides (spec.md §4.E
// step 3) rather than only on the ref's own copy.
type pendingResetOverride struct {
	targetCanonical string
	refName         string
	resetAST        *ast.ResetValue
}

// lowerObjects lowers one sibling scope (the device's top level, or one
// block's body), resolving any Ref objects against the other siblings
// in the same scope before lowering each into an IR node.
func (c *context) lowerObjects(objects []ast.Object) []ir.Node {
	resolved, pending := c.resolveRefs(objects)

	nodes := make([]ir.Node, 0, len(resolved))
	for _, obj := range resolved {
		if obj.ObjectKind < ast.KindBlock || obj.ObjectKind > ast.KindRef {
			continue // resolveRefs marks unresolved refs with an out-of-range sentinel
		}
		node := c.lowerObject(obj)
		if node != nil {
			nodes = append(nodes, node)
		}
	}

	for _, p := range pending {
		for _, n := range nodes {
			reg, ok := n.(*ir.Register)
			if !ok || reg.Name != p.targetCanonical {
				continue
			}
			bytes := c.canonicalizeResetValue(p.resetAST, reg.ByteOrder, reg.BitOrder, reg.SizeBits)
			if reg.RefResetOverrides == nil {
				reg.RefResetOverrides = map[string][]byte{}
			}
			reg.RefResetOverrides[p.refName] = bytes
			break
		}
	}
	return nodes
}

const invalidKind = ast.ObjectKind(-1)

func (c *context) resolveRefs(objects []ast.Object) ([]ast.Object, []pendingResetOverride) {
	index := map[string]int{}
	for i, o := range objects {
		if o.ObjectKind == ast.KindRef {
			continue
		}
		canon, _ := Normalize(o.Name.Original, c.boundaries)
		index[canon] = i
	}

	out := make([]ast.Object, len(objects))
	copy(out, objects)
	var pending []pendingResetOverride

	for i, o := range objects {
		if o.ObjectKind != ast.KindRef {
			continue
		}
		merged, resetOverride, ok := c.resolveRef(o, objects, index)
		if !ok {
			out[i] = ast.Object{ObjectKind: invalidKind}
			continue
		}
		out[i] = merged
		if resetOverride != nil {
			targetCanon, _ := Normalize(o.Ref.Target.Original, c.boundaries)
			pending = append(pending, pendingResetOverride{
				targetCanonical: targetCanon,
				refName:         o.Name.Original,
				resetAST:        resetOverride,
			})
		}
	}
	return out, pending
}

func (c *context) resolveRef(refObj ast.Object, siblings []ast.Object, index map[string]int) (ast.Object, *ast.ResetValue, bool) {
	ref := refObj.Ref
	targetCanon, _ := Normalize(ref.Target.Original, c.boundaries)
	ti, ok := index[targetCanon]
	if !ok {
		c.sink.Errorf(ref.Target.Span, diag.KindRefTargetMissing, "ref target %q not found in enclosing scope", ref.Target.Original)
		return ast.Object{}, nil, false
	}
	target := siblings[ti]
	if target.ObjectKind == ast.KindRef {
		c.sink.Errorf(ref.Target.Span, diag.KindRefTargetIsRef, "ref target %q is itself a ref", ref.Target.Original)
		return ast.Object{}, nil, false
	}
	if target.ObjectKind != ref.TargetKind {
		c.sink.Errorf(refObj.Span, diag.KindRefKindMismatch, "ref %q declares target kind %s but %q is a different kind", refObj.Name.Original, refObj.Kind.Original, ref.Target.Original)
		return ast.Object{}, nil, false
	}

	merged := target
	cloneBody(&merged)
	merged.Name = refObj.Name
	merged.Span = refObj.Span
	if refObj.Doc != nil {
		merged.Doc = refObj.Doc
	}
	if refObj.Attr != nil {
		merged.Attr = refObj.Attr
	}

	resetOverride := c.applyOverride(&merged, ref.Override, refObj.Name.Original)
	return merged, resetOverride, true
}

// cloneBody shallow-copies obj's kind-specific body so that applying a
// ref's override never mutates the sibling it was copied from (Object's
// per-kind fields are pointers; without this, merged and target would
// alias the same body struct).
func cloneBody(obj *ast.Object) {
	switch obj.ObjectKind {
	case ast.KindRegister:
		if obj.Register != nil {
			clone := *obj.Register
			obj.Register = &clone
		}
	case ast.KindCommand:
		if obj.Command != nil {
			clone := *obj.Command
			obj.Command = &clone
		}
	case ast.KindBlock:
		if obj.Block != nil {
			clone := *obj.Block
			obj.Block = &clone
		}
	case ast.KindBuffer:
		if obj.Buffer != nil {
			clone := *obj.Buffer
			obj.Buffer = &clone
		}
	}
}

// applyOverride merges ref.Override's non-structural fields onto merged,
// in place, returning the override's reset_value AST node (if present)
// for the caller to canonicalize once merged's byte/bit order is known.
// Structural keys are rejected with KindRefOverrideForbidden.
func (c *context) applyOverride(merged *ast.Object, override ast.Object, refName string) *ast.ResetValue {
	switch merged.ObjectKind {
	case ast.KindRegister:
		return c.applyRegisterOverride(merged, override, refName)
	case ast.KindCommand:
		c.applyCommandOverride(merged, override, refName)
	case ast.KindBlock:
		c.applyBlockOverride(merged, override, refName)
	case ast.KindBuffer:
		c.applyBufferOverride(merged, override, refName)
	}
	return nil
}

func (c *context) forbid(span diag.Span, refName, key string) {
	c.sink.Errorf(span, diag.KindRefOverrideForbidden, "ref %q cannot override structural key %q", refName, key)
}

func (c *context) applyRegisterOverride(merged *ast.Object, override ast.Object, refName string) *ast.ResetValue {
	if override.Register == nil {
		return nil
	}
	ov, tgt := override.Register, merged.Register
	if ov.SizeBits != nil {
		c.forbid(ov.SizeBits.Span, refName, "size_bits")
	}
	if ov.ByteOrder != nil {
		c.forbid(ov.ByteOrder.Span, refName, "byte_order")
	}
	if ov.BitOrder != nil {
		c.forbid(ov.BitOrder.Span, refName, "bit_order")
	}
	if ov.Fields != nil {
		c.forbid(override.Span, refName, "fields")
	}
	if ov.Access != nil {
		tgt.Access = ov.Access
	}
	if ov.Address != nil {
		tgt.Address = ov.Address
	}
	if ov.Repeat != nil {
		tgt.Repeat = ov.Repeat
	}
	if ov.AllowBitOverlap != nil {
		tgt.AllowBitOverlap = ov.AllowBitOverlap
	}
	if ov.AllowAddressOverlap != nil {
		tgt.AllowAddressOverlap = ov.AllowAddressOverlap
	}
	if ov.ResetValue != nil {
		tgt.ResetValue = ov.ResetValue
	}
	return ov.ResetValue
}

func (c *context) applyCommandOverride(merged *ast.Object, override ast.Object, refName string) {
	if override.Command == nil {
		return
	}
	ov, tgt := override.Command, merged.Command
	if ov.ByteOrder != nil {
		c.forbid(ov.ByteOrder.Span, refName, "byte_order")
	}
	if ov.BitOrder != nil {
		c.forbid(ov.BitOrder.Span, refName, "bit_order")
	}
	if ov.In != nil && ov.In.Fields != nil {
		c.forbid(ov.In.Span, refName, "fields_in")
	}
	if ov.Out != nil && ov.Out.Fields != nil {
		c.forbid(ov.Out.Span, refName, "fields_out")
	}
	if ov.In != nil && ov.In.SizeBits != nil {
		c.forbid(ov.In.SizeBits.Span, refName, "size_bits_in")
	}
	if ov.Out != nil && ov.Out.SizeBits != nil {
		c.forbid(ov.Out.SizeBits.Span, refName, "size_bits_out")
	}
	if ov.Address != nil {
		tgt.Address = ov.Address
	}
	if ov.Repeat != nil {
		tgt.Repeat = ov.Repeat
	}
	if ov.AllowBitOverlap != nil {
		tgt.AllowBitOverlap = ov.AllowBitOverlap
	}
	if ov.AllowAddressOverlap != nil {
		tgt.AllowAddressOverlap = ov.AllowAddressOverlap
	}
}

func (c *context) applyBlockOverride(merged *ast.Object, override ast.Object, refName string) {
	if override.Block == nil {
		return
	}
	ov, tgt := override.Block, merged.Block
	if ov.Objects != nil {
		c.forbid(override.Span, refName, "objects")
	}
	if ov.AddressOffset != nil {
		tgt.AddressOffset = ov.AddressOffset
	}
	if ov.Repeat != nil {
		tgt.Repeat = ov.Repeat
	}
}

func (c *context) applyBufferOverride(merged *ast.Object, override ast.Object, refName string) {
	if override.Buffer == nil {
		return
	}
	ov, tgt := override.Buffer, merged.Buffer
	if ov.Access != nil {
		tgt.Access = ov.Access
	}
	if ov.Address != nil {
		tgt.Address = ov.Address
	}
}

func (c *context) lowerObject(obj ast.Object) ir.Node {
	canonical, _ := Normalize(obj.Name.Original, c.boundaries)
	switch obj.ObjectKind {
	case ast.KindBlock:
		return c.lowerBlock(obj, canonical)
	case ast.KindRegister:
		return c.lowerRegister(obj, canonical)
	case ast.KindCommand:
		return c.lowerCommand(obj, canonical)
	case ast.KindBuffer:
		return c.lowerBuffer(obj, canonical)
	default:
		return nil
	}
}

func docLines(d *ast.Doc) []string {
	if d == nil {
		return nil
	}
	return d.Lines
}

func attrString(a *ast.Attr) string {
	if a == nil {
		return ""
	}
	return a.Value
}

func lowerRepeat(r *ast.Repeat) *ir.Repeat {
	if r == nil {
		return nil
	}
	return &ir.Repeat{Count: r.Count, Stride: r.Stride}
}

func (c *context) lowerBlock(obj ast.Object, canonical string) *ir.Block {
	body := obj.Block
	if body == nil {
		body = &ast.BlockBody{}
	}
	var offset int64
	if body.AddressOffset != nil {
		offset = body.AddressOffset.Value
	}
	b := &ir.Block{
		Name:          canonical,
		OriginalName:  obj.Name.Original,
		Doc:           docLines(obj.Doc),
		Attr:          attrString(obj.Attr),
		AddressOffset: offset,
		Repeat:        lowerRepeat(body.Repeat),
		Span:          obj.Span,
	}
	b.Children = c.lowerObjects(body.Objects)
	return b
}

func (c *context) lowerRegister(obj ast.Object, canonical string) *ir.Register {
	body := obj.Register
	if body == nil {
		body = &ast.RegisterBody{}
	}
	access := c.defaults.RegisterAccess
	if body.Access != nil {
		access = toIRAccess(body.Access.Value)
	}
	byteOrder, byteOrderSet := c.resolveByteOrder(body.ByteOrder)
	bitOrder := c.defaults.BitOrder
	if body.BitOrder != nil {
		bitOrder = toIRBitOrder(body.BitOrder.Value)
	}
	var address, sizeBits int64
	if body.Address != nil {
		address = body.Address.Value
	}
	if body.SizeBits != nil {
		sizeBits = body.SizeBits.Value
	}

	reg := &ir.Register{
		Name:                canonical,
		OriginalName:        obj.Name.Original,
		Doc:                 docLines(obj.Doc),
		Attr:                attrString(obj.Attr),
		Access:              access,
		ByteOrder:           byteOrder,
		BitOrder:            bitOrder,
		Address:             address,
		SizeBits:            sizeBits,
		Repeat:              lowerRepeat(body.Repeat),
		AllowBitOverlap:     boolOr(body.AllowBitOverlap, false),
		AllowAddressOverlap: boolOr(body.AllowAddressOverlap, false),
		Span:                obj.Span,
	}
	if sizeBits > 8 && !byteOrderSet {
		c.sink.Errorf(obj.Span, diag.KindByteOrderRequired, "register %q spans more than one byte but no byte order is set", obj.Name.Original)
	}
	reg.Fields = c.lowerFields(body.Fields)
	reg.ResetValue = c.canonicalizeResetValue(body.ResetValue, reg.ByteOrder, reg.BitOrder, reg.SizeBits)
	return reg
}

func boolOr(s *ast.Spanned[bool], def bool) bool {
	if s == nil {
		return def
	}
	return s.Value
}

// resolveByteOrder applies the register/command-local override, falling
// back to the global default; ok is false when neither is set, which
// lowerRegister/lowerCommand report as KindByteOrderRequired whenever the
// data section spans more than one byte.
func (c *context) resolveByteOrder(local *ast.Spanned[ast.ByteOrder]) (ir.ByteOrder, bool) {
	if local != nil {
		return toIRByteOrder(local.Value), true
	}
	if c.defaults.ByteOrder != nil {
		return *c.defaults.ByteOrder, true
	}
	return ir.LE, false
}

func (c *context) canonicalizeResetValue(rv *ast.ResetValue, byteOrder ir.ByteOrder, bitOrder ir.BitOrder, sizeBits int64) []byte {
	byteLen := (sizeBits + 7) / 8
	if rv == nil {
		return make([]byte, byteLen)
	}
	if rv.Bytes != nil {
		out := make([]byte, len(rv.Bytes.Value))
		for i, b := range rv.Bytes.Value {
			out[i] = byte(b)
		}
		return out
	}
	if rv.Integer != nil {
		return ir.EncodeReset(byteLen, byteOrder, bitOrder, sizeBits, uint64(rv.Integer.Value))
	}
	return make([]byte, byteLen)
}

func (c *context) lowerCommand(obj ast.Object, canonical string) *ir.Command {
	body := obj.Command
	if body == nil {
		body = &ast.CommandBody{}
	}
	byteOrder, byteOrderSet := c.resolveByteOrder(body.ByteOrder)
	bitOrder := c.defaults.BitOrder
	if body.BitOrder != nil {
		bitOrder = toIRBitOrder(body.BitOrder.Value)
	}
	var address int64
	if body.Address != nil {
		address = body.Address.Value
	}
	if !byteOrderSet {
		if body.In != nil && body.In.SizeBits != nil && body.In.SizeBits.Value > 8 {
			c.sink.Errorf(obj.Span, diag.KindByteOrderRequired, "command %q 'in' spans more than one byte but no byte order is set", obj.Name.Original)
		}
		if body.Out != nil && body.Out.SizeBits != nil && body.Out.SizeBits.Value > 8 {
			c.sink.Errorf(obj.Span, diag.KindByteOrderRequired, "command %q 'out' spans more than one byte but no byte order is set", obj.Name.Original)
		}
	}
	cmd := &ir.Command{
		Name:                canonical,
		OriginalName:        obj.Name.Original,
		Doc:                 docLines(obj.Doc),
		Attr:                attrString(obj.Attr),
		ByteOrder:           byteOrder,
		BitOrder:            bitOrder,
		Address:             address,
		Repeat:              lowerRepeat(body.Repeat),
		AllowBitOverlap:     boolOr(body.AllowBitOverlap, false),
		AllowAddressOverlap: boolOr(body.AllowAddressOverlap, false),
		Span:                obj.Span,
	}
	if body.In != nil {
		cmd.In = c.lowerFieldSet(body.In)
	}
	if body.Out != nil {
		cmd.Out = c.lowerFieldSet(body.Out)
	}
	return cmd
}

func (c *context) lowerFieldSet(side *ast.CommandSide) *ir.FieldSet {
	var sizeBits int64
	if side.SizeBits != nil {
		sizeBits = side.SizeBits.Value
	}
	return &ir.FieldSet{SizeBits: sizeBits, Fields: c.lowerFields(side.Fields)}
}

func (c *context) lowerBuffer(obj ast.Object, canonical string) *ir.Buffer {
	body := obj.Buffer
	if body == nil {
		body = &ast.BufferBody{}
	}
	access := c.defaults.BufferAccess
	if body.Access != nil {
		access = toIRAccess(body.Access.Value)
	}
	var address int64
	if body.Address != nil {
		address = body.Address.Value
	}
	return &ir.Buffer{
		Name:         canonical,
		OriginalName: obj.Name.Original,
		Doc:          docLines(obj.Doc),
		Attr:         attrString(obj.Attr),
		Access:       access,
		Address:      address,
		Span:         obj.Span,
	}
}

func (c *context) lowerFields(decls []ast.FieldDecl) []ir.Field {
	fields := make([]ir.Field, 0, len(decls))
	for _, d := range decls {
		canonical, _ := Normalize(d.Name.Original, c.boundaries)
		access := c.defaults.FieldAccess
		if d.Access != nil {
			access = toIRAccess(d.Access.Value)
		}
		baseType := ir.BaseTypeUint
		if d.BaseType != nil {
			baseType = toIRBaseType(d.BaseType.Value)
		}
		f := ir.Field{
			Name:         canonical,
			OriginalName: d.Name.Original,
			Doc:          docLines(d.Doc),
			Attr:         attrString(d.Attr),
			Access:       access,
			BaseType:     baseType,
			Start:        d.Start,
			End:          d.End,
			Span:         d.Span,
		}
		f.Conversion = c.lowerConversion(d.Conversion, baseType, f.Width())
		fields = append(fields, f)
	}
	return fields
}

func toIRBaseType(b ast.BaseType) ir.BaseType {
	switch b {
	case ast.BaseTypeBool:
		return ir.BaseTypeBool
	case ast.BaseTypeInt:
		return ir.BaseTypeInt
	default:
		return ir.BaseTypeUint
	}
}

func (c *context) lowerConversion(decl *ast.ConversionDecl, baseType ir.BaseType, width int64) ir.Conversion {
	if decl == nil {
		return ir.Conversion{Kind: ir.ConversionNone}
	}
	if decl.TypePath != nil {
		if decl.Keyword == ast.ConversionAsTry {
			return ir.Conversion{Kind: ir.ConversionFallible, TypePath: decl.TypePath.Value}
		}
		return ir.Conversion{Kind: ir.ConversionInfallible, TypePath: decl.TypePath.Value}
	}
	if decl.Enum != nil {
		spec := c.lowerEnum(decl.Enum)
		exhaustive := exhaustive(spec, baseType, width) || spec.HasDefaultOrCatchAll()
		switch {
		case exhaustive && decl.Keyword == ast.ConversionAsTry:
			// spec.md §3: InferredInfallible covers a fallible-looking
			// declaration whose enum happens to be exhaustive anyway.
			return ir.Conversion{Kind: ir.ConversionInferredInfallible, Enum: spec}
		case exhaustive:
			return ir.Conversion{Kind: ir.ConversionInlineEnum, Enum: spec}
		default:
			// spec.md §8 S3: a non-exhaustive enum with no default/catch_all
			// variant is Fallible, independent of whether `try` was used.
			return ir.Conversion{Kind: ir.ConversionFallible, Enum: spec}
		}
	}
	return ir.Conversion{Kind: ir.ConversionNone}
}

// exhaustive reports whether spec's explicit variants alone cover every
// value baseType/width can produce. lowerConversion combines it with the
// presence of a default/catch_all variant to pick between Fallible and
// InlineEnum (or InferredInfallible for an `as try` declaration).
func exhaustive(spec *ir.EnumSpec, baseType ir.BaseType, width int64) bool {
	if baseType == ir.BaseTypeInt {
		return false // spec.md §9 open question: signed coverage is never attempted
	}
	if width >= 63 {
		return false // 2^width would overflow int; treated as non-exhaustive rather than guessed
	}
	total := int64(1) << uint(width)
	seen := map[int64]bool{}
	count := int64(0)
	for _, v := range spec.Variants {
		if v.Kind != ir.VariantExplicit || v.Value < 0 || v.Value >= total {
			continue
		}
		if !seen[v.Value] {
			seen[v.Value] = true
			count++
		}
	}
	return count == total
}

func (c *context) lowerEnum(decl *ast.EnumDecl) *ir.EnumSpec {
	canonical, _ := Normalize(decl.Name.Original, c.boundaries)
	spec := &ir.EnumSpec{Name: canonical, Doc: docLines(decl.Doc), Span: decl.Span}
	next := int64(0)
	for _, v := range decl.Variants {
		vc, _ := Normalize(v.Name.Original, c.boundaries)
		ev := ir.EnumVariant{
			Name:         vc,
			OriginalName: v.Name.Original,
			Doc:          docLines(v.Doc),
			Attr:         attrString(v.Attr),
			Span:         v.Span,
		}
		switch v.ValueKind {
		case ast.VariantDefault:
			ev.Kind = ir.VariantDefault
		case ast.VariantCatchAll:
			ev.Kind = ir.VariantCatchAll
		case ast.VariantExplicit:
			ev.Kind = ir.VariantExplicit
			ev.Value = v.Value
			next = v.Value + 1
		default:
			ev.Kind = ir.VariantExplicit
			ev.Value = next
			next++
		}
		spec.Variants = append(spec.Variants, ev)
	}
	return spec
}
