// Package semantic implements the Semantic Analyzer (spec.md §4.F): a
// set of deterministic checks run against the IR produced by
// internal/lower, each accumulating diagnostics into a shared sink
// rather than aborting on the first problem found.
package semantic

import (
	"golang.org/x/exp/slices"

	"omibyte.io/devicedriver/internal/diag"
	"omibyte.io/devicedriver/internal/ir"
)

// Check runs every pass over dev, reporting violations to sink. The
// caller (the top-level devicedriver package) decides whether to hand
// back the IR based on sink.HasErrors(), per the collect-then-surface
// policy in spec.md §7.
func Check(dev *ir.Device, sink *diag.Sink) {
	if dev == nil || dev.RootBlock == nil {
		return
	}
	kinds := presentKinds(dev.RootBlock)
	checkAddressTypesPresent(dev, kinds, sink)
	checkBlock(dev, dev.RootBlock, sink)
}

type presence struct {
	register, command, buffer bool
}

func presentKinds(b *ir.Block) presence {
	var p presence
	var walk func(*ir.Block)
	walk = func(b *ir.Block) {
		for _, child := range b.Children {
			switch n := child.(type) {
			case *ir.Register:
				p.register = true
			case *ir.Command:
				p.command = true
			case *ir.Buffer:
				p.buffer = true
			case *ir.Block:
				walk(n)
			}
		}
	}
	walk(b)
	return p
}

func checkAddressTypesPresent(dev *ir.Device, p presence, sink *diag.Sink) {
	if p.register && dev.AddressTypes.Register == "" {
		sink.Errorf(dev.Span, diag.KindAddressTypeMissing, "device has at least one register but RegisterAddressType was never configured")
	}
	if p.command && dev.AddressTypes.Command == "" {
		sink.Errorf(dev.Span, diag.KindAddressTypeMissing, "device has at least one command but CommandAddressType was never configured")
	}
	if p.buffer && dev.AddressTypes.Buffer == "" {
		sink.Errorf(dev.Span, diag.KindAddressTypeMissing, "device has at least one buffer but BufferAddressType was never configured")
	}
}

func checkBlock(dev *ir.Device, b *ir.Block, sink *diag.Sink) {
	checkNameUniqueness(b, sink)

	var registers, commands []nodeOccurrence
	for _, child := range b.Children {
		switch n := child.(type) {
		case *ir.Register:
			checkRepeat(n.Repeat, n.Name, sink)
			checkAddressFit(n.Address, dev.AddressTypes.Register, n.Name, n.Span, sink)
			checkRegisterFieldSet(n, sink)
			registers = append(registers, nodeOccurrence{name: n.Name, addr: n.Address, repeat: n.Repeat, allowOverlap: n.AllowAddressOverlap, span: n.Span})
		case *ir.Command:
			checkRepeat(n.Repeat, n.Name, sink)
			checkAddressFit(n.Address, dev.AddressTypes.Command, n.Name, n.Span, sink)
			if n.In != nil {
				checkFieldSet(n.In.Fields, n.In.SizeBits, n.AllowBitOverlap, n.Name+" (in)", n.Span, sink)
			}
			if n.Out != nil {
				checkFieldSet(n.Out.Fields, n.Out.SizeBits, n.AllowBitOverlap, n.Name+" (out)", n.Span, sink)
			}
			commands = append(commands, nodeOccurrence{name: n.Name, addr: n.Address, repeat: n.Repeat, allowOverlap: n.AllowAddressOverlap, span: n.Span})
		case *ir.Buffer:
			checkAddressFit(n.Address, dev.AddressTypes.Buffer, n.Name, n.Span, sink)
		case *ir.Block:
			checkBlock(dev, n, sink)
		}
	}
	checkAddressOverlap(registers, sink)
	checkAddressOverlap(commands, sink)
}

func checkNameUniqueness(b *ir.Block, sink *diag.Sink) {
	seen := map[string]diag.Span{}
	for _, child := range b.Children {
		name, span := childNameAndSpan(child)
		if prior, dup := seen[name]; dup {
			sink.Add(diag.Diagnostic{
				Severity: diag.Error,
				Kind:     diag.KindDuplicateName,
				Primary:  span,
				Secondary: []diag.Label{{Span: prior, Message: "first defined here"}},
				Message:  "duplicate name " + name + " within enclosing block",
			})
			continue
		}
		seen[name] = span
	}
}

func childNameAndSpan(n ir.Node) (string, diag.Span) {
	switch v := n.(type) {
	case *ir.Block:
		return v.Name, v.Span
	case *ir.Register:
		return v.Name, v.Span
	case *ir.Command:
		return v.Name, v.Span
	case *ir.Buffer:
		return v.Name, v.Span
	default:
		return "", diag.Span{}
	}
}

func checkRepeat(r *ir.Repeat, name string, sink *diag.Sink) {
	if r == nil {
		return
	}
	if r.Count > 1 && r.Stride == 0 {
		sink.Errorf(diag.Span{}, diag.KindRepeatStrideZero, "%q repeats %d times with a zero stride", name, r.Count)
	}
}

func checkAddressFit(addr int64, t ir.AddrType, name string, span diag.Span, sink *diag.Sink) {
	if t == "" {
		return // already reported by checkAddressTypesPresent
	}
	if !t.Fits(addr) {
		sink.Errorf(span, diag.KindAddressFit, "address %d of %q does not fit address type %s", addr, name, t)
	}
}

type nodeOccurrence struct {
	name         string
	addr         int64
	repeat       *ir.Repeat
	allowOverlap bool
	span         diag.Span
}

// occurrences returns every effective address this object occupies,
// expanding its repeat (if any) virtually per spec.md §5.
func (o nodeOccurrence) occurrences() []int64 {
	if o.repeat == nil || o.repeat.Count <= 1 {
		return []int64{o.addr}
	}
	out := make([]int64, 0, o.repeat.Count)
	for i := int64(0); i < o.repeat.Count; i++ {
		out = append(out, o.addr+i*o.repeat.Stride)
	}
	return out
}

func checkAddressOverlap(nodes []nodeOccurrence, sink *diag.Sink) {
	// Sorting by base address first makes the pairwise scan's diagnostic
	// order (which occurrence gets blamed as "defined here") follow
	// address order; objects with equal base addresses keep their
	// declaration order.
	slices.SortStableFunc(nodes, func(a, b nodeOccurrence) bool {
		return a.addr < b.addr
	})
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i], nodes[j]
			if a.allowOverlap && b.allowOverlap {
				continue
			}
			if collide(a.occurrences(), b.occurrences()) {
				sink.Add(diag.Diagnostic{
					Severity: diag.Error,
					Kind:     diag.KindAddressOverlap,
					Primary:  b.span,
					Secondary: []diag.Label{{Span: a.span, Message: a.name + " is defined here"}},
					Message:  "address used by " + b.name + " collides with " + a.name,
				})
			}
		}
	}
}

func collide(as, bs []int64) bool {
	set := make(map[int64]bool, len(as))
	for _, a := range as {
		set[a] = true
	}
	for _, b := range bs {
		if set[b] {
			return true
		}
	}
	return false
}

func checkRegisterFieldSet(r *ir.Register, sink *diag.Sink) {
	checkFieldSet(r.Fields, r.SizeBits, r.AllowBitOverlap, r.Name, r.Span, sink)
	checkResetValue(r, sink)
	for _, f := range r.Fields {
		checkEnum(f, sink)
	}
}

func checkFieldSet(fields []ir.Field, sizeBits int64, allowOverlap bool, ownerName string, ownerSpan diag.Span, sink *diag.Sink) {
	for _, f := range fields {
		if f.Start < 0 || f.Start >= f.End || f.End > sizeBits {
			sink.Errorf(f.Span, diag.KindFieldRange, "field %q range [%d, %d) is out of bounds for a %d-bit field-set", f.OriginalName, f.Start, f.End, sizeBits)
			continue
		}
		if f.BaseType == ir.BaseTypeBool && f.Width() != 1 {
			sink.Errorf(f.Span, diag.KindBoolFieldWidth, "bool field %q must span exactly one bit, has width %d", f.OriginalName, f.Width())
		}
	}
	if allowOverlap || sizeBits <= 0 {
		return
	}
	bitmap := make([]string, sizeBits)
	for _, f := range fields {
		if f.Start < 0 || f.End > sizeBits || f.Start >= f.End {
			continue
		}
		for bit := f.Start; bit < f.End; bit++ {
			if owner := bitmap[bit]; owner != "" {
				sink.Errorf(f.Span, diag.KindFieldOverlap, "field %q overlaps field %q at bit %d", f.OriginalName, owner, bit)
			} else {
				bitmap[bit] = f.OriginalName
			}
		}
	}
}

func checkResetValue(r *ir.Register, sink *diag.Sink) {
	byteLen := r.ByteLen()
	if int64(len(r.ResetValue)) != byteLen {
		sink.Errorf(r.Span, diag.KindResetValueSize, "register %q reset value has %d bytes, expected %d", r.OriginalName, len(r.ResetValue), byteLen)
		return
	}
	extraBits := byteLen*8 - r.SizeBits
	if extraBits == 0 || len(r.ResetValue) == 0 {
		return
	}
	lastByte := r.ResetValue[len(r.ResetValue)-1]
	mask := byte(0xFF << uint(8-extraBits))
	if lastByte&mask != 0 {
		sink.Errorf(r.Span, diag.KindResetValueSize, "register %q reset value has nonzero bits above size_bits", r.OriginalName)
	}
}

func checkEnum(f ir.Field, sink *diag.Sink) {
	conv := f.Conversion
	if conv.Enum == nil {
		return
	}
	seenValues := map[int64]bool{}
	var defaultCount, catchAllCount int
	for _, v := range conv.Enum.Variants {
		switch v.Kind {
		case ir.VariantDefault:
			defaultCount++
		case ir.VariantCatchAll:
			catchAllCount++
		case ir.VariantExplicit:
			if seenValues[v.Value] {
				sink.Errorf(v.Span, diag.KindEnumDuplicateValue, "enum %q variant %q duplicates value %d", conv.Enum.Name, v.OriginalName, v.Value)
			}
			seenValues[v.Value] = true
		}
	}
	if defaultCount > 1 {
		sink.Errorf(conv.Enum.Span, diag.KindEnumMultipleDefault, "enum %q has more than one default variant", conv.Enum.Name)
	}
	if catchAllCount > 1 {
		sink.Errorf(conv.Enum.Span, diag.KindEnumMultipleCatchAll, "enum %q has more than one catch_all variant", conv.Enum.Name)
	}
}
